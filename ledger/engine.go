package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"vindex/block"
	"vindex/config"
	verrors "vindex/errors"
	"vindex/events"
	"vindex/logx"
	"vindex/mempool"
	"vindex/monitoring"
	"vindex/staking"
	"vindex/swap"
	"vindex/transaction"
	"vindex/wallet"
)

// Engine is the single writer over chain, account, stake, and pool state.
// Every mutating path runs under one lock, so no two mining cycles and no
// mining cycle concurrent with a mutating query can interleave. Nothing in
// the commit path blocks on I/O; persistence consumes ExportChain from
// outside.
type Engine struct {
	mu sync.RWMutex

	chain    []*block.Block
	mempool  *mempool.Mempool
	accounts *accountStore
	registry *staking.Registry
	pools    map[string]*swap.Pool
	signer   wallet.Signer
	bus      *events.EventBus

	// tx id -> block index, maintained at commit time
	txIndex map[string]uint64

	chainID     string
	reserveAddr string
	circulating float64
	burned      float64

	lastBlockTime time.Time
	now           func() time.Time
	stopCh        chan struct{}
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithClock overrides the engine's time source, including the mempool's and
// stake registry's. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.mempool.SetClock(now)
		e.registry.SetClock(now)
	}
}

// WithSelector overrides the leader selection scheme.
func WithSelector(s staking.LeaderSelector) Option {
	return func(e *Engine) {
		e.registry.SetSelector(s)
	}
}

// NewEngine seeds genesis state and commits block 0. The event bus may be
// nil when no subscriber cares about lifecycle events.
func NewEngine(genesis *config.GenesisConfig, signer wallet.Signer, bus *events.EventBus, opts ...Option) (*Engine, error) {
	if len(genesis.Validators) == 0 {
		return nil, fmt.Errorf("genesis seeds no validators")
	}

	e := &Engine{
		mempool:     mempool.New(),
		accounts:    newAccountStore(),
		pools:       make(map[string]*swap.Pool),
		signer:      signer,
		bus:         bus,
		txIndex:     make(map[string]uint64),
		chainID:     genesis.ChainID,
		reserveAddr: genesis.ReserveAddress,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
	e.registry = staking.NewRegistry(e.accounts)

	for _, opt := range opts {
		opt(e)
	}

	for _, ga := range genesis.Accounts {
		acc := e.accounts.GetOrCreateAccount(ga.Address)
		acc.Balance = ga.Balance
	}
	if err := e.registry.SeedGenesis(genesis.Validators); err != nil {
		return nil, err
	}

	funded := genesis.FundedBalance()
	bonded := genesis.BondedStake()
	reserve := e.accounts.GetOrCreateAccount(genesis.ReserveAddress)
	reserve.Balance = config.TotalSupply - funded - bonded
	e.circulating = funded

	genesisBlock := block.New(0, nil, strings.Repeat("0", 64), genesis.Validators[0].Address)
	if err := genesisBlock.Sign(signer); err != nil {
		return nil, fmt.Errorf("could not sign genesis block: %w", err)
	}
	e.chain = []*block.Block{genesisBlock}
	e.lastBlockTime = e.now()

	monitoring.SetChainHeight(0)
	monitoring.SetCirculatingSupply(e.circulating)
	logx.Info("LEDGER", fmt.Sprintf("Genesis committed for chain %s, reserve %.2f", e.chainID, reserve.Balance))
	return e, nil
}

// AddTransaction validates and admits a transaction, then evaluates the
// auto-mine trigger. Rejections leave no state behind.
func (e *Engine) AddTransaction(tx *transaction.Transaction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := tx.Validate(); err != nil {
		monitoring.RecordTxRejected(monitoring.TxInvalid)
		e.publishFailed(tx.ID, err.Error())
		return err
	}
	if !tx.Verify(e.signer) {
		monitoring.RecordTxRejected(monitoring.TxInvalidSignature)
		e.publishFailed(tx.ID, "invalid signature")
		return verrors.New(verrors.ErrCodeInvalidSignature, "transaction signature is invalid")
	}
	sender := e.accounts.GetAccount(tx.From)
	if sender == nil {
		monitoring.RecordTxRejected(monitoring.TxSenderNotExist)
		e.publishFailed(tx.ID, "sender account does not exist")
		return verrors.Newf(verrors.ErrCodeAccountNotFound, "account %s does not exist", tx.From)
	}
	if sender.Balance < tx.Amount+tx.Fee {
		monitoring.RecordTxRejected(monitoring.TxInsufficientBalance)
		e.publishFailed(tx.ID, "insufficient balance")
		return verrors.Newf(verrors.ErrCodeInsufficientFunds,
			"balance %.4f cannot cover %.4f", sender.Balance, tx.Amount+tx.Fee)
	}
	if err := e.mempool.Add(tx); err != nil {
		monitoring.RecordTxRejected(monitoring.TxDuplicated)
		e.publishFailed(tx.ID, "duplicate transaction")
		return err
	}

	monitoring.RecordTxAdmitted()
	monitoring.SetMempoolSize(e.mempool.Len())
	if e.bus != nil {
		e.bus.Publish(events.NewTransactionAdmitted(tx.ID, tx.From, tx.To, tx.Amount))
	}

	if e.shouldMine() {
		if _, err := e.mineLocked(); err != nil {
			logx.Error("LEDGER", "Auto-mine failed: ", err)
		}
	}
	return nil
}

// shouldMine evaluates the auto-mine trigger under the engine lock.
func (e *Engine) shouldMine() bool {
	pending := e.mempool.Len()
	if pending >= config.MaxBlockTransactions {
		return true
	}
	return pending > 0 && e.now().Sub(e.lastBlockTime) >= config.TargetBlockInterval
}

// MineBlock mines a block from the current mempool. A nil block with nil
// error means there was nothing to mine.
func (e *Engine) MineBlock() (*block.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, err := e.mineLocked()
	if err != nil || b == nil {
		return b, err
	}
	return b.Clone(), nil
}

func (e *Engine) mineLocked() (*block.Block, error) {
	if e.mempool.Len() == 0 {
		return nil, nil
	}

	nextIndex := uint64(len(e.chain))
	producer, err := e.registry.SelectValidator(nextIndex)
	if err != nil {
		return nil, fmt.Errorf("could not select producer: %w", err)
	}

	candidates := e.mempool.Candidates(config.MaxBlockTransactions)
	applied := make([]*transaction.Transaction, 0, len(candidates))
	dropped := make([]string, 0)
	for _, tx := range candidates {
		if err := e.applyTransaction(tx); err != nil {
			logx.Warn("LEDGER", fmt.Sprintf("Dropping tx %s: %v", tx.ID, err))
			monitoring.RecordTxRejected(monitoring.TxApplyFailed)
			e.publishFailed(tx.ID, err.Error())
			dropped = append(dropped, tx.ID)
			continue
		}
		monitoring.RecordTxApplied(string(tx.Type))
		applied = append(applied, tx)
	}
	e.mempool.Remove(dropped)
	if len(applied) == 0 {
		monitoring.SetMempoolSize(e.mempool.Len())
		return nil, nil
	}

	prevHash := e.chain[len(e.chain)-1].Hash
	b := block.New(nextIndex, applied, prevHash, producer)
	if err := b.Sign(e.signer); err != nil {
		return nil, fmt.Errorf("could not sign block %d: %w", nextIndex, err)
	}

	e.chain = append(e.chain, b)
	included := make([]string, 0, len(applied))
	for _, tx := range applied {
		e.txIndex[tx.ID] = nextIndex
		included = append(included, tx.ID)
		if e.bus != nil {
			e.bus.Publish(events.NewTransactionIncluded(tx.ID, nextIndex, b.Hash))
		}
	}
	e.mempool.Remove(included)

	e.registry.RecordProduction(producer, nextIndex)
	if b.Reward > 0 {
		// The base component and tx bonus are minted out of the reserve;
		// the fee component was already debited from senders.
		minted := b.Reward - b.TotalFees
		reserve := e.accounts.GetOrCreateAccount(e.reserveAddr)
		reserve.Balance -= minted
		e.circulating += b.Reward
		if err := e.registry.DistributeRewards(b.Reward, producer); err != nil {
			return nil, fmt.Errorf("could not distribute reward for block %d: %w", nextIndex, err)
		}
	}
	e.lastBlockTime = e.now()

	monitoring.RecordBlockMined(b.TxCount)
	monitoring.SetChainHeight(b.Index)
	monitoring.SetMempoolSize(e.mempool.Len())
	monitoring.SetCirculatingSupply(e.circulating)
	if e.bus != nil {
		e.bus.Publish(events.NewBlockCommitted(b.Index, b.Hash, producer, b.TxCount, b.Reward))
	}
	logx.Info("LEDGER", fmt.Sprintf("Committed block %d with %d txs, producer %s, reward %.4f",
		b.Index, b.TxCount, producer, b.Reward))
	return b, nil
}

func (e *Engine) publishFailed(txID, reason string) {
	if e.bus != nil {
		e.bus.Publish(events.NewTransactionFailed(txID, reason))
	}
}

// CompleteUnstaking releases every expired unbonding position for the
// delegator and returns the total back in circulation.
func (e *Engine) CompleteUnstaking(delegator string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	released := e.registry.CompleteUnstaking(delegator)
	e.circulating += released
	monitoring.SetCirculatingSupply(e.circulating)
	return released
}

// CreateSwapPool registers a pool for the canonical pair key.
func (e *Engine) CreateSwapPool(tokenA, tokenB string, reserveA, reserveB float64) (*swap.Pool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := swap.PairKey(tokenA, tokenB)
	if _, exists := e.pools[key]; exists {
		return nil, verrors.Newf(verrors.ErrCodePoolExists, "pool %s already exists", key)
	}
	pool, err := swap.NewPool(tokenA, tokenB, reserveA, reserveB)
	if err != nil {
		return nil, err
	}
	e.pools[key] = pool
	logx.Info("LEDGER", "Created swap pool ", pool.String())
	return pool.Clone(), nil
}

// BurnTokens moves amount from circulating supply into the burned counter.
func (e *Engine) BurnTokens(amount float64) error {
	if amount <= 0 {
		return verrors.New(verrors.ErrCodeInvalidAmount, "burn amount must be positive")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.circulating -= amount
	e.burned += amount
	monitoring.SetCirculatingSupply(e.circulating)
	monitoring.SetBurnedSupply(e.burned)
	logx.Info("LEDGER", fmt.Sprintf("Burned %.4f tokens, cumulative %.4f", amount, e.burned))
	return nil
}

// Start runs the background auto-mine check until the context is cancelled
// or Stop is called.
func (e *Engine) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.stopCh:
				return
			case <-ticker.C:
				e.mu.Lock()
				if e.shouldMine() {
					if _, err := e.mineLocked(); err != nil {
						logx.Error("LEDGER", "Auto-mine failed: ", err)
					}
				}
				e.mu.Unlock()
				e.mempool.Sweep()
			}
		}
	}()
}

// Stop halts the background auto-mine loop.
func (e *Engine) Stop() {
	close(e.stopCh)
}

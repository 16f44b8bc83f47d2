package ledger

import (
	"vindex/block"
	"vindex/config"
	verrors "vindex/errors"
	"vindex/staking"
	"vindex/swap"
	"vindex/transaction"
	"vindex/types"
)

// ChainLength returns the number of committed blocks including genesis.
func (e *Engine) ChainLength() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.chain)
}

// LatestBlock returns a copy of the newest committed block.
func (e *Engine) LatestBlock() *block.Block {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.chain[len(e.chain)-1].Clone()
}

// GetBlockByIndex returns a copy of the block at the given height.
func (e *Engine) GetBlockByIndex(index uint64) (*block.Block, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if index >= uint64(len(e.chain)) {
		return nil, verrors.Newf(verrors.ErrCodeInternal, "block %d does not exist", index)
	}
	return e.chain[index].Clone(), nil
}

// GetBlockByHash returns a copy of the block with the given header hash.
func (e *Engine) GetBlockByHash(hash string) (*block.Block, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, b := range e.chain {
		if b.Hash == hash {
			return b.Clone(), nil
		}
	}
	return nil, verrors.Newf(verrors.ErrCodeInternal, "no block with hash %s", hash)
}

// GetTransaction finds a committed transaction by id through the secondary
// index and returns it with the index of its block.
func (e *Engine) GetTransaction(id string) (*transaction.Transaction, uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	blockIndex, ok := e.txIndex[id]
	if !ok {
		return nil, 0, verrors.Newf(verrors.ErrCodeInternal, "transaction %s is not committed", id)
	}
	for _, tx := range e.chain[blockIndex].Transactions {
		if tx.ID == id {
			return tx.Clone(), blockIndex, nil
		}
	}
	return nil, 0, verrors.Newf(verrors.ErrCodeInternal, "transaction index for %s is stale", id)
}

// GetBalance returns the spendable balance for addr, zero if the account
// does not exist.
func (e *Engine) GetBalance(addr string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	acc := e.accounts.GetAccount(addr)
	if acc == nil {
		return 0
	}
	return acc.Balance
}

// GetAccount returns a copy of the account record.
func (e *Engine) GetAccount(addr string) (*types.Account, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	acc := e.accounts.GetAccount(addr)
	if acc == nil {
		return nil, false
	}
	return acc.Clone(), true
}

// PendingTransactions returns copies of the mempool contents in admission
// order.
func (e *Engine) PendingTransactions() []*transaction.Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pending := e.mempool.Pending()
	out := make([]*transaction.Transaction, len(pending))
	for i, tx := range pending {
		out[i] = tx.Clone()
	}
	return out
}

// GetPool returns a copy of the pool for the pair, if it exists.
func (e *Engine) GetPool(tokenA, tokenB string) (*swap.Pool, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pool, exists := e.pools[swap.PairKey(tokenA, tokenB)]
	if !exists {
		return nil, false
	}
	return pool.Clone(), true
}

// GetValidator returns a copy of a validator entry.
func (e *Engine) GetValidator(addr string) (staking.Validator, bool) {
	return e.registry.GetValidator(addr)
}

// ActiveValidators returns the active validator set ordered by address.
func (e *Engine) ActiveValidators() []staking.Validator {
	return e.registry.ActiveValidators()
}

// StakePositions returns the delegator's positions.
func (e *Engine) StakePositions(delegator string) []staking.StakePosition {
	return e.registry.Positions(delegator)
}

// CirculatingSupply returns the tracked circulating supply.
func (e *Engine) CirculatingSupply() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.circulating
}

// BurnedSupply returns the cumulative burned amount.
func (e *Engine) BurnedSupply() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.burned
}

// SupplyAccounted sums the supply components: circulating balances, the
// burned counter, the reserve balance, and staked funds (bonded plus
// unbonding). At rest this equals the total supply.
func (e *Engine) SupplyAccounted() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	reserve := 0.0
	if acc := e.accounts.GetAccount(e.reserveAddr); acc != nil {
		reserve = acc.Balance
	}
	return e.circulating + e.burned + reserve + e.accounts.TotalStaked()
}

// IsSupplyConserved checks conservation of supply within the rounding
// tolerance.
func (e *Engine) IsSupplyConserved() bool {
	diff := e.SupplyAccounted() - config.TotalSupply
	if diff < 0 {
		diff = -diff
	}
	return diff <= config.Epsilon
}

// IsChainValid walks the chain verifying each block's own validity, its
// producer signature, and its linkage to the predecessor. It returns false
// rather than an error so callers can probe for silent corruption.
func (e *Engine) IsChainValid() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for i, b := range e.chain {
		if !b.IsValid() {
			return false
		}
		if !b.VerifySignature(e.signer) {
			return false
		}
		if i > 0 && b.PreviousHash != e.chain[i-1].Hash {
			return false
		}
	}
	return true
}

package ledger

import (
	"sort"

	"vindex/block"
	"vindex/config"
	"vindex/staking"
	"vindex/swap"
	"vindex/transaction"
	"vindex/types"
)

// ChainExport is the full serialized state snapshot handed to the
// persistence collaborator. Everything in it is a copy; mutating an export
// cannot touch live state.
type ChainExport struct {
	ChainID     string                     `json:"chainId"`
	ExportedAt  int64                      `json:"exportedAt"` // unix milliseconds
	Height      uint64                     `json:"height"`
	Chain       []*block.Block             `json:"chain"`
	Pending     []*transaction.Transaction `json:"pending"`
	Accounts    []*types.Account           `json:"accounts"`
	Staking     staking.Snapshot           `json:"staking"`
	Pools       []*swap.Pool               `json:"pools"`
	TotalSupply float64                    `json:"totalSupply"`
	Circulating float64                    `json:"circulatingSupply"`
	Burned      float64                    `json:"burnedSupply"`
}

// ExportChain produces a full snapshot of chain, mempool, accounts, staking
// state, supply figures, and swap pools.
func (e *Engine) ExportChain() *ChainExport {
	e.mu.RLock()
	defer e.mu.RUnlock()

	chain := make([]*block.Block, len(e.chain))
	for i, b := range e.chain {
		chain[i] = b.Clone()
	}
	pending := e.mempool.Pending()
	pendingCopies := make([]*transaction.Transaction, len(pending))
	for i, tx := range pending {
		pendingCopies[i] = tx.Clone()
	}
	pools := make([]*swap.Pool, 0, len(e.pools))
	for _, pool := range e.pools {
		pools = append(pools, pool.Clone())
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].Key() < pools[j].Key() })

	return &ChainExport{
		ChainID:     e.chainID,
		ExportedAt:  e.now().UnixMilli(),
		Height:      e.chain[len(e.chain)-1].Index,
		Chain:       chain,
		Pending:     pendingCopies,
		Accounts:    e.accounts.Clones(),
		Staking:     e.registry.SnapshotState(),
		Pools:       pools,
		TotalSupply: config.TotalSupply,
		Circulating: e.circulating,
		Burned:      e.burned,
	}
}

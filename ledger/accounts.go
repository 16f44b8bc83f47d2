package ledger

import (
	"sort"

	"vindex/types"
)

// accountStore is the single-writer account table. It is not
// self-synchronized: the engine's lock serializes every access, including
// the stake registry's, so the map is never aliased across the
// admission/mining boundary.
type accountStore struct {
	accounts map[string]*types.Account
}

func newAccountStore() *accountStore {
	return &accountStore{accounts: make(map[string]*types.Account)}
}

// GetAccount returns the live account record, or nil if it does not exist.
func (s *accountStore) GetAccount(addr string) *types.Account {
	return s.accounts[addr]
}

// GetOrCreateAccount creates the account lazily on first credit.
func (s *accountStore) GetOrCreateAccount(addr string) *types.Account {
	if acc, ok := s.accounts[addr]; ok {
		return acc
	}
	acc := &types.Account{Address: addr}
	s.accounts[addr] = acc
	return acc
}

// Clones returns copies of all accounts ordered by address.
func (s *accountStore) Clones() []*types.Account {
	out := make([]*types.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// TotalStaked sums the staked figure across all accounts, including funds
// still waiting out the unbonding period.
func (s *accountStore) TotalStaked() float64 {
	total := 0.0
	for _, acc := range s.accounts {
		total += acc.Staked
	}
	return total
}

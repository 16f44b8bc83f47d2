package types

// Account is the mutable ledger state for a single address. Accounts are
// created lazily on first credit and never deleted. The Staked figure covers
// both bonded and unbonding funds; they return to Balance only once the
// unbonding period has elapsed.
type Account struct {
	Address     string  `json:"address"`
	Balance     float64 `json:"balance"`
	Nonce       uint64  `json:"nonce"`
	Staked      float64 `json:"staked"`
	Rewards     float64 `json:"rewards"`
	IsValidator bool    `json:"isValidator"`
}

// Clone returns a copy safe to hand to callers outside the commit path.
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}

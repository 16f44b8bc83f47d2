package staking

// Validator is a registered block producer. Deactivated when its total stake
// falls below the minimum, never deleted.
type Validator struct {
	Address        string  `json:"address"`
	SelfStake      float64 `json:"selfStake"`
	TotalStake     float64 `json:"totalStake"`
	Commission     float64 `json:"commission"`
	Active         bool    `json:"active"`
	BlocksProduced uint64  `json:"blocksProduced"`
	LastActive     uint64  `json:"lastActiveBlock"`
}

// StakePosition records tokens bonded by one delegator to one validator.
// Amount is the bonded figure; Unbonding holds funds waiting out the
// unbonding period, released by CompleteUnstaking once UnlockAt has passed.
type StakePosition struct {
	Delegator string  `json:"delegator"`
	Validator string  `json:"validator"`
	Amount    float64 `json:"amount"`
	Unbonding float64 `json:"unbonding,omitempty"`
	UnlockAt  int64   `json:"unlockAt,omitempty"` // unix milliseconds, 0 when no unlock pending
	Rewards   float64 `json:"rewards"`
}

// Snapshot is a copy of the registry state for export.
type Snapshot struct {
	Validators []Validator     `json:"validators"`
	Positions  []StakePosition `json:"positions"`
}

package staking

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"vindex/config"
	verrors "vindex/errors"
	"vindex/logx"
	"vindex/types"
)

// AccountBook is the slice of ledger state the registry debits and credits.
// The ledger engine provides it; the registry never creates money on its
// own.
type AccountBook interface {
	GetAccount(addr string) *types.Account
	GetOrCreateAccount(addr string) *types.Account
}

// Registry tracks validators and stake positions and elects block producers.
// All mutating calls either complete fully or leave no partial state behind.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]*Validator
	positions  map[string]*StakePosition // keyed delegator|validator
	book       AccountBook
	selector   LeaderSelector

	minStake      float64
	maxValidators int
	unbonding     time.Duration

	now func() time.Time
}

// NewRegistry creates a registry with the protocol defaults and the
// linear-congruential leader selector.
func NewRegistry(book AccountBook) *Registry {
	return &Registry{
		validators:    make(map[string]*Validator),
		positions:     make(map[string]*StakePosition),
		book:          book,
		selector:      LCGSelector{},
		minStake:      config.MinStake,
		maxValidators: config.MaxValidators,
		unbonding:     config.UnbondingPeriod,
		now:           time.Now,
	}
}

// SetSelector swaps the leader selection scheme.
func (r *Registry) SetSelector(s LeaderSelector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selector = s
}

// SetClock overrides the time source. Intended for tests exercising the
// unbonding period.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func posKey(delegator, validator string) string {
	return delegator + "|" + validator
}

// SeedGenesis registers the genesis validators with their fixed self-stakes
// and commissions and flags their zero-balance accounts as validators.
func (r *Registry) SeedGenesis(validators []config.GenesisValidator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, gv := range validators {
		if _, exists := r.validators[gv.Address]; exists {
			return fmt.Errorf("genesis validator %s seeded twice", gv.Address)
		}
		r.validators[gv.Address] = &Validator{
			Address:    gv.Address,
			SelfStake:  gv.SelfStake,
			TotalStake: gv.SelfStake,
			Commission: gv.Commission,
			Active:     gv.SelfStake >= r.minStake,
		}
		acc := r.book.GetOrCreateAccount(gv.Address)
		acc.IsValidator = true
		acc.Staked += gv.SelfStake
		logx.Info("STAKING", fmt.Sprintf("Seeded genesis validator %s with stake %.2f", gv.Address, gv.SelfStake))
	}
	return nil
}

// Stake bonds amount from delegator to the named validator. Self-bonding to
// an unregistered address creates a new validator when the registry has
// capacity.
func (r *Registry) Stake(delegator, validatorAddr string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if amount < r.minStake {
		return verrors.Newf(verrors.ErrCodeStakeBelowMinimum,
			"stake amount %.2f is below minimum %.2f", amount, r.minStake)
	}
	acc := r.book.GetAccount(delegator)
	if acc == nil {
		return verrors.Newf(verrors.ErrCodeAccountNotFound, "account %s does not exist", delegator)
	}
	if acc.Balance < amount {
		return verrors.Newf(verrors.ErrCodeInsufficientFunds,
			"balance %.2f cannot cover stake %.2f", acc.Balance, amount)
	}

	v, exists := r.validators[validatorAddr]
	if !exists {
		if validatorAddr != delegator {
			return verrors.Newf(verrors.ErrCodeValidatorNotFound, "validator %s does not exist", validatorAddr)
		}
		if len(r.validators) >= r.maxValidators {
			return verrors.Newf(verrors.ErrCodeRegistryFull,
				"validator registry is full (%d)", r.maxValidators)
		}
		v = &Validator{Address: validatorAddr, Commission: 0}
		r.validators[validatorAddr] = v
	}

	acc.Balance -= amount
	acc.Staked += amount

	v.TotalStake += amount
	if delegator == validatorAddr {
		v.SelfStake += amount
		acc.IsValidator = true
	}
	if v.TotalStake >= r.minStake {
		v.Active = true
	}

	key := posKey(delegator, validatorAddr)
	pos, ok := r.positions[key]
	if !ok {
		pos = &StakePosition{Delegator: delegator, Validator: validatorAddr}
		r.positions[key] = pos
	}
	pos.Amount += amount

	return nil
}

// Unstake begins unbonding: the position and validator stake drop
// immediately, but the funds stay locked until the unbonding period passes.
func (r *Registry) Unstake(delegator, validatorAddr string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if amount <= 0 {
		return verrors.New(verrors.ErrCodeInvalidAmount, "unstake amount must be positive")
	}
	v, exists := r.validators[validatorAddr]
	if !exists {
		return verrors.Newf(verrors.ErrCodeValidatorNotFound, "validator %s does not exist", validatorAddr)
	}
	pos, ok := r.positions[posKey(delegator, validatorAddr)]
	if !ok || pos.Amount < amount {
		staked := 0.0
		if ok {
			staked = pos.Amount
		}
		return verrors.Newf(verrors.ErrCodeInsufficientStake,
			"staked %.2f cannot cover unstake %.2f", staked, amount)
	}

	pos.Amount -= amount
	pos.Unbonding += amount
	pos.UnlockAt = r.now().Add(r.unbonding).UnixMilli()

	v.TotalStake -= amount
	if delegator == validatorAddr {
		v.SelfStake -= amount
		if v.SelfStake < 0 {
			v.SelfStake = 0
		}
	}
	if v.TotalStake < r.minStake {
		v.Active = false
		logx.Warn("STAKING", fmt.Sprintf("Validator %s deactivated, stake %.2f below minimum", validatorAddr, v.TotalStake))
	}

	return nil
}

// CompleteUnstaking releases every expired unbonding position for the
// delegator back to the spendable balance and returns the total released.
func (r *Registry) CompleteUnstaking(delegator string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	nowMs := r.now().UnixMilli()
	released := 0.0

	for key, pos := range r.positions {
		if pos.Delegator != delegator || pos.UnlockAt == 0 || pos.UnlockAt > nowMs {
			continue
		}
		amount := pos.Unbonding
		pos.Unbonding = 0
		pos.UnlockAt = 0
		released += amount

		acc := r.book.GetOrCreateAccount(delegator)
		acc.Staked -= amount
		acc.Balance += amount

		if pos.Amount == 0 && pos.Unbonding == 0 {
			delete(r.positions, key)
		}
	}

	if released > 0 {
		logx.Info("STAKING", fmt.Sprintf("Released %.2f unbonded tokens to %s", released, delegator))
	}
	return released
}

// SelectValidator elects the producer for blockIndex from the active set.
// The candidate list is ordered by address so the selection depends only on
// the registry contents and the index.
func (r *Registry) SelectValidator(blockIndex uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := r.activeCandidates()
	if len(candidates) == 0 {
		return "", verrors.New(verrors.ErrCodeValidatorNotFound, "no active validators")
	}
	return r.selector.Select(blockIndex, candidates), nil
}

func (r *Registry) activeCandidates() []Candidate {
	candidates := make([]Candidate, 0, len(r.validators))
	for _, v := range r.validators {
		if v.Active {
			candidates = append(candidates, Candidate{Address: v.Address, Stake: v.TotalStake})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Address < candidates[j].Address })
	return candidates
}

// DistributeRewards credits the validator's commission and splits the
// remainder pro-rata across its stake positions. Shares not covered by
// positions (genesis self-stake has none) stay with the validator, so the
// full reward is always conserved.
func (r *Registry) DistributeRewards(reward float64, validatorAddr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reward <= 0 {
		return nil
	}
	v, exists := r.validators[validatorAddr]
	if !exists {
		return verrors.Newf(verrors.ErrCodeValidatorNotFound, "validator %s does not exist", validatorAddr)
	}

	commission := reward * v.Commission
	remainder := reward - commission
	distributed := 0.0

	if v.TotalStake > 0 {
		for _, pos := range r.positions {
			if pos.Validator != validatorAddr || pos.Amount <= 0 {
				continue
			}
			share := remainder * pos.Amount / v.TotalStake
			pos.Rewards += share
			acc := r.book.GetOrCreateAccount(pos.Delegator)
			acc.Balance += share
			acc.Rewards += share
			distributed += share
		}
	}

	own := commission + (remainder - distributed)
	acc := r.book.GetOrCreateAccount(validatorAddr)
	acc.Balance += own
	acc.Rewards += own

	return nil
}

// RecordProduction updates the producer's block statistics.
func (r *Registry) RecordProduction(validatorAddr string, blockIndex uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, exists := r.validators[validatorAddr]
	if !exists {
		return
	}
	v.BlocksProduced++
	v.LastActive = blockIndex
}

// GetValidator returns a copy of the validator entry.
func (r *Registry) GetValidator(addr string) (Validator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, exists := r.validators[addr]
	if !exists {
		return Validator{}, false
	}
	return *v, true
}

// ActiveValidators returns copies of the active set ordered by address.
func (r *Registry) ActiveValidators() []Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]Validator, 0, len(r.validators))
	for _, v := range r.validators {
		if v.Active {
			active = append(active, *v)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Address < active[j].Address })
	return active
}

// Positions returns copies of the delegator's stake positions.
func (r *Registry) Positions(delegator string) []StakePosition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]StakePosition, 0)
	for _, pos := range r.positions {
		if pos.Delegator == delegator {
			out = append(out, *pos)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Validator < out[j].Validator })
	return out
}

// TotalStaked returns the sum of all validator stakes.
func (r *Registry) TotalStaked() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0.0
	for _, v := range r.validators {
		total += v.TotalStake
	}
	return total
}

// SnapshotState returns a deep copy of validators and positions for export.
func (r *Registry) SnapshotState() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Validators: make([]Validator, 0, len(r.validators)),
		Positions:  make([]StakePosition, 0, len(r.positions)),
	}
	for _, v := range r.validators {
		snap.Validators = append(snap.Validators, *v)
	}
	for _, pos := range r.positions {
		snap.Positions = append(snap.Positions, *pos)
	}
	sort.Slice(snap.Validators, func(i, j int) bool { return snap.Validators[i].Address < snap.Validators[j].Address })
	sort.Slice(snap.Positions, func(i, j int) bool {
		if snap.Positions[i].Delegator != snap.Positions[j].Delegator {
			return snap.Positions[i].Delegator < snap.Positions[j].Delegator
		}
		return snap.Positions[i].Validator < snap.Positions[j].Validator
	})
	return snap
}

package staking

// Candidate is one active validator offered to the leader selector.
type Candidate struct {
	Address string
	Stake   float64
}

// LeaderSelector picks a block producer from stake-weighted candidates.
// Implementations must be exactly reproducible for a given block index and
// candidate snapshot so block production can be re-verified later. The
// engine only depends on this interface, so a verifiable random function can
// replace the default without touching it.
type LeaderSelector interface {
	Select(blockIndex uint64, candidates []Candidate) string
}

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// LCGSelector derives a pseudo-random fraction from the block index with a
// fixed linear-congruential formula and walks the cumulative stake sums.
// Deterministic and cheap, but not unbiased or manipulation-resistant.
type LCGSelector struct{}

func (LCGSelector) Select(blockIndex uint64, candidates []Candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	totalStake := 0.0
	for _, c := range candidates {
		totalStake += c.Stake
	}

	x := (blockIndex*lcgMultiplier + lcgIncrement) % lcgModulus
	target := float64(x) / float64(lcgModulus) * totalStake

	cumulative := 0.0
	for _, c := range candidates {
		cumulative += c.Stake
		if cumulative >= target {
			return c.Address
		}
	}
	// Floating-point edge case: fall back to the first candidate.
	return candidates[0].Address
}

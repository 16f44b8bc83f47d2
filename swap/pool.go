package swap

import (
	"fmt"
	"math"

	"vindex/config"
	verrors "vindex/errors"
)

// PairKey returns the canonical key for a token pair; the two symbols are
// sorted so (A,B) and (B,A) address the same pool.
func PairKey(tokenA, tokenB string) string {
	if tokenA > tokenB {
		tokenA, tokenB = tokenB, tokenA
	}
	return tokenA + "-" + tokenB
}

// Pool is a constant-product market for one token pair. The fee stays in the
// reserves, so the reserve product never decreases across a swap. This
// design issues no separate liquidity-provider tokens; TotalLiquidity is
// informational.
type Pool struct {
	TokenA         string  `json:"tokenA"`
	TokenB         string  `json:"tokenB"`
	ReserveA       float64 `json:"reserveA"`
	ReserveB       float64 `json:"reserveB"`
	Fee            float64 `json:"fee"`
	TotalLiquidity float64 `json:"totalLiquidity"`
}

// NewPool creates a pool with the default fee. Token order is normalized to
// the canonical pair order.
func NewPool(tokenA, tokenB string, reserveA, reserveB float64) (*Pool, error) {
	if tokenA == "" || tokenB == "" {
		return nil, verrors.New(verrors.ErrCodeInvalidPayload, "both token symbols are required")
	}
	if tokenA == tokenB {
		return nil, verrors.New(verrors.ErrCodeInvalidPayload, "pool tokens must differ")
	}
	if reserveA <= 0 || reserveB <= 0 {
		return nil, verrors.New(verrors.ErrCodeInvalidAmount, "pool reserves must be positive")
	}
	if tokenA > tokenB {
		tokenA, tokenB = tokenB, tokenA
		reserveA, reserveB = reserveB, reserveA
	}
	return &Pool{
		TokenA:         tokenA,
		TokenB:         tokenB,
		ReserveA:       reserveA,
		ReserveB:       reserveB,
		Fee:            config.SwapPoolFee,
		TotalLiquidity: math.Sqrt(reserveA * reserveB),
	}, nil
}

// Key returns the pool's canonical pair key.
func (p *Pool) Key() string {
	return PairKey(p.TokenA, p.TokenB)
}

// Has reports whether token is one side of the pool.
func (p *Pool) Has(token string) bool {
	return token == p.TokenA || token == p.TokenB
}

func (p *Pool) reserves(tokenIn string) (in, out float64, err error) {
	switch tokenIn {
	case p.TokenA:
		return p.ReserveA, p.ReserveB, nil
	case p.TokenB:
		return p.ReserveB, p.ReserveA, nil
	default:
		return 0, 0, verrors.Newf(verrors.ErrCodePoolNotFound,
			"token %s is not part of pool %s", tokenIn, p.Key())
	}
}

// Quote prices amountIn of tokenIn with the constant-product formula, taking
// the pool fee off the input first.
func (p *Pool) Quote(tokenIn string, amountIn float64) (float64, error) {
	if amountIn <= 0 {
		return 0, verrors.New(verrors.ErrCodeInvalidAmount, "swap amount must be positive")
	}
	reserveIn, reserveOut, err := p.reserves(tokenIn)
	if err != nil {
		return 0, err
	}
	effectiveIn := amountIn * (1 - p.Fee)
	return reserveOut * effectiveIn / (reserveIn + effectiveIn), nil
}

// Swap executes a trade: the quoted output must meet minAmountOut, the input
// reserve grows by the full input amount (fee retained in the pool) and the
// output reserve shrinks by the output amount.
func (p *Pool) Swap(tokenIn string, amountIn, minAmountOut float64) (float64, error) {
	amountOut, err := p.Quote(tokenIn, amountIn)
	if err != nil {
		return 0, err
	}
	if amountOut < minAmountOut {
		return 0, verrors.Newf(verrors.ErrCodeSlippageExceeded,
			"output %.6f below minimum %.6f", amountOut, minAmountOut)
	}
	if tokenIn == p.TokenA {
		p.ReserveA += amountIn
		p.ReserveB -= amountOut
	} else {
		p.ReserveB += amountIn
		p.ReserveA -= amountOut
	}
	return amountOut, nil
}

// Clone returns a copy safe to hand to callers.
func (p *Pool) Clone() *Pool {
	cp := *p
	return &cp
}

// String renders the pool for logging.
func (p *Pool) String() string {
	return fmt.Sprintf("%s reserves=(%.4f, %.4f) fee=%.4f", p.Key(), p.ReserveA, p.ReserveB, p.Fee)
}

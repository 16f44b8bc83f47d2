package swap

import (
	"testing"

	"github.com/stretchr/testify/require"

	verrors "vindex/errors"
)

func TestPairKey(t *testing.T) {
	require.Equal(t, "USDV-VDX", PairKey("VDX", "USDV"))
	require.Equal(t, "USDV-VDX", PairKey("USDV", "VDX"))
}

func TestNewPool(t *testing.T) {
	tests := []struct {
		name               string
		tokenA, tokenB     string
		reserveA, reserveB float64
		wantCode           verrors.LedgerErrorCode
	}{
		{"valid pool", "VDX", "USDV", 1000, 2000, ""},
		{"missing symbol", "", "USDV", 1000, 2000, verrors.ErrCodeInvalidPayload},
		{"identical tokens", "VDX", "VDX", 1000, 2000, verrors.ErrCodeInvalidPayload},
		{"zero reserve", "VDX", "USDV", 0, 2000, verrors.ErrCodeInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewPool(tt.tokenA, tt.tokenB, tt.reserveA, tt.reserveB)
			if tt.wantCode != "" {
				require.Error(t, err)
				require.Equal(t, tt.wantCode, verrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			// Token order is normalized with the reserves following.
			require.Equal(t, "USDV", pool.TokenA)
			require.Equal(t, "VDX", pool.TokenB)
			require.InDelta(t, 2000, pool.ReserveA, 1e-9)
			require.InDelta(t, 1000, pool.ReserveB, 1e-9)
		})
	}
}

func TestQuoteConstantProduct(t *testing.T) {
	pool, err := NewPool("VDX", "USDV", 1000, 1000)
	require.NoError(t, err)

	out, err := pool.Quote("VDX", 100)
	require.NoError(t, err)

	// Fee off the input: 99.7 effective in against 1000/1000 reserves.
	expected := 1000 * 99.7 / (1000 + 99.7)
	require.InDelta(t, expected, out, 1e-9)
	require.Less(t, out, 1000*100.0/1100.0, "fee must reduce the no-fee output")

	_, err = pool.Quote("VDX", 0)
	require.Error(t, err)
	_, err = pool.Quote("DOGE", 100)
	require.Error(t, err)
	require.Equal(t, verrors.ErrCodePoolNotFound, verrors.CodeOf(err))
}

func TestSwapRetainsFeeInReserves(t *testing.T) {
	pool, err := NewPool("VDX", "USDV", 1000, 1000)
	require.NoError(t, err)
	productBefore := pool.ReserveA * pool.ReserveB

	out, err := pool.Swap("VDX", 100, 0)
	require.NoError(t, err)
	require.Greater(t, out, 0.0)

	// Full input enters the reserves, so the product never decreases.
	productAfter := pool.ReserveA * pool.ReserveB
	require.GreaterOrEqual(t, productAfter, productBefore)

	// A second identical swap gets a worse price.
	again, err := pool.Swap("VDX", 100, 0)
	require.NoError(t, err)
	require.Less(t, again, out)
}

func TestSwapSlippageProtection(t *testing.T) {
	pool, err := NewPool("VDX", "USDV", 1000, 1000)
	require.NoError(t, err)

	reserveA, reserveB := pool.ReserveA, pool.ReserveB
	_, err = pool.Swap("VDX", 100, 95)
	require.Error(t, err)
	require.Equal(t, verrors.ErrCodeSlippageExceeded, verrors.CodeOf(err))

	// A rejected swap must not touch the reserves.
	require.Equal(t, reserveA, pool.ReserveA)
	require.Equal(t, reserveB, pool.ReserveB)
}

func TestSwapBothDirections(t *testing.T) {
	pool, err := NewPool("VDX", "USDV", 1000, 4000)
	require.NoError(t, err)

	outB, err := pool.Swap("VDX", 10, 0)
	require.NoError(t, err)
	require.Greater(t, outB, 0.0)

	outA, err := pool.Swap("USDV", 10, 0)
	require.NoError(t, err)
	require.Greater(t, outA, 0.0)
	require.Less(t, outA, outB, "prices must follow the reserve ratio")
}

func TestCloneIsIndependent(t *testing.T) {
	pool, err := NewPool("VDX", "USDV", 1000, 1000)
	require.NoError(t, err)

	cp := pool.Clone()
	_, err = cp.Swap("VDX", 100, 0)
	require.NoError(t, err)
	require.InDelta(t, 1000, pool.ReserveA, 1e-9)
}

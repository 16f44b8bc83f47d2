package transaction

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vindex/config"
	verrors "vindex/errors"
	"vindex/wallet"
)

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name   string
		txType Type
		amount float64
		want   float64
	}{
		{
			name:   "transfer below surcharge threshold",
			txType: TypeTransfer,
			amount: 100,
			want:   0.001 + 100*0.0001,
		},
		{
			name:   "transfer above surcharge threshold",
			txType: TypeTransfer,
			amount: 2000,
			want:   0.001 + 2000*0.0001 + 1000*0.0005,
		},
		{
			name:   "stake doubles the base fee",
			txType: TypeStake,
			amount: 100,
			want:   0.002 + 100*0.0001,
		},
		{
			name:   "unstake triples the base fee",
			txType: TypeUnstake,
			amount: 100,
			want:   0.003 + 100*0.0001,
		},
		{
			name:   "swap has a 1.5x base fee",
			txType: TypeSwap,
			amount: 100,
			want:   0.0015 + 100*0.0001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeFee(tt.txType, tt.amount)
			require.InDelta(t, tt.want, got, 1e-12)
			require.GreaterOrEqual(t, got, baseFee(tt.txType))
		})
	}
}

func TestNewAssignsUniqueIDs(t *testing.T) {
	a := New("alice", "bob", 10, TypeTransfer, nil)
	b := New("alice", "bob", 10, TypeTransfer, nil)
	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
	require.InDelta(t, ComputeFee(TypeTransfer, 10), a.Fee, 1e-12)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(tx *Transaction)
		wantCode verrors.LedgerErrorCode
	}{
		{
			name:   "valid transfer",
			mutate: func(tx *Transaction) {},
		},
		{
			name:     "missing recipient",
			mutate:   func(tx *Transaction) { tx.To = "" },
			wantCode: verrors.ErrCodeInvalidTransaction,
		},
		{
			name:     "zero amount",
			mutate:   func(tx *Transaction) { tx.Amount = 0 },
			wantCode: verrors.ErrCodeInvalidAmount,
		},
		{
			name:     "negative fee",
			mutate:   func(tx *Transaction) { tx.Fee = -1 },
			wantCode: verrors.ErrCodeInvalidAmount,
		},
		{
			name:     "self transfer",
			mutate:   func(tx *Transaction) { tx.To = tx.From },
			wantCode: verrors.ErrCodeInvalidTransaction,
		},
		{
			name: "self stake is allowed",
			mutate: func(tx *Transaction) {
				tx.Type = TypeStake
				tx.To = tx.From
				tx.Amount = config.MinStake
			},
		},
		{
			name: "stake below minimum",
			mutate: func(tx *Transaction) {
				tx.Type = TypeStake
				tx.Amount = config.MinStake - 1
			},
			wantCode: verrors.ErrCodeStakeBelowMinimum,
		},
		{
			name: "stale timestamp",
			mutate: func(tx *Transaction) {
				tx.Timestamp = time.Now().Add(-11 * time.Minute).UnixMilli()
			},
			wantCode: verrors.ErrCodeInvalidTimestamp,
		},
		{
			name: "future timestamp",
			mutate: func(tx *Transaction) {
				tx.Timestamp = time.Now().Add(2 * time.Minute).UnixMilli()
			},
			wantCode: verrors.ErrCodeInvalidTimestamp,
		},
		{
			name: "swap without token pair",
			mutate: func(tx *Transaction) {
				tx.Type = TypeSwap
				tx.Payload = &Payload{TokenIn: "VDX"}
			},
			wantCode: verrors.ErrCodeInvalidPayload,
		},
		{
			name: "swap with token pair",
			mutate: func(tx *Transaction) {
				tx.Type = TypeSwap
				tx.Payload = &Payload{TokenIn: "VDX", TokenOut: "USDV", MinAmountOut: 1}
			},
		},
		{
			name:     "unknown type",
			mutate:   func(tx *Transaction) { tx.Type = "mint" },
			wantCode: verrors.ErrCodeInvalidTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := New("alice", "bob", 50, TypeTransfer, nil)
			tt.mutate(tx)
			err := tx.Validate()
			if tt.wantCode == "" {
				require.NoError(t, err)
				require.True(t, tx.IsValid())
				return
			}
			require.Error(t, err)
			require.Equal(t, tt.wantCode, verrors.CodeOf(err))
			require.False(t, tx.IsValid())
		})
	}
}

func TestContentDigestIsDeterministic(t *testing.T) {
	tx := New("alice", "bob", 50, TypeTransfer, nil)
	first := tx.ContentDigest()
	require.Equal(t, first, tx.ContentDigest())

	tampered := tx.Clone()
	tampered.Amount = 51
	require.NotEqual(t, first, tampered.ContentDigest())
}

func TestSignAndVerify(t *testing.T) {
	ks := wallet.NewKeystore()
	tx := New("alice", "bob", 50, TypeTransfer, nil)

	require.False(t, tx.Verify(ks), "unsigned transaction must not verify")
	require.NoError(t, tx.Sign(ks))
	require.True(t, tx.Verify(ks))

	tampered := tx.Clone()
	tampered.Amount = 51
	require.False(t, tampered.Verify(ks), "tampered content must not verify")
}

func TestDedupKeyIgnoresIDAndTimestamp(t *testing.T) {
	a := New("alice", "bob", 50, TypeTransfer, nil)
	b := New("alice", "bob", 50, TypeTransfer, nil)
	require.Equal(t, a.DedupKey(), b.DedupKey())

	c := New("alice", "bob", 51, TypeTransfer, nil)
	require.NotEqual(t, a.DedupKey(), c.DedupKey())
}

func TestFeeFloorsAtBase(t *testing.T) {
	fee := ComputeFee(TypeTransfer, 1e-9)
	require.False(t, math.IsNaN(fee))
	require.GreaterOrEqual(t, fee, config.BaseFee)
}

package block

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	verrors "vindex/errors"
	"vindex/transaction"
	"vindex/wallet"
)

func signedTx(t *testing.T, ks wallet.Signer, from, to string, amount float64) *transaction.Transaction {
	t.Helper()
	tx := transaction.New(from, to, amount, transaction.TypeTransfer, nil)
	require.NoError(t, tx.Sign(ks))
	return tx
}

func TestBaseReward(t *testing.T) {
	tests := []struct {
		name  string
		index uint64
		want  float64
	}{
		{"genesis era", 0, 10},
		{"just before first halving", 209_999, 10},
		{"first halving", 210_000, 5},
		{"second halving", 420_000, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, BaseReward(tt.index), 0.001)
		})
	}
}

func TestComputeReward(t *testing.T) {
	require.Zero(t, ComputeReward(1, 0, 0), "empty blocks earn nothing")

	// base + per-tx bonus + fees
	require.InDelta(t, 10+0.3+1.5, ComputeReward(1, 3, 1.5), 1e-9)

	// bonus is capped
	require.InDelta(t, 10+5+2, ComputeReward(1, 80, 2), 1e-9)
}

func TestMerkleRoot(t *testing.T) {
	empty := sha256.Sum256(nil)
	require.Equal(t, hex.EncodeToString(empty[:]), MerkleRoot(nil))

	ks := wallet.NewKeystore()
	a := signedTx(t, ks, "alice", "bob", 1)
	b := signedTx(t, ks, "bob", "carol", 2)
	c := signedTx(t, ks, "carol", "alice", 3)

	root := MerkleRoot([]*transaction.Transaction{a, b, c})
	require.Len(t, root, 64)
	require.Equal(t, root, MerkleRoot([]*transaction.Transaction{a, b, c}))
	require.NotEqual(t, root, MerkleRoot([]*transaction.Transaction{b, a, c}),
		"order must change the root")
	require.NotEqual(t, root, MerkleRoot([]*transaction.Transaction{a, b}),
		"membership must change the root")
}

func TestBlockHashCoversHeader(t *testing.T) {
	ks := wallet.NewKeystore()
	tx := signedTx(t, ks, "alice", "bob", 5)
	blk := New(1, []*transaction.Transaction{tx}, strings.Repeat("0", 64), "validator1")

	original := blk.ComputeHash()
	require.Equal(t, blk.Hash, original)

	blk.PreviousHash = strings.Repeat("1", 64)
	require.NotEqual(t, original, blk.ComputeHash())
}

func TestBlockImmutableAfterSigning(t *testing.T) {
	ks := wallet.NewKeystore()
	tx := signedTx(t, ks, "alice", "bob", 5)
	blk := New(1, []*transaction.Transaction{tx}, strings.Repeat("0", 64), "validator1")

	extra := signedTx(t, ks, "bob", "carol", 2)
	require.NoError(t, blk.AddTransaction(extra))
	require.Equal(t, 2, blk.TxCount)

	require.NoError(t, blk.Sign(ks))
	require.True(t, blk.Signed())
	require.True(t, blk.VerifySignature(ks))

	err := blk.AddTransaction(signedTx(t, ks, "carol", "alice", 1))
	require.Error(t, err)
	require.Equal(t, verrors.ErrCodeBlockImmutable, verrors.CodeOf(err))
}

func TestBlockIsValidDetectsTampering(t *testing.T) {
	ks := wallet.NewKeystore()
	tx := signedTx(t, ks, "alice", "bob", 5)
	blk := New(1, []*transaction.Transaction{tx}, strings.Repeat("0", 64), "validator1")
	require.NoError(t, blk.Sign(ks))
	require.True(t, blk.IsValid())

	tests := []struct {
		name   string
		mutate func(b *Block)
	}{
		{"tampered amount", func(b *Block) { b.Transactions[0].Amount = 500 }},
		{"tampered merkle root", func(b *Block) { b.MerkleRoot = strings.Repeat("a", 64) }},
		{"tampered hash", func(b *Block) { b.Hash = strings.Repeat("b", 64) }},
		{"tampered reward", func(b *Block) { b.Reward += 1 }},
		{"tampered fees", func(b *Block) { b.TotalFees += 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := blk.Clone()
			tt.mutate(tampered)
			require.False(t, tampered.IsValid())
		})
	}
}

func TestSignatureDetectsProducerMismatch(t *testing.T) {
	ks := wallet.NewKeystore()
	tx := signedTx(t, ks, "alice", "bob", 5)
	blk := New(1, []*transaction.Transaction{tx}, strings.Repeat("0", 64), "validator1")
	require.NoError(t, blk.Sign(ks))

	forged := blk.Clone()
	forged.Producer = "validator2"
	forged.Hash = forged.ComputeHash()
	require.False(t, forged.VerifySignature(ks))
}

func TestCloneIsDeep(t *testing.T) {
	ks := wallet.NewKeystore()
	tx := signedTx(t, ks, "alice", "bob", 5)
	blk := New(1, []*transaction.Transaction{tx}, strings.Repeat("0", 64), "validator1")
	require.NoError(t, blk.Sign(ks))

	cp := blk.Clone()
	cp.Transactions[0].Amount = 999
	require.InDelta(t, 5, blk.Transactions[0].Amount, 1e-12)
}

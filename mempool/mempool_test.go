package mempool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vindex/config"
	verrors "vindex/errors"
	"vindex/transaction"
)

func TestAddRejectsDuplicateID(t *testing.T) {
	m := New()
	tx := transaction.New("alice", "bob", 10, transaction.TypeTransfer, nil)

	require.NoError(t, m.Add(tx))
	err := m.Add(tx)
	require.Error(t, err)
	require.Equal(t, verrors.ErrCodeDuplicateTransaction, verrors.CodeOf(err))
	require.Equal(t, 1, m.Len())
}

func TestDuplicateWindow(t *testing.T) {
	m := New()
	base := time.Now()
	m.SetClock(func() time.Time { return base })

	require.NoError(t, m.Add(transaction.New("alice", "bob", 10, transaction.TypeTransfer, nil)))

	// Same sender, recipient and amount inside the window is equivalent even
	// though the id differs.
	err := m.Add(transaction.New("alice", "bob", 10, transaction.TypeTransfer, nil))
	require.Error(t, err)
	require.Equal(t, verrors.ErrCodeDuplicateTransaction, verrors.CodeOf(err))

	// A different amount is a different transaction.
	require.NoError(t, m.Add(transaction.New("alice", "bob", 11, transaction.TypeTransfer, nil)))

	// Past the window the equivalent submission is admitted again.
	m.SetClock(func() time.Time { return base.Add(config.DuplicateWindow + time.Second) })
	require.NoError(t, m.Add(transaction.New("alice", "bob", 10, transaction.TypeTransfer, nil)))
	require.Equal(t, 3, m.Len())
}

func TestPendingKeepsAdmissionOrder(t *testing.T) {
	m := New()
	first := transaction.New("alice", "bob", 10, transaction.TypeTransfer, nil)
	second := transaction.New("bob", "carol", 20, transaction.TypeTransfer, nil)
	require.NoError(t, m.Add(first))
	require.NoError(t, m.Add(second))

	pending := m.Pending()
	require.Len(t, pending, 2)
	require.Equal(t, first.ID, pending[0].ID)
	require.Equal(t, second.ID, pending[1].ID)
}

func TestCandidatesOrderByFee(t *testing.T) {
	m := New()
	small := transaction.New("alice", "bob", 10, transaction.TypeTransfer, nil)
	large := transaction.New("bob", "carol", 5000, transaction.TypeTransfer, nil)
	stake := transaction.New("carol", "carol", 500, transaction.TypeStake, nil)
	for _, tx := range []*transaction.Transaction{small, large, stake} {
		require.NoError(t, m.Add(tx))
	}

	candidates := m.Candidates(10)
	require.Len(t, candidates, 3)
	for i := 1; i < len(candidates); i++ {
		require.GreaterOrEqual(t, candidates[i-1].Fee, candidates[i].Fee)
	}
	require.Equal(t, large.ID, candidates[0].ID)

	capped := m.Candidates(2)
	require.Len(t, capped, 2)

	// Candidates does not drain the pool.
	require.Equal(t, 3, m.Len())
}

func TestRemove(t *testing.T) {
	m := New()
	first := transaction.New("alice", "bob", 10, transaction.TypeTransfer, nil)
	second := transaction.New("bob", "carol", 20, transaction.TypeTransfer, nil)
	require.NoError(t, m.Add(first))
	require.NoError(t, m.Add(second))

	m.Remove([]string{first.ID, "unknown-id"})
	require.Equal(t, 1, m.Len())

	pending := m.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, second.ID, pending[0].ID)
}

func TestSweepPrunesExpiredDedupEntries(t *testing.T) {
	m := New()
	base := time.Now()
	m.SetClock(func() time.Time { return base })

	tx := transaction.New("alice", "bob", 10, transaction.TypeTransfer, nil)
	require.NoError(t, m.Add(tx))
	m.Remove([]string{tx.ID})

	m.SetClock(func() time.Time { return base.Add(config.DuplicateWindow + time.Second) })
	m.Sweep()

	// After the sweep the dedup entry is gone and the submission admits.
	require.NoError(t, m.Add(transaction.New("alice", "bob", 10, transaction.TypeTransfer, nil)))
}

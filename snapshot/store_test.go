package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vindex/config"
	"vindex/ledger"
	"vindex/transaction"
	"vindex/wallet"
)

func testExport(t *testing.T) (*ledger.Engine, *ledger.ChainExport) {
	t.Helper()
	ks := wallet.NewKeystore()
	engine, err := ledger.NewEngine(config.DefaultGenesis(), ks, nil)
	require.NoError(t, err)

	tx := transaction.New("vx1treasury", "vx1alice", 1000, transaction.TypeTransfer, nil)
	require.NoError(t, tx.Sign(ks))
	require.NoError(t, engine.AddTransaction(tx))
	_, err = engine.MineBlock()
	require.NoError(t, err)

	return engine, engine.ExportChain()
}

func TestSaveAndLatestRoundtrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	defer store.Close()

	latest, err := store.Latest()
	require.NoError(t, err)
	require.Nil(t, latest, "empty store has no snapshot")

	_, export := testExport(t)
	require.NoError(t, store.Save(export))

	loaded, err := store.Latest()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, export.ChainID, loaded.ChainID)
	require.Equal(t, export.Height, loaded.Height)
	require.Len(t, loaded.Chain, len(export.Chain))
	require.Equal(t, export.Chain[1].Hash, loaded.Chain[1].Hash)
	require.InDelta(t, export.Circulating, loaded.Circulating, 1e-9)
}

func TestLatestPicksGreatestHeight(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	defer store.Close()

	engine, first := testExport(t)
	require.NoError(t, store.Save(first))

	tx := transaction.New("vx1treasury", "vx1bob", 2000, transaction.TypeTransfer, nil)
	require.NoError(t, tx.Sign(wallet.NewKeystore()))
	require.NoError(t, engine.AddTransaction(tx))
	_, err = engine.MineBlock()
	require.NoError(t, err)
	require.NoError(t, store.Save(engine.ExportChain()))

	loaded, err := store.Latest()
	require.NoError(t, err)
	require.Equal(t, uint64(2), loaded.Height)

	heights, err := store.Heights()
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, heights)
}

func TestSaveReplacesSameHeight(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	defer store.Close()

	_, export := testExport(t)
	require.NoError(t, store.Save(export))
	require.NoError(t, store.Save(export))

	heights, err := store.Heights()
	require.NoError(t, err)
	require.Len(t, heights, 1)
}

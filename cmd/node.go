package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vindex/config"
	"vindex/events"
	"vindex/ledger"
	"vindex/logx"
	"vindex/monitoring"
	"vindex/snapshot"
	"vindex/wallet"
)

var (
	genesisPath string
	nodeCfgPath string
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run the ledger node",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNode()
	},
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.Flags().StringVar(&genesisPath, "genesis", "", "Path to genesis.yml (built-in genesis when empty)")
	nodeCmd.Flags().StringVar(&nodeCfgPath, "config", "", "Path to node.ini (defaults when empty)")
}

func loadConfigs() (*config.GenesisConfig, *config.NodeConfig, error) {
	genesis := config.DefaultGenesis()
	if genesisPath != "" {
		loaded, err := config.LoadGenesisConfig(genesisPath)
		if err != nil {
			return nil, nil, err
		}
		genesis = loaded
	}
	nodeCfg := config.DefaultNodeConfig()
	if nodeCfgPath != "" {
		loaded, err := config.LoadNodeConfig(nodeCfgPath)
		if err != nil {
			return nil, nil, err
		}
		nodeCfg = loaded
	}
	return genesis, nodeCfg, nil
}

func runNode() error {
	genesis, nodeCfg, err := loadConfigs()
	if err != nil {
		return err
	}

	bus := events.NewEventBus()
	engine, err := ledger.NewEngine(genesis, wallet.NewKeystore(), bus)
	if err != nil {
		return fmt.Errorf("could not initialize ledger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(nodeCfg.SnapshotPath), 0o755); err != nil {
		return fmt.Errorf("could not create snapshot directory: %w", err)
	}
	store, err := snapshot.Open(nodeCfg.SnapshotPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.Start(ctx, time.Duration(nodeCfg.AutoMineIntervalMs)*time.Millisecond)
	go monitoring.Serve(nodeCfg.MetricsAddr)
	go snapshotLoop(ctx, engine, store, time.Duration(nodeCfg.SnapshotIntervalS)*time.Second)

	logx.Info("NODE", fmt.Sprintf("Node running, chain %s at height %d", genesis.ChainID, engine.ChainLength()-1))
	<-ctx.Done()

	engine.Stop()
	if err := store.Save(engine.ExportChain()); err != nil {
		logx.Error("NODE", "Final snapshot failed: ", err)
	}
	logx.Info("NODE", "Node stopped")
	return nil
}

func snapshotLoop(ctx context.Context, engine *ledger.Engine, store *snapshot.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Save(engine.ExportChain()); err != nil {
				logx.Error("NODE", "Snapshot failed: ", err)
			}
		}
	}
}

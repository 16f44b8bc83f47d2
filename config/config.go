package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// LoadGenesisConfig reads and parses a genesis.yml file
func LoadGenesisConfig(path string) (*GenesisConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open genesis config: %w", err)
	}
	defer file.Close()

	var cfg GenesisConfig
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode genesis config: %w", err)
	}
	if err := validateGenesis(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateGenesis(cfg *GenesisConfig) error {
	if cfg.ReserveAddress == "" {
		return fmt.Errorf("genesis config missing reserve_address")
	}
	if len(cfg.Validators) == 0 {
		return fmt.Errorf("genesis config seeds no validators")
	}
	funded := cfg.FundedBalance() + cfg.BondedStake()
	if funded >= TotalSupply {
		return fmt.Errorf("genesis allocations %.2f exceed total supply %.2f", funded, TotalSupply)
	}
	return nil
}

// LoadNodeConfig reads node settings from an .ini file
func LoadNodeConfig(path string) (*NodeConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("could not load node config: %w", err)
	}
	nodeCfg := DefaultNodeConfig()
	if err := cfg.Section("node").MapTo(nodeCfg); err != nil {
		return nil, fmt.Errorf("could not map node config: %w", err)
	}
	return nodeCfg, nil
}

// DefaultNodeConfig returns settings suitable for a local single-node run.
func DefaultNodeConfig() *NodeConfig {
	return &NodeConfig{
		AutoMineIntervalMs: 1000,
		SnapshotIntervalS:  60,
		SnapshotPath:       "./data/vindex-snapshots.db",
		MetricsAddr:        ":9400",
	}
}

// DefaultGenesis returns the built-in genesis used when no genesis.yml is
// supplied: three validators, three funds, and the reserve remainder.
func DefaultGenesis() *GenesisConfig {
	return &GenesisConfig{
		ChainID:        "vindex-local",
		ReserveAddress: "vx1reserve",
		Accounts: []GenesisAccount{
			{Address: "vx1treasury", Balance: 100_000_000},
			{Address: "vx1communityfund", Balance: 50_000_000},
			{Address: "vx1developmentfund", Balance: 50_000_000},
		},
		Validators: []GenesisValidator{
			{Address: "vx1genesisvalidator1", SelfStake: 1_000_000, Commission: 0.05},
			{Address: "vx1genesisvalidator2", SelfStake: 800_000, Commission: 0.08},
			{Address: "vx1genesisvalidator3", SelfStake: 600_000, Commission: 0.10},
		},
	}
}

package config

// GenesisAccount is a balance funded at block 0.
type GenesisAccount struct {
	Address string  `yaml:"address"`
	Balance float64 `yaml:"balance"`
}

// GenesisValidator is a validator seeded at block 0. Its account starts with
// zero spendable balance; the self-stake is bonded directly.
type GenesisValidator struct {
	Address    string  `yaml:"address"`
	SelfStake  float64 `yaml:"self_stake"`
	Commission float64 `yaml:"commission"`
}

// GenesisConfig describes the state of the chain at block 0. Everything not
// funded here is credited to the reserve account so total supply is fully
// accounted from the start.
type GenesisConfig struct {
	ChainID        string             `yaml:"chain_id"`
	ReserveAddress string             `yaml:"reserve_address"`
	Accounts       []GenesisAccount   `yaml:"accounts"`
	Validators     []GenesisValidator `yaml:"validators"`
}

// FundedBalance returns the sum of all seeded account balances.
func (g *GenesisConfig) FundedBalance() float64 {
	total := 0.0
	for _, acc := range g.Accounts {
		total += acc.Balance
	}
	return total
}

// BondedStake returns the sum of all genesis validator self-stakes.
func (g *GenesisConfig) BondedStake() float64 {
	total := 0.0
	for _, v := range g.Validators {
		total += v.SelfStake
	}
	return total
}

type NodeConfig struct {
	AutoMineIntervalMs int    `ini:"auto_mine_interval_ms"`
	SnapshotIntervalS  int    `ini:"snapshot_interval_s"`
	SnapshotPath       string `ini:"snapshot_path"`
	MetricsAddr        string `ini:"metrics_addr"`
}

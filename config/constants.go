package config

import "time"

// Protocol constants. These are consensus-critical: changing any of them
// changes block rewards, fees, or producer selection for every node replaying
// the chain.
const (
	// Supply
	TotalSupply = 1_000_000_000.0

	// Fee policy
	BaseFee            = 0.001
	AmountFeeRate      = 0.0001 // 0.01% of amount
	SurchargeThreshold = 1000.0
	SurchargeRate      = 0.0005 // 0.05% on the portion above the threshold

	// Block rewards
	BaseBlockReward = 10.0
	HalvingInterval = 210_000
	TxBonusPerTx    = 0.1
	TxBonusCap      = 5.0

	// Mining
	MaxBlockTransactions = 1000
	TargetBlockInterval  = 10 * time.Second

	// Staking
	MinStake        = 100.0
	MaxValidators   = 21
	UnbondingPeriod = 7 * 24 * time.Hour

	// Swap pools
	SwapPoolFee = 0.003

	// Admission
	DuplicateWindow = 60 * time.Second
	MaxTxAge        = 10 * time.Minute
	MaxTxFuture     = 60 * time.Second

	// Tolerance when re-deriving block fees, rewards, and supply totals
	Epsilon = 0.001
)

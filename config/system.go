package config

import (
	"math/big"

	"github.com/aggregion/agrio.contracts/common"
)

// SystemConf holds the policy constants of the system contract.
type SystemConf struct {
	// buy and sell fee is ceil(amount / RamFeeDivisor)
	RamFeeDivisor int64 `validate:"gt=0"`
	// token side of the market at init is supply / MarketTokenDivisor
	MarketTokenDivisor int64   `validate:"gt=0"`
	MarketWeight       float64 `validate:"gt=0,lte=1"`
	// granted on top of purchased bytes when RAM limits are recomputed
	RamGiftBytes uint64

	RefundDelaySec uint64

	VoteWeightEpoch   int64   `validate:"gte=0"`
	VoteHalfLifeDays  float64 `validate:"gt=0"`
	MaxVotedProducers int     `validate:"gt=0"`

	MaxProducers        int    `validate:"gt=0"`
	ScheduleIntervalSec uint64 `validate:"gt=0"`
	MaxUrlLength        int    `validate:"gt=0"`

	ActivationPercent int64   `validate:"gt=0,lte=100"`
	ContinuousRate    float64 `validate:"gte=0,lt=1"`
	// producers receive 1/ProducerRateDivisor of the inflation, the rest goes to savings
	ProducerRateDivisor int64 `validate:"gt=0"`
	// per-block pay receives 1/BlockRateDivisor of the producers share
	BlockRateDivisor    int64  `validate:"gt=0"`
	MinClaimIntervalSec uint64 `validate:"gt=0"`
	MinPervoteDailyPay  *big.Int

	MinBidIncrementPercent int64  `validate:"gt=0"`
	NameBidCountdownSec    uint64 `validate:"gt=0"`

	NetPerStake uint64 `validate:"gt=0"`
	CpuPerStake uint64 `validate:"gt=0"`
}

func GetDefaultSystemConfig() *SystemConf {
	return &SystemConf{
		RamFeeDivisor:          200, // 0.5%
		MarketTokenDivisor:     1000,
		MarketWeight:           0.5,
		RamGiftBytes:           1400,
		RefundDelaySec:         3 * common.SecondsPerDay,
		VoteWeightEpoch:        DefaultGenesisTime,
		VoteHalfLifeDays:       364,
		MaxVotedProducers:      30,
		MaxProducers:           21,
		ScheduleIntervalSec:    60,
		MaxUrlLength:           512,
		ActivationPercent:      15,
		ContinuousRate:         0.04879, // 5% annual
		ProducerRateDivisor:    5,
		BlockRateDivisor:       4,
		MinClaimIntervalSec:    common.SecondsPerDay,
		MinPervoteDailyPay:     big.NewInt(100_0000),
		MinBidIncrementPercent: 5,
		NameBidCountdownSec:    common.SecondsPerDay,
		NetPerStake:            1,
		CpuPerStake:            1,
	}
}

package types

import (
	"github.com/pkg/errors"
)

// ChainParams are the host-enforced blockchain parameters managed by the system contract.
type ChainParams struct {
	MaxBlockNetUsage               uint64
	TargetBlockNetUsagePct         uint32
	MaxTransactionNetUsage         uint32
	BasePerTransactionNetUsage     uint32
	NetUsageLeeway                 uint32
	ContextFreeDiscountNetUsageNum uint32
	ContextFreeDiscountNetUsageDen uint32
	MaxBlockCpuUsage               uint32
	TargetBlockCpuUsagePct         uint32
	MaxTransactionCpuUsage         uint32
	MinTransactionCpuUsage         uint32
	MaxTransactionLifetime         uint32
	DeferredTrxExpirationWindow    uint32
	MaxTransactionDelay            uint32
	MaxInlineActionSize            uint32
	MaxInlineActionDepth           uint16
	MaxAuthorityDepth              uint16
}

const percent100 = 10000

func DefaultChainParams() ChainParams {
	return ChainParams{
		MaxBlockNetUsage:               1024 * 1024,
		TargetBlockNetUsagePct:         percent100 / 10,
		MaxTransactionNetUsage:         512 * 1024,
		BasePerTransactionNetUsage:     12,
		NetUsageLeeway:                 500,
		ContextFreeDiscountNetUsageNum: 20,
		ContextFreeDiscountNetUsageDen: 100,
		MaxBlockCpuUsage:               200000,
		TargetBlockCpuUsagePct:         percent100 / 10,
		MaxTransactionCpuUsage:         150000,
		MinTransactionCpuUsage:         100,
		MaxTransactionLifetime:         60 * 60,
		DeferredTrxExpirationWindow:    10 * 60,
		MaxTransactionDelay:            45 * 24 * 3600,
		MaxInlineActionSize:            4 * 1024,
		MaxInlineActionDepth:           4,
		MaxAuthorityDepth:              6,
	}
}

func (p *ChainParams) Validate() error {
	if p.TargetBlockNetUsagePct > percent100 {
		return errors.New("target block net usage percentage cannot exceed 100%")
	}
	if p.TargetBlockCpuUsagePct > percent100 {
		return errors.New("target block cpu usage percentage cannot exceed 100%")
	}
	if uint64(p.MaxTransactionNetUsage) >= p.MaxBlockNetUsage {
		return errors.New("max transaction net usage must be less than max block net usage")
	}
	if p.MaxTransactionCpuUsage >= p.MaxBlockCpuUsage {
		return errors.New("max transaction cpu usage must be less than max block cpu usage")
	}
	if p.MinTransactionCpuUsage > p.MaxTransactionCpuUsage {
		return errors.New("min transaction cpu usage cannot exceed max transaction cpu usage")
	}
	if p.ContextFreeDiscountNetUsageDen == 0 {
		return errors.New("net usage discount ratio denominator must be positive")
	}
	if p.ContextFreeDiscountNetUsageNum > p.ContextFreeDiscountNetUsageDen {
		return errors.New("net usage discount ratio must not exceed one")
	}
	if p.MaxTransactionLifetime == 0 {
		return errors.New("max transaction lifetime must be positive")
	}
	if p.MaxInlineActionDepth == 0 || p.MaxAuthorityDepth == 0 {
		return errors.New("max inline action depth and max authority depth must be positive")
	}
	return nil
}

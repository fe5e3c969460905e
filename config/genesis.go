package config

import (
	"math/big"

	"github.com/aggregion/agrio.contracts/common"
)

type GenesisAllocation struct {
	Balance    *big.Int
	Privileged bool
}

type GenesisConf struct {
	SystemAccount common.Name
	TokenAccount  common.Name
	Symbol        string   `validate:"required,alpha,uppercase,max=7"`
	Precision     uint8    `validate:"lte=18"`
	MaxSupply     *big.Int `validate:"required"`
	InitialIssue  *big.Int `validate:"required"`
	MaxRamSize    uint64   `validate:"gt=0"`
	GenesisTime   int64    `validate:"gt=0"`
	Alloc         map[common.Name]GenesisAllocation
}

func GetDefaultGenesisConfig() *GenesisConf {
	return &GenesisConf{
		SystemAccount: common.StringToName(DefaultSystemAccount),
		TokenAccount:  common.StringToName(DefaultTokenAccount),
		Symbol:        DefaultSymbol,
		Precision:     4,
		MaxSupply:     new(big.Int).Mul(big.NewInt(2_000_000_000), big.NewInt(10_000)),
		InitialIssue:  new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(10_000)),
		MaxRamSize:    64 * 1024 * 1024 * 1024,
		GenesisTime:   DefaultGenesisTime,
		Alloc:         map[common.Name]GenesisAllocation{},
	}
}

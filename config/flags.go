package config

import "gopkg.in/urfave/cli.v1"

const (
	DefaultDataDir       = "datadir"
	DefaultVerbosity     = 3
	DefaultSystemAccount = "agrio"
	DefaultTokenAccount  = "agrio.token"
	DefaultSymbol        = "AGR"
	DefaultGenesisTime   = int64(1577836800)
)

var (
	CfgFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "JSON configuration file",
	}
	DataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "datadir for chain state",
	}
	VerbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Log verbosity (0 = crit ... 5 = trace)",
		Value: DefaultVerbosity,
	}
	GenesisTimeFlag = cli.Int64Flag{
		Name:  "genesistime",
		Usage: "Genesis block time (unix)",
	}
)

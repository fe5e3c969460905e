package config

import (
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"
)

var configValidator = validator.New(validator.WithRequiredStructEnabled())

type Config struct {
	DataDir   string
	Verbosity int          `validate:"gte=0,lte=5"`
	System    *SystemConf  `validate:"required"`
	Genesis   *GenesisConf `validate:"required"`
}

func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if c.Genesis.InitialIssue.Cmp(c.Genesis.MaxSupply) > 0 {
		return errors.New("invalid config: initial issue exceeds max supply")
	}
	if c.Genesis.SystemAccount == c.Genesis.TokenAccount {
		return errors.New("invalid config: system and token accounts must differ")
	}
	return nil
}

func MakeConfig(ctx *cli.Context) (*Config, error) {
	cfg := GetDefaultConfig()

	if file := ctx.GlobalString(CfgFileFlag.Name); file != "" {
		if err := loadConfig(file, cfg); err != nil {
			return nil, err
		}
	}

	applyFlags(ctx, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func GetDefaultConfig() *Config {
	return &Config{
		DataDir:   DefaultDataDir,
		Verbosity: DefaultVerbosity,
		System:    GetDefaultSystemConfig(),
		Genesis:   GetDefaultGenesisConfig(),
	}
}

func applyFlags(ctx *cli.Context, cfg *Config) {
	if ctx.GlobalIsSet(DataDirFlag.Name) {
		cfg.DataDir = ctx.GlobalString(DataDirFlag.Name)
	}
	if ctx.GlobalIsSet(VerbosityFlag.Name) {
		cfg.Verbosity = ctx.GlobalInt(VerbosityFlag.Name)
	}
	applyGenesisFlags(ctx, cfg)
}

func applyGenesisFlags(ctx *cli.Context, cfg *Config) {
	if ctx.GlobalIsSet(GenesisTimeFlag.Name) {
		cfg.Genesis.GenesisTime = ctx.GlobalInt64(GenesisTimeFlag.Name)
	}
}

func loadConfig(configPath string, conf *Config) error {
	if _, err := os.Stat(configPath); err != nil {
		return errors.Errorf("Config file cannot be found, path: %v", configPath)
	}
	byteValue, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Errorf("Config file cannot be opened, path: %v", configPath)
	}
	if err := json.Unmarshal(byteValue, conf); err != nil {
		return errors.Wrapf(err, "Cannot parse JSON config, path: %v", configPath)
	}
	return nil
}

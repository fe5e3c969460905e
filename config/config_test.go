package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/aggregion/agrio.contracts/common"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, common.StringToName("agrio"), cfg.Genesis.SystemAccount)
	require.Equal(t, int64(200), cfg.System.RamFeeDivisor)
}

func TestConfig_Validate(t *testing.T) {
	require := require.New(t)

	cfg := GetDefaultConfig()
	cfg.System.MaxProducers = 0
	require.Error(cfg.Validate())

	cfg = GetDefaultConfig()
	cfg.Genesis.Symbol = "agr"
	require.Error(cfg.Validate())

	cfg = GetDefaultConfig()
	cfg.Genesis.InitialIssue = new(big.Int).Add(cfg.Genesis.MaxSupply, big.NewInt(1))
	require.Error(cfg.Validate())

	cfg = GetDefaultConfig()
	cfg.System = nil
	require.Error(cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{
		"System": {"MinBidIncrementPercent": 10, "RefundDelaySec": 60},
		"Genesis": {"Symbol": "TST", "Alloc": {"alice": {"Balance": 1000}}}
	}`
	require.NoError(os.WriteFile(path, []byte(data), 0644))

	cfg := GetDefaultConfig()
	require.NoError(loadConfig(path, cfg))
	require.Equal(int64(10), cfg.System.MinBidIncrementPercent)
	require.Equal(uint64(60), cfg.System.RefundDelaySec)
	require.Equal(int64(200), cfg.System.RamFeeDivisor)
	require.Equal("TST", cfg.Genesis.Symbol)
	require.Equal(big.NewInt(1000), cfg.Genesis.Alloc[common.StringToName("alice")].Balance)
	require.NoError(cfg.Validate())

	require.Error(loadConfig(filepath.Join(dir, "missing.json"), cfg))
}

package vm

import (
	"math/big"
	"testing"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/config"
	"github.com/aggregion/agrio.contracts/core/state"
	"github.com/aggregion/agrio.contracts/core/token"
	"github.com/aggregion/agrio.contracts/deferredtx"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"
)

var (
	alice = common.StringToName("alice")
	bob   = common.StringToName("bob")
)

func createVm(t *testing.T) (*VmImpl, *config.Config) {
	s, err := state.NewLazy(dbm.NewMemDB())
	require.NoError(t, err)
	cfg := config.GetDefaultConfig()
	cfg.Genesis.MaxSupply = big.NewInt(1_000_000)
	genesis := cfg.Genesis

	vm := NewVmImpl(s, &types.Header{Height: 2, Time: 1000}, cfg)
	for _, name := range []common.Name{genesis.SystemAccount, genesis.TokenAccount, alice, bob} {
		require.NoError(t, vm.Env().CreateAccount(nil, name))
	}
	vm.Env().SetPrivileged(genesis.SystemAccount, true)
	vm.Env().Commit()

	asset := attachments.NewAsset(genesis.MaxSupply, genesis.Symbol)
	for _, action := range []*types.Action{
		types.NewAction(genesis.TokenAccount, common.StringToName("create"),
			attachments.CreateCreateTokenAttachment(genesis.SystemAccount, asset, genesis.Precision), genesis.TokenAccount),
		types.NewAction(genesis.TokenAccount, common.StringToName("issue"),
			attachments.CreateIssueAttachment(alice, attachments.NewAsset(big.NewInt(100), genesis.Symbol), ""), genesis.SystemAccount),
	} {
		receipt := vm.Run(action)
		require.True(t, receipt.Success, "%v", receipt.Error)
	}
	return vm, cfg
}

func transfer(cfg *config.Config, from, to common.Name, amount int64, auth ...common.Name) *types.Action {
	return types.NewAction(cfg.Genesis.TokenAccount, common.StringToName("transfer"),
		attachments.CreateTransferAttachment(from, to, attachments.NewAsset(big.NewInt(amount), cfg.Genesis.Symbol), ""), auth...)
}

func TestVmImpl_Run(t *testing.T) {
	require := require.New(t)
	vm, cfg := createVm(t)

	receipt := vm.Run(transfer(cfg, alice, bob, 40, alice))
	require.True(receipt.Success)
	require.False(receipt.Deferred)
	require.Positive(receipt.UsedBytes)
	require.Equal(big.NewInt(60), vm.Env().Balance(alice))
	require.Equal(big.NewInt(40), vm.Env().Balance(bob))

	receipt = vm.Run(transfer(cfg, alice, bob, 61, alice))
	require.False(receipt.Success)
	require.False(receipt.Fatal)
	require.ErrorIs(receipt.Error, token.ErrOverdrawn)
	require.Equal(big.NewInt(60), vm.Env().Balance(alice))

	receipt = vm.Run(transfer(cfg, alice, bob, 10, bob))
	require.False(receipt.Success)
	require.Equal(big.NewInt(40), vm.Env().Balance(bob))

	receipt = vm.Run(types.NewAction(bob, common.StringToName("transfer"), nil, bob))
	require.False(receipt.Success)
	require.ErrorIs(receipt.Error, UnknownContract)
}

func TestVmImpl_RunDeferred(t *testing.T) {
	require := require.New(t)
	vm, cfg := createVm(t)
	sender := cfg.Genesis.SystemAccount
	id := deferredtx.ID(alice)

	vm.Env().ScheduleDeferred(nil, sender, id, 0, transfer(cfg, alice, bob, 30, alice))
	vm.Env().Commit()
	tx := vm.Env().Deferred(sender, id)
	require.NotNil(tx)

	receipt := vm.RunDeferred(tx)
	require.True(receipt.Success)
	require.True(receipt.Deferred)
	require.Nil(vm.Env().Deferred(sender, id))
	require.Equal(big.NewInt(30), vm.Env().Balance(bob))

	vm.Env().ScheduleDeferred(nil, sender, id, 0, transfer(cfg, alice, bob, 1000, alice))
	vm.Env().Commit()
	receipt = vm.RunDeferred(vm.Env().Deferred(sender, id))
	require.False(receipt.Success)
	require.NotNil(vm.Env().Deferred(sender, id))
}

func TestVmImpl_System(t *testing.T) {
	vm, _ := createVm(t)
	sys := vm.System()
	require.Nil(t, sys.GetMarket())
	require.Nil(t, sys.GetVoter(alice))
}

package embedded

import (
	"math/big"
	"testing"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/stretchr/testify/require"
)

func TestSystem_DelegateLimits(t *testing.T) {
	require := require.New(t)
	c := createTestContractBuilder().Account(alice, 10_000).Account(bob, 0).Build(t)

	requireContractError(t, c.delegate(alice, bob, 0, 0), "must stake a positive amount")
	requireContractError(t, c.delegate(alice, bob, -1, 5), "must stake a positive amount")
	requireContractError(t, c.SystemCall("delegatebw", attachments.CreateDelegateBwAttachment(alice, alice, c.asset(1), c.asset(1), true), alice),
		"cannot use transfer flag if delegating to self")
	require.Error(c.delegate(alice, bob, 20_000, 0))

	// limits follow the delegated amount
	steps := []struct {
		delegate bool
		net, cpu int64
	}{
		{true, 300, 200},
		{true, 100, 0},
		{false, 150, 50},
		{false, 250, 150},
	}
	var net, cpu int64
	for _, step := range steps {
		if step.delegate {
			require.NoError(c.delegate(alice, bob, step.net, step.cpu))
			net, cpu = net+step.net, cpu+step.cpu
		} else {
			require.NoError(c.undelegate(alice, bob, step.net, step.cpu))
			net, cpu = net-step.net, cpu-step.cpu
		}
		_, netLimit, cpuLimit := c.Limits(bob)
		require.Equal(uint64(net)*c.conf.System.NetPerStake, netLimit)
		require.Equal(uint64(cpu)*c.conf.System.CpuPerStake, cpuLimit)
	}
	require.Nil(c.Read().GetDelegation(alice, bob))
	require.Nil(c.Read().GetUserResources(bob))
	require.Equal(0, c.Read().GetVoter(alice).Staked.Sign())

	requireContractError(t, c.undelegate(alice, bob, 1, 0), "insufficient staked net bandwidth")
}

func TestSystem_DelegateBookkeeping(t *testing.T) {
	require := require.New(t)
	c := createTestContractBuilder().Account(alice, 10_000).Account(bob, 0).Build(t)

	require.NoError(c.delegate(alice, bob, 300, 200))
	require.Equal(big.NewInt(9_500), c.Balance(alice))
	require.Equal(big.NewInt(500), c.Balance(StakeAccount))

	del := c.Read().GetDelegation(alice, bob)
	require.Equal(big.NewInt(300), del.NetWeight)
	require.Equal(big.NewInt(200), del.CpuWeight)
	res := c.Read().GetUserResources(bob)
	require.Equal(big.NewInt(300), res.NetWeight)
	require.Equal(big.NewInt(200), res.CpuWeight)
	require.Equal(big.NewInt(500), c.Read().GetVoter(alice).Staked)
	require.Nil(c.Read().GetVoter(bob))

	// transferred stake belongs to the receiver
	require.NoError(c.SystemCall("delegatebw", attachments.CreateDelegateBwAttachment(alice, bob, c.asset(100), c.asset(0), true), alice))
	require.Equal(big.NewInt(100), c.Read().GetVoter(bob).Staked)
	require.Equal(big.NewInt(100), c.Read().GetDelegation(bob, bob).NetWeight)
	require.Equal(big.NewInt(9_400), c.Balance(alice))

	requireContractError(t, c.undelegate(alice, bob, 0, 300), "insufficient staked cpu bandwidth")
}

func TestSystem_Refund(t *testing.T) {
	require := require.New(t)
	c := createTestContractBuilder().Account(alice, 10_000).Build(t)
	delay := c.conf.System.RefundDelaySec

	require.NoError(c.delegate(alice, alice, 500, 500))
	require.NoError(c.undelegate(alice, alice, 300, 100))

	req := c.Read().GetRefund(alice)
	require.Equal(big.NewInt(300), req.NetAmount)
	require.Equal(big.NewInt(100), req.CpuAmount)
	require.Equal(c.timestamp, req.RequestTime)
	require.Equal(big.NewInt(9_000), c.Balance(alice))

	deferred := c.newEnv().Deferred(c.system(), alice.Bytes())
	require.NotNil(deferred)
	require.Equal(c.timestamp+delay, deferred.DueTime)
	require.Equal("refund", deferred.Action.Name.String())

	refund := attachments.CreateOwnerAttachment(alice)
	c.advance(1, delay-1)
	err := c.SystemCall("refund", refund, alice)
	requireContractError(t, err, "refund is not available yet")
	require.True(err.(*ContractError).TryLater())

	c.advance(1, 1)
	require.NoError(c.SystemCall("refund", refund, alice))
	require.Equal(big.NewInt(9_400), c.Balance(alice))
	require.Nil(c.Read().GetRefund(alice))

	requireContractError(t, c.SystemCall("refund", refund, alice), "refund request not found")
}

func TestSystem_RefundMerge(t *testing.T) {
	require := require.New(t)
	c := createTestContractBuilder().Account(alice, 10_000).Build(t)

	require.NoError(c.delegate(alice, alice, 500, 500))
	require.NoError(c.undelegate(alice, alice, 100, 100))
	c.advance(10, 3600)
	require.NoError(c.undelegate(alice, alice, 50, 0))

	req := c.Read().GetRefund(alice)
	require.Equal(big.NewInt(150), req.NetAmount)
	require.Equal(big.NewInt(100), req.CpuAmount)
	require.Equal(c.timestamp, req.RequestTime)
	deferred := c.newEnv().Deferred(c.system(), alice.Bytes())
	require.Equal(c.timestamp+c.conf.System.RefundDelaySec, deferred.DueTime)

	// self-delegation takes stake back from the pending refund first
	balance := c.Balance(alice)
	require.NoError(c.delegate(alice, alice, 200, 0))
	req = c.Read().GetRefund(alice)
	require.Equal(0, req.NetAmount.Sign())
	require.Equal(big.NewInt(100), req.CpuAmount)
	require.Equal(new(big.Int).Sub(balance, big.NewInt(50)), c.Balance(alice))

	require.NoError(c.delegate(alice, alice, 0, 100))
	require.Nil(c.Read().GetRefund(alice))
	require.Nil(c.newEnv().Deferred(c.system(), alice.Bytes()))
	require.Equal(new(big.Int).Sub(balance, big.NewInt(50)), c.Balance(alice))
	require.Equal(big.NewInt(1050), c.Read().GetVoter(alice).Staked)
}

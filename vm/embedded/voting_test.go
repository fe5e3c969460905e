package embedded

import (
	"math/big"
	"testing"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/config"
	"github.com/stretchr/testify/require"
)

func TestSystem_VoteProducer(t *testing.T) {
	require := require.New(t)
	c := createTestContractBuilder().Account(alice, 10_000).Account(prod1, 0).Build(t)

	require.NoError(c.register(prod1))
	require.NoError(c.delegate(alice, alice, 500, 500))
	require.NoError(c.vote(alice, prod1))

	sys := c.Read()
	require.InDelta(1000, float64(sys.GetProducer(prod1).TotalVotes), 1e-6)
	require.InDelta(1000, float64(sys.GetGlobal().TotalProducerVoteWeight), 1e-6)
	require.Equal(big.NewInt(1000), sys.GetGlobal().TotalActivatedStake)
	require.Equal([]common.Name{prod1}, sys.GetVoter(alice).Producers)

	require.NoError(c.undelegate(alice, alice, 200, 200))
	sys = c.Read()
	require.InDelta(600, float64(sys.GetProducer(prod1).TotalVotes), 1e-6)
	req := sys.GetRefund(alice)
	require.Equal(big.NewInt(400), new(big.Int).Add(req.NetAmount, req.CpuAmount))
	c.requireVoteTotals()

	// an empty vote withdraws the weight
	require.NoError(c.vote(alice))
	require.InDelta(0, float64(c.Read().GetProducer(prod1).TotalVotes), 1e-6)
	c.requireVoteTotals()
}

func TestSystem_VoteErrors(t *testing.T) {
	c := createTestContractBuilder().
		Account(alice, 10_000).
		Account(bob, 10_000).
		Account(prod1, 0).Account(prod2, 0).Account(prod3, 0).
		Configure(func(cfg *config.Config) {
			cfg.System.MaxVotedProducers = 2
		}).
		Build(t)

	requireContractError(t, c.vote(alice, prod1), "user must stake before they can vote")

	require.NoError(t, c.delegate(alice, alice, 500, 500))
	require.NoError(t, c.register(prod1))
	require.NoError(t, c.register(prod2))

	requireContractError(t, c.vote(alice, prod2, prod1), "producer votes must be unique and sorted")
	requireContractError(t, c.vote(alice, prod1, prod1), "producer votes must be unique and sorted")
	requireContractError(t, c.vote(alice, prod1, prod2, prod3), "attempt to vote for too many producers")
	requireContractError(t, c.vote(alice, prod1, prod3), "producer producer3 is not registered")

	require.NoError(t, c.SystemCall("unregprod", attachments.CreateOwnerAttachment(prod2), prod2))
	requireContractError(t, c.vote(alice, prod1, prod2), "producer producer2 is not currently registered")

	requireContractError(t, c.SystemCall("voteproducer", attachments.CreateVoteProducerAttachment(alice, bob, prod1), alice),
		"cannot vote for producers and proxy at same time")
	requireContractError(t, c.voteProxy(alice, alice), "cannot proxy to self")
	requireContractError(t, c.voteProxy(alice, carol), "invalid proxy specified")
	require.NoError(t, c.delegate(bob, bob, 1, 1))
	requireContractError(t, c.voteProxy(alice, bob), "proxy not found")
	require.Error(t, c.SystemCall("voteproducer", attachments.CreateVoteProducerAttachment(bob, 0, prod1), alice))
}

func TestSystem_Proxy(t *testing.T) {
	require := require.New(t)
	c := createTestContractBuilder().
		Account(alice, 10_000).
		Account(proxy, 1_000).
		Account(prod1, 0).Account(prod2, 0).
		Build(t)
	require.NoError(c.register(prod1))
	require.NoError(c.register(prod2))

	regproxy := func(isProxy bool) error {
		return c.SystemCall("regproxy", attachments.CreateRegProxyAttachment(proxy, isProxy), proxy)
	}
	require.NoError(regproxy(true))
	requireContractError(t, regproxy(true), "action has no effect")

	require.NoError(c.delegate(proxy, proxy, 50, 50))
	require.NoError(c.vote(proxy, prod1))
	require.InDelta(100, float64(c.Read().GetProducer(prod1).TotalVotes), 1e-6)

	require.NoError(c.delegate(alice, alice, 500, 500))
	require.NoError(c.voteProxy(alice, proxy))
	sys := c.Read()
	require.InDelta(1100, float64(sys.GetProducer(prod1).TotalVotes), 1e-6)
	require.InDelta(1000, float64(sys.GetVoter(proxy).ProxiedVoteWeight), 1e-6)
	require.InDelta(1100, float64(sys.GetVoter(proxy).LastVoteWeight), 1e-6)
	c.requireVoteTotals()

	// stake changes of a proxied voter reach the proxy's producers
	require.NoError(c.delegate(alice, alice, 250, 250))
	require.InDelta(1600, float64(c.Read().GetProducer(prod1).TotalVotes), 1e-6)
	c.requireVoteTotals()

	requireContractError(t, c.voteProxy(proxy, alice), "account registered as a proxy is not allowed to use a proxy")
	requireContractError(t, c.SystemCall("regproxy", attachments.CreateRegProxyAttachment(alice, true), alice),
		"account that uses a proxy is not allowed to become a proxy")

	// the proxy switches producers and carries the proxied weight along
	require.NoError(c.vote(proxy, prod2))
	sys = c.Read()
	require.InDelta(0, float64(sys.GetProducer(prod1).TotalVotes), 1e-6)
	require.InDelta(1600, float64(sys.GetProducer(prod2).TotalVotes), 1e-6)

	require.NoError(c.vote(alice, prod1))
	sys = c.Read()
	require.InDelta(1500, float64(sys.GetProducer(prod1).TotalVotes), 1e-6)
	require.InDelta(100, float64(sys.GetProducer(prod2).TotalVotes), 1e-6)
	require.InDelta(0, float64(sys.GetVoter(proxy).ProxiedVoteWeight), 1e-6)
	c.requireVoteTotals()

	require.NoError(regproxy(false))
	require.False(c.Read().GetVoter(proxy).IsProxy)
	c.requireVoteTotals()
}

func TestSystem_VoteWeightGrowsWithTime(t *testing.T) {
	require := require.New(t)
	c := createTestContractBuilder().Account(alice, 10_000).Account(prod1, 0).Build(t)
	require.NoError(c.register(prod1))
	require.NoError(c.delegate(alice, alice, 500, 500))
	require.NoError(c.vote(alice, prod1))

	days := uint64(c.conf.System.VoteHalfLifeDays)
	c.advance(1, days*common.SecondsPerDay)
	require.NoError(c.vote(alice, prod1))
	sys := c.Read()
	require.InDelta(2000, float64(sys.GetProducer(prod1).TotalVotes), 1e-6)
	// activation is counted once
	require.Equal(big.NewInt(1000), sys.GetGlobal().TotalActivatedStake)
	c.requireVoteTotals()
}

func TestSystem_Activation(t *testing.T) {
	require := require.New(t)
	c := createTestContractBuilder().
		Account(alice, 100_000_000).
		Account(bob, 100_000_000).
		Account(prod1, 0).
		Build(t)
	require.NoError(c.register(prod1))

	require.NoError(c.delegate(alice, alice, 50_000_000, 50_000_000))
	require.NoError(c.vote(alice, prod1))
	require.False(c.Read().GetGlobal().Activated())

	c.advance(1, 10)
	require.NoError(c.delegate(bob, bob, 25_000_000, 25_000_000))
	require.NoError(c.vote(bob, prod1))
	g := c.Read().GetGlobal()
	require.True(g.Activated())
	require.Equal(c.timestamp, g.ThreshActivatedStakeTime)
	require.Equal(big.NewInt(150_000_000), g.TotalActivatedStake)

	c.advance(1, 10)
	require.NoError(c.vote(bob))
	require.NoError(c.vote(bob, prod1))
	require.Equal(c.timestamp-10, c.Read().GetGlobal().ThreshActivatedStakeTime)
}

package embedded

import (
	"math/big"
	"testing"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/stretchr/testify/require"
)

func createActivatedTester(t *testing.T) *contractTester {
	c := createTestContractBuilder().
		Account(alice, 100_000_000).
		Account(bob, 100_000_000).
		Account(prod1, 0).Account(prod2, 0).
		Build(t)
	require.NoError(t, c.register(prod1))
	require.NoError(t, c.register(prod2))
	require.NoError(t, c.delegate(alice, alice, 50_000_000, 50_000_000))
	require.NoError(t, c.vote(alice, prod1))
	require.NoError(t, c.delegate(bob, bob, 30_000_000, 30_000_000))
	require.NoError(t, c.vote(bob, prod2))
	require.True(t, c.Read().GetGlobal().Activated())
	return c
}

func (c *contractTester) claim(producer common.Name) error {
	return c.SystemCall("claimrewards", attachments.CreateOwnerAttachment(producer), producer)
}

// inflation splits the minted amount the way fillBuckets does
func inflation(newTokens *big.Int) (toSavings, toPerBlock, toPerVote *big.Int) {
	toProducers := new(big.Int).Quo(newTokens, big.NewInt(5))
	toSavings = new(big.Int).Sub(newTokens, toProducers)
	toPerBlock = new(big.Int).Quo(toProducers, big.NewInt(4))
	toPerVote = new(big.Int).Sub(toProducers, toPerBlock)
	return
}

func TestSystem_ClaimRewardsErrors(t *testing.T) {
	c := createTestContractBuilder().Account(alice, 1_000).Account(prod1, 0).Build(t)
	require.NoError(t, c.register(prod1))

	requireContractError(t, c.claim(alice), "producer not found")
	requireContractError(t, c.claim(prod1), "cannot claim rewards until the chain is activated")
	require.Error(t, c.SystemCall("claimrewards", attachments.CreateOwnerAttachment(prod1), alice))

	require.NoError(t, c.SystemCall("unregprod", attachments.CreateOwnerAttachment(prod1), prod1))
	requireContractError(t, c.claim(prod1), "producer does not have an active key")
}

func TestSystem_ClaimRewards(t *testing.T) {
	require := require.New(t)
	c := createActivatedTester(t)

	require.NoError(c.onblock(prod1))
	require.Equal(c.timestamp, c.Read().GetGlobal().LastPervoteBucketFill)
	requireContractError(t, c.claim(prod1), "already claimed rewards within past day")

	c.advance(1, common.SecondsPerDay)
	supply := c.newEnv().Supply()
	require.NoError(c.claim(prod1))

	newTokens := new(big.Int).Sub(c.newEnv().Supply(), supply)
	require.Equal(1, newTokens.Sign())
	toSavings, toPerBlock, toPerVote := inflation(newTokens)

	require.Equal(toSavings, c.Balance(SavingAccount))
	require.Equal(newTokens, new(big.Int).Add(c.Balance(SavingAccount), new(big.Int).Add(c.Balance(prod1),
		new(big.Int).Add(c.Balance(BpayAccount), c.Balance(VpayAccount)))))

	perVote := new(big.Int).Sub(c.Balance(prod1), toPerBlock)
	expected := new(big.Int).Quo(new(big.Int).Mul(toPerVote, big.NewInt(100)), big.NewInt(160))
	require.InDelta(float64(expected.Int64()), float64(perVote.Int64()), 1)

	g := c.Read().GetGlobal()
	require.Equal(0, g.PerblockBucket.Sign())
	require.Equal(c.Balance(VpayAccount), g.PervoteBucket)
	require.Zero(c.Balance(BpayAccount).Sign())
	require.Zero(g.TotalUnpaidBlocks)
	p := c.Read().GetProducer(prod1)
	require.Zero(p.UnpaidBlocks)
	require.Equal(c.timestamp, p.LastClaimTime)

	requireContractError(t, c.claim(prod1), "already claimed rewards within past day")

	// buckets were filled at this timestamp: no new tokens for the second producer
	supply = c.newEnv().Supply()
	require.NoError(c.claim(prod2))
	require.Equal(supply, c.newEnv().Supply())
	require.Equal(1, c.Balance(prod2).Sign())
}

func TestSystem_UpdateRevision(t *testing.T) {
	require := require.New(t)
	c := createActivatedTester(t)

	require.Error(c.SystemCall("updtrevision", attachments.CreateUpdtRevisionAttachment(1), alice))
	requireContractError(t, c.SystemCall("updtrevision", attachments.CreateUpdtRevisionAttachment(2), c.system()),
		"can only increment revision by one")
	require.NoError(c.SystemCall("updtrevision", attachments.CreateUpdtRevisionAttachment(1), c.system()))
	requireContractError(t, c.SystemCall("updtrevision", attachments.CreateUpdtRevisionAttachment(2), c.system()),
		"can not increment revision")

	g := c.Read().GetGlobal()
	require.Equal(uint8(1), g.Revision)
	require.Equal(c.timestamp, g.LastVpayStateUpdate)
	require.InDelta(160_000_000, float64(g.TotalVpayShareChangeRate), 1e-3)
	require.Equal(c.timestamp, c.Read().GetProducer2(prod1).LastVotepayShareUpdate)

	require.NoError(c.onblock(prod1))
	c.advance(1, common.SecondsPerDay)
	supply := c.newEnv().Supply()
	require.NoError(c.claim(prod1))
	_, toPerBlock, toPerVote := inflation(new(big.Int).Sub(c.newEnv().Supply(), supply))

	perVote := new(big.Int).Sub(c.Balance(prod1), toPerBlock)
	expected := new(big.Int).Quo(new(big.Int).Mul(toPerVote, big.NewInt(100)), big.NewInt(160))
	require.InDelta(float64(expected.Int64()), float64(perVote.Int64()), 2)
	require.Zero(float64(c.Read().GetProducer2(prod1).VotepayShare))

	// the remaining share belongs to the second producer
	require.NoError(c.claim(prod2))
	require.InDelta(float64(toPerVote.Int64()-expected.Int64()), float64(c.Balance(prod2).Int64()), 2)
	require.InDelta(0, float64(c.Read().GetGlobal().TotalProducerVotepayShare), 1)
}

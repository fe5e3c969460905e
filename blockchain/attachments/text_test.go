package attachments

import (
	"math/big"
	"testing"

	"github.com/aggregion/agrio.contracts/common"
	"github.com/stretchr/testify/require"
)

func TestParseAsset(t *testing.T) {
	require := require.New(t)
	asset, err := ParseAsset("1500 AGR")
	require.NoError(err)
	require.Equal(0, asset.Amount.Cmp(big.NewInt(1500)))
	require.Equal("AGR", asset.Symbol)
	require.Equal("1500 AGR", asset.String())

	_, err = ParseAsset("AGR")
	require.ErrorIs(err, ErrInvalidAsset)
	_, err = ParseAsset("1.5 AGR")
	require.ErrorIs(err, ErrInvalidAsset)
}

func TestFromMap(t *testing.T) {
	require := require.New(t)

	data, err := FromMap("delegatebw", map[string]interface{}{
		"From":     "alice",
		"Receiver": "bob",
		"StakeNet": "600 AGR",
		"StakeCpu": "400 AGR",
		"Transfer": true,
	})
	require.NoError(err)
	delegate := ParseDelegateBwAttachment(action("delegatebw", data))
	require.NotNil(delegate)
	require.Equal(common.StringToName("alice"), delegate.From)
	require.Equal(common.StringToName("bob"), delegate.Receiver)
	require.Equal(0, delegate.StakeNet.Amount.Cmp(big.NewInt(600)))
	require.True(delegate.Transfer)

	data, err = FromMap("voteproducer", map[string]interface{}{
		"Voter":     "alice",
		"Producers": []interface{}{"bp1", "bp2"},
	})
	require.NoError(err)
	vote := ParseVoteProducerAttachment(action("voteproducer", data))
	require.NotNil(vote)
	require.True(vote.Proxy.IsEmpty())
	require.Equal([]common.Name{common.StringToName("bp1"), common.StringToName("bp2")}, vote.Producers)

	data, err = FromMap("buyrambytes", map[string]interface{}{
		"Payer":    "alice",
		"Receiver": "alice",
		"Bytes":    float64(4096),
	})
	require.NoError(err)
	require.Equal(uint64(4096), ParseBuyRamBytesAttachment(action("buyrambytes", data)).Bytes)

	_, err = FromMap("unknown", nil)
	require.ErrorIs(err, ErrUnknownAction)
	_, err = FromMap("refund", map[string]interface{}{"Owner": "alice", "Extra": 1})
	require.Error(err)
	_, err = FromMap("refund", map[string]interface{}{"Owner": "Alice"})
	require.Error(err)
}

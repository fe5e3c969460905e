package state

import (
	"testing"

	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"
)

func createStateDb(t *testing.T) *StateDB {
	s, err := NewLazy(dbm.NewMemDB())
	require.NoError(t, err)
	return s
}

func TestStateDB_ContractStore(t *testing.T) {
	require := require.New(t)
	s := createStateDb(t)
	contract := common.StringToName("agrio")
	other := common.StringToName("agrio.token")

	s.SetContractValue(contract, []byte{0x1}, []byte{0x1})
	s.SetContractValue(contract, []byte{0x3}, []byte{0x3})
	s.SetContractValue(other, []byte{0x2}, []byte{0x2})
	_, _, err := s.Commit()
	require.NoError(err)

	s.SetContractValue(contract, []byte{0x2}, []byte{0x2})
	s.RemoveContractValue(contract, []byte{0x3})
	s.SetContractValue(contract, []byte{0x4}, []byte{0x4})

	require.Equal([]byte{0x1}, s.GetContractValue(contract, []byte{0x1}))
	require.Nil(s.GetContractValue(contract, []byte{0x3}))

	var keys []byte
	s.IterateContractStore(contract, nil, nil, func(key []byte, value []byte) bool {
		keys = append(keys, key...)
		return false
	})
	require.Equal([]byte{0x1, 0x2, 0x4}, keys)

	keys = nil
	s.IterateContractStore(contract, []byte{0x2}, []byte{0x4}, func(key []byte, value []byte) bool {
		keys = append(keys, key...)
		return false
	})
	require.Equal([]byte{0x2}, keys)
}

func TestStateDB_CommitAndReset(t *testing.T) {
	require := require.New(t)
	s := createStateDb(t)

	s.SetAccount(&Account{Name: common.StringToName("alice"), Created: 1})
	root, version, err := s.Commit()
	require.NoError(err)
	require.Equal(int64(1), version)
	require.False(root.IsEmpty())

	s.SetAccount(&Account{Name: common.StringToName("bob"), Created: 2})
	s.Precommit()
	require.NotEqual(root, s.Root())

	s.Reset()
	require.Equal(root, s.Root())
	require.False(s.AccountExists(common.StringToName("bob")))
	require.True(s.AccountExists(common.StringToName("alice")))
}

func TestStateDB_Accounts(t *testing.T) {
	require := require.New(t)
	s := createStateDb(t)

	s.SetAccount(&Account{Name: common.StringToName("bob"), RamBytes: 10})
	s.SetAccount(&Account{Name: common.StringToName("alice"), Privileged: true})
	s.SetChainGlobal(&ChainGlobal{Params: types.DefaultChainParams()})

	var names []common.Name
	s.IterateAccounts(func(account *Account) bool {
		names = append(names, account.Name)
		return false
	})
	require.Equal([]common.Name{common.StringToName("alice"), common.StringToName("bob")}, names)
	require.Equal(uint64(10), s.GetAccount(common.StringToName("bob")).RamBytes)
	require.Nil(s.GetAccount(common.StringToName("carol")))
	require.Equal(types.DefaultChainParams(), s.GetChainGlobal().Params)
}

func TestStateDB_ForCheck(t *testing.T) {
	require := require.New(t)
	s := createStateDb(t)
	contract := common.StringToName("agrio")

	s.SetContractValue(contract, []byte{0x1}, []byte{0x1})
	_, version, err := s.Commit()
	require.NoError(err)

	check, err := s.ForCheck(uint64(version))
	require.NoError(err)
	check.SetContractValue(contract, []byte{0x1}, []byte{0x2})
	check.SetDeferred([]byte{0x9}, []byte{0x9})
	_, _, err = check.Commit()
	require.NoError(err)
	require.Equal([]byte{0x2}, check.GetContractValue(contract, []byte{0x1}))

	require.Equal([]byte{0x1}, s.GetContractValue(contract, []byte{0x1}))
	require.Nil(s.GetDeferred([]byte{0x9}))
	require.Equal(version, s.Version())
}

func TestStateDB_Deferred(t *testing.T) {
	require := require.New(t)
	s := createStateDb(t)
	s.SetDeferred([]byte{0x2}, []byte{0x2})
	s.SetDeferred([]byte{0x1}, []byte{0x1})
	s.SetContractValue(common.StringToName("agrio"), []byte{0x1}, []byte{0x1})
	_, _, err := s.Commit()
	require.NoError(err)
	s.RemoveDeferred([]byte{0x2})

	var keys []byte
	s.IterateDeferred(func(key []byte, value []byte) bool {
		keys = append(keys, key...)
		return false
	})
	require.Equal([]byte{0x1}, keys)
}

package token

import (
	"math/big"
	"testing"

	"github.com/aggregion/agrio.contracts/common"
	"github.com/stretchr/testify/require"
)

type memStore map[string][]byte

func (m memStore) Get(key []byte) []byte        { return m[string(key)] }
func (m memStore) Set(key []byte, value []byte) { m[string(key)] = value }
func (m memStore) Remove(key []byte)            { delete(m, string(key)) }

var (
	issuer = common.StringToName("agrio")
	alice  = common.StringToName("alice")
	bob    = common.StringToName("bob")
)

func TestLedger_Issue(t *testing.T) {
	require := require.New(t)
	l := NewLedger(memStore{})

	require.Equal(ErrNotCreated, l.Issue(alice, big.NewInt(1)))
	require.NoError(l.Create(issuer, big.NewInt(1000), "AGR", 4))
	require.Equal(ErrAlreadyCreated, l.Create(issuer, big.NewInt(1000), "AGR", 4))

	require.NoError(l.Issue(alice, big.NewInt(600)))
	require.Equal(ErrSupplyExceeded, l.Issue(alice, big.NewInt(401)))
	require.Equal(ErrNonPositive, l.Issue(alice, big.NewInt(0)))

	require.Equal(big.NewInt(600), l.Balance(alice))
	require.Equal(big.NewInt(600), l.Supply())
	require.Equal(big.NewInt(1000), l.MaxSupply())
	require.Equal("AGR", l.Symbol())

	require.NoError(l.Retire(alice, big.NewInt(100)))
	require.Equal(big.NewInt(500), l.Supply())
	require.Equal(ErrOverdrawn, l.Retire(alice, big.NewInt(501)))
}

func TestLedger_Transfer(t *testing.T) {
	require := require.New(t)
	store := memStore{}
	l := NewLedger(store)
	require.NoError(l.Create(issuer, big.NewInt(1000), "AGR", 4))
	require.NoError(l.Issue(alice, big.NewInt(100)))

	require.Equal(ErrOverdrawn, l.Transfer(alice, bob, big.NewInt(101)))
	require.Equal(ErrSelfTransfer, l.Transfer(alice, alice, big.NewInt(1)))
	require.Equal(ErrNonPositive, l.Transfer(alice, bob, big.NewInt(-1)))

	require.NoError(l.Transfer(alice, bob, big.NewInt(100)))
	require.Zero(l.Balance(alice).Sign())
	require.Equal(big.NewInt(100), l.Balance(bob))
	require.Nil(store.Get(balanceKey(alice)))
	require.Equal(big.NewInt(100), l.Supply())
}

package state

import (
	"encoding/binary"

	"github.com/aggregion/agrio.contracts/common"
	dbm "github.com/tendermint/tm-db"
)

var (
	//global db keys
	currentStateDbPrefixKey = []byte{0x1}

	//state prefixes
	stateDbPrefixBytes = []byte{0x1}

	//state db prefixes and keys
	accountPrefix       = []byte{0x1}
	globalKey           = []byte{0x3}
	contractStorePrefix = []byte{0x5}
	deferredPrefix      = []byte{0x6}
)

var StateDbKeys = &stateDbKeys{}

type stateDbKeys struct {
}

func (s *stateDbKeys) LoadDbPrefix(db dbm.DB) ([]byte, error) {
	p, err := db.Get(currentStateDbPrefixKey)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = s.BuildDbPrefix(0)
		b := db.NewBatch()
		defer b.Close()
		b.Set(currentStateDbPrefixKey, p)
		if err := b.WriteSync(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *stateDbKeys) BuildDbPrefix(height uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, height)

	return append(append([]byte{}, stateDbPrefixBytes...), b...)
}

func (s *stateDbKeys) AccountKey(name common.Name) []byte {
	return append(append([]byte{}, accountPrefix...), name.Bytes()...)
}

func (s *stateDbKeys) GlobalKey() []byte {
	return globalKey
}

func (s *stateDbKeys) ContractStorePrefix(contract common.Name) []byte {
	return append(append([]byte{}, contractStorePrefix...), contract.Bytes()...)
}

func (s *stateDbKeys) ContractStoreKey(contract common.Name, key []byte) []byte {
	return append(s.ContractStorePrefix(contract), key...)
}

func (s *stateDbKeys) DeferredKey(key []byte) []byte {
	return append(append([]byte{}, deferredPrefix...), key...)
}

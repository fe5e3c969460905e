package types

import (
	"encoding/binary"

	"github.com/aggregion/agrio.contracts/common"
	"github.com/tendermint/iavl"
	db "github.com/tendermint/tm-db"
)

type DerivableList interface {
	Len() int
	GetBytes(i int) []byte
}

// DeriveSha returns the root of an in-memory tree keyed by list position.
func DeriveSha(list DerivableList) common.Hash {
	if list.Len() == 0 {
		return common.Hash{}
	}
	tree, _ := iavl.NewMutableTree(db.NewMemDB(), 1024)
	for i := 0; i < list.Len(); i++ {
		key := make([]byte, 4)
		binary.BigEndian.PutUint32(key, uint32(i))
		tree.Set(key, list.GetBytes(i))
	}
	return common.BytesToHash(tree.WorkingHash())
}

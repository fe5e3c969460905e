package state

import (
	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Account is the host-side record of an account.
type Account struct {
	Name       common.Name
	Created    uint64 // block height
	Privileged bool
	RamBytes   uint64
	NetWeight  uint64
	CpuWeight  uint64
}

// ChainGlobal is the host-side chain configuration driven by the system contract.
type ChainGlobal struct {
	Schedule types.ProducerSchedule
	// set when the schedule changed and was not yet attached to a block header
	SchedulePending bool
	Params          types.ChainParams
}

func (a *Account) ToBytes() ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

func (a *Account) FromBytes(data []byte) error {
	return rlp.DecodeBytes(data, a)
}

func (g *ChainGlobal) ToBytes() ([]byte, error) {
	return rlp.EncodeToBytes(g)
}

func (g *ChainGlobal) FromBytes(data []byte) error {
	return rlp.DecodeBytes(data, g)
}

package types

import (
	"fmt"
	"sync/atomic"

	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Action is a call of a named operation on a contract account.
type Action struct {
	Account       common.Name
	Name          common.Name
	Authorization []common.Name
	Data          []byte

	// caches
	hash atomic.Value
}

type ProducerKey struct {
	Owner common.Name
	Key   string
}

type ProducerSchedule struct {
	Version   uint64
	Producers []ProducerKey
}

type Header struct {
	ParentHash      common.Hash
	Height          uint64
	Time            uint64
	Producer        common.Name
	Root            common.Hash // root of state tree
	ActionHash      common.Hash
	ScheduleVersion uint64
	NewProducers    *ProducerSchedule `rlp:"nil"`
}

type Body struct {
	Actions []*Action
}

type Block struct {
	Header *Header
	Body   *Body

	// caches
	hash atomic.Value
}

type ActionReceipt struct {
	ActionHash common.Hash
	Account    common.Name
	Name       common.Name
	Success    bool
	Error      error
	// Fatal is set when the action broke an internal invariant
	Fatal     bool
	Deferred  bool
	UsedBytes int
}

type Actions []*Action

func NewAction(account, name common.Name, data []byte, authorization ...common.Name) *Action {
	return &Action{
		Account:       account,
		Name:          name,
		Authorization: authorization,
		Data:          data,
	}
}

func (a *Action) Hash() common.Hash {
	if hash := a.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	h := rlpHash(a)
	a.hash.Store(h)
	return h
}

func (a *Action) String() string {
	return fmt.Sprintf("%v::%v", a.Account, a.Name)
}

func (a *Action) ToBytes() ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

func (a *Action) FromBytes(data []byte) error {
	return rlp.DecodeBytes(data, a)
}

func (a Actions) Len() int { return len(a) }

func (a Actions) GetBytes(i int) []byte {
	enc, _ := rlp.EncodeToBytes(a[i])
	return enc
}

func (h *Header) Hash() common.Hash {
	return rlpHash(h)
}

func (b *Block) Hash() common.Hash {
	if hash := b.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	v := b.Header.Hash()
	b.hash.Store(v)
	return v
}

func (b *Block) Height() uint64 {
	return b.Header.Height
}

func (b *Block) Root() common.Hash {
	return b.Header.Root
}

func (r *ActionReceipt) String() string {
	if r.Success {
		return fmt.Sprintf("%v::%v ok", r.Account, r.Name)
	}
	return fmt.Sprintf("%v::%v failed: %v", r.Account, r.Name, r.Error)
}

// Equal reports whether the schedule holds the same producers in the same order.
func (s *ProducerSchedule) Equal(producers []ProducerKey) bool {
	if len(s.Producers) != len(producers) {
		return false
	}
	for i := range producers {
		if s.Producers[i] != producers[i] {
			return false
		}
	}
	return true
}

func rlpHash(x interface{}) common.Hash {
	enc, err := rlp.EncodeToBytes(x)
	if err != nil {
		return common.Hash{}
	}
	return crypto.Hash(enc)
}

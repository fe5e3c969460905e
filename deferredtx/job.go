package deferredtx

import (
	"bytes"
	"sort"

	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/log"
	"github.com/aggregion/agrio.contracts/vm/helpers"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

const (
	// a failed deferred tx is dropped after this many tries unless it asked to try later
	MaxSendTries = 4
)

// Store keeps deferred rows keyed by (sender, id).
type Store interface {
	GetDeferred(key []byte) []byte
	SetDeferred(key []byte, value []byte)
	RemoveDeferred(key []byte)
	IterateDeferred(f func(key []byte, value []byte) bool)
}

type DeferredTx struct {
	Sender         common.Name
	ID             []byte
	Action         *types.Action
	DueTime        uint64 // unix seconds
	BroadcastBlock uint64 // earliest height of the next try
	SendTry        uint32
}

func Key(sender common.Name, id []byte) []byte {
	return append(sender.Bytes(), id...)
}

// ID joins names into a deferred tx reference id.
func ID(parts ...common.Name) []byte {
	return helpers.JoinNames(parts...)
}

func (d *DeferredTx) Key() []byte {
	return Key(d.Sender, d.ID)
}

func (d *DeferredTx) ToBytes() ([]byte, error) {
	return rlp.EncodeToBytes(d)
}

func (d *DeferredTx) FromBytes(data []byte) error {
	return rlp.DecodeBytes(data, d)
}

func logCtx(tx *DeferredTx) []interface{} {
	return []interface{}{"sender", tx.Sender, "action", tx.Action.String(), "due", tx.DueTime, "broadcastBlock", tx.BroadcastBlock, "try", tx.SendTry}
}

type tryLater interface {
	TryLater() bool
}

// Job selects due deferred transactions and books their failures.
type Job struct {
	store Store
	log   log.ThrottlingLogger
}

func NewJob(store Store) *Job {
	return &Job{
		store: store,
		log:   log.NewThrottlingLogger(log.New("component", "deferredtx")),
	}
}

func Load(store Store, sender common.Name, id []byte) *DeferredTx {
	data := store.GetDeferred(Key(sender, id))
	if data == nil {
		return nil
	}
	tx := new(DeferredTx)
	if err := tx.FromBytes(data); err != nil {
		return nil
	}
	return tx
}

func Save(store Store, tx *DeferredTx) {
	data, err := tx.ToBytes()
	if err != nil {
		panic(err)
	}
	store.SetDeferred(tx.Key(), data)
}

// Due returns the transactions ready to run, ordered by due time and then by key.
func (j *Job) Due(height uint64, now uint64) []*DeferredTx {
	var res []*DeferredTx
	j.store.IterateDeferred(func(key []byte, value []byte) bool {
		tx := new(DeferredTx)
		if err := tx.FromBytes(value); err != nil {
			j.log.Error("Invalid deferred tx", "key", key, "err", err)
			return false
		}
		if tx.DueTime <= now && tx.BroadcastBlock <= height {
			res = append(res, tx)
		}
		return false
	})
	sort.SliceStable(res, func(i, k int) bool {
		if res[i].DueTime != res[k].DueTime {
			return res[i].DueTime < res[k].DueTime
		}
		return bytes.Compare(res[i].Key(), res[k].Key()) < 0
	})
	return res
}

// HandleFailure reschedules or drops a deferred tx whose run failed with err.
// It returns true if the tx was dropped.
func (j *Job) HandleFailure(tx *DeferredTx, height uint64, err error) bool {
	j.log.Warn("Deferred tx failed", append(logCtx(tx), "err", err)...)
	tx.SendTry++
	if t, ok := errors.Cause(err).(tryLater); ok && t.TryLater() {
		tx.BroadcastBlock = calculateBroadcastBlock(height, int(tx.SendTry))
		Save(j.store, tx)
		return false
	}
	if tx.SendTry >= MaxSendTries {
		log.Info("Dropping deferred tx", logCtx(tx)...)
		j.store.RemoveDeferred(tx.Key())
		return true
	}
	tx.BroadcastBlock = height + 1
	Save(j.store, tx)
	return false
}

func calculateBroadcastBlock(prevBlock uint64, try int) uint64 {
	add := uint64(1)
	switch try {
	case 1:
		add = 1
	case 2:
		add = 2
	case 3:
		add = 4
	default:
		add = 8
	}
	return prevBlock + add
}

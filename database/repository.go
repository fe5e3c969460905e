package database

import (
	"encoding/binary"

	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/log"
	"github.com/ethereum/go-ethereum/rlp"
	dbm "github.com/tendermint/tm-db"
)

type Repo struct {
	db dbm.DB
}

func NewRepo(db dbm.DB) *Repo {
	return &Repo{
		db: db,
	}
}

// encodeUint64 encodes a number as big endian uint64
func encodeUint64(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

// headerKey = headerPrefix + hash
func headerKey(hash common.Hash) []byte {
	return append(append([]byte{}, headerPrefix...), hash.Bytes()...)
}

func headerHashKey(number uint64) []byte {
	return append(append(append([]byte{}, headerPrefix...), encodeUint64(number)...), headerHashSuffix...)
}

func scheduleKey(version uint64) []byte {
	return append(append([]byte{}, schedulePrefix...), encodeUint64(version)...)
}

func (r *Repo) readHeader(key []byte) *types.Header {
	data, err := r.db.Get(key)
	if err != nil {
		log.Error("Cannot read block header", "err", err)
		return nil
	}
	if data == nil {
		return nil
	}
	header := new(types.Header)
	if err := rlp.DecodeBytes(data, header); err != nil {
		log.Error("Invalid block header RLP", "err", err)
		return nil
	}
	return header
}

func (r *Repo) ReadBlockHeader(hash common.Hash) *types.Header {
	return r.readHeader(headerKey(hash))
}

func (r *Repo) ReadHead() *types.Header {
	return r.readHeader(headBlockKey)
}

func (r *Repo) ReadHeaderByHeight(height uint64) *types.Header {
	hash := r.ReadCanonicalHash(height)
	if hash.IsEmpty() {
		return nil
	}
	return r.ReadBlockHeader(hash)
}

func (r *Repo) WriteHead(header *types.Header) {
	data, err := rlp.EncodeToBytes(header)
	if err != nil {
		log.Crit("Failed to RLP encode header", "err", err)
		return
	}
	if err := r.db.Set(headBlockKey, data); err != nil {
		log.Crit("Failed to write head", "err", err)
	}
}

func (r *Repo) WriteBlockHeader(header *types.Header) {
	data, err := rlp.EncodeToBytes(header)
	if err != nil {
		log.Crit("Failed to RLP encode header", "err", err)
		return
	}
	if err := r.db.Set(headerKey(header.Hash()), data); err != nil {
		log.Crit("Failed to write header", "err", err)
	}
}

func (r *Repo) WriteCanonicalHash(height uint64, hash common.Hash) {
	if err := r.db.Set(headerHashKey(height), hash.Bytes()); err != nil {
		log.Crit("Failed to write canonical hash", "err", err)
	}
}

func (r *Repo) ReadCanonicalHash(height uint64) common.Hash {
	data, _ := r.db.Get(headerHashKey(height))
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

func (r *Repo) WriteSchedule(schedule *types.ProducerSchedule) {
	data, err := rlp.EncodeToBytes(schedule)
	if err != nil {
		log.Crit("Failed to RLP encode producer schedule", "err", err)
		return
	}
	if err := r.db.Set(scheduleKey(schedule.Version), data); err != nil {
		log.Crit("Failed to write producer schedule", "err", err)
	}
}

func (r *Repo) ReadSchedule(version uint64) *types.ProducerSchedule {
	data, _ := r.db.Get(scheduleKey(version))
	if data == nil {
		return nil
	}
	schedule := new(types.ProducerSchedule)
	if err := rlp.DecodeBytes(data, schedule); err != nil {
		log.Error("Invalid producer schedule RLP", "version", version, "err", err)
		return nil
	}
	return schedule
}

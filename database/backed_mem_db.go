package database

import (
	"bytes"
	"sync"

	"github.com/deckarep/golang-set"
	dbm "github.com/tendermint/tm-db"
)

// BackedMemDb is a write overlay over a permanent db: writes and deletes stay in memory,
// reads of untouched keys fall through to the permanent db.
type BackedMemDb struct {
	inner     dbm.DB
	permanent dbm.DB
	touched   mapset.Set
	mtx       sync.Mutex
}

func NewBackedMemDb(permanent dbm.DB) *BackedMemDb {
	return &BackedMemDb{
		inner:     dbm.NewMemDB(),
		permanent: permanent,
		touched:   mapset.NewSet(),
	}
}

func (db *BackedMemDb) Get(key []byte) ([]byte, error) {
	if db.touched.Contains(string(key)) {
		return db.inner.Get(key)
	}
	return db.permanent.Get(key)
}

func (db *BackedMemDb) Has(key []byte) (bool, error) {
	if db.touched.Contains(string(key)) {
		return db.inner.Has(key)
	}
	return db.permanent.Has(key)
}

func (db *BackedMemDb) Set(key []byte, value []byte) error {
	if err := db.inner.Set(key, value); err != nil {
		return err
	}
	db.touch(key)
	return nil
}

func (db *BackedMemDb) SetSync(key []byte, value []byte) error {
	return db.Set(key, value)
}

func (db *BackedMemDb) Delete(key []byte) error {
	if err := db.inner.Delete(key); err != nil {
		return err
	}
	db.touch(key)
	return nil
}

func (db *BackedMemDb) DeleteSync(key []byte) error {
	return db.Delete(key)
}

func (db *BackedMemDb) Iterator(start, end []byte) (dbm.Iterator, error) {
	return db.newIterator(start, end, false)
}

func (db *BackedMemDb) ReverseIterator(start, end []byte) (dbm.Iterator, error) {
	return db.newIterator(start, end, true)
}

func (db *BackedMemDb) newIterator(start, end []byte, reverse bool) (dbm.Iterator, error) {
	var (
		it  dbm.Iterator
		err error
	)
	if reverse {
		it, err = db.inner.ReverseIterator(start, end)
	} else {
		it, err = db.inner.Iterator(start, end)
	}
	if err != nil {
		return nil, err
	}
	var innerKeys [][]byte
	for ; it.Valid(); it.Next() {
		innerKeys = append(innerKeys, it.Key())
	}
	it.Close()

	var permanentIt dbm.Iterator
	if reverse {
		permanentIt, err = db.permanent.ReverseIterator(start, end)
	} else {
		permanentIt, err = db.permanent.Iterator(start, end)
	}
	if err != nil {
		return nil, err
	}
	res := &iterator{
		db:            db,
		start:         start,
		end:           end,
		innerKeys:     innerKeys,
		permanentIter: permanentIt,
		isReverse:     reverse,
	}
	res.Next()
	return res, nil
}

func (db *BackedMemDb) Close() error {
	return db.inner.Close()
}

func (db *BackedMemDb) Print() error {
	return db.inner.Print()
}

func (db *BackedMemDb) NewBatch() dbm.Batch {
	return &backedMemBatch{
		batch: db.inner.NewBatch(),
		touch: db.touch,
	}
}

func (db *BackedMemDb) Stats() map[string]string {
	return db.inner.Stats()
}

// Touched returns the number of keys written or deleted through the overlay.
func (db *BackedMemDb) Touched() int {
	return db.touched.Cardinality()
}

func (db *BackedMemDb) touch(key []byte) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	db.touched.Add(string(key))
}

// iterator merges overlay keys with permanent keys that were never touched.
type iterator struct {
	db            *BackedMemDb
	start, end    []byte
	innerKeys     [][]byte
	permanentIter dbm.Iterator
	isReverse     bool
	valid         bool
	key           []byte
	value         []byte
}

func (it *iterator) Domain() (start []byte, end []byte) {
	return it.start, it.end
}

func (it *iterator) Valid() bool {
	return it.valid
}

func (it *iterator) Error() error {
	return it.permanentIter.Error()
}

func (it *iterator) before(key1, key2 []byte) bool {
	if it.isReverse {
		return bytes.Compare(key1, key2) > 0
	}
	return bytes.Compare(key1, key2) < 0
}

func (it *iterator) Next() {
	for it.permanentIter.Valid() && it.db.touched.Contains(string(it.permanentIter.Key())) {
		it.permanentIter.Next()
	}
	hasPermanent := it.permanentIter.Valid()
	switch {
	case len(it.innerKeys) == 0 && !hasPermanent:
		it.valid = false
		it.key, it.value = nil, nil
	case len(it.innerKeys) == 0 || hasPermanent && it.before(it.permanentIter.Key(), it.innerKeys[0]):
		it.valid = true
		it.key = append([]byte{}, it.permanentIter.Key()...)
		it.value = append([]byte{}, it.permanentIter.Value()...)
		it.permanentIter.Next()
	default:
		it.valid = true
		it.key = it.innerKeys[0]
		it.value, _ = it.db.inner.Get(it.key)
		it.innerKeys = it.innerKeys[1:]
	}
}

func (it *iterator) Key() (key []byte) {
	return it.key
}

func (it *iterator) Value() (value []byte) {
	return it.value
}

func (it *iterator) Close() {
	it.permanentIter.Close()
}

package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"
)

func createDb() *BackedMemDb {
	return NewBackedMemDb(dbm.NewMemDB())
}

func TestBackedMemDb_Get(t *testing.T) {
	require := require.New(t)
	db := createDb()
	require.NoError(db.permanent.Set([]byte{0x1}, []byte{0x2}))

	value, err := db.Get([]byte{0x1})
	require.NoError(err)
	require.Equal([]byte{0x2}, value)

	require.NoError(db.Set([]byte{0x1}, []byte{0x3}))

	value, _ = db.Get([]byte{0x1})
	require.Equal([]byte{0x3}, value)
	require.True(db.touched.Contains(string([]byte{0x1})))

	value, _ = db.permanent.Get([]byte{0x1})
	require.Equal([]byte{0x2}, value)

	it, err := db.Iterator(nil, nil)
	require.NoError(err)
	require.True(it.Valid())
}

func TestBackedMemDb_Delete(t *testing.T) {
	require := require.New(t)
	db := createDb()
	require.NoError(db.permanent.Set([]byte{0x1}, []byte{0x2}))

	require.NoError(db.Delete([]byte{0x1}))
	value, _ := db.Get([]byte{0x1})
	require.Nil(value)
	has, _ := db.Has([]byte{0x1})
	require.False(has)
	require.True(db.touched.Contains(string([]byte{0x1})))

	value, _ = db.permanent.Get([]byte{0x1})
	require.Equal([]byte{0x2}, value)

	it, _ := db.Iterator(nil, nil)
	require.False(it.Valid())
}

func TestBackedMemDb_Iterator(t *testing.T) {
	require := require.New(t)
	db := createDb()

	db.permanent.Set([]byte{0x1}, []byte{0x5})
	db.permanent.Set([]byte{0x2}, []byte{0x3})
	db.permanent.Set([]byte{0x3}, []byte{0x4})
	db.permanent.Set([]byte{0x4}, []byte{0x4})

	db.Set([]byte{0x1}, []byte{0x1})
	db.Set([]byte{0x2}, []byte{0x2})
	db.Set([]byte{0x5}, []byte{0x6})
	db.Set([]byte{0x7}, []byte{0x8})
	db.Delete([]byte{0x4})

	assertions := []keyValue{
		{key: []byte{0x1}, value: []byte{0x1}},
		{key: []byte{0x2}, value: []byte{0x2}},
		{key: []byte{0x3}, value: []byte{0x4}},
		{key: []byte{0x5}, value: []byte{0x6}},
	}
	assertIterators(require, db, assertions, nil, []byte{0x6})
}

func TestBackedMemDb_Iterator2(t *testing.T) {
	require := require.New(t)
	db := createDb()

	for i := byte(1); i <= 7; i++ {
		db.permanent.Set([]byte{i}, []byte{i})
	}

	db.Set([]byte{0x1}, []byte{0x2})
	db.Set([]byte{0x2}, []byte{0x3})
	db.Set([]byte{0x6}, []byte{0x7})
	db.Delete([]byte{0x4})

	assertions := []keyValue{
		{key: []byte{0x1}, value: []byte{0x2}},
		{key: []byte{0x2}, value: []byte{0x3}},
		{key: []byte{0x3}, value: []byte{0x3}},
		{key: []byte{0x5}, value: []byte{0x5}},
		{key: []byte{0x6}, value: []byte{0x7}},
		{key: []byte{0x7}, value: []byte{0x7}},
	}
	assertIterators(require, db, assertions, nil, nil)
}

func TestBackedMemDb_NewBatch(t *testing.T) {
	require := require.New(t)
	db := createDb()
	db.permanent.Set([]byte{0x1}, []byte{0x1})
	db.permanent.Set([]byte{0x2}, []byte{0x2})
	db.permanent.Set([]byte{0x3}, []byte{0x3})

	batch := db.NewBatch()
	batch.Set([]byte{0x1}, []byte{0x2})
	batch.Set([]byte{0x2}, []byte{0x3})
	batch.Delete([]byte{0x3})
	require.Equal(0, db.Touched())
	require.NoError(batch.Write())
	batch.Close()

	require.Equal(3, db.Touched())
	value, _ := db.Get([]byte{0x1})
	require.Equal([]byte{0x2}, value)
	value, _ = db.Get([]byte{0x2})
	require.Equal([]byte{0x3}, value)
	value, _ = db.Get([]byte{0x3})
	require.Nil(value)

	value, _ = db.permanent.Get([]byte{0x3})
	require.Equal([]byte{0x3}, value)
}

func assertIterators(require *require.Assertions, db *BackedMemDb, assertions []keyValue, start, end []byte) {
	cnt := 0
	it, err := db.Iterator(start, end)
	require.NoError(err)

	for i := 0; it.Valid(); it.Next() {
		require.Equal(assertions[i].key, it.Key())
		require.Equal(assertions[i].value, it.Value())
		i++
		cnt++
	}
	it.Close()
	require.Equal(len(assertions), cnt)

	cnt = 0
	it, err = db.ReverseIterator(start, end)
	require.NoError(err)

	for i := len(assertions) - 1; it.Valid(); it.Next() {
		require.Equal(assertions[i].key, it.Key())
		require.Equal(assertions[i].value, it.Value())
		i--
		cnt++
	}
	it.Close()
	require.Equal(len(assertions), cnt)
}

type keyValue struct {
	key   []byte
	value []byte
}

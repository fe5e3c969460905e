package database

import (
	dbm "github.com/tendermint/tm-db"
)

type backedMemBatch struct {
	batch   dbm.Batch
	touched [][]byte
	touch   func(key []byte)
}

func (b *backedMemBatch) Set(key, value []byte) {
	b.touched = append(b.touched, key)
	b.batch.Set(key, value)
}

func (b *backedMemBatch) Delete(key []byte) {
	b.touched = append(b.touched, key)
	b.batch.Delete(key)
}

func (b *backedMemBatch) Write() error {
	if err := b.batch.Write(); err != nil {
		return err
	}
	b.flushTouched()
	return nil
}

func (b *backedMemBatch) WriteSync() error {
	if err := b.batch.WriteSync(); err != nil {
		return err
	}
	b.flushTouched()
	return nil
}

func (b *backedMemBatch) flushTouched() {
	for _, key := range b.touched {
		b.touch(key)
	}
	b.touched = nil
}

func (b *backedMemBatch) Close() {
	b.batch.Close()
}

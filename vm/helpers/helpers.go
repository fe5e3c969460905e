package helpers

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/aggregion/agrio.contracts/common"
)

var indexOufOfRange = errors.New("index out of range")

// JoinNames builds a composite key from names; byte order follows name order.
func JoinNames(names ...common.Name) []byte {
	res := make([]byte, 0, len(names)*common.NameLength)
	for _, n := range names {
		res = append(res, n.Bytes()...)
	}
	return res
}

// ExtractName returns the index-th name of a key built by JoinNames.
func ExtractName(index int, key []byte) (common.Name, error) {
	start := index * common.NameLength
	if index < 0 || start+common.NameLength > len(key) {
		return 0, indexOufOfRange
	}
	return common.BytesToName(key[start : start+common.NameLength]), nil
}

func UInt64Key(value uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, value)
	return b
}

func ExtractUInt64(index int, key []byte) (uint64, error) {
	start := index * 8
	if index < 0 || start+8 > len(key) {
		return 0, indexOufOfRange
	}
	return binary.BigEndian.Uint64(key[start : start+8]), nil
}

// DescBigIntKey returns a fixed-size key ordering non-negative amounts descending.
// Amounts above 2^64-1 share the first position.
func DescBigIntKey(value *big.Int) []byte {
	if value == nil || value.Sign() <= 0 {
		return UInt64Key(^uint64(0))
	}
	if !value.IsUint64() {
		return UInt64Key(0)
	}
	return UInt64Key(^value.Uint64())
}

package crypto

import (
	"hash"
	"sync"

	"github.com/aggregion/agrio.contracts/common"
	"golang.org/x/crypto/sha3"
)

var keccak256Pool = sync.Pool{New: func() interface{} {
	return sha3.NewLegacyKeccak256()
}}

func Hash(data []byte) common.Hash {
	h, ok := keccak256Pool.Get().(hash.Hash)
	if !ok {
		h = sha3.NewLegacyKeccak256()
	}
	defer keccak256Pool.Put(h)
	h.Reset()

	var b common.Hash

	h.Write(data)
	h.Sum(b[:0])

	return b
}

// HashConcat hashes the concatenation of parts.
func HashConcat(parts ...[]byte) common.Hash {
	h, ok := keccak256Pool.Get().(hash.Hash)
	if !ok {
		h = sha3.NewLegacyKeccak256()
	}
	defer keccak256Pool.Put(h)
	h.Reset()

	var b common.Hash
	for _, p := range parts {
		h.Write(p)
	}
	h.Sum(b[:0])
	return b
}

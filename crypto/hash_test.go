package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	// keccak256 of the empty string
	require.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", Hash(nil).Hex())

	require.Equal(t, Hash([]byte("agrio.system")), HashConcat([]byte("agrio."), []byte("system")))
	require.NotEqual(t, Hash([]byte("a")), Hash([]byte("b")))
}

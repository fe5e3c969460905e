package env

import (
	"github.com/aggregion/agrio.contracts/common"
)

const maxPrefixLength = 31

// Map is a key space of a contract store under a fixed prefix.
type Map struct {
	env    Env
	prefix []byte
	ctx    CallContext
}

// prefix length should be <=31 or prefix will be truncated
func NewMap(prefix []byte, env Env, ctx CallContext) *Map {
	if len(prefix) > maxPrefixLength {
		prefix = prefix[:maxPrefixLength]
	}
	return &Map{prefix: prefix, env: env, ctx: ctx}
}

func (m *Map) formatKey(key []byte) []byte {
	res := make([]byte, 0, len(m.prefix)+len(key))
	res = append(res, m.prefix...)
	return append(res, key...)
}

func (m *Map) Set(key []byte, value []byte) {
	m.env.SetValue(m.ctx, m.formatKey(key), value)
}

func (m *Map) Get(key []byte) []byte {
	return m.env.GetValue(m.ctx, m.formatKey(key))
}

func (m *Map) Remove(key []byte) {
	m.env.RemoveValue(m.ctx, m.formatKey(key))
}

// Iterate walks the map keys in ascending order.
func (m *Map) Iterate(f func(key []byte, value []byte) bool) {
	m.IterateFrom(nil, f)
}

// IterateFrom walks the map keys starting at from in ascending order.
func (m *Map) IterateFrom(from []byte, f func(key []byte, value []byte) bool) {
	m.env.Iterate(m.ctx, m.formatKey(from), common.PrefixEnd(m.prefix), func(key []byte, value []byte) bool {
		return f(key[len(m.prefix):], value)
	})
}

package maputil

import (
	"bytes"
	"sort"
)

// Value is an overlay entry; a removed entry hides the base value with the same key.
type Value struct {
	Value   []byte
	Removed bool
}

type entry struct {
	key   []byte
	value *Value
}

// SortedKeys returns the keys of m in ascending byte order.
func SortedKeys(m map[string]*Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MergeIterate walks the overlay entries within [start, end) together with an ordered base
// iteration over the same range, in ascending key order. A nil end means no upper bound.
// Iteration stops as soon as f returns true.
func MergeIterate(overlay map[string]*Value, start, end []byte,
	base func(fn func(key, value []byte) bool) bool, f func(key, value []byte) bool) {

	var pending []entry
	for _, k := range SortedKeys(overlay) {
		key := []byte(k)
		if bytes.Compare(key, start) < 0 || end != nil && bytes.Compare(key, end) >= 0 {
			continue
		}
		pending = append(pending, entry{key: key, value: overlay[k]})
	}

	stopped := false
	emit := func(e entry) bool {
		if e.value.Removed {
			return false
		}
		stopped = f(e.key, e.value.Value)
		return stopped
	}

	base(func(key, value []byte) bool {
		for len(pending) > 0 && bytes.Compare(pending[0].key, key) < 0 {
			e := pending[0]
			pending = pending[1:]
			if emit(e) {
				return true
			}
		}
		if len(pending) > 0 && bytes.Equal(pending[0].key, key) {
			e := pending[0]
			pending = pending[1:]
			return emit(e)
		}
		stopped = f(key, value)
		return stopped
	})
	if stopped {
		return
	}
	for _, e := range pending {
		if emit(e) {
			return
		}
	}
}

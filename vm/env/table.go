package env

// IndexFunc returns the secondary sort key of a row. Rows are visited by IterateIndex in
// ascending sort key order, rows with equal sort keys in primary key order.
type IndexFunc func(pk []byte, row []byte) []byte

// Table stores rows by primary key and maintains at most one ordered secondary index.
type Table struct {
	rows    *Map
	index   *Map
	indexFn IndexFunc
}

func NewTable(prefix []byte, env Env, ctx CallContext, indexFn IndexFunc) *Table {
	rowPrefix := append(append([]byte{}, prefix...), 'p')
	indexPrefix := append(append([]byte{}, prefix...), 'i')
	return &Table{
		rows:    NewMap(rowPrefix, env, ctx),
		index:   NewMap(indexPrefix, env, ctx),
		indexFn: indexFn,
	}
}

func (t *Table) indexKey(pk []byte, row []byte) []byte {
	sortKey := t.indexFn(pk, row)
	res := make([]byte, 0, len(sortKey)+len(pk))
	res = append(res, sortKey...)
	return append(res, pk...)
}

func (t *Table) Get(pk []byte) []byte {
	return t.rows.Get(pk)
}

func (t *Table) Has(pk []byte) bool {
	return t.rows.Get(pk) != nil
}

func (t *Table) Set(pk []byte, row []byte) {
	if t.indexFn != nil {
		if prev := t.rows.Get(pk); prev != nil {
			t.index.Remove(t.indexKey(pk, prev))
		}
		t.index.Set(t.indexKey(pk, row), pk)
	}
	t.rows.Set(pk, row)
}

func (t *Table) Remove(pk []byte) {
	if t.indexFn != nil {
		if prev := t.rows.Get(pk); prev != nil {
			t.index.Remove(t.indexKey(pk, prev))
		}
	}
	t.rows.Remove(pk)
}

// Iterate walks rows in primary key order.
func (t *Table) Iterate(f func(pk []byte, row []byte) bool) {
	t.rows.Iterate(f)
}

// IterateFrom walks rows in primary key order starting at pk.
func (t *Table) IterateFrom(pk []byte, f func(pk []byte, row []byte) bool) {
	t.rows.IterateFrom(pk, f)
}

// IterateIndex walks rows in secondary index order.
func (t *Table) IterateIndex(f func(pk []byte, row []byte) bool) {
	if t.indexFn == nil {
		t.Iterate(f)
		return
	}
	t.index.Iterate(func(_ []byte, pk []byte) bool {
		row := t.rows.Get(pk)
		if row == nil {
			panic("secondary index refers to a missing row")
		}
		return f(pk, row)
	})
}

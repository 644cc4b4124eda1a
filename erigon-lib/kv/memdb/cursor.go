package memdb

import (
	"bytes"

	"github.com/google/btree"

	"github.com/erigontech/erigon-core/erigon-lib/kv"
)

// cursor walks a single btree snapshot. It has no independent mutation
// state of its own: Put/Delete on an rw cursor write straight through to
// the owning RwTx's tree, matching MDBX's "cursor writes are transaction
// writes" semantics.
type cursor struct {
	tree  *btree.BTreeG[item]
	isDup bool
	rw    *RwTx
	table string

	cur  item
	has  bool
}

func (c *cursor) First() (k, v []byte, err error) {
	var found item
	ok := false
	c.tree.Ascend(func(it item) bool {
		found = it
		ok = true
		return false
	})
	if !ok {
		c.has = false
		return nil, nil, nil
	}
	c.cur, c.has = found, true
	return found.key, found.value, nil
}

func (c *cursor) Seek(seek []byte) (k, v []byte, err error) {
	var found item
	ok := false
	c.tree.AscendGreaterOrEqual(item{key: seek}, func(it item) bool {
		found = it
		ok = true
		return false
	})
	if !ok {
		c.has = false
		return nil, nil, nil
	}
	c.cur, c.has = found, true
	return found.key, found.value, nil
}

// SeekExact positions at key == seek. On a DupSort table, where one key can
// carry many values, this lands on the first value of that key's duplicate
// set — mirroring MDBX's cursor_set on a dup database.
func (c *cursor) SeekExact(seek []byte) (k, v []byte, err error) {
	if !c.isDup {
		it, ok := c.tree.Get(item{key: seek})
		if !ok {
			c.has = false
			return nil, nil, nil
		}
		c.cur, c.has = it, true
		return it.key, it.value, nil
	}
	var found item
	ok := false
	c.tree.AscendGreaterOrEqual(item{key: seek}, func(it item) bool {
		if !bytes.Equal(it.key, seek) {
			return false
		}
		found = it
		ok = true
		return false
	})
	if !ok {
		c.has = false
		return nil, nil, nil
	}
	c.cur, c.has = found, true
	return found.key, found.value, nil
}

func (c *cursor) Next() (k, v []byte, err error) {
	if !c.has {
		return c.First()
	}
	pivot := c.cur
	var found item
	ok := false
	c.tree.AscendGreaterOrEqual(pivot, func(it item) bool {
		if bytes.Equal(it.key, pivot.key) && bytes.Equal(it.value, pivot.value) {
			return true
		}
		found = it
		ok = true
		return false
	})
	if !ok {
		c.has = false
		return nil, nil, nil
	}
	c.cur, c.has = found, true
	return found.key, found.value, nil
}

func (c *cursor) Last() (k, v []byte, err error) {
	var found item
	ok := false
	c.tree.Descend(func(it item) bool {
		found = it
		ok = true
		return false
	})
	if !ok {
		c.has = false
		return nil, nil, nil
	}
	c.cur, c.has = found, true
	return found.key, found.value, nil
}

func (c *cursor) Current() (k, v []byte, err error) {
	if !c.has {
		return nil, nil, nil
	}
	return c.cur.key, c.cur.value, nil
}

func (c *cursor) SeekBothExact(key, value []byte) (k, v []byte, err error) {
	it, ok := c.tree.Get(item{key: key, value: value})
	if !ok {
		c.has = false
		return nil, nil, nil
	}
	c.cur, c.has = it, true
	return it.key, it.value, nil
}

func (c *cursor) SeekBothRange(key, value []byte) (v []byte, err error) {
	var found item
	ok := false
	c.tree.AscendGreaterOrEqual(item{key: key, value: value}, func(it item) bool {
		if !bytes.Equal(it.key, key) {
			return false
		}
		found = it
		ok = true
		return false
	})
	if !ok {
		c.has = false
		return nil, nil
	}
	c.cur, c.has = found, true
	return found.value, nil
}

func (c *cursor) FirstDup() ([]byte, error) {
	if !c.has {
		return nil, nil
	}
	key := c.cur.key
	var found item
	ok := false
	c.tree.AscendGreaterOrEqual(item{key: key}, func(it item) bool {
		if !bytes.Equal(it.key, key) {
			return false
		}
		found = it
		ok = true
		return false
	})
	if !ok {
		return nil, nil
	}
	c.cur, c.has = found, true
	return found.value, nil
}

func (c *cursor) NextDup() (k, v []byte, err error) {
	if !c.has {
		return nil, nil, nil
	}
	pivot := c.cur
	var found item
	ok := false
	c.tree.AscendGreaterOrEqual(pivot, func(it item) bool {
		if bytes.Equal(it.value, pivot.value) && bytes.Equal(it.key, pivot.key) {
			return true
		}
		if !bytes.Equal(it.key, pivot.key) {
			return false
		}
		found = it
		ok = true
		return false
	})
	if !ok {
		return nil, nil, nil
	}
	c.cur, c.has = found, true
	return found.key, found.value, nil
}

func (c *cursor) LastDup() ([]byte, error) {
	if !c.has {
		return nil, nil
	}
	key := c.cur.key
	var found item
	ok := false
	c.tree.DescendLessOrEqual(item{key: key, value: []byte{0xff}}, func(it item) bool {
		if !bytes.Equal(it.key, key) {
			return false
		}
		found = it
		ok = true
		return false
	})
	if !ok {
		return nil, nil
	}
	c.cur, c.has = found, true
	return found.value, nil
}

func (c *cursor) Close() {}

func (c *cursor) Put(k, v []byte) error {
	key := append([]byte(nil), k...)
	val := append([]byte(nil), v...)
	c.tree.ReplaceOrInsert(item{key: key, value: val})
	c.cur, c.has = item{key: key, value: val}, true
	return nil
}

func (c *cursor) PutNoDupData(k, v []byte) error {
	key := append([]byte(nil), k...)
	val := append([]byte(nil), v...)
	it := item{key: key, value: val}
	if _, exists := c.tree.Get(it); exists {
		return kv.ErrDupExists
	}
	c.tree.ReplaceOrInsert(it)
	c.cur, c.has = it, true
	return nil
}

func (c *cursor) Delete(k []byte) error {
	if c.isDup {
		var toDelete []item
		c.tree.AscendGreaterOrEqual(item{key: k}, func(it item) bool {
			if !bytes.Equal(it.key, k) {
				return false
			}
			toDelete = append(toDelete, it)
			return true
		})
		for _, it := range toDelete {
			c.tree.Delete(it)
		}
		return nil
	}
	c.tree.Delete(item{key: k})
	return nil
}

func (c *cursor) DeleteCurrent() error {
	if !c.has {
		return nil
	}
	c.tree.Delete(c.cur)
	c.has = false
	return nil
}

func (c *cursor) DeleteExact(k, v []byte) error {
	c.tree.Delete(item{key: k, value: v})
	return nil
}

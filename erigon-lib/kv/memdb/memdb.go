// Package memdb is the in-memory kv.RwDB used by every test in this module
// and by any caller that wants the cursor contract without a disk engine.
// It is backed by github.com/google/btree, mirroring the ordered-map shape
// the teacher's own history/trie code builds on top of.
package memdb

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/erigontech/erigon-core/erigon-lib/kv"
)

type item struct {
	key, value []byte
}

func lessPlain(a, b item) bool { return bytes.Compare(a.key, b.key) < 0 }

func lessDup(a, b item) bool {
	if c := bytes.Compare(a.key, b.key); c != 0 {
		return c < 0
	}
	return bytes.Compare(a.value, b.value) < 0
}

// Store is the shared, mutation-guarded table set. Readers snapshot it by
// cloning each underlying btree, a cheap copy-on-write operation, so a
// View never observes a concurrent Update's writes.
type Store struct {
	mu     sync.RWMutex
	dup    map[string]bool
	tables map[string]*btree.BTreeG[item]
}

// New creates a Store with one empty table per name in tables, using cfg to
// decide which tables are DupSort.
func New(tables []string, cfg kv.TableCfg) *Store {
	s := &Store{
		dup:    make(map[string]bool, len(tables)),
		tables: make(map[string]*btree.BTreeG[item], len(tables)),
	}
	for _, t := range tables {
		isDup := cfg[t].Flags&kv.DupSort != 0
		s.dup[t] = isDup
		if isDup {
			s.tables[t] = btree.NewG(32, lessDup)
		} else {
			s.tables[t] = btree.NewG(32, lessPlain)
		}
	}
	return s
}

func (s *Store) snapshot() (map[string]*btree.BTreeG[item], map[string]bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tables := make(map[string]*btree.BTreeG[item], len(s.tables))
	dup := make(map[string]bool, len(s.dup))
	for name, tr := range s.tables {
		tables[name] = tr.Clone()
		dup[name] = s.dup[name]
	}
	return tables, dup
}

func (s *Store) View(_ context.Context, f func(tx kv.Tx) error) error {
	tables, dup := s.snapshot()
	tx := &Tx{tables: tables, dup: dup}
	defer tx.Rollback()
	return f(tx)
}

func (s *Store) Update(_ context.Context, f func(tx kv.RwTx) error) error {
	tables, dup := s.snapshot()
	tx := &RwTx{Tx: Tx{tables: tables, dup: dup}, store: s}
	if err := f(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Tx is a read-only snapshot transaction.
type Tx struct {
	tables map[string]*btree.BTreeG[item]
	dup    map[string]bool
	closed bool
}

func (tx *Tx) table(name string) *btree.BTreeG[item] {
	tr, ok := tx.tables[name]
	if !ok {
		tr = btree.NewG(32, lessPlain)
		tx.tables[name] = tr
	}
	return tr
}

func (tx *Tx) GetOne(table string, key []byte) ([]byte, error) {
	if tx.closed {
		return nil, kv.ErrTxClosed
	}
	if tx.dup[table] {
		// A DupSort key can carry many values; return the first one.
		var val []byte
		tx.table(table).AscendGreaterOrEqual(item{key: key}, func(it item) bool {
			if bytes.Equal(it.key, key) {
				val = it.value
			}
			return false
		})
		return val, nil
	}
	it, ok := tx.table(table).Get(item{key: key})
	if !ok {
		return nil, nil
	}
	return it.value, nil
}

func (tx *Tx) Has(table string, key []byte) (bool, error) {
	v, err := tx.GetOne(table, key)
	return v != nil, err
}

func (tx *Tx) Cursor(table string) (kv.Cursor, error) {
	if tx.closed {
		return nil, kv.ErrTxClosed
	}
	return &cursor{tree: tx.table(table), isDup: tx.dup[table]}, nil
}

func (tx *Tx) CursorDupSort(table string) (kv.Cursor, error) { return tx.Cursor(table) }

func (tx *Tx) Rollback() { tx.closed = true }

// RwTx is a read-write transaction; writes are only visible to the store
// once Commit swaps the store's table set for this transaction's.
type RwTx struct {
	Tx
	store *Store
}

func (tx *RwTx) Put(table string, k, v []byte) error {
	if tx.closed {
		return kv.ErrTxClosed
	}
	val := append([]byte(nil), v...)
	key := append([]byte(nil), k...)
	tx.table(table).ReplaceOrInsert(item{key: key, value: val})
	return nil
}

func (tx *RwTx) Delete(table string, k []byte) error {
	if tx.closed {
		return kv.ErrTxClosed
	}
	tr := tx.table(table)
	if tx.dup[table] {
		var toDelete []item
		tr.AscendGreaterOrEqual(item{key: k}, func(it item) bool {
			if !bytes.Equal(it.key, k) {
				return false
			}
			toDelete = append(toDelete, it)
			return true
		})
		for _, it := range toDelete {
			tr.Delete(it)
		}
		return nil
	}
	tr.Delete(item{key: k})
	return nil
}

func (tx *RwTx) RwCursor(table string) (kv.MutableCursor, error) {
	if tx.closed {
		return nil, kv.ErrTxClosed
	}
	return &cursor{tree: tx.table(table), isDup: tx.dup[table], rw: tx}, nil
}

func (tx *RwTx) RwCursorDupSort(table string) (kv.MutableCursor, error) { return tx.RwCursor(table) }

func (tx *RwTx) Commit() error {
	if tx.closed {
		return kv.ErrTxClosed
	}
	tx.store.mu.Lock()
	tx.store.tables = tx.tables
	tx.store.dup = tx.dup
	tx.store.mu.Unlock()
	tx.closed = true
	return nil
}

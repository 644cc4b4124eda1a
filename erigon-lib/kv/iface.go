// Package kv defines the ordered key-value cursor contract every storage
// consumer in this module programs against, independent of which engine
// backs it (in-memory for tests, MDBX on disk — the latter lives outside
// this module).
package kv

import "context"

// Cursor walks a table in key order. Implementations backing a DupSort
// table additionally satisfy the dup-aware walk semantics documented on
// each method; on a non-DupSort table dup-aware calls behave as their
// plain counterparts.
type Cursor interface {
	// First positions the cursor at the first key in the table.
	First() (k, v []byte, err error)
	// Seek positions the cursor at the first key >= seek.
	Seek(seek []byte) (k, v []byte, err error)
	// SeekExact positions the cursor at key == seek, or returns a nil key.
	SeekExact(seek []byte) (k, v []byte, err error)
	// Next advances to the following key.
	Next() (k, v []byte, err error)
	// Last positions the cursor at the final key in the table.
	Last() (k, v []byte, err error)
	// Current returns the cursor's current position without moving it.
	Current() (k, v []byte, err error)

	// SeekBothExact finds the given key with exactly the given value
	// prefix within a DupSort table's duplicate set.
	SeekBothExact(key, value []byte) (k, v []byte, err error)
	// SeekBothRange finds the first value >= value in the duplicate set
	// for key.
	SeekBothRange(key, value []byte) (v []byte, err error)
	// FirstDup returns the first value in the current key's duplicate set.
	FirstDup() ([]byte, error)
	// NextDup advances within the current key's duplicate set.
	NextDup() (k, v []byte, err error)
	// LastDup returns the final value in the current key's duplicate set.
	LastDup() ([]byte, error)

	Close()
}

// MutableCursor additionally allows writes at the cursor's position,
// backing tables opened inside an RwTx.
type MutableCursor interface {
	Cursor

	Put(k, v []byte) error
	Delete(k []byte) error
	DeleteCurrent() error
	// PutNoDupData appends a value to the current key's duplicate set,
	// erroring if it already exists (DupSort tables only).
	PutNoDupData(k, v []byte) error
	// DeleteExact removes one exact (key, value) pair from a DupSort
	// table's duplicate set, leaving other values for that key intact.
	DeleteExact(k, v []byte) error
}

// Tx is a read-only, snapshot-isolated view over the store: once opened it
// never observes writes committed after it started.
type Tx interface {
	GetOne(table string, key []byte) (val []byte, err error)
	Has(table string, key []byte) (bool, error)
	Cursor(table string) (Cursor, error)
	CursorDupSort(table string) (Cursor, error)
	Rollback()
}

// RwTx is a read-write transaction. Only one RwTx may be open against a
// store at a time; readers opened before it never see its writes.
type RwTx interface {
	Tx

	Put(table string, k, v []byte) error
	Delete(table string, k []byte) error
	RwCursor(table string) (MutableCursor, error)
	RwCursorDupSort(table string) (MutableCursor, error)
	Commit() error
}

// RoDB opens read-only transactions.
type RoDB interface {
	View(ctx context.Context, f func(tx Tx) error) error
}

// RwDB opens both read and read-write transactions.
type RwDB interface {
	RoDB
	Update(ctx context.Context, f func(tx RwTx) error) error
}

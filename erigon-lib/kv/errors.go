package kv

import "github.com/pkg/errors"

// ErrKeyNotFound is returned by strict lookups (as opposed to GetOne, which
// returns a nil value on a miss) when a required key is absent.
var ErrKeyNotFound = errors.New("kv: key not found")

// ErrTxClosed is returned by any call against a Tx after Rollback/Commit.
var ErrTxClosed = errors.New("kv: transaction already closed")

// ErrDupExists is returned by PutNoDupData when the exact (key, value) pair
// already exists in a DupSort table's duplicate set.
var ErrDupExists = errors.New("kv: duplicate key/value already exists")

// WrapDbErr wraps a low-level engine error so callers can distinguish a
// storage-layer failure from application logic without inspecting engine
// internals. Open Question (b): every error this module's engine boundary
// produces is handed back wrapped, never via panic/unwrap.
func WrapDbErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, "kv")
}

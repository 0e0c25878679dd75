package store

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by single-row lookups that find nothing.
var ErrNotFound = errors.New("store: not found")

// ErrConflict marks a unique-constraint violation. Callers retry once
// with a read-modify-write before surfacing this.
var ErrConflict = errors.New("store: conflict")

// isConflictError detects DuckDB unique-constraint / transaction-conflict
// errors.
func isConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Constraint Error") ||
		strings.Contains(msg, "violates primary key constraint") ||
		strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "Conflict on update")
}

// withConflictRetry runs fn and, if it fails with a conflict error,
// retries exactly once. The upsert statements already resolve the
// common "two writers touch the same natural key" race atomically via
// ON CONFLICT DO UPDATE; this covers the rarer case of a true
// constraint violation racing outside that clause's coverage.
func withConflictRetry(fn func() error) error {
	err := fn()
	if err != nil && isConflictError(err) {
		err = fn()
	}
	return err
}

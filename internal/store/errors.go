package store

import (
	"errors"
	"fmt"
	"strings"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel errors for SQLite constraint violations. Callers match these with
// errors.Is to decide whether a failed insert is a duplicate submission, a
// missing required value, or a schema drift problem.
var (
	// ErrDuplicateEntry reports an insert that collided with an existing row.
	ErrDuplicateEntry = errors.New("attempted to insert entry that already exists")
	// ErrNullValue reports a null where the schema requires a value.
	ErrNullValue = errors.New("expected value but received null")
	// ErrColumnMismatch reports unexpected or duplicated columns in a statement.
	ErrColumnMismatch = errors.New("unexpected or duplicated columns")
)

// classify maps driver errors onto the package sentinels. Errors with no
// recognised code pass through unchanged so the raw cause stays visible.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrDuplicateEntry, err)
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %v", ErrNullValue, err)
		}
	}
	msg := err.Error()
	if strings.Contains(msg, "no such column") || strings.Contains(msg, "has no column named") {
		return fmt.Errorf("%w: %v", ErrColumnMismatch, err)
	}
	return err
}

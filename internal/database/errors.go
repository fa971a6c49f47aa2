package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Error kinds. Every failure returned by this package wraps exactly one of
// these, so callers can classify without string matching.
var (
	// ErrNotFound: the referenced sprint or assignment does not exist in
	// the requested repo scope.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness violation (duplicate sprint number, or a
	// lost race between concurrent starts).
	ErrConflict = errors.New("conflict")
	// ErrLifecycle: the requested transition or mutation is invalid for
	// the sprint's current status.
	ErrLifecycle = errors.New("lifecycle violation")
	// ErrValidation: malformed input, rejected before any mutation.
	ErrValidation = errors.New("invalid input")
)

// OpError carries the operation and sprint context alongside the wrapped
// error kind.
type OpError struct {
	Op     string
	Number int
	Err    error
}

func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	if e.Number > 0 {
		return fmt.Sprintf("%s sprint %d: %v", e.Op, e.Number, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func wrapOpErr(op string, number int, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Number: number, Err: err}
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

func lifecyclef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrLifecycle)...)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure, used to translate driver errors into ErrConflict.
func isUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	return sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// internal/data/errors.go
package data

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrConflict   = errors.New("record already exists")
	ErrForeignKey = errors.New("referenced record not found")
)

// NotFoundError names the entity a single-row lookup missed.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(entity string) error { return &NotFoundError{Entity: entity} }

// constraintError keeps the driver error for logs while matching a sentinel.
type constraintError struct {
	kind  error
	cause error
}

func (e *constraintError) Error() string { return e.kind.Error() + ": " + e.cause.Error() }

func (e *constraintError) Is(target error) bool { return target == e.kind }

func (e *constraintError) Unwrap() error { return e.cause }

// translateError maps driver constraint violations onto ErrConflict and ErrForeignKey.
func translateError(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return &constraintError{kind: ErrConflict, cause: err}
		case "23503":
			return &constraintError{kind: ErrForeignKey, cause: err}
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &constraintError{kind: ErrConflict, cause: err}
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &constraintError{kind: ErrForeignKey, cause: err}
		}
	}

	// Primary result codes only carry SQLITE_CONSTRAINT; fall back to the message.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return &constraintError{kind: ErrConflict, cause: err}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &constraintError{kind: ErrForeignKey, cause: err}
	}
	return err
}

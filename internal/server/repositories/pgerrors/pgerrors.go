// Package pgerrors translates PostgreSQL driver errors into the sentinel
// errors of package common.
package pgerrors

import (
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes we care about.
const (
	ForeignKeyViolation       = "23503"
	UniqueViolation           = "23505"
	InvalidTextRepresentation = "22P02"
)

// Map returns a common sentinel wrapping err when err is a recognised
// condition, and err unchanged otherwise.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Join(common.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case ForeignKeyViolation:
		return errors.Join(common.ErrReferentialViolation, err)
	case UniqueViolation:
		return errors.Join(common.ErrAlreadyExists, err)
	case InvalidTextRepresentation:
		// a malformed uuid can never match a row
		return errors.Join(common.ErrNotFound, err)
	default:
		return err
	}
}

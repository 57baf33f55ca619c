package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	crerr "github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// wrapDBError prefixes err with op and marks it so callers can tell a broken
// connection from a rejected row.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23":
			return fmt.Errorf("%s (%s): %w", op, pqErr.Code.Name(), crerr.Mark(err, usecase.ErrInvalidInput))
		case "08", "53", "57":
			return fmt.Errorf("%s (%s): %w", op, pqErr.Code.Name(), crerr.Mark(err, usecase.ErrDependencyUnavailable))
		}
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w", op, crerr.Mark(err, usecase.ErrDependencyUnavailable))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

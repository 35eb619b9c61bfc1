package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("record not found")

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// notFound converts sql.ErrNoRows into [ErrNotFound] with context.
func notFound(err error, what, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %q", ErrNotFound, what, key)
	}
	return fmt.Errorf("failed to scan %s: %w", what, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

package db

import (
	"context"
	"fmt"
	"strings"
)

// Backup writes a consistent snapshot of the database to path, which must not exist.
// Only SQLite supports this; other drivers return ErrUnsupported.
func (s *Store) Backup(ctx context.Context, path string) error {
	if s.driver != DriverSQLite {
		return ErrUnsupported
	}
	// VACUUM INTO takes a string literal, not a bound parameter.
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO "+quoted); err != nil {
		return fmt.Errorf("backup database: %w", err)
	}
	return nil
}

package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Up applies every pending migration to db using the given goose dialect.
// It returns the number of migrations applied.
func Up(ctx context.Context, db *sql.DB, dialect goose.Dialect) (int, error) {
	provider, err := goose.NewProvider(dialect, db, FS)
	if err != nil {
		return 0, fmt.Errorf("goose new provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose up: %w", err)
	}

	return len(results), nil
}

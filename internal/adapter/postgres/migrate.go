package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/heartmarshall/wordbrowser/migrations"
)

// Migrate applies the embedded goose migrations through the pool.
// goose needs a *sql.DB, so the pool is wrapped with the pgx stdlib adapter.
func Migrate(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	n, err := migrations.Up(ctx, db, goose.DialectPostgres)
	if err != nil {
		return 0, fmt.Errorf("migrate postgres: %w", err)
	}
	return n, nil
}

// Package kv implements the snapshot key-value store on PostgreSQL.
package kv

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	postgres "github.com/heartmarshall/wordbrowser/internal/adapter/postgres"
)

const table = "kv_store"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides key-value persistence backed by the kv_store table.
type Repo struct {
	q postgres.Querier
}

// New creates a new key-value repository.
func New(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

// Get returns the value for key. Returns domain.ErrNotFound if absent.
func (r *Repo) Get(ctx context.Context, key string) (string, error) {
	query, args, err := psql.Select("value").
		From(table).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select: %w", err)
	}

	var value string
	if err := r.q.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		return "", mapError(err, key)
	}
	return value, nil
}

// Set upserts value under key.
func (r *Repo) Set(ctx context.Context, key, value string) error {
	query, args, err := psql.Insert(table).
		Columns("key", "value", "updated_at").
		Values(key, value, sq.Expr("now()")).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return mapError(err, key)
	}
	return nil
}

// Ping checks the database connection.
func (r *Repo) Ping(ctx context.Context) error {
	return r.q.Ping(ctx)
}

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore is a Store backed by the registry_entries table created by the
// embedded migrations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database handle. The caller owns db and must
// have applied migrations.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// View implements Store.
func (s *SQLiteStore) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only, nothing to commit

	return fn(&sqliteTx{ctx: ctx, tx: tx})
}

// Update implements Store.
func (s *SQLiteStore) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if err := fn(&sqliteTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close is a no-op; the database handle belongs to the caller.
func (s *SQLiteStore) Close() error { return nil }

type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *sqliteTx) Get(bucket Bucket, key string) (string, error) {
	var value string
	err := t.tx.QueryRowContext(t.ctx,
		"SELECT value FROM registry_entries WHERE bucket = ? AND key = ?",
		string(bucket), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s/%s: %w", bucket, key, err)
	}
	return value, nil
}

func (t *sqliteTx) Put(bucket Bucket, key, value string) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO registry_entries (bucket, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (bucket, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		string(bucket), key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (t *sqliteTx) Delete(bucket Bucket, key string) error {
	_, err := t.tx.ExecContext(t.ctx,
		"DELETE FROM registry_entries WHERE bucket = ? AND key = ?",
		string(bucket), key,
	)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (t *sqliteTx) Keys(bucket Bucket) ([]string, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		"SELECT key FROM registry_entries WHERE bucket = ? ORDER BY key",
		string(bucket),
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", bucket, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning %s key: %w", bucket, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

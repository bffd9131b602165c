package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/dbx"
)

// SQLiteStore keeps values in the kv table created by the client migrations.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// conn returns the transaction bound to ctx by Atomically, or the pool.
func (s *SQLiteStore) conn(ctx context.Context) dbx.DBTX {
	return dbx.Conn(ctx, s.db)
}

func (s *SQLiteStore) Get(ctx context.Context, key string, v any) (bool, error) {
	var raw []byte
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, common.NewStorageError("get", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, common.NewStorageError("decode", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return common.NewStorageError("encode", key, err)
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, raw)
	if err != nil {
		return common.NewStorageError("set", key, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return common.NewStorageError("remove", key, err)
	}
	return nil
}

// Keys lists the stored keys in lexical order.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, common.NewStorageError("keys", "*", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, common.NewStorageError("keys", "*", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError("keys", "*", err)
	}
	return keys, nil
}

// Atomically runs fn in a single SQLite transaction. Nested calls join the
// outer transaction.
func (s *SQLiteStore) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	var fnErr error
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, _ dbx.DBTX) error {
		fnErr = fn(ctx)
		return fnErr
	})
	if err != nil && fnErr == nil {
		return common.NewStorageError("tx", "*", err)
	}
	return err
}

package entities

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/dbx"
)

// PostgresRepository implements Repository over PostgreSQL (pgx stdlib driver).
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository constructs a repository bound to db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, owner, kind string, payload json.RawMessage) (Entity, error) {
	if _, err := decodeObject(payload); err != nil {
		return Entity{}, err
	}
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	query := `
		INSERT INTO entities (owner, kind, payload)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	e := Entity{Owner: owner, Kind: kind, Payload: payload}
	err := r.db.QueryRowContext(ctx, query, owner, kind, []byte(payload)).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Entity{}, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Update reads the row under FOR UPDATE, merges the patch and writes it back
// in one transaction.
func (r *PostgresRepository) Update(ctx context.Context, owner, kind string, id int64, patch map[string]any) (Entity, error) {
	var e Entity
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var current []byte
		err := tx.QueryRowContext(ctx, `
			SELECT payload FROM entities
			WHERE id = $1 AND owner = $2 AND kind = $3
			FOR UPDATE
		`, id, owner, kind).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %d: %w", kind, id, common.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		merged, err := mergePatch(current, patch)
		if err != nil {
			return err
		}

		e = Entity{ID: id, Owner: owner, Kind: kind, Payload: merged}
		err = tx.QueryRowContext(ctx, `
			UPDATE entities SET payload = $1, updated_at = now()
			WHERE id = $2
			RETURNING created_at, updated_at
		`, []byte(merged), id).Scan(&e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
	if err != nil {
		return Entity{}, err
	}
	return e, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, owner, kind string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM entities WHERE id = $1 AND owner = $2 AND kind = $3`, id, owner, kind)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, common.ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, owner, kind string) ([]Entity, error) {
	query := `
		SELECT id, payload, created_at, updated_at FROM entities
		WHERE owner = $1 AND kind = $2
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, owner, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to select entities: %w", err)
	}
	defer rows.Close()

	result := make([]Entity, 0)
	for rows.Next() {
		item := Entity{Owner: owner, Kind: kind}
		var payload []byte
		if err := rows.Scan(&item.ID, &payload, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.Payload = payload
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

package entities

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var ts = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func TestPostgresCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO entities \(owner, kind, payload\)`).
		WithArgs("u1", "tasks", []byte(`{"title":"a"}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), ts, ts))

	e, err := repo.Create(context.Background(), "u1", "tasks", json.RawMessage(`{"title":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), e.ID)
	assert.Equal(t, ts, e.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO entities`).WillReturnError(errors.New("db is down"))

	_, err := repo.Create(context.Background(), "u1", "tasks", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db is down")
}

func TestPostgresUpdate_MergesInTransaction(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT payload FROM entities .* FOR UPDATE`).
		WithArgs(int64(5), "u1", "tasks").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`{"title":"a","due":"x"}`)))
	mock.ExpectQuery(`UPDATE entities SET payload = \$1`).
		WithArgs([]byte(`{"status":"done","title":"a"}`), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, ts.Add(time.Hour)))
	mock.ExpectCommit()

	e, err := repo.Update(context.Background(), "u1", "tasks", 5, map[string]any{"status": "done", "due": nil})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"done","title":"a"}`, string(e.Payload))
	assert.Equal(t, ts.Add(time.Hour), e.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdate_NotFoundRollsBack(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT payload FROM entities`).
		WithArgs(int64(5), "u1", "tasks").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "u1", "tasks", 5, map[string]any{"a": 1})
	assert.ErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM entities WHERE id = \$1`).
		WithArgs(int64(3), "u1", "journal").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM entities`).
		WithArgs(int64(3), "u1", "journal").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "u1", "journal", 3))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u1", "journal", 3), common.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete_RowsAffectedError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM entities`).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

	err := repo.Delete(context.Background(), "u1", "journal", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows affected error")
}

func TestPostgresList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, payload, created_at, updated_at FROM entities .* ORDER BY id`).
		WithArgs("u1", "tasks").
		WillReturnRows(sqlmock.NewRows([]string{"id", "payload", "created_at", "updated_at"}).
			AddRow(int64(1), []byte(`{"title":"a"}`), ts, ts).
			AddRow(int64(2), []byte(`{"title":"b"}`), ts, ts))

	list, err := repo.List(context.Background(), "u1", "tasks")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[1].ID)
	assert.JSONEq(t, `{"title":"b"}`, string(list[1].Payload))
	assert.Equal(t, "u1", list[0].Owner)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresList_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, payload`).WillReturnError(errors.New("boom"))

	_, err := repo.List(context.Background(), "u1", "tasks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select entities")
}

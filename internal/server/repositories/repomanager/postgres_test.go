package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/entities"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func stubGoose(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func stubOpen(t *testing.T, db *sql.DB, err error) {
	t.Helper()
	orig := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			t.Fatalf("unexpected driver %q", driver)
		}
		return db, err
	}
	t.Cleanup(func() { sqlOpen = orig })
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var m RepositoryManager = NewPostgresRepositoryManager(db)
	if _, ok := m.Entities().(*entities.PostgresRepository); !ok {
		t.Fatalf("Entities() = %T, want *entities.PostgresRepository", m.Entities())
	}

	var mem RepositoryManager = NewInMemoryRepositoryManager()
	if _, ok := mem.Entities().(*entities.MemoryRepository); !ok {
		t.Fatalf("Entities() = %T, want *entities.MemoryRepository", mem.Entities())
	}
	if err := mem.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	})

	if err := NewPostgresRepositoryManager(db).RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	if err := NewPostgresRepositoryManager(db).RunMigrations(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestOpen_EmptyDSNIsMemory(t *testing.T) {
	m, err := Open(context.Background(), "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := m.(*InMemoryRepositoryManager); !ok {
		t.Fatalf("Open(\"\") = %T", m)
	}
}

func TestOpen_PingsAndMigrates(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectPing()
	stubOpen(t, db, nil)

	migrated := false
	stubGoose(t, func(ctx context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		migrated = got == db
		return nil
	})

	m, err := Open(context.Background(), "postgres://x")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !migrated {
		t.Fatal("migrations did not run against the opened db")
	}
	if _, ok := m.(*PostgresRepositoryManager); !ok {
		t.Fatalf("Open = %T", m)
	}
	mock.ExpectClose()
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpen_PingError(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()
	stubOpen(t, db, nil)
	stubGoose(t, func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		t.Fatal("migrations must not run")
		return nil
	})

	if _, err := Open(context.Background(), "postgres://x"); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestOpen_MigrationError(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectPing()
	mock.ExpectClose()
	stubOpen(t, db, nil)
	stubGoose(t, func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	if _, err := Open(context.Background(), "postgres://x"); err == nil {
		t.Fatal("expected migration error")
	}
}

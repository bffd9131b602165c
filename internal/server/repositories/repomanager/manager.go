package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/server/repositories/entities"
)

// RepositoryManager owns the storage backend of the server.
type RepositoryManager interface {
	Entities() entities.Repository
	Close() error
}

// Open returns a PostgreSQL-backed manager for dsn, migrating the schema
// first, or an in-memory one when dsn is empty.
func Open(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == "" {
		return NewInMemoryRepositoryManager(), nil
	}

	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

type InMemoryRepositoryManager struct {
	entities *entities.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{entities: entities.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) Entities() entities.Repository { return m.entities }

func (m *InMemoryRepositoryManager) Close() error { return nil }

package client

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/daybook/internal/client/models"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Entities(kind string) *EntityClient
}

// EntityAPI is the remote create/update/delete/list surface of one kind.
type EntityAPI interface {
	Create(ctx context.Context, payload json.RawMessage) (models.RemoteEntity, error)
	Update(ctx context.Context, serverID int64, patch json.RawMessage) (models.RemoteEntity, error)
	Delete(ctx context.Context, serverID int64) error
	List(ctx context.Context) ([]models.RemoteEntity, error)
}

var _ EntityAPI = (*EntityClient)(nil)

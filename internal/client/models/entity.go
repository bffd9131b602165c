package models

import (
	"encoding/json"
	"time"
)

// Entity is a user-visible record of one kind (a task, a journal entry).
//
// Before its creation is confirmed remotely the entity is addressed by
// LocalID; afterwards ServerID is authoritative. LocalID stays a valid handle
// for the whole life of the record on this device.
type Entity[P any] struct {
	LocalID    int64     `json:"localId"`
	ServerID   *int64    `json:"serverId,omitempty"`
	Payload    P         `json:"payload"`
	IsTemplate bool      `json:"isTemplate,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Ref returns the working identifier of the entity.
func (e Entity[P]) Ref() ID {
	if e.ServerID != nil {
		return Server(*e.ServerID)
	}
	return Local(e.LocalID)
}

// Synced reports whether the entity's creation has been confirmed remotely.
func (e Entity[P]) Synced() bool { return e.ServerID != nil }

// Matches reports whether id addresses this entity.
func (e Entity[P]) Matches(id ID) bool {
	switch {
	case id.IsLocal():
		return e.LocalID == id.Value()
	case id.IsServer():
		return e.ServerID != nil && *e.ServerID == id.Value()
	default:
		return false
	}
}

// RemoteEntity is an entity as returned by the remote API: the server id and
// the kind-specific fields.
type RemoteEntity struct {
	ID      int64
	Payload json.RawMessage
}

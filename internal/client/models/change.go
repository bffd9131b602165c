package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

type ChangeStatus string

const (
	StatusPending ChangeStatus = "pending"
	StatusFailed  ChangeStatus = "failed"
	StatusSynced  ChangeStatus = "synced"
)

// PendingChange is one durable intention to mutate the remote system.
type PendingChange struct {
	ID        string          `json:"id"`
	Type      ChangeType      `json:"type"`
	Timestamp int64           `json:"timestamp"`
	TargetID  ID              `json:"targetId"`
	Data      json.RawMessage `json:"data,omitempty"`
	Status    ChangeStatus    `json:"status"`

	RetryCount int    `json:"retryCount"`
	LastError  string `json:"lastError,omitempty"`

	// NextAttemptAt (unix ms) delays automatic re-attempts of a failed change.
	NextAttemptAt int64 `json:"nextAttemptAt,omitempty"`
	// Permanent marks a failure that is not retried until an explicit retry.
	Permanent bool `json:"permanent,omitempty"`
}

// NewChange builds a pending change. The id reads "<type>-<timestamp>-<suffix>".
func NewChange(t ChangeType, timestamp int64, target ID, data json.RawMessage) PendingChange {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return PendingChange{
		ID:        fmt.Sprintf("%s-%d-%s", t, timestamp, suffix),
		Type:      t,
		Timestamp: timestamp,
		TargetID:  target,
		Data:      data,
		Status:    StatusPending,
	}
}

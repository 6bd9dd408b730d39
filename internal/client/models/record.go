package models

import (
	"encoding/json"
	"time"
)

// Record is the synchronization envelope every local entity lives in.
// The payload is opaque to the sync core; only the metadata around it is
// interpreted.
//
// Lifecycle: created with Synced=false, reset to false on every local
// mutation, flipped to true after a successful upload or after a downloaded
// remote version wins conflict resolution and replaces the record wholesale.
type Record struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Payload     json.RawMessage `json:"payload"`
	LastUpdated time.Time       `json:"last_updated"`
	Synced      bool            `json:"synced"`
	Deleted     bool            `json:"deleted"`
}

// Touch marks the record dirty after a local mutation. LastUpdated never
// moves backwards: a wall-clock regression keeps the existing timestamp.
func (r *Record) Touch(now time.Time) {
	if now.After(r.LastUpdated) {
		r.LastUpdated = now
	}
	r.Synced = false
}

// RemoteRecord is one document as returned by the remote replica. Its
// LastUpdated carries whatever timestamp the server currently stores.
type RemoteRecord struct {
	ID          string          `json:"id"`
	Payload     json.RawMessage `json:"payload"`
	LastUpdated time.Time       `json:"last_updated"`
	Deleted     bool            `json:"deleted"`
}

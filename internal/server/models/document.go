// Package models defines server-side data models persisted in the database.
package models

import (
	"encoding/json"
	"time"
)

// Document is one replicated record as stored server-side. Documents are
// scoped per user and collection; the payload is an opaque JSON object the
// server only ever merges, never interprets.
type Document struct {
	UserID     string
	Collection string
	ID         string
	Payload    json.RawMessage
	Deleted    bool
	UpdatedAt  time.Time
}

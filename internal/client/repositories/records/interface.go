// Package records implements the local record store: one logical table per
// business collection, every row wrapped in the sync envelope.
package records

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
)

// Repository is the contract of the local record store.
//
// All operations are atomic per record. Put overwrites the full record and
// never partial-merges fields. Storage I/O failures surface as errors the
// caller must treat as per-record failures, not cycle aborts.
type Repository interface {
	// Get returns one record or common.ErrorNotFound.
	Get(ctx context.Context, collection models.Collection, id string) (*models.Record, error)

	// Put inserts or fully replaces a record.
	Put(ctx context.Context, collection models.Collection, rec *models.Record) error

	// MarkSynced flips a record to synced=true and stamps it with the
	// server-assigned write time, but only while the row still carries
	// lastUpdated. A record edited since it was listed stays dirty.
	MarkSynced(ctx context.Context, collection models.Collection, id string, lastUpdated, serverTime time.Time) error

	// ReassignOwner rewrites the owner binding of every record held by
	// fromOwnerID to toOwnerID, across all collections.
	ReassignOwner(ctx context.Context, fromOwnerID, toOwnerID string) error

	// ListDirty returns every record of the owner with synced=false.
	ListDirty(ctx context.Context, collection models.Collection, ownerID string) ([]*models.Record, error)

	// ListAll returns every record of the owner in the collection.
	ListAll(ctx context.Context, collection models.Collection, ownerID string) ([]*models.Record, error)
}

// Package syncer contains the bidirectional synchronization core: the
// last-write-wins conflict resolver and the orchestrator that drives one
// upload-then-download cycle across all collections.
package syncer

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
)

// CollectionStore is the per-collection view of the local record store the
// generic sync procedure runs against. It is implemented once by the records
// repository (see records.Scoped) rather than per entity type.
type CollectionStore interface {
	Get(ctx context.Context, id string) (*models.Record, error)
	Put(ctx context.Context, rec *models.Record) error
	MarkSynced(ctx context.Context, id string, lastUpdated, serverTime time.Time) error
	ListDirty(ctx context.Context) ([]*models.Record, error)
	ListAll(ctx context.Context) ([]*models.Record, error)
}

// Store opens a CollectionStore scoped to one collection and owner.
type Store interface {
	Collection(c models.Collection, ownerID string) CollectionStore
}

// StoreFunc adapts a plain function to the Store interface.
type StoreFunc func(c models.Collection, ownerID string) CollectionStore

func (f StoreFunc) Collection(c models.Collection, ownerID string) CollectionStore {
	return f(c, ownerID)
}

// Replica is the remote replica adapter: a per-user, per-collection document
// store with merge-upsert writes and server-assigned write timestamps.
// Singleton collections (settings, profile) use the document variants.
type Replica interface {
	// Upload merge-upserts one record keyed by id and returns the
	// server-assigned write timestamp.
	Upload(ctx context.Context, c models.Collection, rec *models.Record) (time.Time, error)

	// ListAll returns every remote record of the collection for the
	// authenticated user.
	ListAll(ctx context.Context, c models.Collection) ([]*models.RemoteRecord, error)

	// UploadDocument is the fixed-key variant of Upload for singletons.
	UploadDocument(ctx context.Context, c models.Collection, rec *models.Record) (time.Time, error)

	// GetDocument returns the singleton document, or common.ErrorNotFound
	// if the user has never uploaded one.
	GetDocument(ctx context.Context, c models.Collection) (*models.RemoteRecord, error)
}

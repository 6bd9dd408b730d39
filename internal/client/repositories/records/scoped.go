package records

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
)

// Scoped binds a Repository to one collection and one owner, giving the
// generic sync procedure a uniform per-collection view.
type Scoped struct {
	repo       Repository
	collection models.Collection
	ownerID    string
}

// NewScoped returns a collection/owner-scoped view over repo.
func NewScoped(repo Repository, collection models.Collection, ownerID string) *Scoped {
	return &Scoped{repo: repo, collection: collection, ownerID: ownerID}
}

func (s *Scoped) Get(ctx context.Context, id string) (*models.Record, error) {
	return s.repo.Get(ctx, s.collection, id)
}

func (s *Scoped) Put(ctx context.Context, rec *models.Record) error {
	return s.repo.Put(ctx, s.collection, rec)
}

func (s *Scoped) MarkSynced(ctx context.Context, id string, lastUpdated, serverTime time.Time) error {
	return s.repo.MarkSynced(ctx, s.collection, id, lastUpdated, serverTime)
}

func (s *Scoped) ListDirty(ctx context.Context) ([]*models.Record, error) {
	return s.repo.ListDirty(ctx, s.collection, s.ownerID)
}

func (s *Scoped) ListAll(ctx context.Context) ([]*models.Record, error) {
	return s.repo.ListAll(ctx, s.collection, s.ownerID)
}

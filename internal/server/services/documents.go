package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/server/models"
	"github.com/dmitrijs2005/bizkeeper/internal/server/repositories/repomanager"
)

// DocumentService wraps the per-user document store. It performs no conflict
// resolution: every accepted write is merged into the stored payload and
// stamped with the server clock, and clients resolve against that timestamp.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager) *DocumentService {
	return &DocumentService{db: db, repomanager: m}
}

// Upsert merge-writes one document and returns the server timestamp assigned
// to the write.
func (s *DocumentService) Upsert(ctx context.Context, userID, collection, id string, payload json.RawMessage, deleted bool) (time.Time, error) {
	repo := s.repomanager.Documents(s.db)
	return repo.Upsert(ctx, userID, collection, id, payload, deleted)
}

// Get returns one document or common.ErrorNotFound.
func (s *DocumentService) Get(ctx context.Context, userID, collection, id string) (*models.Document, error) {
	repo := s.repomanager.Documents(s.db)
	return repo.Get(ctx, userID, collection, id)
}

// List returns every document of the user in the collection.
func (s *DocumentService) List(ctx context.Context, userID, collection string) ([]*models.Document, error) {
	repo := s.repomanager.Documents(s.db)
	return repo.ListByCollection(ctx, userID, collection)
}

package documents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/server/models"
)

type Repository interface {
	// Upsert inserts the document or merges the payload into the existing
	// row and returns the server-assigned write timestamp.
	Upsert(ctx context.Context, userID, collection, id string, payload json.RawMessage, deleted bool) (time.Time, error)

	// Get returns one document or common.ErrorNotFound.
	Get(ctx context.Context, userID, collection, id string) (*models.Document, error)

	// ListByCollection returns every document of the user in the collection.
	ListByCollection(ctx context.Context, userID, collection string) ([]*models.Document, error)
}

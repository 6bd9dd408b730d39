// Package documents provides the PostgreSQL-backed per-user document store
// the clients replicate against.
package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/dbx"
	"github.com/dmitrijs2005/bizkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert merges the incoming payload into the stored one with the jsonb ||
// operator, so fields absent from the incoming write are left untouched.
// The deleted flag is always taken from the incoming write.
func (r *PostgresRepository) Upsert(ctx context.Context, userID, collection, id string, payload json.RawMessage, deleted bool) (time.Time, error) {
	query := `
		INSERT INTO documents (user_id, collection, id, payload, deleted, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id, collection, id) DO UPDATE
		SET payload    = documents.payload || EXCLUDED.payload,
		    deleted    = EXCLUDED.deleted,
		    updated_at = now()
		RETURNING updated_at
	`

	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, query, userID, collection, id, payload, deleted).Scan(&updatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return updatedAt, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, collection, id string) (*models.Document, error) {
	query := `
		SELECT user_id, collection, id, payload, deleted, updated_at
		FROM documents
		WHERE user_id = $1 AND collection = $2 AND id = $3
	`

	doc := &models.Document{}
	err := r.db.QueryRowContext(ctx, query, userID, collection, id).
		Scan(&doc.UserID, &doc.Collection, &doc.ID, &doc.Payload, &doc.Deleted, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (r *PostgresRepository) ListByCollection(ctx context.Context, userID, collection string) ([]*models.Document, error) {
	query := `
		SELECT user_id, collection, id, payload, deleted, updated_at
		FROM documents
		WHERE user_id = $1 AND collection = $2
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, collection)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc := &models.Document{}
		if err := rows.Scan(&doc.UserID, &doc.Collection, &doc.ID, &doc.Payload, &doc.Deleted, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return docs, nil
}

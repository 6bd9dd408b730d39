package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Timestamps are stored as RFC3339Nano text so records stay readable with the
// sqlite3 shell and comparisons stay exact across the write/read round trip.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// Get returns one record or common.ErrorNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, collection models.Collection, id string) (*models.Record, error) {
	query := `SELECT id, owner_id, payload, last_updated, synced, deleted
		FROM records WHERE collection=? AND id=?`
	row := r.db.QueryRowContext(ctx, query, string(collection), id)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

// Put inserts or fully replaces a record. No partial merge: every column is
// overwritten from the given record.
func (r *SQLiteRepository) Put(ctx context.Context, collection models.Collection, rec *models.Record) error {
	query := `INSERT INTO records (collection, id, owner_id, payload, last_updated, synced, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			owner_id = excluded.owner_id,
			payload = excluded.payload,
			last_updated = excluded.last_updated,
			synced = excluded.synced,
			deleted = excluded.deleted
	`
	_, err := r.db.ExecContext(ctx, query,
		string(collection), rec.ID, rec.OwnerID, []byte(rec.Payload),
		formatTime(rec.LastUpdated), rec.Synced, rec.Deleted)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// MarkSynced flips a record to synced=true with the server-assigned
// timestamp. The update is guarded by the timestamp the record was read
// with: a concurrent local edit bumps last_updated, the guard then matches
// no row and the record stays dirty for the next cycle.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, collection models.Collection, id string, lastUpdated, serverTime time.Time) error {
	query := `UPDATE records SET synced=1, last_updated=?
		WHERE collection=? AND id=? AND last_updated=?`
	_, err := r.db.ExecContext(ctx, query,
		formatTime(serverTime), string(collection), id, formatTime(lastUpdated))
	if err != nil {
		return fmt.Errorf("failed to mark record synced: %w", err)
	}
	return nil
}

// ReassignOwner moves every record of fromOwnerID under toOwnerID. Used once
// after the first login to fold the legacy-import baseline into the
// authenticated identity.
func (r *SQLiteRepository) ReassignOwner(ctx context.Context, fromOwnerID, toOwnerID string) error {
	query := `UPDATE records SET owner_id=? WHERE owner_id=?`
	if _, err := r.db.ExecContext(ctx, query, toOwnerID, fromOwnerID); err != nil {
		return fmt.Errorf("failed to reassign record owner: %w", err)
	}
	return nil
}

// ListDirty returns the owner's records with synced=0, the upload queue.
func (r *SQLiteRepository) ListDirty(ctx context.Context, collection models.Collection, ownerID string) ([]*models.Record, error) {
	query := `SELECT id, owner_id, payload, last_updated, synced, deleted
		FROM records WHERE collection=? AND owner_id=? AND synced=0`
	return r.list(ctx, query, string(collection), ownerID)
}

// ListAll returns every record of the owner in the collection.
func (r *SQLiteRepository) ListAll(ctx context.Context, collection models.Collection, ownerID string) ([]*models.Record, error) {
	query := `SELECT id, owner_id, payload, last_updated, synced, deleted
		FROM records WHERE collection=? AND owner_id=?`
	return r.list(ctx, query, string(collection), ownerID)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanRecord(scan func(dest ...any) error) (*models.Record, error) {
	var rec models.Record
	var payload []byte
	var updated string
	if err := scan(&rec.ID, &rec.OwnerID, &payload, &updated, &rec.Synced, &rec.Deleted); err != nil {
		return nil, err
	}
	ts, err := parseTime(updated)
	if err != nil {
		return nil, fmt.Errorf("bad last_updated value: %w", err)
	}
	rec.Payload = payload
	rec.LastUpdated = ts
	return &rec, nil
}

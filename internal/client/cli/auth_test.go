package cli

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/bizkeeper/internal/client/legacy"
	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/state"
	"github.com/dmitrijs2005/bizkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupRepos(t *testing.T) (records.Repository, state.Repository) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE records (
  collection TEXT NOT NULL,
  id TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  last_updated TEXT NOT NULL,
  synced INTEGER NOT NULL DEFAULT 0,
  deleted INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (collection, id)
);
CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);
`)
	require.NoError(t, err)

	return records.NewSQLiteRepository(db), state.NewSQLiteRepository(db)
}

func quietLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const legacySnapshot = `{
  "users": [
    {"id": "u-boss", "name": "Boss", "email": "b@example.com", "role": "admin"}
  ],
  "projects": [
    {"id": "p1", "name": "Alpha"},
    {"id": "p2", "name": "Beta"}
  ],
  "invoices": [
    {"id": "i1", "number": "INV-1", "amount_cents": 1500}
  ],
  "quotations": [],
  "settings": {"currency": "EUR"}
}`

// The migration writes the baseline under the snapshot's own user id, while
// sessions sync under the server-issued id. After the first login the
// baseline must sit in the session owner's upload queue, not under the dead
// legacy id.
func TestAdoptMigratedRecords_BaselineFollowsLogin(t *testing.T) {
	ctx := context.Background()
	rec, st := setupRepos(t)

	path := filepath.Join(t.TempDir(), "legacy-data.json")
	require.NoError(t, os.WriteFile(path, []byte(legacySnapshot), 0o600))

	m := legacy.NewMigrator(rec, st, path, quietLogger(), nil)
	_, err := m.Migrate(ctx)
	require.NoError(t, err)

	a := &App{records: rec, state: st}
	const serverID = "3f0b8a52-7a51-4a2f-9c3e-1f4f2a6db001"
	require.NoError(t, a.adoptMigratedRecords(ctx, serverID))

	dirty, err := rec.ListDirty(ctx, models.CollectionProjects, serverID)
	require.NoError(t, err)
	assert.Len(t, dirty, 2)

	dirty, err = rec.ListDirty(ctx, models.CollectionInvoices, serverID)
	require.NoError(t, err)
	assert.Len(t, dirty, 1)

	// Nothing is left under the legacy id.
	orphaned, err := rec.ListDirty(ctx, models.CollectionProjects, "u-boss")
	require.NoError(t, err)
	assert.Empty(t, orphaned)

	// The marker is one-shot: a later login under another id must not steal
	// the records again.
	require.NoError(t, a.adoptMigratedRecords(ctx, "another-id"))
	dirty, err = rec.ListDirty(ctx, models.CollectionProjects, serverID)
	require.NoError(t, err)
	assert.Len(t, dirty, 2)
}

func TestAdoptMigratedRecords_NoMigrationIsNoop(t *testing.T) {
	ctx := context.Background()
	rec, st := setupRepos(t)

	a := &App{records: rec, state: st}
	require.NoError(t, a.adoptMigratedRecords(ctx, "server-id"))

	marker, err := st.Get(ctx, state.KeyMigratedOwnerID)
	require.NoError(t, err)
	assert.Empty(t, marker)
}

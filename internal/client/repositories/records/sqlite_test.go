package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
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
`)
	require.NoError(t, err)

	return db
}

func TestPut_InsertAndUpdate(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)

	rec := &models.Record{
		ID: "id1", OwnerID: "u1", Payload: []byte(`{"name":"alpha"}`),
		LastUpdated: ts, Synced: false,
	}
	require.NoError(t, r.Put(ctx, models.CollectionProjects, rec))

	got, err := r.Get(ctx, models.CollectionProjects, "id1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, []byte(`{"name":"alpha"}`), []byte(got.Payload))
	assert.True(t, got.LastUpdated.Equal(ts))
	assert.False(t, got.Synced)

	// full overwrite on the same key
	rec2 := &models.Record{
		ID: "id1", OwnerID: "u1", Payload: []byte(`{"name":"beta"}`),
		LastUpdated: ts.Add(time.Second), Synced: true, Deleted: true,
	}
	require.NoError(t, r.Put(ctx, models.CollectionProjects, rec2))

	got, err = r.Get(ctx, models.CollectionProjects, "id1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"name":"beta"}`), []byte(got.Payload))
	assert.True(t, got.Synced)
	assert.True(t, got.Deleted)
}

func TestGet_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.Get(context.Background(), models.CollectionProjects, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_SameIDDifferentCollections(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	ts := time.Now().UTC()

	require.NoError(t, r.Put(ctx, models.CollectionProjects, &models.Record{
		ID: "x", OwnerID: "u1", Payload: []byte(`{"kind":"project"}`), LastUpdated: ts,
	}))
	require.NoError(t, r.Put(ctx, models.CollectionInvoices, &models.Record{
		ID: "x", OwnerID: "u1", Payload: []byte(`{"kind":"invoice"}`), LastUpdated: ts,
	}))

	p, err := r.Get(ctx, models.CollectionProjects, "x")
	require.NoError(t, err)
	i, err := r.Get(ctx, models.CollectionInvoices, "x")
	require.NoError(t, err)
	assert.NotEqual(t, []byte(p.Payload), []byte(i.Payload))
}

func TestMarkSynced(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	serverTime := ts.Add(5 * time.Second)

	require.NoError(t, r.Put(ctx, models.CollectionInvoices, &models.Record{
		ID: "i1", OwnerID: "u1", Payload: []byte(`{}`), LastUpdated: ts,
	}))

	require.NoError(t, r.MarkSynced(ctx, models.CollectionInvoices, "i1", ts, serverTime))

	got, err := r.Get(ctx, models.CollectionInvoices, "i1")
	require.NoError(t, err)
	assert.True(t, got.Synced)
	assert.True(t, got.LastUpdated.Equal(serverTime))
}

func TestMarkSynced_ConcurrentEditStaysDirty(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	edited := ts.Add(time.Millisecond)
	serverTime := ts.Add(5 * time.Second)

	require.NoError(t, r.Put(ctx, models.CollectionInvoices, &models.Record{
		ID: "i1", OwnerID: "u1", Payload: []byte(`{"number":"INV-1"}`), LastUpdated: ts,
	}))

	// A local edit lands after the record was read for upload. Marking with
	// the pre-edit timestamp must not touch the edited row.
	require.NoError(t, r.Put(ctx, models.CollectionInvoices, &models.Record{
		ID: "i1", OwnerID: "u1", Payload: []byte(`{"number":"INV-1-EDITED"}`), LastUpdated: edited,
	}))

	require.NoError(t, r.MarkSynced(ctx, models.CollectionInvoices, "i1", ts, serverTime))

	got, err := r.Get(ctx, models.CollectionInvoices, "i1")
	require.NoError(t, err)
	assert.False(t, got.Synced)
	assert.Equal(t, []byte(`{"number":"INV-1-EDITED"}`), []byte(got.Payload))
	assert.True(t, got.LastUpdated.Equal(edited))
}

func TestListDirty(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	ts := time.Now().UTC()

	require.NoError(t, r.Put(ctx, models.CollectionProjects, &models.Record{
		ID: "dirty", OwnerID: "u1", Payload: []byte(`{}`), LastUpdated: ts, Synced: false,
	}))
	require.NoError(t, r.Put(ctx, models.CollectionProjects, &models.Record{
		ID: "clean", OwnerID: "u1", Payload: []byte(`{}`), LastUpdated: ts, Synced: true,
	}))
	require.NoError(t, r.Put(ctx, models.CollectionProjects, &models.Record{
		ID: "other-owner", OwnerID: "u2", Payload: []byte(`{}`), LastUpdated: ts, Synced: false,
	}))

	dirty, err := r.ListDirty(ctx, models.CollectionProjects, "u1")
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Equal(t, "dirty", dirty[0].ID)

	all, err := r.ListAll(ctx, models.CollectionProjects, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReassignOwner(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	ts := time.Now().UTC()

	require.NoError(t, r.Put(ctx, models.CollectionProjects, &models.Record{
		ID: "p1", OwnerID: "u-boss", Payload: []byte(`{}`), LastUpdated: ts, Synced: false,
	}))
	require.NoError(t, r.Put(ctx, models.CollectionInvoices, &models.Record{
		ID: "i1", OwnerID: "u-boss", Payload: []byte(`{}`), LastUpdated: ts, Synced: false,
	}))
	require.NoError(t, r.Put(ctx, models.CollectionProjects, &models.Record{
		ID: "p2", OwnerID: "someone-else", Payload: []byte(`{}`), LastUpdated: ts, Synced: false,
	}))

	require.NoError(t, r.ReassignOwner(ctx, "u-boss", "server-uuid"))

	dirty, err := r.ListDirty(ctx, models.CollectionProjects, "server-uuid")
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Equal(t, "p1", dirty[0].ID)

	dirty, err = r.ListDirty(ctx, models.CollectionInvoices, "server-uuid")
	require.NoError(t, err)
	assert.Len(t, dirty, 1)

	// Records of other owners are untouched.
	other, err := r.ListDirty(ctx, models.CollectionProjects, "someone-else")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestScoped_DelegatesWithCollectionAndOwner(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	ts := time.Now().UTC()

	s := NewScoped(r, models.CollectionQuotations, "u1")

	require.NoError(t, s.Put(ctx, &models.Record{
		ID: "q1", OwnerID: "u1", Payload: []byte(`{}`), LastUpdated: ts,
	}))

	got, err := s.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", got.ID)

	dirty, err := s.ListDirty(ctx)
	require.NoError(t, err)
	assert.Len(t, dirty, 1)
}

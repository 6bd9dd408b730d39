// Package legacy migrates the flat whole-state snapshot written by the
// pre-database version of the application into the local record store.
// The migration runs at most once per installation, guarded by a persisted
// completion flag.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/state"
	"github.com/dmitrijs2005/bizkeeper/internal/logging"
	"github.com/google/uuid"
)

// Result describes one migration run.
type Result struct {
	// RanAlready is true when the completion flag was set before this call
	// and nothing was done.
	RanAlready bool

	// MigratedCounts holds the number of entities written per collection.
	MigratedCounts map[models.Collection]int

	// Skipped counts malformed entities left behind.
	Skipped int
}

// Migrator performs the one-shot legacy import.
type Migrator struct {
	records      records.Repository
	state        state.Repository
	snapshotPath string
	logger       logging.Logger
	now          func() time.Time
}

// NewMigrator builds a Migrator reading the snapshot from snapshotPath.
// now may be nil, in which case time.Now is used.
func NewMigrator(rec records.Repository, st state.Repository, snapshotPath string, logger logging.Logger, now func() time.Time) *Migrator {
	if now == nil {
		now = time.Now
	}
	return &Migrator{
		records:      rec,
		state:        st,
		snapshotPath: snapshotPath,
		logger:       logger.With("module", "legacy"),
		now:          now,
	}
}

// Migrate fans the legacy snapshot out into per-collection records, every
// one of them marked dirty so the first sync uploads the migrated baseline.
//
// Idempotent: a second call returns immediately with RanAlready=true. A
// missing snapshot is a fresh install, not an error. Malformed entities are
// skipped and tallied; only storage failures abort the run, and an aborted
// run does not set the completion flag, so the next launch retries.
func (m *Migrator) Migrate(ctx context.Context) (*Result, error) {
	done, err := m.state.Get(ctx, state.KeyMigrationCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration flag: %w", err)
	}
	if string(done) == "true" {
		return &Result{RanAlready: true, MigratedCounts: map[models.Collection]int{}}, nil
	}

	result := &Result{MigratedCounts: map[models.Collection]int{}}

	data, err := os.ReadFile(m.snapshotPath)
	if errors.Is(err, fs.ErrNotExist) {
		// Fresh install: nothing to migrate.
		if err := m.setCompleted(ctx); err != nil {
			return nil, err
		}
		m.logger.Info(ctx, "no legacy snapshot found, nothing to migrate", "path", m.snapshotPath)
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy snapshot: %w", err)
	}

	var snapshot models.LegacySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse legacy snapshot: %w", err)
	}

	owner := resolveOwner(snapshot.Users)
	if owner == nil {
		// No identities in the snapshot: nothing can be assigned an owner.
		if err := m.setCompleted(ctx); err != nil {
			return nil, err
		}
		m.logger.Warn(ctx, "legacy snapshot has no users, skipping data import")
		return result, nil
	}
	ownerID := owner.ID
	if ownerID == "" {
		ownerID = uuid.NewString()
	}

	// The migration runs before any login, so the snapshot's own user id is
	// all there is to scope by. The first login rebinds these records to the
	// server-issued identity via this marker.
	if err := m.state.Set(ctx, state.KeyMigratedOwnerID, []byte(ownerID)); err != nil {
		return nil, fmt.Errorf("failed to record migrated owner: %w", err)
	}

	if err := m.migrateProfile(ctx, owner, ownerID, result); err != nil {
		return nil, err
	}

	entityCollections := []struct {
		collection models.Collection
		entities   []json.RawMessage
	}{
		{models.CollectionProjects, snapshot.Projects},
		{models.CollectionInvoices, snapshot.Invoices},
		{models.CollectionQuotations, snapshot.Quotations},
	}
	for _, ec := range entityCollections {
		if err := m.migrateCollection(ctx, ec.collection, ec.entities, ownerID, result); err != nil {
			return nil, err
		}
	}

	if err := m.migrateSettings(ctx, snapshot, ownerID, result); err != nil {
		return nil, err
	}

	// The flag goes last: a failure anywhere above leaves it unset so the
	// next launch can retry.
	if err := m.setCompleted(ctx); err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "legacy migration complete",
		"counts", result.MigratedCounts, "skipped", result.Skipped)
	return result, nil
}

func (m *Migrator) setCompleted(ctx context.Context) error {
	if err := m.state.Set(ctx, state.KeyMigrationCompleted, []byte("true")); err != nil {
		return fmt.Errorf("failed to set migration flag: %w", err)
	}
	return nil
}

// resolveOwner picks the primary account: the first privileged identity,
// else the first identity, else nil.
func resolveOwner(users []models.LegacyUser) *models.LegacyUser {
	for i := range users {
		if users[i].IsAdmin() {
			return &users[i]
		}
	}
	if len(users) > 0 {
		return &users[0]
	}
	return nil
}

func (m *Migrator) migrateProfile(ctx context.Context, owner *models.LegacyUser, ownerID string, result *Result) error {
	payload, err := json.Marshal(models.Profile{
		Name:  owner.Name,
		Email: owner.Email,
		Role:  owner.Role,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}

	if err := m.put(ctx, models.CollectionProfile, models.SingletonID, ownerID, payload); err != nil {
		return err
	}
	result.MigratedCounts[models.CollectionProfile]++
	return nil
}

func (m *Migrator) migrateCollection(ctx context.Context, c models.Collection, entities []json.RawMessage, ownerID string, result *Result) error {
	for _, raw := range entities {
		id, payload, err := normalizeEntity(raw)
		if err != nil {
			m.logger.Warn(ctx, "skipping malformed legacy entity", "collection", c, "error", err)
			result.Skipped++
			continue
		}

		if err := m.put(ctx, c, id, ownerID, payload); err != nil {
			return err
		}
		result.MigratedCounts[c]++
	}
	return nil
}

func (m *Migrator) migrateSettings(ctx context.Context, snapshot models.LegacySnapshot, ownerID string, result *Result) error {
	if len(snapshot.Settings) == 0 {
		return nil
	}

	var settings map[string]any
	if err := json.Unmarshal(snapshot.Settings, &settings); err != nil {
		m.logger.Warn(ctx, "skipping malformed legacy settings", "error", err)
		result.Skipped++
		return nil
	}

	// Signature settings used to live in their own top-level blob; they fold
	// into the settings document now.
	if len(snapshot.SignatureSettings) > 0 {
		var sig any
		if err := json.Unmarshal(snapshot.SignatureSettings, &sig); err != nil {
			m.logger.Warn(ctx, "skipping malformed legacy signature settings", "error", err)
			result.Skipped++
		} else {
			settings["signature"] = sig
		}
	}

	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}

	if err := m.put(ctx, models.CollectionSettings, models.SingletonID, ownerID, payload); err != nil {
		return err
	}
	result.MigratedCounts[models.CollectionSettings]++
	return nil
}

func (m *Migrator) put(ctx context.Context, c models.Collection, id, ownerID string, payload json.RawMessage) error {
	err := m.records.Put(ctx, c, &models.Record{
		ID:          id,
		OwnerID:     ownerID,
		Payload:     payload,
		LastUpdated: m.now(),
		Synced:      false,
	})
	if err != nil {
		return fmt.Errorf("failed to write migrated record %s/%s: %w", c, id, err)
	}
	return nil
}

// normalizeEntity validates one legacy entity and makes sure it carries an
// id, generating one when the legacy data has none.
func normalizeEntity(raw json.RawMessage) (string, json.RawMessage, error) {
	var entity map[string]any
	if err := json.Unmarshal(raw, &entity); err != nil {
		return "", nil, err
	}

	id, _ := entity["id"].(string)
	if id == "" {
		id = uuid.NewString()
		entity["id"] = id
		patched, err := json.Marshal(entity)
		if err != nil {
			return "", nil, err
		}
		return id, patched, nil
	}
	return id, raw, nil
}

package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/logging"
)

// Report aggregates the outcome of one sync cycle. Per-record failures are
// absorbed into Errors so the UI can show "synced with N errors" instead of
// an opaque failure.
type Report struct {
	Uploaded   int
	Downloaded int
	Errors     int
	Duration   time.Duration
}

// Orchestrator drives one full bidirectional cycle: the profile first, then
// every bulk collection in models.SyncOrder, upload phase strictly before
// download phase. Uploads for a record therefore always happen-before any
// download-driven overwrite of the same record within a cycle.
type Orchestrator struct {
	store   Store
	replica Replica
	logger  logging.Logger
	now     func() time.Time
}

// NewOrchestrator wires the sync procedure to a local store and a remote
// replica. now may be nil, in which case time.Now is used.
func NewOrchestrator(store Store, replica Replica, logger logging.Logger, now func() time.Time) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		store:   store,
		replica: replica,
		logger:  logger.With("module", "syncer"),
		now:     now,
	}
}

// Run executes one cycle for the given owner. The only fatal error is a
// missing identity binding; everything else is tallied into the report and
// the cycle continues with the next record.
func (o *Orchestrator) Run(ctx context.Context, ownerID string) (*Report, error) {
	if ownerID == "" {
		return nil, common.ErrorNoIdentity
	}

	start := o.now()
	report := &Report{}

	// Upload phase. Profile goes first: adapters may key other records off
	// profile-derived metadata.
	o.uploadCollection(ctx, models.CollectionProfile, ownerID, report)
	for _, c := range models.SyncOrder {
		o.uploadCollection(ctx, c, ownerID, report)
	}

	// Download phase, same order.
	o.downloadCollection(ctx, models.CollectionProfile, ownerID, report)
	for _, c := range models.SyncOrder {
		o.downloadCollection(ctx, c, ownerID, report)
	}

	report.Duration = o.now().Sub(start)
	o.logger.Info(ctx, "sync cycle finished",
		"uploaded", report.Uploaded, "downloaded", report.Downloaded,
		"errors", report.Errors, "duration", report.Duration)
	return report, nil
}

func (o *Orchestrator) uploadCollection(ctx context.Context, c models.Collection, ownerID string, report *Report) {
	cs := o.store.Collection(c, ownerID)

	dirty, err := cs.ListDirty(ctx)
	if err != nil {
		o.logger.Error(ctx, "failed to list dirty records", "collection", c, "error", err)
		report.Errors++
		return
	}

	for _, rec := range dirty {
		serverTime, err := o.upload(ctx, c, rec)
		if err != nil {
			o.logger.Warn(ctx, "upload failed, record stays dirty",
				"collection", c, "id", rec.ID, "error", err)
			report.Errors++
			continue
		}
		// Keyed off the timestamp the record was listed with, so a local
		// edit racing the upload keeps the record dirty instead of having
		// its new payload silently marked as synced.
		if err := cs.MarkSynced(ctx, rec.ID, rec.LastUpdated, serverTime); err != nil {
			o.logger.Error(ctx, "failed to mark record synced",
				"collection", c, "id", rec.ID, "error", err)
			report.Errors++
			continue
		}
		report.Uploaded++
	}
}

func (o *Orchestrator) upload(ctx context.Context, c models.Collection, rec *models.Record) (time.Time, error) {
	if c.Singleton() {
		return o.replica.UploadDocument(ctx, c, rec)
	}
	return o.replica.Upload(ctx, c, rec)
}

func (o *Orchestrator) downloadCollection(ctx context.Context, c models.Collection, ownerID string, report *Report) {
	cs := o.store.Collection(c, ownerID)

	remotes, err := o.listRemote(ctx, c)
	if err != nil {
		o.logger.Error(ctx, "failed to list remote records", "collection", c, "error", err)
		report.Errors++
		return
	}

	for _, remote := range remotes {
		applied, err := o.applyRemote(ctx, cs, ownerID, remote)
		if err != nil {
			o.logger.Warn(ctx, "failed to apply remote record",
				"collection", c, "id", remote.ID, "error", err)
			report.Errors++
			continue
		}
		if applied {
			report.Downloaded++
		}
	}
}

func (o *Orchestrator) listRemote(ctx context.Context, c models.Collection) ([]*models.RemoteRecord, error) {
	if !c.Singleton() {
		return o.replica.ListAll(ctx, c)
	}
	doc, err := o.replica.GetDocument(ctx, c)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []*models.RemoteRecord{doc}, nil
}

// applyRemote writes one remote record into the local store, going through
// conflict resolution when a local version exists. When the local version
// wins nothing is written and applied=false: a dirty local winner is picked
// up by the next cycle's upload phase rather than re-uploaded within this one.
func (o *Orchestrator) applyRemote(ctx context.Context, cs CollectionStore, ownerID string, remote *models.RemoteRecord) (applied bool, err error) {
	local, err := cs.Get(ctx, remote.ID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return false, err
	}

	if local != nil && Resolve(local, remote) == WinnerLocal {
		return false, nil
	}

	// New-from-cloud, or remote wins: whole-record replace, marked synced.
	err = cs.Put(ctx, &models.Record{
		ID:          remote.ID,
		OwnerID:     ownerID,
		Payload:     remote.Payload,
		LastUpdated: remote.LastUpdated,
		Synced:      true,
		Deleted:     remote.Deleted,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"upload-lab/contract"
	"upload-lab/domain"
	"upload-lab/errors"
	"upload-lab/observability"
	"upload-lab/services"
	"upload-lab/storage"
)

// StagingJanitorWorker drops staging areas of sessions abandoned for longer
// than the TTL, and spool or merge files left in the temp directory.
// A session being merged is skipped until the next pass.
type StagingJanitorWorker struct {
	log      *slog.Logger
	staging  *storage.Staging
	sessions contract.ISessionRepository
	locks    *services.KeyedLocker
	metrics  *observability.Metrics
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
}

func NewStagingJanitorWorker(
	log *slog.Logger,
	staging *storage.Staging,
	sessions contract.ISessionRepository,
	locks *services.KeyedLocker,
	metrics *observability.Metrics,
	interval time.Duration,
	ttl time.Duration,
) *StagingJanitorWorker {
	return &StagingJanitorWorker{
		log:      log,
		staging:  staging,
		sessions: sessions,
		locks:    locks,
		metrics:  metrics,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (w *StagingJanitorWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping staging janitor")
			return nil
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				return err
			}
		}
	}
}

// Sweep runs one collection pass. Only a failing ledger read is an error,
// per-session failures are logged and retried on the next pass.
func (w *StagingJanitorWorker) Sweep(ctx context.Context) error {
	cutoff := w.now().Add(-w.ttl)
	stale, err := w.sessions.ListStale(cutoff)
	if err != nil {
		return err
	}

	// 1. Sessions the ledger knows about
	purged := 0
	for _, session := range stale {
		if ctx.Err() != nil {
			return nil
		}
		if !w.purge(session.Fingerprint) {
			continue
		}
		purged++
		w.log.Info("Stale session purged", "hash", session.Fingerprint, "name", session.Name,
			"received", len(session.Received), "total", session.Total, "idle", w.now().Sub(session.UpdatedAt))
	}

	// 2. Staging directories left without a ledger entry
	orphans, err := w.staging.StaleSessionDirs(cutoff)
	if err != nil {
		w.log.Warn("Staging directories not listed", "error", err)
	}
	for _, fp := range orphans {
		if ctx.Err() != nil {
			return nil
		}
		if w.purge(fp) {
			purged++
			w.log.Info("Orphan staging area purged", "hash", fp)
		}
	}

	// 3. Spool and merge files
	removed, err := w.staging.SweepTemp(cutoff)
	if err != nil {
		w.log.Warn("Temp directory not swept", "error", err)
	}
	if purged > 0 || removed > 0 {
		w.log.Debug("Staging janitor pass", "sessions", purged, "temp_files", removed)
	}
	return nil
}

// purge drops the staging area and the ledger entry of fp unless it is being merged.
func (w *StagingJanitorWorker) purge(fp domain.Fingerprint) bool {
	unlock, ok := w.locks.TryLock(fp.String())
	if !ok {
		w.log.Debug("Stale session is being merged, skipped", "hash", fp)
		return false
	}
	defer unlock()

	err := w.staging.PurgeSession(fp)
	if err == nil {
		if err = w.sessions.Delete(fp); stderrors.Is(err, errors.ErrSessionNotFound) {
			err = nil
		}
	}
	if err != nil {
		w.log.Warn("Stale session not purged", "hash", fp, "error", err)
		return false
	}
	w.metrics.SessionPurged()
	return true
}

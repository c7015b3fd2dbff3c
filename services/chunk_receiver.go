package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"upload-lab/contract"
	"upload-lab/domain"
	"upload-lab/errors"
	"upload-lab/observability"
	"upload-lab/storage"
)

var _ contract.IChunkReceiver = (*ChunkReceiver)(nil)

// ChunkReceiver stages chunks at <root>/<fingerprint>/<fingerprint>-<index>.
// Chunks of one session may arrive in any order and concurrently.
type ChunkReceiver struct {
	log           *slog.Logger
	staging       *storage.Staging
	sessions      contract.ISessionRepository
	locks         *KeyedLocker
	guard         *storage.CapacityGuard
	metrics       *observability.Metrics
	maxChunkBytes int64
	now           func() time.Time
}

func NewChunkReceiver(
	log *slog.Logger,
	staging *storage.Staging,
	sessions contract.ISessionRepository,
	locks *KeyedLocker,
	guard *storage.CapacityGuard,
	metrics *observability.Metrics,
	maxChunkBytes int64,
) *ChunkReceiver {
	if locks == nil {
		locks = NewKeyedLocker()
	}
	return &ChunkReceiver{
		log:           log,
		staging:       staging,
		sessions:      sessions,
		locks:         locks,
		guard:         guard,
		metrics:       metrics,
		maxChunkBytes: maxChunkBytes,
		now:           time.Now,
	}
}

// Spool buffers one inbound payload in the temp directory.
func (r *ChunkReceiver) Spool(src io.Reader) (storage.SpooledChunk, error) {
	if err := r.guard.Check(); err != nil {
		r.reject(err)
		return storage.SpooledChunk{}, err
	}
	spooled, err := r.staging.Spool(src, r.maxChunkBytes)
	if err != nil {
		r.reject(err)
		return storage.SpooledChunk{}, err
	}
	return spooled, nil
}

// Accept moves a spooled payload to its staging path once its tags validate.
// A re-sent chunk replaces the previous copy. On error the payload is discarded
// and nothing is left behind for that chunk.
func (r *ChunkReceiver) Accept(ctx context.Context, meta domain.ChunkMeta, spooled storage.SpooledChunk) error {
	err := r.accept(ctx, meta, spooled)
	if err != nil {
		r.staging.Discard(spooled)
		r.reject(err)
		r.log.Debug("Chunk rejected", "hash", meta.Fingerprint, "index", meta.Index, "error", err)
	}
	return err
}

func (r *ChunkReceiver) accept(ctx context.Context, meta domain.ChunkMeta, spooled storage.SpooledChunk) error {
	// 1. Tags and payload
	if err := meta.Validate(); err != nil {
		return err
	}
	if r.staging.IsReserved(meta.Fingerprint.String()) || r.staging.IsReserved(meta.Name) {
		return fmt.Errorf("%w: reserved name", errors.ErrInvalidChunk)
	}
	if r.staging.IsArtifact(meta.Fingerprint.String()) {
		return fmt.Errorf("%w: a merged file is named %s", errors.ErrNameConflict, meta.Fingerprint)
	}
	if spooled.Size == 0 {
		return fmt.Errorf("%w: chunk %d has no payload", errors.ErrInvalidChunk, meta.Index)
	}
	if spooled.Size > meta.FileSize {
		return fmt.Errorf("%w: chunk %d is larger than the file", errors.ErrInvalidChunk, meta.Index)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.guard.Check(); err != nil {
		return err
	}

	// 2. Ledger, a session resent with another chunk size drops the previous attempt
	unlock, err := r.record(ctx, meta)
	if err != nil {
		return err
	}
	defer unlock()

	// 3. Relocate the payload
	if _, err := r.staging.Commit(spooled, meta.Fingerprint, meta.Index); err != nil {
		return err
	}
	r.metrics.ChunkStaged(spooled.Size)
	r.log.Debug("Chunk staged", "hash", meta.Fingerprint, "index", meta.Index, "total", meta.Total, "bytes", spooled.Size)
	return nil
}

// record notes the chunk in the ledger. When the session layout changed it
// returns with the session lock held, after the previous layout was purged.
func (r *ChunkReceiver) record(ctx context.Context, meta domain.ChunkMeta) (unlock func(), err error) {
	noop := func() {}
	if r.sessions == nil {
		return noop, nil
	}
	err = r.sessions.Record(meta, r.now())
	switch {
	case err == nil:
		return noop, nil
	case stderrors.Is(err, errors.ErrLayoutChanged):
		return r.restart(ctx, meta)
	default:
		// the ledger only drives garbage collection, the disk decides instead
		r.log.Warn("Session ledger not updated", "hash", meta.Fingerprint, "index", meta.Index, "error", err)
		if !r.staleOnDisk(meta) {
			return noop, nil
		}
		return r.restart(ctx, meta)
	}
}

// staleOnDisk reports chunks staged beyond the declared total.
func (r *ChunkReceiver) staleOnDisk(meta domain.ChunkMeta) bool {
	chunks, err := r.staging.ListChunks(meta.Fingerprint)
	if err != nil || len(chunks) == 0 {
		return false
	}
	return chunks[len(chunks)-1].Index >= meta.Total
}

// restart drops what a previous attempt staged under the session lock.
// Chunks that waited on the lock find the session already restarted.
func (r *ChunkReceiver) restart(ctx context.Context, meta domain.ChunkMeta) (func(), error) {
	unlock, err := r.locks.Lock(ctx, meta.Fingerprint.String())
	if err != nil {
		return nil, err
	}

	err = r.sessions.Record(meta, r.now())
	if err == nil {
		return unlock, nil
	}
	if !stderrors.Is(err, errors.ErrLayoutChanged) && !r.staleOnDisk(meta) {
		return unlock, nil
	}

	if err := r.staging.PurgeSession(meta.Fingerprint); err != nil {
		unlock()
		return nil, fmt.Errorf("%w: %w", errors.ErrStagingWrite, err)
	}
	if err := r.sessions.Delete(meta.Fingerprint); err != nil && !stderrors.Is(err, errors.ErrSessionNotFound) {
		r.log.Warn("Session ledger not reset", "hash", meta.Fingerprint, "error", err)
	}
	if err := r.sessions.Record(meta, r.now()); err != nil {
		r.log.Warn("Session ledger not updated", "hash", meta.Fingerprint, "index", meta.Index, "error", err)
	}
	r.metrics.SessionPurged()
	r.log.Info("Session restarted with another layout, previous chunks dropped",
		"hash", meta.Fingerprint, "total", meta.Total, "size", meta.FileSize)
	return unlock, nil
}

// Discard drops a spooled payload whose tags never arrived.
func (r *ChunkReceiver) Discard(spooled storage.SpooledChunk) {
	r.staging.Discard(spooled)
}

// Receive spools and accepts a chunk whose tags are already known.
func (r *ChunkReceiver) Receive(ctx context.Context, meta domain.ChunkMeta, payload io.Reader) error {
	spooled, err := r.Spool(payload)
	if err != nil {
		return err
	}
	return r.Accept(ctx, meta, spooled)
}

func (r *ChunkReceiver) reject(err error) {
	r.metrics.ChunkRejected(strconv.Itoa(errors.MapToHTTPStatus(err)))
}

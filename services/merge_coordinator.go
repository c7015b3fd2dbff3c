package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"upload-lab/contract"
	"upload-lab/domain"
	"upload-lab/domain/mimetypes"
	"upload-lab/errors"
	"upload-lab/observability"
	"upload-lab/storage"
)

var _ contract.IMergeCoordinator = (*MergeCoordinator)(nil)

// MergeCoordinator concatenates the staged chunks of a session into <root>/<name>.
// The artifact only appears once every chunk was written to a temp file,
// and the chunks are only deleted once the artifact is in place.
type MergeCoordinator struct {
	log      *slog.Logger
	staging  *storage.Staging
	sessions contract.ISessionRepository
	locks    *KeyedLocker
	metrics  *observability.Metrics
}

func NewMergeCoordinator(
	log *slog.Logger,
	staging *storage.Staging,
	sessions contract.ISessionRepository,
	locks *KeyedLocker,
	metrics *observability.Metrics,
) *MergeCoordinator {
	return &MergeCoordinator{
		log:      log,
		staging:  staging,
		sessions: sessions,
		locks:    locks,
		metrics:  metrics,
	}
}

func (c *MergeCoordinator) Merge(ctx context.Context, req domain.MergeRequest) (domain.Artifact, error) {
	started := time.Now()
	artifact, err := c.merge(ctx, req)
	switch {
	case err == nil:
		c.metrics.MergeDone(observability.OutcomeMerged, time.Since(started).Seconds())
		c.log.Info("Chunks merged", "hash", req.Fingerprint, "name", req.Name,
			"size", artifact.Size, "mime", artifact.MimeType, "took", time.Since(started))
	case errors.MapToHTTPStatus(err) < 500:
		c.metrics.MergeDone(observability.OutcomeRejected, 0)
		c.log.Warn("Merge rejected", "hash", req.Fingerprint, "name", req.Name, "error", err)
	default:
		c.metrics.MergeDone(observability.OutcomeFailed, 0)
		c.log.Error("Merge failed", "hash", req.Fingerprint, "name", req.Name, "error", err)
	}
	return artifact, err
}

func (c *MergeCoordinator) merge(ctx context.Context, req domain.MergeRequest) (domain.Artifact, error) {
	// 1. Request
	if err := req.Validate(); err != nil {
		return domain.Artifact{}, err
	}
	if c.staging.IsReserved(req.Fingerprint.String()) || c.staging.IsReserved(req.Name) {
		return domain.Artifact{}, fmt.Errorf("%w: reserved name", errors.ErrInvalidChunk)
	}

	if c.staging.IsSessionDir(req.Name) {
		return domain.Artifact{}, fmt.Errorf("%w: %s is a staging area", errors.ErrNameConflict, req.Name)
	}

	// 2. One merge per fingerprint, chunk restarts wait for it
	unlock, ok := c.locks.TryLock(req.Fingerprint.String())
	if !ok {
		return domain.Artifact{}, fmt.Errorf("%w: %s", errors.ErrMergeInProgress, req.Fingerprint)
	}
	defer unlock()

	// 3. Every index from 0 to total-1 staged
	chunks, err := c.staging.ListChunks(req.Fingerprint)
	if err != nil {
		return domain.Artifact{}, err
	}
	if len(chunks) != req.Total {
		return domain.Artifact{}, fmt.Errorf("%w: %d staged, %d expected", errors.ErrIncompleteChunks, len(chunks), req.Total)
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			return domain.Artifact{}, fmt.Errorf("%w: index %d", errors.ErrMissingChunk, i)
		}
	}

	// 4. Concatenate in index order and check the declared size
	mergePath, head, written, err := c.concat(ctx, chunks)
	if err != nil {
		return domain.Artifact{}, err
	}
	if written != req.FileSize {
		_ = os.Remove(mergePath)
		return domain.Artifact{}, fmt.Errorf("%w: wrote %d bytes, declared %d", errors.ErrSizeMismatch, written, req.FileSize)
	}

	// 5. Publish, then drop the staging area
	path, err := c.staging.Publish(mergePath, req.Name)
	if err != nil {
		_ = os.Remove(mergePath)
		return domain.Artifact{}, err
	}
	c.cleanup(req.Fingerprint, chunks)

	return domain.Artifact{
		Fingerprint: req.Fingerprint,
		Name:        req.Name,
		Path:        path,
		Size:        written,
		MimeType:    string(mimetypes.Sniff(head)),
	}, nil
}

// concat writes the chunks in index order into a fresh temp file and fsyncs it.
// It returns the leading bytes of the result for MIME detection.
func (c *MergeCoordinator) concat(ctx context.Context, chunks []domain.StagedChunk) (path string, head []byte, written int64, err error) {
	f, err := c.staging.CreateMergeFile()
	if err != nil {
		return "", nil, 0, err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", nil, 0, err
		}
		n, err := appendChunk(f, chunk)
		if err != nil {
			return "", nil, 0, err
		}
		written += n
	}
	if err := f.Sync(); err != nil {
		return "", nil, 0, fmt.Errorf("%w: sync merge file: %w", errors.ErrStagingWrite, err)
	}

	head = make([]byte, mimetypes.SniffLen)
	n, err := f.ReadAt(head, 0)
	if err != nil && !stderrors.Is(err, io.EOF) {
		return "", nil, 0, fmt.Errorf("read merge file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", nil, 0, fmt.Errorf("%w: close merge file: %w", errors.ErrStagingWrite, err)
	}
	return tmp, head[:n], written, nil
}

func appendChunk(dst *os.File, chunk domain.StagedChunk) (int64, error) {
	src, err := os.Open(chunk.Path)
	if stderrors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("%w: index %d vanished", errors.ErrMissingChunk, chunk.Index)
	}
	if err != nil {
		return 0, fmt.Errorf("open chunk %d: %w", chunk.Index, err)
	}
	defer src.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return n, fmt.Errorf("%w: append chunk %d: %w", errors.ErrStagingWrite, chunk.Index, err)
	}
	return n, nil
}

// cleanup runs after the artifact is published, failures only leave garbage for the janitor.
func (c *MergeCoordinator) cleanup(fp domain.Fingerprint, chunks []domain.StagedChunk) {
	for _, chunk := range chunks {
		if err := c.staging.RemoveChunk(fp, chunk.Index); err != nil {
			c.log.Warn("Staged chunk not removed", "hash", fp, "index", chunk.Index, "error", err)
		}
	}
	if err := c.staging.RemoveSessionDir(fp); err != nil {
		c.log.Warn("Staging directory not removed", "hash", fp, "error", err)
	}
	if c.sessions != nil {
		if err := c.sessions.Delete(fp); err != nil && !stderrors.Is(err, errors.ErrSessionNotFound) {
			c.log.Warn("Session not removed from ledger", "hash", fp, "error", err)
		}
	}
}

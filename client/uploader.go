package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"upload-lab/contract"
	"upload-lab/domain"
	"upload-lab/errors"
)

type UploaderConfig struct {
	ChunkSize  int64
	Algorithm  HashAlgorithm
	Dispatcher DispatcherConfig
}

// Uploader runs one upload session: fingerprint, split, dispatch, merge.
type Uploader struct {
	transport  contract.ChunkTransport
	dispatcher *Dispatcher
	log        *slog.Logger
	chunkSize  int64
	algorithm  HashAlgorithm
}

func NewUploader(transport contract.ChunkTransport, log *slog.Logger, cfg UploaderConfig) *Uploader {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = domain.DefaultChunkSize
	}
	return &Uploader{
		transport:  transport,
		dispatcher: NewDispatcher(transport, log, cfg.Dispatcher),
		log:        log,
		chunkSize:  cfg.ChunkSize,
		algorithm:  cfg.Algorithm,
	}
}

// Upload sends the file at path and returns the artifact reported by the server.
// Nothing goes over the network when the file cannot be read or is empty,
// and the merge is never requested after a failed transfer.
func (u *Uploader) Upload(ctx context.Context, path string, onProgress func(ChunkProgress)) (domain.Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: %w", errors.ErrReadFailure, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: %w", errors.ErrReadFailure, err)
	}
	if info.IsDir() {
		return domain.Artifact{}, fmt.Errorf("%w: %s is a directory", errors.ErrReadFailure, path)
	}
	if info.Size() == 0 {
		return domain.Artifact{}, fmt.Errorf("%w: %s", errors.ErrEmptyFile, path)
	}

	started := time.Now()
	var result FingerprintResult
	select {
	case <-ctx.Done():
		return domain.Artifact{}, fmt.Errorf("%w: %w", errors.ErrReadFailure, ctx.Err())
	case result = <-FingerprintAsync(ctx, path, u.chunkSize, u.algorithm):
	}
	if result.Err != nil {
		return domain.Artifact{}, result.Err
	}
	desc := result.Descriptor
	u.log.Debug("Fingerprint computed", "name", desc.Name, "hash", result.Fingerprint, "took", time.Since(started))

	ranges, err := domain.Split(desc.Size, desc.ChunkSize)
	if err != nil {
		return domain.Artifact{}, err
	}

	report, err := u.dispatcher.Dispatch(ctx, DispatchJob{
		Source:      f,
		Descriptor:  desc,
		Fingerprint: result.Fingerprint,
		Ranges:      ranges,
		OnChunkDone: onProgress,
	})
	if err != nil {
		u.log.Error("Upload aborted before merge", "name", desc.Name, "failed", len(report.Failed), "error", err)
		return domain.Artifact{}, err
	}
	u.log.Debug("All chunks sent", "name", desc.Name, "chunks", len(report.Completed), "attempts", report.Attempts)

	artifact, err := u.transport.MergeChunks(ctx, domain.MergeRequest{
		Fingerprint: result.Fingerprint,
		Name:        desc.Name,
		Total:       len(ranges),
		FileSize:    desc.Size,
	})
	if err != nil {
		return domain.Artifact{}, err
	}
	u.log.Info("Upload completed", "name", artifact.Name, "size", artifact.Size, "took", time.Since(started))
	return artifact, nil
}

package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"upload-lab/contract"
	"upload-lab/domain"
	"upload-lab/errors"
)

const (
	DefaultMaxInFlight  = 4
	DefaultRetryBackoff = 200 * time.Millisecond
)

type DispatcherConfig struct {
	MaxInFlight  int
	MaxRetries   int
	RetryBackoff time.Duration
	// ChunkTimeout bounds a single attempt, zero means no bound
	ChunkTimeout time.Duration
}

// DispatchJob describes every chunk of one upload session.
type DispatchJob struct {
	Source      io.ReaderAt
	Descriptor  domain.FileDescriptor
	Fingerprint domain.Fingerprint
	Ranges      []domain.ChunkRange
	OnChunkDone func(ChunkProgress)
}

type ChunkProgress struct {
	Index     int
	Total     int
	Completed int
	BytesSent int64
}

// DispatchReport is the terminal state of every transfer of a job.
type DispatchReport struct {
	Completed []int
	Failed    map[int]error
	BytesSent int64
	Attempts  int
}

// Dispatcher sends chunks concurrently, never more than MaxInFlight at once.
type Dispatcher struct {
	transport contract.ChunkTransport
	log       *slog.Logger
	cfg       DispatcherConfig
}

func NewDispatcher(transport contract.ChunkTransport, log *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	return &Dispatcher{transport: transport, log: log, cfg: cfg}
}

// Dispatch returns once every transfer reached a terminal state.
// The first chunk that fails for good cancels the ones still in flight and
// the whole job reports ErrTransferFailure.
func (d *Dispatcher) Dispatch(ctx context.Context, job DispatchJob) (DispatchReport, error) {
	total := len(job.Ranges)
	report := DispatchReport{Failed: make(map[int]error)}
	if total == 0 {
		return report, errors.ErrInvalidTotal
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxInFlight)
	var mu sync.Mutex

	for _, chunk := range job.Ranges {
		g.Go(func() error {
			attempts, err := d.send(gctx, job, chunk, total)

			mu.Lock()
			defer mu.Unlock()
			report.Attempts += attempts
			if err != nil {
				report.Failed[chunk.Index] = err
				return fmt.Errorf("chunk %d: %w", chunk.Index, err)
			}
			report.Completed = append(report.Completed, chunk.Index)
			report.BytesSent += chunk.Size
			if job.OnChunkDone != nil {
				job.OnChunkDone(ChunkProgress{
					Index:     chunk.Index,
					Total:     total,
					Completed: len(report.Completed),
					BytesSent: report.BytesSent,
				})
			}
			return nil
		})
	}

	err := g.Wait()
	slices.Sort(report.Completed)
	if err != nil {
		return report, fmt.Errorf("%w: %d of %d chunks not sent: %w",
			errors.ErrTransferFailure, total-len(report.Completed), total, err)
	}
	return report, nil
}

func (d *Dispatcher) send(ctx context.Context, job DispatchJob, chunk domain.ChunkRange, total int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	payload := make([]byte, chunk.Size)
	n, err := job.Source.ReadAt(payload, chunk.Offset)
	if n < len(payload) {
		return 0, fmt.Errorf("%w: chunk %d: read %d of %d bytes: %v", errors.ErrReadFailure, chunk.Index, n, len(payload), err)
	}

	meta := domain.ChunkMeta{
		Fingerprint: job.Fingerprint,
		Name:        job.Descriptor.Name,
		Index:       chunk.Index,
		Total:       total,
		FileSize:    job.Descriptor.Size,
	}

	backoff := d.cfg.RetryBackoff
	for attempt := 1; ; attempt++ {
		err := d.attempt(ctx, meta, payload)
		if err == nil {
			return attempt, nil
		}
		if attempt > d.cfg.MaxRetries || !IsRetryable(err) || ctx.Err() != nil {
			return attempt, err
		}
		d.log.Warn("Chunk upload failed, retrying",
			"index", chunk.Index, "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (d *Dispatcher) attempt(ctx context.Context, meta domain.ChunkMeta, payload []byte) error {
	if d.cfg.ChunkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.ChunkTimeout)
		defer cancel()
	}
	return d.transport.UploadChunk(ctx, meta, payload)
}

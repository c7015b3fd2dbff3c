package client

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"upload-lab/domain"
	"upload-lab/errors"
	"upload-lab/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newJob(t *testing.T, size, chunkSize int64) (DispatchJob, []byte) {
	t.Helper()
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	ranges, err := domain.Split(size, chunkSize)
	require.NoError(t, err)
	return DispatchJob{
		Source:      bytes.NewReader(data),
		Descriptor:  domain.FileDescriptor{Name: "data.bin", Size: size, ChunkSize: chunkSize},
		Fingerprint: "fp-1",
		Ranges:      ranges,
	}, data
}

func TestDispatcher_SendsEveryChunkWithBoundedConcurrency(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockChunkTransport(ctrl)
	job, data := newJob(t, 10*64+10, 64)

	var mu sync.Mutex
	received := make(map[int][]byte)
	var inFlight, peak atomic.Int32
	transport.EXPECT().
		UploadChunk(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, meta domain.ChunkMeta, payload []byte) error {
			current := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if current <= p || peak.CompareAndSwap(p, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, domain.Fingerprint("fp-1"), meta.Fingerprint)
			assert.Equal(t, 11, meta.Total)
			assert.EqualValues(t, len(data), meta.FileSize)
			received[meta.Index] = bytes.Clone(payload)
			return nil
		}).
		Times(11)

	var progress []ChunkProgress
	job.OnChunkDone = func(p ChunkProgress) { progress = append(progress, p) }

	report, err := NewDispatcher(transport, discardLogger(), DispatcherConfig{MaxInFlight: 3}).Dispatch(context.Background(), job)

	req.NoError(err)
	req.LessOrEqual(peak.Load(), int32(3))
	req.Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, report.Completed)
	req.EqualValues(len(data), report.BytesSent)
	req.Equal(11, report.Attempts)
	req.Empty(report.Failed)
	req.Len(progress, 11)
	req.Equal(11, progress[10].Completed)

	var rebuilt []byte
	for i := 0; i < 11; i++ {
		rebuilt = append(rebuilt, received[i]...)
	}
	req.Equal(data, rebuilt)
}

func TestDispatcher_RetriesTransientFailures(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockChunkTransport(ctrl)
	job, _ := newJob(t, 10, 64)

	transport.EXPECT().UploadChunk(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&StatusError{Op: "upload chunk 0", Code: 503, Message: "busy"}).Times(1)
	transport.EXPECT().UploadChunk(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).Times(1)

	dispatcher := NewDispatcher(transport, discardLogger(), DispatcherConfig{MaxRetries: 2, RetryBackoff: time.Millisecond})
	report, err := dispatcher.Dispatch(context.Background(), job)

	req.NoError(err)
	req.Equal(2, report.Attempts)
	req.Equal([]int{0}, report.Completed)
}

func TestDispatcher_FailureStopsTheJob(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockChunkTransport(ctrl)
	job, _ := newJob(t, 3*64, 64)

	// A 4xx is final, and the chunks still queued are never sent
	transport.EXPECT().UploadChunk(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&StatusError{Op: "upload chunk 0", Code: 400, Message: "missing required field: hash"}).
		Times(1)

	dispatcher := NewDispatcher(transport, discardLogger(), DispatcherConfig{MaxInFlight: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	report, err := dispatcher.Dispatch(context.Background(), job)

	req.ErrorIs(err, errors.ErrTransferFailure)
	req.Empty(report.Completed)
	req.Contains(report.Failed, 0)
	req.Len(report.Failed, 3, "every transfer reached a terminal state")
}

func TestDispatcher_ShortSourceIsReadFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockChunkTransport(ctrl)
	job, _ := newJob(t, 100, 64)
	job.Source = bytes.NewReader(make([]byte, 70))

	transport.EXPECT().UploadChunk(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	_, err := NewDispatcher(transport, discardLogger(), DispatcherConfig{MaxInFlight: 1}).Dispatch(context.Background(), job)

	req.ErrorIs(err, errors.ErrTransferFailure)
	req.ErrorIs(err, errors.ErrReadFailure)
}

func TestDispatcher_EmptyJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockChunkTransport(ctrl)

	_, err := NewDispatcher(transport, discardLogger(), DispatcherConfig{}).Dispatch(context.Background(), DispatchJob{})

	require.ErrorIs(t, err, errors.ErrInvalidTotal)
}

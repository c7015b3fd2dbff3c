package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"upload-lab/domain"
	"upload-lab/mocks"
	"upload-lab/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStaging(t *testing.T) *storage.Staging {
	t.Helper()
	staging, err := storage.NewStaging(storage.StorageConfig{RootDir: t.TempDir()})
	require.NoError(t, err)
	return staging
}

// permissiveSessions accepts any ledger call
func permissiveSessions(ctrl *gomock.Controller) *mocks.MockISessionRepository {
	sessions := mocks.NewMockISessionRepository(ctrl)
	sessions.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	sessions.EXPECT().Delete(gomock.Any()).Return(nil).AnyTimes()
	return sessions
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	_, err := rand.Read(data)
	require.NoError(t, err)
	return data
}

// stage sends the given chunk indices of data through the receiver
func stage(t *testing.T, r *ChunkReceiver, fp domain.Fingerprint, name string, data []byte, chunkSize int64, indices ...int) {
	t.Helper()
	ranges, err := domain.Split(int64(len(data)), chunkSize)
	require.NoError(t, err)
	for _, i := range indices {
		chunk := ranges[i]
		err := r.Receive(context.Background(), domain.ChunkMeta{
			Fingerprint: fp,
			Name:        name,
			Index:       chunk.Index,
			Total:       len(ranges),
			FileSize:    int64(len(data)),
		}, bytes.NewReader(data[chunk.Offset:chunk.Offset+chunk.Size]))
		require.NoError(t, err)
	}
}

func tempEntries(t *testing.T, staging *storage.Staging) int {
	t.Helper()
	entries, err := os.ReadDir(staging.TempDir())
	require.NoError(t, err)
	return len(entries)
}

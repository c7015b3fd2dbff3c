package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"upload-lab/domain"
	"upload-lab/errors"
	"upload-lab/mocks"
)

func TestSessionService_Status(t *testing.T) {
	created := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	t.Run("disk is authoritative for received chunks", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		staging := newStaging(t)
		sessions := permissiveSessions(ctrl)
		sessions.EXPECT().Get(domain.Fingerprint("h1")).Return(domain.Session{
			Fingerprint: "h1", Name: "a.bin", FileSize: 4000, Total: 4, Received: []int{0, 1, 2}, CreatedAt: created,
		}, nil)
		receiver := NewChunkReceiver(discardLogger(), staging, sessions, nil, nil, nil, 0)
		for _, i := range []int{3, 0} {
			req.NoError(receiver.Receive(context.Background(), domain.ChunkMeta{
				Fingerprint: "h1", Name: "a.bin", Index: i, Total: 4, FileSize: 4000,
			}, bytes.NewReader([]byte("x"))))
		}

		session, err := NewSessionService(staging, sessions).Status("h1")

		req.NoError(err)
		req.Equal([]int{0, 3}, session.Received)
		req.Equal([]int{1, 2}, session.Missing())
		req.Equal(created, session.CreatedAt)
	})

	t.Run("chunks without a ledger entry", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		staging := newStaging(t)
		sessions := permissiveSessions(ctrl)
		sessions.EXPECT().Get(gomock.Any()).Return(domain.Session{}, errors.ErrSessionNotFound)
		req.NoError(NewChunkReceiver(discardLogger(), staging, sessions, nil, nil, nil, 0).Receive(context.Background(),
			domain.ChunkMeta{Fingerprint: "h1", Name: "a.bin", Index: 1, Total: 2, FileSize: 10},
			bytes.NewReader([]byte("x"))))

		session, err := NewSessionService(staging, sessions).Status("h1")

		req.NoError(err)
		req.Equal(domain.Fingerprint("h1"), session.Fingerprint)
		req.Equal([]int{1}, session.Received)
	})

	t.Run("unknown session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sessions := mocks.NewMockISessionRepository(ctrl)
		sessions.EXPECT().Get(gomock.Any()).Return(domain.Session{}, errors.ErrSessionNotFound)

		_, err := NewSessionService(newStaging(t), sessions).Status("nope")
		require.ErrorIs(t, err, errors.ErrSessionNotFound)
	})

	t.Run("fingerprints outside the root are never looked up", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		_, err := NewSessionService(newStaging(t), mocks.NewMockISessionRepository(ctrl)).Status("../x")
		require.ErrorIs(t, err, errors.ErrSessionNotFound)
	})
}

package services

import (
	stderrors "errors"
	"slices"

	"upload-lab/contract"
	"upload-lab/domain"
	"upload-lab/errors"
	"upload-lab/storage"
)

var _ contract.ISessionStatus = (*SessionService)(nil)

// SessionService reports the progress of an upload session.
type SessionService struct {
	staging  *storage.Staging
	sessions contract.ISessionRepository
}

func NewSessionService(staging *storage.Staging, sessions contract.ISessionRepository) *SessionService {
	return &SessionService{staging: staging, sessions: sessions}
}

// Status merges the ledger entry with what is actually on disk, the disk wins for Received.
func (s *SessionService) Status(fp domain.Fingerprint) (domain.Session, error) {
	if !domain.IsPathSegment(fp.String()) || s.staging.IsReserved(fp.String()) {
		return domain.Session{}, errors.ErrSessionNotFound
	}
	session, err := s.sessions.Get(fp)
	if err != nil && !stderrors.Is(err, errors.ErrSessionNotFound) {
		return domain.Session{}, err
	}
	found := err == nil

	chunks, err := s.staging.ListChunks(fp)
	if err != nil {
		return domain.Session{}, err
	}
	if !found && len(chunks) == 0 {
		return domain.Session{}, errors.ErrSessionNotFound
	}

	session.Fingerprint = fp
	session.Received = make([]int, 0, len(chunks))
	for _, chunk := range chunks {
		session.Received = append(session.Received, chunk.Index)
	}
	slices.Sort(session.Received)
	return session, nil
}

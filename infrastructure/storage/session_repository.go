package storage

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"upload-lab/contract"
	"upload-lab/domain"
	"upload-lab/errors"
)

// Keys, fingerprints never contain a slash:
//
//	session/<fp>/meta         structpb.Struct {name, size, total, createdAt}
//	session/<fp>/chunk/<idx>  timestamppb.Timestamp of the last write
const (
	sessionPrefix = "session/"
	metaSuffix    = "meta"
	chunkInfix    = "chunk/"
	maxTxnRetries = 5
)

var _ contract.ISessionRepository = (*SessionRepository)(nil)

type SessionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSessionRepository(db *badger.DB, log *slog.Logger) *SessionRepository {
	return &SessionRepository{db: db, log: log}
}

func sessionKeyPrefix(fp domain.Fingerprint) []byte {
	return []byte(sessionPrefix + string(fp) + "/")
}

func metaKey(fp domain.Fingerprint) []byte {
	return append(sessionKeyPrefix(fp), metaSuffix...)
}

func chunkKey(fp domain.Fingerprint, index int) []byte {
	return append(sessionKeyPrefix(fp), chunkInfix+strconv.Itoa(index)...)
}

// Record notes that chunk meta.Index was staged at the given instant.
// The session header is written by the first chunk only. A chunk declaring
// another total or size than the header gets ErrLayoutChanged and nothing is written.
func (r *SessionRepository) Record(meta domain.ChunkMeta, at time.Time) error {
	header, err := structpb.NewStruct(map[string]any{
		"name":      meta.Name,
		"size":      float64(meta.FileSize),
		"total":     float64(meta.Total),
		"createdAt": at.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("build session header: %w", err)
	}
	headerData, err := proto.Marshal(header)
	if err != nil {
		return err
	}
	chunkData, err := proto.Marshal(timestamppb.New(at))
	if err != nil {
		return err
	}

	// concurrent chunks of one session race on the header key
	for attempt := 1; ; attempt++ {
		err = r.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(metaKey(meta.Fingerprint))
			switch {
			case stderrors.Is(err, badger.ErrKeyNotFound):
				if err := txn.Set(metaKey(meta.Fingerprint), headerData); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				if err := item.Value(func(v []byte) error { return checkLayout(v, meta) }); err != nil {
					return err
				}
			}
			return txn.Set(chunkKey(meta.Fingerprint, meta.Index), chunkData)
		})
		if !stderrors.Is(err, badger.ErrConflict) || attempt == maxTxnRetries {
			break
		}
		r.log.Debug("Session record conflict, retrying", "hash", meta.Fingerprint, "attempt", attempt)
	}
	if err != nil {
		return fmt.Errorf("record chunk %d of %s: %w", meta.Index, meta.Fingerprint, err)
	}
	return nil
}

func (r *SessionRepository) Get(fp domain.Fingerprint) (domain.Session, error) {
	var sessions []domain.Session
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		sessions, err = scan(txn, sessionKeyPrefix(fp))
		return err
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session %s: %w", fp, err)
	}
	if len(sessions) == 0 {
		return domain.Session{}, fmt.Errorf("%w: %s", errors.ErrSessionNotFound, fp)
	}
	return sessions[0], nil
}

// Delete drops every key of the session.
func (r *SessionRepository) Delete(fp domain.Fingerprint) error {
	prefix := sessionKeyPrefix(fp)
	var n int
	err := r.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		n = len(keys)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session %s: %w", fp, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", errors.ErrSessionNotFound, fp)
	}
	return nil
}

// List returns every open session ordered by fingerprint.
func (r *SessionRepository) List() ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		sessions, err = scan(txn, []byte(sessionPrefix))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	slices.SortFunc(sessions, func(a, b domain.Session) int {
		return strings.Compare(string(a.Fingerprint), string(b.Fingerprint))
	})
	return sessions, nil
}

// ListStale returns the sessions without any chunk recorded since before.
func (r *SessionRepository) ListStale(before time.Time) ([]domain.Session, error) {
	sessions, err := r.List()
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(sessions, func(s domain.Session) bool {
		return !s.UpdatedAt.Before(before)
	}), nil
}

// scan decodes every session under prefix. Keys of one session are contiguous.
func scan(txn *badger.Txn, prefix []byte) ([]domain.Session, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var sessions []domain.Session
	var current *domain.Session
	var hasHeader bool
	flush := func() {
		if current != nil && hasHeader {
			slices.Sort(current.Received)
			sessions = append(sessions, *current)
		}
	}

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		fp, rest, ok := strings.Cut(strings.TrimPrefix(string(item.Key()), sessionPrefix), "/")
		if !ok {
			continue
		}
		if current == nil || current.Fingerprint != domain.Fingerprint(fp) {
			flush()
			current = &domain.Session{Fingerprint: domain.Fingerprint(fp)}
			hasHeader = false
		}

		err := item.Value(func(v []byte) error {
			if rest == metaSuffix {
				hasHeader = true
				return decodeHeader(v, current)
			}
			index, err := strconv.Atoi(strings.TrimPrefix(rest, chunkInfix))
			if err != nil {
				return nil
			}
			var ts timestamppb.Timestamp
			if err := proto.Unmarshal(v, &ts); err != nil {
				return fmt.Errorf("decode chunk %s: %w", item.Key(), err)
			}
			current.Received = append(current.Received, index)
			if at := ts.AsTime(); at.After(current.UpdatedAt) {
				current.UpdatedAt = at
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	flush()
	return sessions, nil
}

// checkLayout compares a stored header with the layout a chunk declares.
func checkLayout(v []byte, meta domain.ChunkMeta) error {
	stored := domain.Session{Fingerprint: meta.Fingerprint}
	if err := decodeHeader(v, &stored); err != nil {
		return err
	}
	if stored.Total != meta.Total || stored.FileSize != meta.FileSize {
		return fmt.Errorf("%w: %s opened with %d chunks of a %d bytes file, got %d chunks of %d bytes",
			errors.ErrLayoutChanged, meta.Fingerprint, stored.Total, stored.FileSize, meta.Total, meta.FileSize)
	}
	return nil
}

func decodeHeader(v []byte, s *domain.Session) error {
	var header structpb.Struct
	if err := proto.Unmarshal(v, &header); err != nil {
		return fmt.Errorf("decode session header of %s: %w", s.Fingerprint, err)
	}
	fields := header.GetFields()
	s.Name = fields["name"].GetStringValue()
	s.FileSize = int64(fields["size"].GetNumberValue())
	s.Total = int(fields["total"].GetNumberValue())
	createdAt, err := time.Parse(time.RFC3339Nano, fields["createdAt"].GetStringValue())
	if err != nil {
		return fmt.Errorf("decode session header of %s: %w", s.Fingerprint, err)
	}
	s.CreatedAt = createdAt
	if s.UpdatedAt.Before(createdAt) {
		s.UpdatedAt = createdAt
	}
	return nil
}

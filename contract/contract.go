//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"io"
	"reflect"
	"time"

	"upload-lab/domain"
	"upload-lab/storage"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself, the supervisor restarts it
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker for logs.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ChunkTransport carries chunks and the merge signal to the receiving service.
type ChunkTransport interface {
	UploadChunk(ctx context.Context, meta domain.ChunkMeta, payload []byte) error
	MergeChunks(ctx context.Context, req domain.MergeRequest) (domain.Artifact, error)
}

// IChunkReceiver stages one chunk per call.
// Spool buffers an inbound payload on disk before its tags are known,
// Accept validates the tags and relocates the payload, discarding it on failure.
type IChunkReceiver interface {
	Spool(r io.Reader) (storage.SpooledChunk, error)
	Accept(ctx context.Context, meta domain.ChunkMeta, spooled storage.SpooledChunk) error
	Discard(spooled storage.SpooledChunk)
}

type IMergeCoordinator interface {
	Merge(ctx context.Context, req domain.MergeRequest) (domain.Artifact, error)
}

// ISessionRepository is the ledger of open staging areas.
type ISessionRepository interface {
	Record(meta domain.ChunkMeta, at time.Time) error
	Get(fp domain.Fingerprint) (domain.Session, error)
	Delete(fp domain.Fingerprint) error
	List() ([]domain.Session, error)
	ListStale(before time.Time) ([]domain.Session, error)
}

type ISessionStatus interface {
	Status(fp domain.Fingerprint) (domain.Session, error)
}

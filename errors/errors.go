package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Client side
var (
	ErrReadFailure     = fmt.Errorf("file could not be read")
	ErrTransferFailure = fmt.Errorf("chunk transfer failed")
	ErrMergeFailure    = fmt.Errorf("merge request rejected")
)

// Shared validation
var (
	ErrEmptyFile        = fmt.Errorf("file is empty")
	ErrInvalidChunkSize = fmt.Errorf("chunk size must be positive")
	ErrInvalidTotal     = fmt.Errorf("total chunk count must be positive")
	ErrInvalidChunk     = fmt.Errorf("invalid chunk")
	ErrChunkTooLarge    = fmt.Errorf("chunk too large")
	ErrMissingField     = fmt.Errorf("missing required field")
)

// Server side
var (
	ErrStagingWrite        = fmt.Errorf("chunk could not be staged")
	ErrInsufficientStorage = fmt.Errorf("insufficient storage")
	ErrIncompleteChunks    = fmt.Errorf("chunk count mismatch")
	ErrMissingChunk        = fmt.Errorf("missing chunk")
	ErrSizeMismatch        = fmt.Errorf("merged size does not match declared size")
	ErrMergeInProgress     = fmt.Errorf("merge already in progress")
	ErrSessionNotFound     = fmt.Errorf("upload session not found")
	ErrLayoutChanged       = fmt.Errorf("session restarted with another chunk layout")
	ErrNameConflict        = fmt.Errorf("name collides with another upload")
	ErrWorkerPanic         = fmt.Errorf("worker panic")
)

// MapToHTTPStatus translates a domain error into the status code returned at the HTTP boundary.
// Unknown errors are reported as internal errors, never as success.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrChunkTooLarge):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, ErrMissingField),
		stderrors.Is(err, ErrInvalidChunk),
		stderrors.Is(err, ErrInvalidTotal),
		stderrors.Is(err, ErrEmptyFile):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrIncompleteChunks),
		stderrors.Is(err, ErrMergeInProgress),
		stderrors.Is(err, ErrNameConflict):
		return http.StatusConflict
	case stderrors.Is(err, ErrMissingChunk),
		stderrors.Is(err, ErrSizeMismatch):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, ErrInsufficientStorage):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

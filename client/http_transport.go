package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"upload-lab/contract"
	"upload-lab/domain"
	"upload-lab/errors"
)

const (
	uploadPath = "/file/upload"
	mergePath  = "/file/merge_chunks"
	// error bodies are human-readable messages, keep a bounded prefix
	maxErrorBody = 4 << 10
)

var _ contract.ChunkTransport = (*HTTPTransport)(nil)

// StatusError is a non-success answer of the receiving service.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Message)
}

// HTTPTransport speaks the multipart upload / JSON merge protocol.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// UploadChunk posts one chunk with the payload first and its tags after, like browser clients do.
func (t *HTTPTransport) UploadChunk(ctx context.Context, meta domain.ChunkMeta, payload []byte) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(domain.FieldFile, meta.Name)
	if err != nil {
		return fmt.Errorf("build chunk %d: %w", meta.Index, err)
	}
	if _, err := part.Write(payload); err != nil {
		return fmt.Errorf("build chunk %d: %w", meta.Index, err)
	}
	fields := [][2]string{
		{domain.FieldName, meta.Name},
		{domain.FieldTotal, strconv.Itoa(meta.Total)},
		{domain.FieldIndex, strconv.Itoa(meta.Index)},
		{domain.FieldSize, strconv.FormatInt(meta.FileSize, 10)},
		{domain.FieldHash, meta.Fingerprint.String()},
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("build chunk %d: %w", meta.Index, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("build chunk %d: %w", meta.Index, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+uploadPath, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload chunk %d: %w", meta.Index, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return toStatusError(resp, fmt.Sprintf("upload chunk %d", meta.Index))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// MergeChunks sends the "all chunks sent" signal and decodes the artifact descriptor.
func (t *HTTPTransport) MergeChunks(ctx context.Context, mr domain.MergeRequest) (domain.Artifact, error) {
	payload, err := json.Marshal(domain.MergeChunksBody{
		Size:       mr.FileSize,
		Name:       mr.Name,
		TotalChunk: mr.Total,
		Hash:       mr.Fingerprint.String(),
	})
	if err != nil {
		return domain.Artifact{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+mergePath, bytes.NewReader(payload))
	if err != nil {
		return domain.Artifact{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: %w", errors.ErrMergeFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Artifact{}, fmt.Errorf("%w: %w", errors.ErrMergeFailure, toStatusError(resp, "merge chunks"))
	}

	var merged domain.MergeChunksResponse
	if err := json.NewDecoder(resp.Body).Decode(&merged); err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: decode response: %w", errors.ErrMergeFailure, err)
	}
	return merged.Artifact, nil
}

func toStatusError(resp *http.Response, op string) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
}

// IsRetryable tells whether a failed transfer may succeed when sent again:
// transport errors, per-chunk timeouts, 5xx and 429 answers.
func IsRetryable(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, errors.ErrReadFailure) {
		return false
	}
	var statusErr *StatusError
	if stderrors.As(err, &statusErr) {
		return statusErr.Code >= http.StatusInternalServerError || statusErr.Code == http.StatusTooManyRequests
	}
	return true
}

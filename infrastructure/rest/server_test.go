package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"upload-lab/client"
	"upload-lab/domain"
	"upload-lab/errors"
	"upload-lab/mocks"
	"upload-lab/storage"
)

type fixture struct {
	receiver *mocks.MockIChunkReceiver
	merger   *mocks.MockIMergeCoordinator
	sessions *mocks.MockISessionStatus
	srv      *httptest.Server
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)
	f := fixture{
		receiver: mocks.NewMockIChunkReceiver(ctrl),
		merger:   mocks.NewMockIMergeCoordinator(ctrl),
		sessions: mocks.NewMockISessionStatus(ctrl),
	}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "# metrics") })
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.srv = httptest.NewServer(NewServer(log, f.receiver, f.merger, f.sessions, metrics).Handler())
	t.Cleanup(f.srv.Close)
	return f
}

// spoolInto records the spooled payload and hands back a fake spool location
func spoolInto(payload *[]byte) func(io.Reader) (storage.SpooledChunk, error) {
	return func(r io.Reader) (storage.SpooledChunk, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return storage.SpooledChunk{}, err
		}
		*payload = data
		return storage.SpooledChunk{Path: "/spool/x", Size: int64(len(data))}, nil
	}
}

type formPart struct {
	name, value string
	file        bool
}

func postMultipart(t *testing.T, url string, parts ...formPart) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, p := range parts {
		if p.file {
			w, err := writer.CreateFormFile(p.name, "blob")
			require.NoError(t, err)
			_, err = io.WriteString(w, p.value)
			require.NoError(t, err)
			continue
		}
		require.NoError(t, writer.WriteField(p.name, p.value))
	}
	require.NoError(t, writer.Close())
	resp, err := http.Post(url+"/file/upload", writer.FormDataContentType(), body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}

func TestUpload_WithHTTPTransport(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	meta := domain.ChunkMeta{Fingerprint: "h1", Name: "a.bin", Index: 1, Total: 3, FileSize: 30}

	var payload []byte
	f.receiver.EXPECT().Spool(gomock.Any()).DoAndReturn(spoolInto(&payload))
	f.receiver.EXPECT().Accept(gomock.Any(), meta, storage.SpooledChunk{Path: "/spool/x", Size: 10}).Return(nil)

	err := client.NewHTTPTransport(f.srv.URL, f.srv.Client()).UploadChunk(context.Background(), meta, []byte("0123456789"))

	req.NoError(err)
	req.Equal("0123456789", string(payload))
}

func TestUpload_FieldsBeforeFile(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	var payload []byte
	f.receiver.EXPECT().Spool(gomock.Any()).DoAndReturn(spoolInto(&payload))
	f.receiver.EXPECT().Accept(gomock.Any(),
		domain.ChunkMeta{Fingerprint: "h1", Name: "a.bin", Index: 0, Total: 1, FileSize: 2},
		gomock.Any()).Return(nil)

	resp := postMultipart(t, f.srv.URL,
		formPart{name: "hash", value: "h1"},
		formPart{name: "name", value: "a.bin"},
		formPart{name: "total", value: "1"},
		formPart{name: "index", value: "0"},
		formPart{name: "size", value: "2"},
		formPart{name: "file", value: "ok", file: true},
	)

	req.Equal(http.StatusOK, resp.StatusCode)
	req.Empty(readBody(t, resp))
}

func TestUpload_MissingFieldDiscardsPayload(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	var payload []byte
	f.receiver.EXPECT().Spool(gomock.Any()).DoAndReturn(spoolInto(&payload))
	f.receiver.EXPECT().Discard(storage.SpooledChunk{Path: "/spool/x", Size: 2})

	resp := postMultipart(t, f.srv.URL,
		formPart{name: "file", value: "ok", file: true},
		formPart{name: "name", value: "a.bin"},
		formPart{name: "total", value: "1"},
		formPart{name: "index", value: "0"},
		formPart{name: "size", value: "2"},
	)

	req.Equal(http.StatusBadRequest, resp.StatusCode)
	req.Equal("missing required field: hash", readBody(t, resp))
}

func TestUpload_NonNumericTag(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	var payload []byte
	f.receiver.EXPECT().Spool(gomock.Any()).DoAndReturn(spoolInto(&payload))
	f.receiver.EXPECT().Discard(gomock.Any())

	resp := postMultipart(t, f.srv.URL,
		formPart{name: "file", value: "ok", file: true},
		formPart{name: "hash", value: "h1"},
		formPart{name: "name", value: "a.bin"},
		formPart{name: "total", value: "many"},
		formPart{name: "index", value: "0"},
		formPart{name: "size", value: "2"},
	)

	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_NoFilePart(t *testing.T) {
	f := newFixture(t)

	resp := postMultipart(t, f.srv.URL, formPart{name: "hash", value: "h1"})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "missing required field: file", readBody(t, resp))
}

func TestUpload_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name      string
		spoolErr  error
		acceptErr error
		want      int
	}{
		{"invalid chunk", nil, fmt.Errorf("%w: index 9 out of range", errors.ErrInvalidChunk), http.StatusBadRequest},
		{"payload too large", fmt.Errorf("%w: %w: payload exceeds 4 bytes", errors.ErrChunkTooLarge, errors.ErrInvalidChunk), nil, http.StatusRequestEntityTooLarge},
		{"low storage at spool", fmt.Errorf("%w: 10 bytes free", errors.ErrInsufficientStorage), nil, http.StatusInsufficientStorage},
		{"staging failure", nil, fmt.Errorf("%w: permission denied", errors.ErrStagingWrite), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.spoolErr != nil {
				f.receiver.EXPECT().Spool(gomock.Any()).Return(storage.SpooledChunk{}, tt.spoolErr)
			} else {
				f.receiver.EXPECT().Spool(gomock.Any()).Return(storage.SpooledChunk{Path: "/spool/x", Size: 1}, nil)
				f.receiver.EXPECT().Accept(gomock.Any(), gomock.Any(), gomock.Any()).Return(tt.acceptErr)
			}

			err := client.NewHTTPTransport(f.srv.URL, f.srv.Client()).UploadChunk(context.Background(),
				domain.ChunkMeta{Fingerprint: "h1", Name: "a.bin", Index: 0, Total: 1, FileSize: 1}, []byte("x"))

			var statusErr *client.StatusError
			require.ErrorAs(t, err, &statusErr)
			require.Equal(t, tt.want, statusErr.Code)
		})
	}
}

func TestMerge_JSON(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	want := domain.Artifact{Fingerprint: "h1", Name: "a.bin", Path: "/data/a.bin", Size: 30, MimeType: "text/plain"}
	f.merger.EXPECT().
		Merge(gomock.Any(), domain.MergeRequest{Fingerprint: "h1", Name: "a.bin", Total: 3, FileSize: 30}).
		Return(want, nil)

	artifact, err := client.NewHTTPTransport(f.srv.URL, f.srv.Client()).MergeChunks(context.Background(),
		domain.MergeRequest{Fingerprint: "h1", Name: "a.bin", Total: 3, FileSize: 30})

	req.NoError(err)
	req.Equal(want, artifact)
}

func TestMerge_ResponseBody(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.merger.EXPECT().Merge(gomock.Any(), gomock.Any()).Return(domain.Artifact{Name: "a.bin"}, nil)

	resp, err := http.Post(f.srv.URL+"/file/merge_chunks", "application/json",
		strings.NewReader(`{"size":30,"name":"a.bin","totalChunk":3,"hash":"h1"}`))
	req.NoError(err)
	defer resp.Body.Close()

	var body domain.MergeChunksResponse
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("merged successfully", body.Message)
}

func TestMerge_FormWithTotalAlias(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.merger.EXPECT().
		Merge(gomock.Any(), domain.MergeRequest{Fingerprint: "h1", Name: "a.bin", Total: 4, FileSize: 40}).
		Return(domain.Artifact{}, nil)

	resp, err := http.PostForm(f.srv.URL+"/file/merge_chunks", url.Values{
		"hash": {"h1"}, "name": {"a.bin"}, "total": {"4"}, "size": {"40"},
	})
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusOK, resp.StatusCode)
}

func TestMerge_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     int
		wantBody string
	}{
		{"incomplete", fmt.Errorf("%w: 3 staged, 4 expected", errors.ErrIncompleteChunks), http.StatusConflict, "chunk count mismatch: 3 staged, 4 expected"},
		{"in progress", errors.ErrMergeInProgress, http.StatusConflict, "merge already in progress"},
		{"gap", fmt.Errorf("%w: index 2", errors.ErrMissingChunk), http.StatusUnprocessableEntity, "missing chunk: index 2"},
		{"size", errors.ErrSizeMismatch, http.StatusUnprocessableEntity, "merged size does not match declared size"},
		{"internal", fmt.Errorf("open /secret/path: permission denied"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			f := newFixture(t)
			f.merger.EXPECT().Merge(gomock.Any(), gomock.Any()).Return(domain.Artifact{}, tt.err)

			resp, err := http.Post(f.srv.URL+"/file/merge_chunks", "application/json",
				strings.NewReader(`{"size":40,"name":"a.bin","totalChunk":4,"hash":"h1"}`))
			req.NoError(err)
			defer resp.Body.Close()

			req.Equal(tt.want, resp.StatusCode)
			req.Equal(tt.wantBody, readBody(t, resp))
		})
	}
}

func TestMerge_MalformedJSON(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.srv.URL+"/file/merge_chunks", "application/json", strings.NewReader(`{"size":`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionView(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.sessions.EXPECT().Status(domain.Fingerprint("h1")).Return(domain.Session{
		Fingerprint: "h1", Name: "a.bin", FileSize: 40, Total: 4, Received: []int{0, 2},
	}, nil)
	f.sessions.EXPECT().Status(domain.Fingerprint("nope")).Return(domain.Session{}, errors.ErrSessionNotFound)

	resp, err := http.Get(f.srv.URL + "/file/sessions/h1")
	req.NoError(err)
	defer resp.Body.Close()
	var view struct {
		Hash     string `json:"hash"`
		Received []int  `json:"received"`
		Missing  []int  `json:"missing"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&view))
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("h1", view.Hash)
	req.Equal([]int{1, 3}, view.Missing)

	missing, err := http.Get(f.srv.URL + "/file/sessions/nope")
	req.NoError(err)
	defer missing.Body.Close()
	req.Equal(http.StatusNotFound, missing.StatusCode)
}

func TestWelcomeAndMetrics(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal(WelcomeMessage, readBody(t, resp))

	metrics, err := http.Get(f.srv.URL + "/metrics")
	req.NoError(err)
	defer metrics.Body.Close()
	req.Equal("# metrics", readBody(t, metrics))

	wrongMethod, err := http.Get(f.srv.URL + "/file/upload")
	req.NoError(err)
	defer wrongMethod.Body.Close()
	req.Equal(http.StatusMethodNotAllowed, wrongMethod.StatusCode)
}

func TestPreflight(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/file/upload", "/file/merge_chunks"} {
		t.Run(path, func(t *testing.T) {
			req := require.New(t)
			preflight, err := http.NewRequest(http.MethodOptions, f.srv.URL+path, nil)
			req.NoError(err)
			preflight.Header.Set("Origin", "http://localhost:5173")
			preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
			preflight.Header.Set("Access-Control-Request-Headers", "content-type")

			resp, err := http.DefaultClient.Do(preflight)
			req.NoError(err)
			defer resp.Body.Close()

			req.Equal(http.StatusNoContent, resp.StatusCode)
			req.Equal("*", resp.Header.Get("Access-Control-Allow-Origin"))
			req.Contains(resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
			req.Contains(resp.Header.Get("Access-Control-Allow-Headers"), "Content-Type")
		})
	}
}

func TestCrossOriginHeaderOnResponses(t *testing.T) {
	f := newFixture(t)
	f.merger.EXPECT().Merge(gomock.Any(), gomock.Any()).Return(domain.Artifact{}, errors.ErrIncompleteChunks)

	resp, err := http.Post(f.srv.URL+"/file/merge_chunks", "application/json",
		strings.NewReader(`{"hash":"h1","name":"a.bin","size":3,"totalChunk":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUpload_RejectsUnexpectedFields(t *testing.T) {
	valid := []formPart{
		{name: "file", value: "ok", file: true},
		{name: "hash", value: "h1"},
		{name: "name", value: "a.bin"},
		{name: "total", value: "1"},
		{name: "index", value: "0"},
	}
	tests := []struct {
		name  string
		extra formPart
	}{
		{"unknown field", formPart{name: "comment", value: "hi"}},
		{"repeated field", formPart{name: "hash", value: "h2"}},
		{"oversized field", formPart{name: "size", value: strings.Repeat("9", 2<<10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			f := newFixture(t)
			var payload []byte
			f.receiver.EXPECT().Spool(gomock.Any()).DoAndReturn(spoolInto(&payload))
			f.receiver.EXPECT().Discard(storage.SpooledChunk{Path: "/spool/x", Size: 2})

			resp := postMultipart(t, f.srv.URL, append(valid, tt.extra)...)

			req.Equal(http.StatusBadRequest, resp.StatusCode)
			req.Contains(readBody(t, resp), errors.ErrInvalidChunk.Error())
		})
	}
}

package rest

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"upload-lab/contract"
	"upload-lab/domain"
	"upload-lab/errors"
	"upload-lab/storage"
)

const (
	WelcomeMessage = "Welcoming upload-lab server"
	MergedMessage  = "merged successfully"

	maxFieldBytes     = 1 << 10
	maxMergeBodyBytes = 1 << 20
	allowedHeaders    = "Content-Type, Authorization, Accept"
)

// chunkFields are the only non-file parts of an upload request.
var chunkFields = map[string]bool{
	domain.FieldName:  true,
	domain.FieldTotal: true,
	domain.FieldIndex: true,
	domain.FieldSize:  true,
	domain.FieldHash:  true,
}

// Server exposes the chunk receiver and the merge coordinator over HTTP.
type Server struct {
	log      *slog.Logger
	receiver contract.IChunkReceiver
	merger   contract.IMergeCoordinator
	sessions contract.ISessionStatus
	router   *mux.Router
}

// NewServer wires the routes. metrics may be nil.
func NewServer(
	log *slog.Logger,
	receiver contract.IChunkReceiver,
	merger contract.IMergeCoordinator,
	sessions contract.ISessionStatus,
	metrics http.Handler,
) *Server {
	s := &Server{
		log:      log,
		receiver: receiver,
		merger:   merger,
		sessions: sessions,
		router:   mux.NewRouter(),
	}
	s.setupRoutes(metrics)
	return s
}

func (s *Server) setupRoutes(metrics http.Handler) {
	s.router.Use(s.logRequests)
	s.router.Use(mux.CORSMethodMiddleware(s.router))
	s.router.Use(allowCrossOrigin)

	s.router.HandleFunc("/", s.handleWelcome).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/file/upload", s.handleUpload).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/file/merge_chunks", s.handleMerge).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/file/sessions/{hash}", s.handleSession).Methods(http.MethodGet, http.MethodOptions)
	if metrics != nil {
		s.router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
}

// allowCrossOrigin lets browser clients of any origin call the API.
// Preflight requests end here, the allowed methods are set by mux.CORSMethodMiddleware.
func allowCrossOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", allowedHeaders)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleWelcome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, WelcomeMessage)
}

// handleUpload streams the multipart body. The payload part is usually sent
// before the tags, so it is spooled to disk first and only accepted once
// every field was read.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: expected multipart/form-data: %v", errors.ErrInvalidChunk, err))
		return
	}

	var spooled *storage.SpooledChunk
	var fileName string
	fields := make(map[string]string)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.discard(spooled)
			s.fail(w, r, fmt.Errorf("%w: malformed multipart body: %v", errors.ErrInvalidChunk, err))
			return
		}

		// 1. Payload, spooled before its tags are known
		if part.FormName() == domain.FieldFile {
			if spooled != nil {
				s.discard(spooled)
				s.fail(w, r, fmt.Errorf("%w: more than one file part", errors.ErrInvalidChunk))
				return
			}
			sp, err := s.receiver.Spool(part)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			spooled = &sp
			fileName = part.FileName()
			continue
		}

		// 2. Tags, each known field once and short
		name := part.FormName()
		if _, seen := fields[name]; seen || !chunkFields[name] {
			s.discard(spooled)
			s.fail(w, r, fmt.Errorf("%w: unexpected field %q", errors.ErrInvalidChunk, name))
			return
		}
		value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
		if err != nil {
			s.discard(spooled)
			s.fail(w, r, fmt.Errorf("%w: reading field %s: %v", errors.ErrInvalidChunk, name, err))
			return
		}
		if len(value) > maxFieldBytes {
			s.discard(spooled)
			s.fail(w, r, fmt.Errorf("%w: field %s exceeds %d bytes", errors.ErrInvalidChunk, name, maxFieldBytes))
			return
		}
		fields[name] = string(value)
	}

	// 3. Accept once every part was read

	if spooled == nil {
		s.fail(w, r, fmt.Errorf("%w: %s", errors.ErrMissingField, domain.FieldFile))
		return
	}
	if fields[domain.FieldName] == "" {
		fields[domain.FieldName] = fileName
	}
	meta, err := parseChunkMeta(fields)
	if err != nil {
		s.discard(spooled)
		s.fail(w, r, err)
		return
	}
	if err := s.receiver.Accept(r.Context(), meta, *spooled); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) discard(spooled *storage.SpooledChunk) {
	if spooled != nil {
		s.receiver.Discard(*spooled)
	}
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMergeBodyBytes)
	body, err := decodeMergeBody(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	total := body.TotalChunk
	if total == 0 {
		total = body.Total
	}
	artifact, err := s.merger.Merge(r.Context(), domain.MergeRequest{
		Fingerprint: domain.Fingerprint(body.Hash),
		Name:        body.Name,
		Total:       total,
		FileSize:    body.Size,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.MergeChunksResponse{Message: MergedMessage, Artifact: artifact})
}

type sessionView struct {
	domain.Session
	Missing []int `json:"missing"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	fp := domain.Fingerprint(mux.Vars(r)["hash"])
	session, err := s.sessions.Status(fp)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	missing := session.Missing()
	if missing == nil {
		missing = []int{}
	}
	writeJSON(w, http.StatusOK, sessionView{Session: session, Missing: missing})
}

// fail answers with the status of err. Messages of server faults stay in the logs.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.MapToHTTPStatus(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError && code != http.StatusInsufficientStorage {
		s.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = http.StatusText(code)
	}
	http.Error(w, msg, code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeMergeBody(r *http.Request) (domain.MergeChunksBody, error) {
	var body domain.MergeChunksBody
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return body, fmt.Errorf("%w: malformed JSON body: %v", errors.ErrInvalidChunk, err)
		}
		return body, nil
	}

	if err := r.ParseMultipartForm(maxMergeBodyBytes); err != nil && !stderrors.Is(err, http.ErrNotMultipart) {
		return body, fmt.Errorf("%w: malformed form body: %v", errors.ErrInvalidChunk, err)
	}
	if r.Form == nil {
		if err := r.ParseForm(); err != nil {
			return body, fmt.Errorf("%w: malformed form body: %v", errors.ErrInvalidChunk, err)
		}
	}
	var err error
	body.Hash = r.FormValue(domain.FieldHash)
	body.Name = r.FormValue(domain.FieldName)
	if body.Size, err = optionalInt64(r.FormValue(domain.FieldSize), domain.FieldSize); err != nil {
		return body, err
	}
	if body.TotalChunk, err = optionalInt(r.FormValue(domain.FieldTotalChunk), domain.FieldTotalChunk); err != nil {
		return body, err
	}
	if body.Total, err = optionalInt(r.FormValue(domain.FieldTotal), domain.FieldTotal); err != nil {
		return body, err
	}
	return body, nil
}

func parseChunkMeta(fields map[string]string) (domain.ChunkMeta, error) {
	for _, key := range []string{domain.FieldHash, domain.FieldName, domain.FieldTotal, domain.FieldIndex, domain.FieldSize} {
		if strings.TrimSpace(fields[key]) == "" {
			return domain.ChunkMeta{}, fmt.Errorf("%w: %s", errors.ErrMissingField, key)
		}
	}
	total, err := optionalInt(fields[domain.FieldTotal], domain.FieldTotal)
	if err != nil {
		return domain.ChunkMeta{}, err
	}
	index, err := optionalInt(fields[domain.FieldIndex], domain.FieldIndex)
	if err != nil {
		return domain.ChunkMeta{}, err
	}
	size, err := optionalInt64(fields[domain.FieldSize], domain.FieldSize)
	if err != nil {
		return domain.ChunkMeta{}, err
	}
	return domain.ChunkMeta{
		Fingerprint: domain.Fingerprint(fields[domain.FieldHash]),
		Name:        fields[domain.FieldName],
		Index:       index,
		Total:       total,
		FileSize:    size,
	}, nil
}

func optionalInt(raw, field string) (int, error) {
	n, err := optionalInt64(raw, field)
	return int(n), err
}

func optionalInt64(raw, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer", errors.ErrInvalidChunk, field)
	}
	return n, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("HTTP request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "took", time.Since(started))
	})
}

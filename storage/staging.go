package storage

import (
	"cmp"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"upload-lab/domain"
	"upload-lab/errors"
)

const (
	DefaultStagingDirName = "temp"
	dirPerm               = 0o755
	mergeSuffix           = ".merge"
)

// StorageConfig fixes where chunks are spooled, staged and merged.
type StorageConfig struct {
	RootDir        string
	StagingDirName string
}

// Staging owns the on-disk layout:
//
//	<root>/<staging>/<uuid>           inbound payloads and merge temp files
//	<root>/<fingerprint>/<fp>-<index> staged chunks
//	<root>/<name>                     merged artifacts
type Staging struct {
	root    string
	tempDir string
}

// SpooledChunk is an inbound payload fully written to the temp directory
// but not yet relocated to its staging path.
type SpooledChunk struct {
	Path string
	Size int64
}

func NewStaging(cfg StorageConfig) (*Staging, error) {
	if cfg.RootDir == "" {
		return nil, fmt.Errorf("%w: storage root directory", errors.ErrMissingField)
	}
	name := cfg.StagingDirName
	if name == "" {
		name = DefaultStagingDirName
	}
	if !domain.IsPathSegment(name) {
		return nil, fmt.Errorf("invalid staging directory name %q", name)
	}
	s := &Staging{
		root:    filepath.Clean(cfg.RootDir),
		tempDir: filepath.Join(cfg.RootDir, name),
	}
	if err := EnsureDir(s.tempDir); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureDir creates path and its ancestors. An existing directory is a success,
// concurrent callers for the same path all succeed.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return wrapWriteError(fmt.Errorf("ensure dir %s: %w", path, err))
	}
	return nil
}

func (s *Staging) Root() string    { return s.root }
func (s *Staging) TempDir() string { return s.tempDir }

// IsReserved reports whether a fingerprint or artifact name would collide with the temp directory.
func (s *Staging) IsReserved(name string) bool {
	return name == filepath.Base(s.tempDir)
}

func (s *Staging) SessionDir(fp domain.Fingerprint) string {
	return filepath.Join(s.root, string(fp))
}

func (s *Staging) ChunkPath(fp domain.Fingerprint, index int) string {
	return filepath.Join(s.SessionDir(fp), chunkFileName(fp, index))
}

func (s *Staging) ArtifactPath(name string) string {
	return filepath.Join(s.root, name)
}

func chunkFileName(fp domain.Fingerprint, index int) string {
	return fmt.Sprintf("%s-%d", fp, index)
}

// Spool writes r into a fresh temp file. Payloads larger than limit are rejected
// when limit is positive.
func (s *Staging) Spool(r io.Reader, limit int64) (SpooledChunk, error) {
	f, err := os.CreateTemp(s.tempDir, uuid.NewString()+"-*")
	if err != nil {
		return SpooledChunk{}, wrapWriteError(fmt.Errorf("create spool file: %w", err))
	}
	path := f.Name()

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return SpooledChunk{}, wrapWriteError(fmt.Errorf("spool chunk: %w", err))
	}
	if limit > 0 && n > limit {
		_ = os.Remove(path)
		return SpooledChunk{}, fmt.Errorf("%w: %w: payload exceeds %d bytes", errors.ErrChunkTooLarge, errors.ErrInvalidChunk, limit)
	}
	return SpooledChunk{Path: path, Size: n}, nil
}

// Discard removes a spooled payload that will not be committed.
func (s *Staging) Discard(sp SpooledChunk) {
	if sp.Path != "" {
		_ = os.Remove(sp.Path)
	}
}

// Commit relocates a spooled payload to the deterministic path of (fp, index),
// replacing any previous copy of that chunk.
func (s *Staging) Commit(sp SpooledChunk, fp domain.Fingerprint, index int) (string, error) {
	if err := EnsureDir(s.SessionDir(fp)); err != nil {
		return "", err
	}
	target := s.ChunkPath(fp, index)
	if err := os.Rename(sp.Path, target); err != nil {
		return "", wrapWriteError(fmt.Errorf("stage chunk %d of %s: %w", index, fp, err))
	}
	return target, nil
}

// ListChunks returns the chunk files currently staged for fp, ordered by index.
// A missing staging directory yields an empty list.
func (s *Staging) ListChunks(fp domain.Fingerprint) ([]domain.StagedChunk, error) {
	entries, err := os.ReadDir(s.SessionDir(fp))
	if stderrors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list staged chunks of %s: %w", fp, err)
	}

	prefix := string(fp) + "-"
	chunks := make([]domain.StagedChunk, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		index, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), prefix))
		if err != nil || index < 0 {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat staged chunk %s: %w", entry.Name(), err)
		}
		chunks = append(chunks, domain.StagedChunk{
			Index: index,
			Path:  filepath.Join(s.SessionDir(fp), entry.Name()),
			Size:  info.Size(),
		})
	}
	slices.SortFunc(chunks, func(a, b domain.StagedChunk) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return chunks, nil
}

// RemoveChunk deletes a single staged chunk.
func (s *Staging) RemoveChunk(fp domain.Fingerprint, index int) error {
	if err := os.Remove(s.ChunkPath(fp, index)); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove chunk %d of %s: %w", index, fp, err)
	}
	return nil
}

// RemoveSessionDir removes the now-empty staging directory of fp.
func (s *Staging) RemoveSessionDir(fp domain.Fingerprint) error {
	if err := os.Remove(s.SessionDir(fp)); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staging dir of %s: %w", fp, err)
	}
	return nil
}

// PurgeSession drops everything staged for fp, used for stale sessions.
func (s *Staging) PurgeSession(fp domain.Fingerprint) error {
	if err := os.RemoveAll(s.SessionDir(fp)); err != nil {
		return fmt.Errorf("purge staging dir of %s: %w", fp, err)
	}
	return nil
}

// CreateMergeFile opens an empty temp file the merge writes into before the final rename.
func (s *Staging) CreateMergeFile() (*os.File, error) {
	f, err := os.CreateTemp(s.tempDir, uuid.NewString()+"-*"+mergeSuffix)
	if err != nil {
		return nil, wrapWriteError(fmt.Errorf("create merge file: %w", err))
	}
	return f, nil
}

// Publish atomically moves a completed merge file to the artifact path of name.
func (s *Staging) Publish(mergePath, name string) (string, error) {
	target := s.ArtifactPath(name)
	if err := os.Rename(mergePath, target); err != nil {
		return "", wrapWriteError(fmt.Errorf("publish %s: %w", name, err))
	}
	return target, nil
}

// StaleSessionDirs lists the staging directories whose newest entry was
// modified before the given instant. Directories holding anything else than
// chunk files are never reported.
func (s *Staging) StaleSessionDirs(before time.Time) ([]domain.Fingerprint, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read root dir: %w", err)
	}
	var stale []domain.Fingerprint
	for _, entry := range entries {
		if !entry.IsDir() || s.IsReserved(entry.Name()) {
			continue
		}
		fp := domain.Fingerprint(entry.Name())
		newest, ok := s.lastChunkWrite(fp)
		if ok && newest.Before(before) {
			stale = append(stale, fp)
		}
	}
	return stale, nil
}

// lastChunkWrite returns the newest modification time of the staging directory of fp.
// ok is false when the directory holds entries that are not chunks of fp.
func (s *Staging) lastChunkWrite(fp domain.Fingerprint) (newest time.Time, ok bool) {
	dir := s.SessionDir(fp)
	info, err := os.Stat(dir)
	if err != nil {
		return time.Time{}, false
	}
	newest = info.ModTime()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, false
	}
	prefix := string(fp) + "-"
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasPrefix(entry.Name(), prefix) {
			return time.Time{}, false
		}
		if _, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), prefix)); err != nil {
			return time.Time{}, false
		}
		if info, err := entry.Info(); err == nil && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest, true
}

// IsArtifact reports whether name is taken by a merged file.
func (s *Staging) IsArtifact(name string) bool {
	info, err := os.Stat(s.ArtifactPath(name))
	return err == nil && !info.IsDir()
}

// IsSessionDir reports whether name is taken by a staging directory.
func (s *Staging) IsSessionDir(name string) bool {
	info, err := os.Stat(s.ArtifactPath(name))
	return err == nil && info.IsDir()
}

// SweepTemp removes temp files not modified since before. It returns how many were removed.
func (s *Staging) SweepTemp(before time.Time) (int, error) {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		return 0, fmt.Errorf("read temp dir: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(before) {
			continue
		}
		if err := os.Remove(filepath.Join(s.tempDir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func wrapWriteError(err error) error {
	if stderrors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %w: %w", errors.ErrStagingWrite, errors.ErrInsufficientStorage, err)
	}
	return fmt.Errorf("%w: %w", errors.ErrStagingWrite, err)
}

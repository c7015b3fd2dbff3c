package client

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"upload-lab/domain"
	"upload-lab/errors"
)

type HashAlgorithm string

const (
	// HashMD5 matches fingerprints produced by browser clients (SparkMD5).
	HashMD5    HashAlgorithm = "md5"
	HashBLAKE3 HashAlgorithm = "blake3"
)

func (a HashAlgorithm) newHash() (hash.Hash, error) {
	switch a {
	case HashMD5, "":
		return md5.New(), nil
	case HashBLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("unknown fingerprint algorithm %q", a)
	}
}

// FingerprintResult is delivered once by FingerprintAsync.
type FingerprintResult struct {
	Fingerprint domain.Fingerprint
	Descriptor  domain.FileDescriptor
	Err         error
}

// ComputeFingerprint streams r through the hash in window-sized reads, then returns
// hex(H(hex(H(content)) + name)). Only one window is held in memory.
func ComputeFingerprint(ctx context.Context, r io.Reader, name string, window int64, algo HashAlgorithm) (domain.Fingerprint, error) {
	if window <= 0 {
		return "", errors.ErrInvalidChunkSize
	}
	content, err := algo.newHash()
	if err != nil {
		return "", err
	}

	buf := make([]byte, window)
	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", errors.ErrReadFailure, err)
		}
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			content.Write(buf[:n])
		}
		if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", errors.ErrReadFailure, err)
		}
	}

	folded, _ := algo.newHash()
	_, _ = io.WriteString(folded, hex.EncodeToString(content.Sum(nil)))
	_, _ = io.WriteString(folded, name)
	return domain.Fingerprint(hex.EncodeToString(folded.Sum(nil))), nil
}

// FingerprintFile fingerprints the file at path under its base name.
func FingerprintFile(ctx context.Context, path string, window int64, algo HashAlgorithm) (domain.Fingerprint, domain.FileDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", domain.FileDescriptor{}, fmt.Errorf("%w: %w", errors.ErrReadFailure, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", domain.FileDescriptor{}, fmt.Errorf("%w: %w", errors.ErrReadFailure, err)
	}
	if info.IsDir() {
		return "", domain.FileDescriptor{}, fmt.Errorf("%w: %s is a directory", errors.ErrReadFailure, path)
	}

	desc := domain.FileDescriptor{Name: filepath.Base(path), Size: info.Size(), ChunkSize: window}
	fp, err := ComputeFingerprint(ctx, f, desc.Name, window, algo)
	if err != nil {
		return "", desc, err
	}
	return fp, desc, nil
}

// FingerprintAsync runs FingerprintFile on its own goroutine.
// The channel receives exactly one result and is then closed.
func FingerprintAsync(ctx context.Context, path string, window int64, algo HashAlgorithm) <-chan FingerprintResult {
	results := make(chan FingerprintResult, 1)
	go func() {
		defer close(results)
		fp, desc, err := FingerprintFile(ctx, path, window, algo)
		results <- FingerprintResult{Fingerprint: fp, Descriptor: desc, Err: err}
	}()
	return results
}

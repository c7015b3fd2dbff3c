package domain

import "time"

// DefaultChunkSize 1 MiB, same window for fingerprinting and splitting
const DefaultChunkSize int64 = 1 << 20

// Fingerprint identifies a (content, name) pair for a whole upload session.
// It keys the staging directory on the server.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// FileDescriptor is derived once per upload attempt and never persisted.
type FileDescriptor struct {
	Name      string
	Size      int64
	ChunkSize int64
}

// ChunkRange is the byte range [Offset, Offset+Size) of the file.
type ChunkRange struct {
	Index  int
	Offset int64
	Size   int64
}

// ChunkMeta carries the tags sent along with every chunk.
// Index and Total are trusted by the receiver once validated.
type ChunkMeta struct {
	Fingerprint Fingerprint `validate:"required,max=128,printascii,pathsegment"`
	Name        string      `validate:"required,max=255,pathsegment"`
	Index       int         `validate:"gte=0,ltfield=Total"`
	Total       int         `validate:"gt=0"`
	FileSize    int64       `validate:"gt=0"`
}

// MergeRequest is the "all chunks sent" signal issued by the client.
type MergeRequest struct {
	Fingerprint Fingerprint `validate:"required,max=128,printascii,pathsegment"`
	Name        string      `validate:"required,max=255,pathsegment"`
	Total       int         `validate:"gt=0"`
	FileSize    int64       `validate:"gt=0"`
}

// Artifact is the merged file stored under its original name.
type Artifact struct {
	Fingerprint Fingerprint `json:"hash"`
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	Size        int64       `json:"size"`
	MimeType    string      `json:"mimeType"`
}

// Session is the server ledger entry of a staging area
type Session struct {
	Fingerprint Fingerprint `json:"hash"`
	Name        string      `json:"name"`
	FileSize    int64       `json:"size"`
	Total       int         `json:"total"`
	Received    []int       `json:"received"`
	CreatedAt   time.Time   `json:"createdAt"`
	// UpdatedAt is when the last chunk was recorded
	UpdatedAt time.Time `json:"updatedAt"`
}

// Missing lists the indices in [0, Total) not received yet.
func (s Session) Missing() []int {
	seen := make(map[int]struct{}, len(s.Received))
	for _, i := range s.Received {
		seen[i] = struct{}{}
	}
	var missing []int
	for i := 0; i < s.Total; i++ {
		if _, ok := seen[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// Age reports how long the session has been open at the given instant.
func (s Session) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// StagedChunk is one chunk file found in a staging directory.
type StagedChunk struct {
	Index int
	Path  string
	Size  int64
}

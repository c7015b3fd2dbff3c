package domain

// Multipart fields of the upload chunk operation
const (
	FieldFile  = "file"
	FieldName  = "name"
	FieldTotal = "total"
	FieldIndex = "index"
	FieldSize  = "size"
	FieldHash  = "hash"
)

// FieldTotalChunk is the name the merge operation uses for the chunk count.
const FieldTotalChunk = "totalChunk"

// MergeChunksBody is the merge request as sent over the wire.
// Total is accepted as an alias of TotalChunk.
type MergeChunksBody struct {
	Size       int64  `json:"size"`
	Name       string `json:"name"`
	TotalChunk int    `json:"totalChunk"`
	Total      int    `json:"total,omitempty"`
	Hash       string `json:"hash"`
}

type MergeChunksResponse struct {
	Message  string   `json:"message"`
	Artifact Artifact `json:"artifact"`
}

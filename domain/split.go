package domain

import "upload-lab/errors"

// ChunkCount returns ceil(size / chunkSize), or 0 when either input is not positive.
func ChunkCount(size, chunkSize int64) int {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// Split partitions [0, size) into ordered ranges of chunkSize bytes, the last one
// holding the remainder. Zero-byte files are rejected.
func Split(size, chunkSize int64) ([]ChunkRange, error) {
	if chunkSize <= 0 {
		return nil, errors.ErrInvalidChunkSize
	}
	if size <= 0 {
		return nil, errors.ErrEmptyFile
	}

	count := ChunkCount(size, chunkSize)
	ranges := make([]ChunkRange, 0, count)
	for i := 0; i < count; i++ {
		offset := int64(i) * chunkSize
		ranges = append(ranges, ChunkRange{
			Index:  i,
			Offset: offset,
			Size:   min(chunkSize, size-offset),
		})
	}
	return ranges, nil
}

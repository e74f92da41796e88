package interfaces

import (
	"github.com/smartduke/metaseek/internal/models"
)

// FileIndexService loads pre-processed upload artifacts. Each file id maps
// to two JSON artifacts written at upload time: extracted content and the
// matching embeddings, positionally aligned chunk by chunk.
type FileIndexService interface {
	// LoadChunks reads the artifact pair for fileID and returns the
	// aligned chunks. A missing or malformed artifact is an error; the
	// index never degrades silently.
	LoadChunks(fileID string) ([]models.FileChunk, error)

	// LoadAll flattens the chunks of every file id, in input order.
	LoadAll(fileIDs []string) ([]models.FileChunk, error)
}

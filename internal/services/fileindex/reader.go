// Package fileindex loads pre-processed upload artifacts from disk.
//
// Each uploaded file is represented by two JSON artifacts written at upload
// time and named by the file id:
//
//	<id>-extracted.json   {"title": "...", "contents": ["chunk", ...]}
//	<id>-embeddings.json  {"title": "...", "embeddings": [[...], ...]}
//
// The contents and embeddings arrays are positionally aligned: chunk i of
// the extracted artifact pairs with vector i of the embeddings artifact.
package fileindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
)

// Reader implements FileIndexService over a directory of artifact pairs.
type Reader struct {
	dir    string
	logger arbor.ILogger
}

type extractedArtifact struct {
	Title    string   `json:"title"`
	Contents []string `json:"contents"`
}

type embeddingsArtifact struct {
	Title      string      `json:"title"`
	Embeddings [][]float32 `json:"embeddings"`
}

// NewReader creates a reader over the configured artifact directory.
func NewReader(config *common.FileIndexConfig, logger arbor.ILogger) *Reader {
	return &Reader{
		dir:    config.Dir,
		logger: logger,
	}
}

// LoadChunks reads the artifact pair for fileID and returns the aligned
// chunks. Malformed or missing artifacts are errors; a broken index entry
// must not silently shrink the candidate pool.
func (r *Reader) LoadChunks(fileID string) ([]models.FileChunk, error) {
	extractedPath := filepath.Join(r.dir, fileID+"-extracted.json")
	embeddingsPath := filepath.Join(r.dir, fileID+"-embeddings.json")

	var extracted extractedArtifact
	if err := readJSON(extractedPath, &extracted); err != nil {
		return nil, fmt.Errorf("file %s: %w", fileID, err)
	}

	var embedded embeddingsArtifact
	if err := readJSON(embeddingsPath, &embedded); err != nil {
		return nil, fmt.Errorf("file %s: %w", fileID, err)
	}

	if len(extracted.Contents) != len(embedded.Embeddings) {
		return nil, fmt.Errorf("file %s: artifact mismatch: %d content chunks vs %d embeddings",
			fileID, len(extracted.Contents), len(embedded.Embeddings))
	}

	title := extracted.Title
	if title == "" {
		title = fileID
	}

	chunks := make([]models.FileChunk, 0, len(extracted.Contents))
	for i, content := range extracted.Contents {
		chunks = append(chunks, models.FileChunk{
			FileName:  title,
			Content:   content,
			Embedding: embedded.Embeddings[i],
		})
	}

	r.logger.Debug().
		Str("file_id", fileID).
		Int("chunks", len(chunks)).
		Msg("Loaded file chunks")

	return chunks, nil
}

// LoadAll flattens the chunks of every file id, in input order.
func (r *Reader) LoadAll(fileIDs []string) ([]models.FileChunk, error) {
	var all []models.FileChunk
	for _, id := range fileIDs {
		chunks, err := r.LoadChunks(id)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read artifact %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}

var _ interfaces.FileIndexService = (*Reader)(nil)

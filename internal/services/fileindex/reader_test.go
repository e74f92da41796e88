package fileindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/smartduke/metaseek/internal/common"
)

func writeArtifact(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func newTestReader(dir string) *Reader {
	return NewReader(&common.FileIndexConfig{Dir: dir}, common.GetLogger())
}

func TestLoadChunks(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "doc1-extracted.json", `{"title":"Quarterly Report","contents":["first chunk","second chunk"]}`)
	writeArtifact(t, dir, "doc1-embeddings.json", `{"title":"Quarterly Report","embeddings":[[0.1,0.2],[0.3,0.4]]}`)

	chunks, err := newTestReader(dir).LoadChunks("doc1")
	if err != nil {
		t.Fatalf("LoadChunks() error: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].FileName != "Quarterly Report" {
		t.Errorf("FileName = %q", chunks[0].FileName)
	}
	if chunks[0].Content != "first chunk" {
		t.Errorf("Content = %q", chunks[0].Content)
	}
	if len(chunks[1].Embedding) != 2 || chunks[1].Embedding[0] != 0.3 {
		t.Errorf("Embedding = %v", chunks[1].Embedding)
	}
}

func TestLoadChunksTitleFallsBackToID(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "doc2-extracted.json", `{"contents":["chunk"]}`)
	writeArtifact(t, dir, "doc2-embeddings.json", `{"embeddings":[[1.0]]}`)

	chunks, err := newTestReader(dir).LoadChunks("doc2")
	if err != nil {
		t.Fatalf("LoadChunks() error: %v", err)
	}
	if chunks[0].FileName != "doc2" {
		t.Errorf("untitled artifact should fall back to the file id, got %q", chunks[0].FileName)
	}
}

func TestLoadChunksMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "doc3-extracted.json", `{"contents":["chunk"]}`)

	if _, err := newTestReader(dir).LoadChunks("doc3"); err == nil {
		t.Error("missing embeddings artifact should be an error")
	}
	if _, err := newTestReader(dir).LoadChunks("absent"); err == nil {
		t.Error("unknown file id should be an error")
	}
}

func TestLoadChunksMismatchedArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "doc4-extracted.json", `{"contents":["one","two","three"]}`)
	writeArtifact(t, dir, "doc4-embeddings.json", `{"embeddings":[[0.1]]}`)

	if _, err := newTestReader(dir).LoadChunks("doc4"); err == nil {
		t.Error("misaligned artifacts should be an error")
	}
}

func TestLoadChunksMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "doc5-extracted.json", `{"contents": not json`)
	writeArtifact(t, dir, "doc5-embeddings.json", `{"embeddings":[]}`)

	if _, err := newTestReader(dir).LoadChunks("doc5"); err == nil {
		t.Error("malformed JSON should be an error")
	}
}

func TestLoadAllOrderAndFailFast(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "a-extracted.json", `{"title":"A","contents":["a1"]}`)
	writeArtifact(t, dir, "a-embeddings.json", `{"embeddings":[[0.1]]}`)
	writeArtifact(t, dir, "b-extracted.json", `{"title":"B","contents":["b1","b2"]}`)
	writeArtifact(t, dir, "b-embeddings.json", `{"embeddings":[[0.2],[0.3]]}`)

	reader := newTestReader(dir)

	chunks, err := reader.LoadAll([]string{"a", "b"})
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].FileName != "A" || chunks[1].FileName != "B" {
		t.Errorf("chunks out of input order: %q, %q", chunks[0].FileName, chunks[1].FileName)
	}

	if _, err := reader.LoadAll([]string{"a", "missing"}); err == nil {
		t.Error("LoadAll should fail when any file id is broken")
	}

	empty, err := reader.LoadAll(nil)
	if err != nil {
		t.Fatalf("LoadAll(nil) error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("LoadAll(nil) should be empty, got %d", len(empty))
	}
}

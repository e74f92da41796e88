package agent

import (
	"strings"
	"testing"

	"github.com/smartduke/metaseek/internal/models"
)

func TestFormatDocumentsEmpty(t *testing.T) {
	got := FormatDocuments(nil)
	if got != noSourcesContext {
		t.Errorf("empty input should yield the no-sources instruction, got %q", got)
	}
	if strings.Contains(got, "[1]") {
		t.Error("no-sources instruction must not mention citation markers as usable")
	}
}

func TestFormatDocumentsNumbering(t *testing.T) {
	docs := []models.Document{
		models.NewDocument("Paris is the capital of France.", "France", "https://example.com/france"),
		models.NewDocument("Berlin is the capital of Germany.", "Germany", "https://example.com/germany"),
	}

	got := FormatDocuments(docs)

	if !strings.Contains(got, "You have 2 sources, numbered 1 to 2") {
		t.Errorf("missing source count header in %q", got)
	}
	if !strings.Contains(got, "1. France Paris is the capital of France.") {
		t.Errorf("missing first source line in %q", got)
	}
	if !strings.Contains(got, "2. Germany Berlin is the capital of Germany.") {
		t.Errorf("missing second source line in %q", got)
	}
}

func TestFormatDocumentsTitleFallsBackToURL(t *testing.T) {
	docs := []models.Document{
		models.NewDocument("content", "", "https://example.com/untitled"),
	}

	got := FormatDocuments(docs)
	if !strings.Contains(got, "1. https://example.com/untitled content") {
		t.Errorf("untitled document should use its URL, got %q", got)
	}
}

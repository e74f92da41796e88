package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartduke/metaseek/internal/common"
)

func TestExtractDocuments(t *testing.T) {
	html := `<html>
		<head><title>Test Page</title><script>var x = 1;</script></head>
		<body>
			<nav>navigation junk</nav>
			<h1>Heading</h1>
			<p>First paragraph of real content.</p>
			<p>Second paragraph of real content.</p>
			<footer>footer junk</footer>
		</body>
	</html>`

	docs, err := ExtractDocuments(html, "https://example.com/page")
	if err != nil {
		t.Fatalf("ExtractDocuments() error: %v", err)
	}
	if len(docs) == 0 {
		t.Fatal("expected at least one document")
	}

	joined := ""
	for _, doc := range docs {
		if doc.Title() != "Test Page" {
			t.Errorf("Title = %q, want Test Page", doc.Title())
		}
		if doc.URL() != "https://example.com/page" {
			t.Errorf("URL = %q", doc.URL())
		}
		joined += doc.Content + "\n"
	}

	if !strings.Contains(joined, "First paragraph of real content.") {
		t.Errorf("body text missing from %q", joined)
	}
	if strings.Contains(joined, "navigation junk") || strings.Contains(joined, "footer junk") {
		t.Errorf("chrome elements leaked into %q", joined)
	}
	if strings.Contains(joined, "var x = 1") {
		t.Errorf("script content leaked into %q", joined)
	}
}

func TestExtractDocumentsEmptyPage(t *testing.T) {
	docs, err := ExtractDocuments("<html><body></body></html>", "https://example.com")
	if err != nil {
		t.Fatalf("ExtractDocuments() error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("empty page should yield no documents, got %d", len(docs))
	}
}

func TestExtractDocumentsMissingTitle(t *testing.T) {
	docs, err := ExtractDocuments("<html><body><p>Some text here.</p></body></html>", "https://example.com/no-title")
	if err != nil {
		t.Fatalf("ExtractDocuments() error: %v", err)
	}
	if len(docs) == 0 {
		t.Fatal("expected a document")
	}
	if docs[0].Title() != "https://example.com/no-title" {
		t.Errorf("missing title should fall back to the URL, got %q", docs[0].Title())
	}
}

func TestSplitFragments(t *testing.T) {
	t.Run("short text stays whole", func(t *testing.T) {
		got := splitFragments("one paragraph", 100)
		if len(got) != 1 || got[0] != "one paragraph" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("paragraphs group under the limit", func(t *testing.T) {
		text := "aaaa\n\nbbbb\n\ncccc"
		got := splitFragments(text, 11)
		if len(got) != 2 {
			t.Fatalf("expected 2 fragments, got %v", got)
		}
		if got[0] != "aaaa\n\nbbbb" {
			t.Errorf("first fragment = %q", got[0])
		}
		if got[1] != "cccc" {
			t.Errorf("second fragment = %q", got[1])
		}
	})

	t.Run("oversized paragraph splits hard", func(t *testing.T) {
		text := strings.Repeat("x", 25)
		got := splitFragments(text, 10)
		if len(got) != 3 {
			t.Fatalf("expected 3 fragments, got %v", got)
		}
		for i, fragment := range got {
			if len(fragment) > 10 {
				t.Errorf("fragment %d exceeds max: %d bytes", i, len(fragment))
			}
		}
	})
}

func TestNormalizeWhitespace(t *testing.T) {
	in := "  line one  \n\n\n\n  line two  \n\n"
	want := "line one\n\nline two"
	if got := normalizeWhitespace(in); got != want {
		t.Errorf("normalizeWhitespace() = %q, want %q", got, want)
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("User-Agent = %q", ua)
		}
		fmt.Fprint(w, `<html><head><title>Fetched</title></head><body><p>Fetched page body.</p></body></html>`)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(&common.FetcherConfig{
		UserAgent:   "test-agent",
		MaxBodySize: 1 << 20,
	}, common.GetLogger())

	docs, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Title() != "Fetched" {
		t.Errorf("Title = %q", docs[0].Title())
	}
	if !strings.Contains(docs[0].Content, "Fetched page body.") {
		t.Errorf("Content = %q", docs[0].Content)
	}
}

func TestFetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(&common.FetcherConfig{MaxBodySize: 1 << 20}, common.GetLogger())
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Error("404 response should be an error")
	}
}

func TestFetchRejectsInvalidURL(t *testing.T) {
	fetcher := NewHTTPFetcher(&common.FetcherConfig{}, common.GetLogger())
	if _, err := fetcher.Fetch(context.Background(), "not a url"); err == nil {
		t.Error("invalid URL should be rejected")
	}
	if _, err := fetcher.Fetch(context.Background(), "ftp://example.com/file"); err == nil {
		t.Error("non-http scheme should be rejected")
	}
}

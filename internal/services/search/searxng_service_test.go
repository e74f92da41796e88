package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/models"
)

func newTestService(t *testing.T, baseURL string) *SearxNGService {
	t.Helper()
	svc, err := NewSearxNGService(&common.SearxNGConfig{
		BaseURL:  baseURL,
		Language: "en",
		Engines:  []string{"google", "bing"},
	}, common.GetLogger())
	if err != nil {
		t.Fatalf("NewSearxNGService() error: %v", err)
	}
	return svc
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q, want /search", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "golang generics" {
			t.Errorf("q = %q", q.Get("q"))
		}
		if q.Get("format") != "json" {
			t.Errorf("format = %q, want json", q.Get("format"))
		}
		if q.Get("language") != "en" {
			t.Errorf("language = %q", q.Get("language"))
		}
		if q.Get("engines") != "google,bing" {
			t.Errorf("engines = %q", q.Get("engines"))
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[
			{"title":"Go Generics","url":"https://go.dev/blog/intro-generics","content":"An introduction.","engine":"google"},
			{"title":"Generics video","url":"https://youtube.com/watch?v=x","content":"","engine":"youtube","img_src":"https://img.example/t.jpg"}
		]}`)
	}))
	defer server.Close()

	results, err := newTestService(t, server.URL).Search(context.Background(), "golang generics", nil)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "Go Generics" || results[0].Engine != "google" {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].ImgSrc != "https://img.example/t.jpg" {
		t.Errorf("img_src = %q", results[1].ImgSrc)
	}
}

func TestSearchOptionsOverrideConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("language") != "de" {
			t.Errorf("language = %q, want de", q.Get("language"))
		}
		if q.Get("engines") != "duckduckgo" {
			t.Errorf("engines = %q, want duckduckgo", q.Get("engines"))
		}
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer server.Close()

	_, err := newTestService(t, server.URL).Search(context.Background(), "abfrage", &models.SearchOptions{
		Language: "de",
		Engines:  []string{"duckduckgo"},
	})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
}

func TestSearchBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestService(t, server.URL).Search(context.Background(), "anything", nil)
	if err == nil {
		t.Fatal("non-200 response should be an error")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := newTestService(t, "http://localhost:9")
	if _, err := svc.Search(context.Background(), "   ", nil); err == nil {
		t.Error("blank query should be rejected before hitting the backend")
	}
}

func TestSearchResultToDocument(t *testing.T) {
	result := models.SearchResult{
		Title:   "Title",
		URL:     "https://example.com",
		Content: "Body",
		Engine:  "google",
		ImgSrc:  "https://img.example/x.png",
	}

	doc := result.Document()
	if doc.Content != "Body" {
		t.Errorf("Content = %q", doc.Content)
	}
	if doc.Title() != "Title" || doc.URL() != "https://example.com" {
		t.Errorf("metadata = %v", doc.Metadata)
	}
	if doc.Metadata["engine"] != "google" {
		t.Errorf("engine metadata = %v", doc.Metadata["engine"])
	}
}

package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
)

// scriptedLLM replays canned responses in call order.
type scriptedLLM struct {
	responses    []string
	calls        int
	lastMessages []interfaces.Message
	lastOpts     *interfaces.ChatOptions
	failWith     error
}

func (s *scriptedLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []interfaces.Message, opts *interfaces.ChatOptions) (string, error) {
	if s.failWith != nil {
		return "", s.failWith
	}
	if s.calls >= len(s.responses) {
		return "", fmt.Errorf("no scripted response for call %d", s.calls)
	}
	resp := s.responses[s.calls]
	s.calls++
	s.lastMessages = messages
	s.lastOpts = opts
	return resp, nil
}

func (s *scriptedLLM) ChatStream(ctx context.Context, messages []interfaces.Message, opts *interfaces.ChatOptions, onDelta interfaces.StreamHandler) error {
	resp, err := s.Chat(ctx, messages, opts)
	if err != nil {
		return err
	}
	onDelta(resp)
	return nil
}

func (s *scriptedLLM) HealthCheck(ctx context.Context) error { return nil }
func (s *scriptedLLM) ModelName() string                     { return "scripted" }

type fakeSearch struct {
	results []models.SearchResult
	err     error
	queries []string
}

func (f *fakeSearch) Search(ctx context.Context, query string, opts *models.SearchOptions) ([]models.SearchResult, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type fakeFetcher struct {
	pages map[string][]models.Document
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]models.Document, error) {
	docs, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("fetch failed for %s", url)
	}
	return docs, nil
}

func newTestRewriter(llm interfaces.LLMService, search interfaces.SearchService, fetcher interfaces.FetchService) *Rewriter {
	return NewRewriter(llm, search, fetcher, nil, &common.AgentConfig{}, common.GetLogger())
}

func TestRewriteNotNeeded(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"<question>not_needed</question>"}}
	rewriter := newTestRewriter(llm, &fakeSearch{}, &fakeFetcher{})

	got, err := rewriter.Rewrite(context.Background(), nil, "hi there")
	if err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}
	if !got.NotNeeded() {
		t.Errorf("greeting should need no retrieval, got %+v", got)
	}
}

func TestRewriteNotNeededWinsOverLinks(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"<question>not_needed</question>\n<links>\nhttps://example.com/ignored\n</links>",
	}}
	search := &fakeSearch{}
	fetcher := &fakeFetcher{pages: map[string][]models.Document{
		"https://example.com/ignored": {
			models.NewDocument("Should never be read.", "Ignored", "https://example.com/ignored"),
		},
	}}
	rewriter := newTestRewriter(llm, search, fetcher)

	got, err := rewriter.Rewrite(context.Background(), nil, "hello!")
	if err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}
	if !got.NotNeeded() {
		t.Fatalf("sentinel must end the rewrite even with links present, got %+v", got)
	}
	if len(got.Docs) != 0 || len(got.Links) != 0 {
		t.Errorf("sentinel result must carry no docs or links, got %+v", got)
	}
	if llm.calls != 1 {
		t.Errorf("no summarization calls should follow the sentinel, got %d llm calls", llm.calls)
	}
	if len(search.queries) != 0 {
		t.Errorf("sentinel must not trigger a search, got %v", search.queries)
	}
}

func TestRewritePinsTemperatureToZero(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"<question>not_needed</question>"}}
	rewriter := newTestRewriter(llm, &fakeSearch{}, &fakeFetcher{})

	if _, err := rewriter.Rewrite(context.Background(), nil, "hi"); err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}
	if llm.lastOpts == nil || llm.lastOpts.Temperature == nil || *llm.lastOpts.Temperature != 0 {
		t.Errorf("rewrite call must pin temperature to 0, got %+v", llm.lastOpts)
	}
}

func TestRewriteSearchPath(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"<question>capital of France</question>"}}
	search := &fakeSearch{results: []models.SearchResult{
		{Title: "Paris", URL: "https://example.com/paris", Content: "Paris is the capital.", Engine: "wikipedia"},
		{Title: "Empty", URL: "https://example.com/empty", Content: "", Engine: "bing"},
	}}
	rewriter := newTestRewriter(llm, search, &fakeFetcher{})

	got, err := rewriter.Rewrite(context.Background(), nil, "what is the capital of france")
	if err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}

	if got.Query != "capital of France" {
		t.Errorf("Query = %q", got.Query)
	}
	if len(search.queries) != 1 || search.queries[0] != "capital of France" {
		t.Errorf("search should receive the rewritten question, got %v", search.queries)
	}
	if len(got.Docs) != 1 {
		t.Fatalf("empty-content hits should be dropped, got %d docs", len(got.Docs))
	}
	if got.Docs[0].Title() != "Paris" {
		t.Errorf("doc title = %q", got.Docs[0].Title())
	}
}

func TestRewriteVideoEngineTitleFallback(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"<question>lecture on go concurrency</question>"}}
	search := &fakeSearch{results: []models.SearchResult{
		{Title: "Go Concurrency Patterns", URL: "https://youtube.com/watch?v=1", Content: "", Engine: "youtube"},
	}}
	rewriter := newTestRewriter(llm, search, &fakeFetcher{})

	got, err := rewriter.Rewrite(context.Background(), nil, "find a talk about go concurrency")
	if err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}
	if len(got.Docs) != 1 {
		t.Fatalf("video hit should survive via title fallback, got %d docs", len(got.Docs))
	}
	if got.Docs[0].Content != "Go Concurrency Patterns" {
		t.Errorf("content should fall back to the title, got %q", got.Docs[0].Content)
	}
}

func TestRewriteLinksPath(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"<question>summarize</question><links>\nhttps://example.com/article\n</links>",
		"The article explains the topic in depth.",
	}}
	fetcher := &fakeFetcher{pages: map[string][]models.Document{
		"https://example.com/article": {
			models.NewDocument("First paragraph.", "Article Title", "https://example.com/article"),
			models.NewDocument("Second paragraph.", "Article Title", "https://example.com/article"),
		},
	}}
	rewriter := newTestRewriter(llm, &fakeSearch{}, fetcher)

	got, err := rewriter.Rewrite(context.Background(), nil, "summarize https://example.com/article")
	if err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}

	if got.Query != "summarize" {
		t.Errorf("Query = %q, want summarize", got.Query)
	}
	if len(got.Docs) != 1 {
		t.Fatalf("expected one summary document per link, got %d", len(got.Docs))
	}
	if got.Docs[0].Content != "The article explains the topic in depth." {
		t.Errorf("summary content = %q", got.Docs[0].Content)
	}
	if got.Docs[0].URL() != "https://example.com/article" {
		t.Errorf("summary doc should carry the link URL, got %q", got.Docs[0].URL())
	}
}

func TestRewriteFailedLinkIsSkipped(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"<question>What do these cover?</question><links>\nhttps://example.com/good\nhttps://example.com/bad\n</links>",
		"Summary of the good page.",
	}}
	fetcher := &fakeFetcher{pages: map[string][]models.Document{
		"https://example.com/good": {
			models.NewDocument("Readable text.", "Good Page", "https://example.com/good"),
		},
	}}
	rewriter := newTestRewriter(llm, &fakeSearch{}, fetcher)

	got, err := rewriter.Rewrite(context.Background(), nil, "what do these cover? https://example.com/good https://example.com/bad")
	if err != nil {
		t.Fatalf("a failed link must not fail the rewrite: %v", err)
	}
	if len(got.Docs) != 1 {
		t.Fatalf("only the good link should produce a document, got %d", len(got.Docs))
	}
	if got.Docs[0].URL() != "https://example.com/good" {
		t.Errorf("surviving doc URL = %q", got.Docs[0].URL())
	}
}

func TestRewriteModelFailureIsFatal(t *testing.T) {
	llm := &scriptedLLM{failWith: fmt.Errorf("rate limited")}
	rewriter := newTestRewriter(llm, &fakeSearch{}, &fakeFetcher{})

	_, err := rewriter.Rewrite(context.Background(), nil, "anything")
	if err == nil {
		t.Fatal("rewrite model failure must surface as an error")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should wrap the cause, got %v", err)
	}
}

func TestFormatHistory(t *testing.T) {
	got := formatHistory(nil)
	if got != "(no prior conversation)" {
		t.Errorf("empty history = %q", got)
	}

	got = formatHistory([]interfaces.Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	})
	if !strings.Contains(got, "user: hello") || !strings.Contains(got, "assistant: hi") {
		t.Errorf("formatted history = %q", got)
	}
}

package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
	"github.com/smartduke/metaseek/internal/services/workers"
)

// maxFragmentsPerLink caps how many fetched fragments of one URL feed its
// summary call.
const maxFragmentsPerLink = 10

// videoEngines are search engines whose results regularly carry a title but
// no body content. For those the title stands in as content.
var videoEngines = map[string]bool{
	"youtube":     true,
	"vimeo":       true,
	"dailymotion": true,
}

// Rewriter turns a user question plus history into a retrieval plan and
// executes the retrieval: web search for standalone questions, fetch and
// summarize for user-supplied links.
type Rewriter struct {
	llm     interfaces.LLMService
	search  interfaces.SearchService
	fetcher interfaces.FetchService
	cache   interfaces.PageCacheService // nil disables page caching
	config  *common.AgentConfig
	logger  arbor.ILogger
}

// NewRewriter wires the rewriter. cache may be nil.
func NewRewriter(llm interfaces.LLMService, search interfaces.SearchService, fetcher interfaces.FetchService, cache interfaces.PageCacheService, config *common.AgentConfig, logger arbor.ILogger) *Rewriter {
	return &Rewriter{
		llm:     llm,
		search:  search,
		fetcher: fetcher,
		cache:   cache,
		config:  config,
		logger:  logger,
	}
}

// Rewrite produces the retrieval plan and runs it. Partial retrieval
// failures (one link, one summary) are skipped; a failed rewrite model call
// is returned as an error and the call is not retried.
func (r *Rewriter) Rewrite(ctx context.Context, history []interfaces.Message, query string) (models.RewriteResult, error) {
	prompt := strings.NewReplacer(
		"{chat_history}", formatHistory(history),
		"{query}", query,
	).Replace(rewritePrompt)

	// Temperature pinned to zero: the rewrite must be reproducible.
	zero := float32(0)
	raw, err := r.llm.Chat(ctx, []interfaces.Message{{Role: "user", Content: prompt}}, &interfaces.ChatOptions{Temperature: &zero})
	if err != nil {
		return models.RewriteResult{}, fmt.Errorf("query rewrite failed: %w", err)
	}

	parsed := parseRewriteOutput(raw)

	// The sentinel is checked before anything else; links in the same
	// response do not resurrect retrieval.
	if parsed.NotNeeded || (parsed.Question == "" && len(parsed.Links) == 0) {
		r.logger.Debug().Str("query", query).Msg("Rewriter decided retrieval is not needed")
		return models.RewriteResult{}, nil
	}

	if len(parsed.Links) > 0 {
		question := parsed.Question
		if question == "" {
			question = "summarize"
		}
		docs := r.summarizeLinks(ctx, parsed.Links, question)
		return models.RewriteResult{Query: question, Links: parsed.Links, Docs: docs}, nil
	}

	docs, err := r.searchWeb(ctx, parsed.Question)
	if err != nil {
		return models.RewriteResult{}, err
	}
	return models.RewriteResult{Query: parsed.Question, Docs: docs}, nil
}

// searchWeb runs the rewritten question against the search backend and
// wraps each hit as a document. Video-engine hits without content fall back
// to their title.
func (r *Rewriter) searchWeb(ctx context.Context, question string) ([]models.Document, error) {
	searchCtx := ctx
	if d := r.config.SearchTimeout.Std(); d > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	results, err := r.search.Search(searchCtx, question, nil)
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}

	docs := make([]models.Document, 0, len(results))
	for _, result := range results {
		if strings.TrimSpace(result.Content) == "" {
			if !videoEngines[result.Engine] || result.Title == "" {
				continue
			}
			result.Content = result.Title
		}
		docs = append(docs, result.Document())
	}

	r.logger.Debug().
		Str("question", question).
		Int("results", len(results)).
		Int("documents", len(docs)).
		Msg("Web retrieval completed")

	return docs, nil
}

// summarizeLinks fetches every link, groups fragments by URL and produces
// one summary document per link through a parallel fan-out. A link whose
// fetch or summary fails is dropped; the remaining links still count.
func (r *Rewriter) summarizeLinks(ctx context.Context, links []string, question string) []models.Document {
	dedupedLinks := dedupe(links)

	concurrency := r.config.SummaryConcurrency
	if concurrency <= 0 {
		concurrency = len(dedupedLinks)
	}
	pool := workers.NewPool(ctx, concurrency, r.logger)
	pool.Start()

	var mu sync.Mutex
	summaries := make(map[string]models.Document, len(dedupedLinks))

	for _, link := range dedupedLinks {
		link := link
		if err := pool.Submit(func(jobCtx context.Context) error {
			doc, err := r.summarizeLink(jobCtx, link, question)
			if err != nil {
				return fmt.Errorf("link %s: %w", link, err)
			}
			mu.Lock()
			summaries[link] = doc
			mu.Unlock()
			return nil
		}); err != nil {
			break
		}
	}
	pool.Wait()

	for _, err := range pool.Errors() {
		r.logger.Warn().Err(err).Msg("Link summarization skipped")
	}

	// Preserve the order the user gave the links in.
	docs := make([]models.Document, 0, len(summaries))
	for _, link := range dedupedLinks {
		if doc, ok := summaries[link]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// summarizeLink fetches one URL (cache first) and condenses its fragments
// into a single summary document.
func (r *Rewriter) summarizeLink(ctx context.Context, link, question string) (models.Document, error) {
	fragments, err := r.fetchPage(ctx, link)
	if err != nil {
		return models.Document{}, err
	}
	if len(fragments) == 0 {
		return models.Document{}, fmt.Errorf("no extractable text")
	}
	if len(fragments) > maxFragmentsPerLink {
		fragments = fragments[:maxFragmentsPerLink]
	}

	texts := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		texts = append(texts, fragment.Content)
	}

	prompt := strings.NewReplacer(
		"{query}", question,
		"{text}", strings.Join(texts, "\n\n"),
	).Replace(summaryPrompt)

	summary, err := r.llm.Chat(ctx, []interfaces.Message{{Role: "user", Content: prompt}}, nil)
	if err != nil {
		return models.Document{}, fmt.Errorf("summary failed: %w", err)
	}

	title := fragments[0].Title()
	return models.NewDocument(strings.TrimSpace(summary), title, link), nil
}

// fetchPage returns the fragments for link, consulting the page cache
// before the network and storing fresh fetches back.
func (r *Rewriter) fetchPage(ctx context.Context, link string) ([]models.Document, error) {
	if r.cache != nil {
		if page, ok := r.cache.Get(link); ok {
			r.logger.Debug().Str("url", link).Msg("Page cache hit")
			return page.Documents, nil
		}
	}

	fetchCtx := ctx
	if d := r.config.FetchTimeout.Std(); d > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	startTime := time.Now()
	fragments, err := r.fetcher.Fetch(fetchCtx, link)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	if r.cache != nil && len(fragments) > 0 {
		if err := r.cache.Put(link, fragments); err != nil {
			r.logger.Warn().Err(err).Str("url", link).Msg("Failed to cache fetched page")
		}
	}

	r.logger.Debug().
		Str("url", link).
		Int("fragments", len(fragments)).
		Dur("duration", time.Since(startTime)).
		Msg("Link fetched")

	return fragments, nil
}

// formatHistory renders the conversation for the rewrite prompt.
func formatHistory(history []interfaces.Message) string {
	if len(history) == 0 {
		return "(no prior conversation)"
	}
	var b strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

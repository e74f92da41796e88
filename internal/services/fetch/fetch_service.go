// Package fetch retrieves web pages and extracts their text as pipeline
// documents.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/httpclient"
	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
)

// fragmentSize caps the length of one extracted document fragment. Long
// pages split into multiple fragments on paragraph boundaries.
const fragmentSize = 2000

// HTTPFetcher implements FetchService with a plain HTTP client, goquery
// extraction and HTML to markdown conversion. Requests to one host are
// rate limited.
type HTTPFetcher struct {
	config *common.FetcherConfig
	logger arbor.ILogger
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates a fetcher with the configured timeout, body cap
// and per-host rate limit.
func NewHTTPFetcher(config *common.FetcherConfig, logger arbor.ILogger) *HTTPFetcher {
	timeout := config.RequestTimeout.Std()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPFetcher{
		config:   config,
		logger:   logger,
		client:   httpclient.NewDefaultHTTPClient(timeout),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch downloads pageURL and returns the extracted documents. One document
// per fragment; an empty slice with nil error means no extractable text.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) ([]models.Document, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid page URL %q", pageURL)
	}

	if err := f.limiter(parsed.Host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build page request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	startTime := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page fetch returned status %d for %s", resp.StatusCode, pageURL)
	}

	maxBody := f.config.MaxBodySize
	if maxBody <= 0 {
		maxBody = 10 * 1024 * 1024
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to read page body: %w", err)
	}

	docs, err := ExtractDocuments(string(body), pageURL)
	if err != nil {
		return nil, err
	}

	f.logger.Debug().
		Str("url", pageURL).
		Int("fragments", len(docs)).
		Dur("duration", time.Since(startTime)).
		Msg("Page fetched")

	return docs, nil
}

// limiter returns the per-host limiter, creating it on first use.
func (f *HTTPFetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.limiters[host]; ok {
		return l
	}

	interval := f.config.RateLimit.Std()
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	l := rate.NewLimiter(rate.Every(interval), 1)
	f.limiters[host] = l
	return l
}

// ExtractDocuments converts raw page HTML into fragment documents. Shared
// by the plain and JavaScript-rendering fetchers.
func ExtractDocuments(html, pageURL string) ([]models.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = pageURL
	}

	// Strip chrome elements before conversion
	doc.Find("script, style, noscript, nav, header, footer, iframe, svg").Remove()

	bodyHTML, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(bodyHTML) == "" {
		bodyHTML, _ = doc.Html()
	}

	converter := md.NewConverter(pageURL, true, nil)
	markdown, err := converter.ConvertString(bodyHTML)
	if err != nil {
		// Fallback: plain text extraction via goquery
		markdown = doc.Text()
	}

	text := normalizeWhitespace(markdown)
	if text == "" {
		return []models.Document{}, nil
	}

	fragments := splitFragments(text, fragmentSize)
	docs := make([]models.Document, 0, len(fragments))
	for _, fragment := range fragments {
		docs = append(docs, models.NewDocument(fragment, title, pageURL))
	}
	return docs, nil
}

// normalizeWhitespace collapses runs of blank lines and trims the result.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// splitFragments groups paragraphs into fragments no longer than max,
// splitting oversized paragraphs hard when needed.
func splitFragments(text string, max int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var fragments []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			fragments = append(fragments, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for len(p) > max {
			flush()
			fragments = append(fragments, strings.TrimSpace(p[:max]))
			p = strings.TrimSpace(p[max:])
		}
		if p == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(p)+2 > max {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()

	return fragments
}

var _ interfaces.FetchService = (*HTTPFetcher)(nil)

package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
)

// ChromedpFetcher implements FetchService with a headless browser so pages
// that build their content client-side still yield text. Falls back to the
// plain HTTP fetcher when rendering fails.
type ChromedpFetcher struct {
	config   *common.FetcherConfig
	logger   arbor.ILogger
	fallback *HTTPFetcher
}

// NewChromedpFetcher wraps fallback with a JavaScript-rendering fetch path.
func NewChromedpFetcher(config *common.FetcherConfig, fallback *HTTPFetcher, logger arbor.ILogger) *ChromedpFetcher {
	return &ChromedpFetcher{
		config:   config,
		logger:   logger,
		fallback: fallback,
	}
}

// Fetch renders pageURL in a headless browser, waits for the configured
// settle time and extracts documents from the rendered DOM.
func (f *ChromedpFetcher) Fetch(ctx context.Context, pageURL string) ([]models.Document, error) {
	timeout := f.config.RequestTimeout.Std()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startTime := time.Now()
	html, err := f.renderHTML(runCtx, pageURL)
	if err != nil {
		f.logger.Warn().
			Err(err).
			Str("url", pageURL).
			Msg("JavaScript rendering failed, falling back to plain fetch")
		return f.fallback.Fetch(ctx, pageURL)
	}

	docs, err := ExtractDocuments(html, pageURL)
	if err != nil {
		return nil, err
	}

	f.logger.Debug().
		Str("url", pageURL).
		Int("fragments", len(docs)).
		Dur("duration", time.Since(startTime)).
		Msg("Page rendered and fetched")

	return docs, nil
}

func (f *ChromedpFetcher) renderHTML(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.config.UserAgent),
	)
	allocatorCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocatorCtx)
	defer cancelBrowser()

	waitTime := f.config.JavaScriptWaitTime.Std()
	if waitTime <= 0 {
		waitTime = 3 * time.Second
	}

	var html string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(waitTime),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("headless rendering failed: %w", err)
	}
	return html, nil
}

var _ interfaces.FetchService = (*ChromedpFetcher)(nil)

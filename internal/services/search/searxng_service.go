// Package search implements the web search capability against a SearxNG
// metasearch instance.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/httpclient"
	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
)

// SearxNGService implements SearchService against a SearxNG instance's
// JSON API.
type SearxNGService struct {
	config *common.SearxNGConfig
	logger arbor.ILogger
	client *http.Client
}

// searxngResponse mirrors the subset of the SearxNG JSON payload we consume.
type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
		Engine  string `json:"engine"`
		ImgSrc  string `json:"img_src"`
	} `json:"results"`
}

// NewSearxNGService creates a search service for the configured instance.
func NewSearxNGService(config *common.SearxNGConfig, logger arbor.ILogger) (*SearxNGService, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("searxng base URL is required")
	}

	timeout := config.RequestTimeout.Std()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &SearxNGService{
		config: config,
		logger: logger,
		client: httpclient.NewDefaultHTTPClient(timeout),
	}, nil
}

// Search runs query against the instance and returns raw hits in backend
// order. opts overrides the configured language and engine list when set.
func (s *SearxNGService) Search(ctx context.Context, query string, opts *models.SearchOptions) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	endpoint, err := s.buildURL(query, opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		results = append(results, models.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Engine:  r.Engine,
			ImgSrc:  r.ImgSrc,
		})
	}

	s.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Dur("duration", time.Since(startTime)).
		Msg("Web search completed")

	return results, nil
}

// buildURL assembles the /search endpoint with format=json and the
// effective language and engine parameters.
func (s *SearxNGService) buildURL(query string, opts *models.SearchOptions) (string, error) {
	base, err := url.Parse(s.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid searxng base URL: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/search"

	language := s.config.Language
	engines := s.config.Engines
	if opts != nil {
		if opts.Language != "" {
			language = opts.Language
		}
		if len(opts.Engines) > 0 {
			engines = opts.Engines
		}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	if language != "" {
		params.Set("language", language)
	}
	if len(engines) > 0 {
		params.Set("engines", strings.Join(engines, ","))
	}

	base.RawQuery = params.Encode()
	return base.String(), nil
}

var _ interfaces.SearchService = (*SearxNGService)(nil)

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/handlers"
	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/services/agent"
	"github.com/smartduke/metaseek/internal/services/cache"
	"github.com/smartduke/metaseek/internal/services/embeddings"
	"github.com/smartduke/metaseek/internal/services/fetch"
	"github.com/smartduke/metaseek/internal/services/fileindex"
	"github.com/smartduke/metaseek/internal/services/llm"
	"github.com/smartduke/metaseek/internal/services/search"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	// LLM services
	LLMService       interfaces.LLMService
	GeminiService    *llm.GeminiService
	EmbeddingService interfaces.EmbeddingService

	// Retrieval services
	SearchService    interfaces.SearchService
	FetchService     interfaces.FetchService
	PageCache        interfaces.PageCacheService
	FileIndexService interfaces.FileIndexService

	// Answer pipeline
	AgentService interfaces.AgentService

	// HTTP handlers
	SearchHandler *handlers.SearchHandler
	StatusHandler *handlers.StatusHandler
	WSHandler     *handlers.WebSocketHandler

	// Log feed for arbor context channel
	LogFeed *handlers.LogFeed
}

// New creates the application with all services wired. Close releases what
// New opened.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := a.initServices(); err != nil {
		cancel()
		a.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := a.initHandlers(); err != nil {
		cancel()
		a.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return a, nil
}

func (a *App) initServices() error {
	chatService, geminiService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM service: %w", err)
	}
	a.LLMService = chatService
	a.GeminiService = geminiService
	a.Logger.Info().Str("model", chatService.ModelName()).Msg("LLM service initialized")

	a.EmbeddingService = embeddings.NewService(geminiService, a.Logger)

	searchService, err := search.NewSearxNGService(&a.Config.SearxNG, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create search service: %w", err)
	}
	a.SearchService = searchService

	httpFetcher := fetch.NewHTTPFetcher(&a.Config.Fetcher, a.Logger)
	if a.Config.Fetcher.EnableJavaScript {
		a.FetchService = fetch.NewChromedpFetcher(&a.Config.Fetcher, httpFetcher, a.Logger)
		a.Logger.Info().Msg("JavaScript rendering enabled for page fetches")
	} else {
		a.FetchService = httpFetcher
	}

	if a.Config.Cache.Enabled {
		pageCache, err := cache.NewService(&a.Config.Cache, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to open page cache: %w", err)
		}
		a.PageCache = pageCache
	}

	a.FileIndexService = fileindex.NewReader(&a.Config.FileIndex, a.Logger)

	selector, err := agent.NewSelector(a.EmbeddingService, a.FileIndexService, &a.Config.Agent, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create selector: %w", err)
	}
	rewriter := agent.NewRewriter(a.LLMService, a.SearchService, a.FetchService, a.PageCache, &a.Config.Agent, a.Logger)
	generator := agent.NewGenerator(a.LLMService, a.Logger)

	agentService, err := agent.NewAgent(rewriter, selector, generator, &a.Config.Agent, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	a.AgentService = agentService

	return nil
}

func (a *App) initHandlers() error {
	a.SearchHandler = handlers.NewSearchHandler(a.AgentService, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.LLMService, a.EmbeddingService, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.AgentService, a.Logger)

	// Feed server logs to connected clients through arbor's context channel.
	a.LogFeed = handlers.NewLogFeed(a.WSHandler, &a.Config.WebSocket)
	a.LogFeed.Start()
	a.Logger.SetChannel("context", a.LogFeed.Channel())

	return nil
}

// Close shuts down services in reverse dependency order.
func (a *App) Close() error {
	a.cancelCtx()

	if a.LogFeed != nil {
		a.LogFeed.Stop()
	}
	if a.PageCache != nil {
		if err := a.PageCache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close page cache")
		}
	}
	if a.GeminiService != nil {
		a.GeminiService.Close()
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}

package handlers

import (
	"fmt"
	"strings"
	"sync"

	plog "github.com/phuslu/log"
	"github.com/ternarybob/arbor/levels"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/smartduke/metaseek/internal/common"
)

// defaultExcludePatterns filters the chatty messages that would otherwise
// echo back through the feed they describe.
var defaultExcludePatterns = []string{
	"WebSocket client connected",
	"WebSocket client disconnected",
	"WebSocket write failed",
	"HTTP request",
	"HTTP response",
}

// LogFeed consumes log batches from arbor's context channel and broadcasts
// them to connected WebSocket clients.
type LogFeed struct {
	handler         *WebSocketHandler
	channel         chan []arbormodels.LogEvent
	minLevel        levels.LogLevel
	excludePatterns []string
	done            chan struct{}
	wg              sync.WaitGroup
}

// NewLogFeed creates the feed. Register Channel() with the logger via
// SetChannel and call Start before logging begins.
func NewLogFeed(handler *WebSocketHandler, wsConfig *common.WebSocketConfig) *LogFeed {
	minLevel := levels.InfoLevel
	excludePatterns := defaultExcludePatterns

	if wsConfig != nil {
		minLevel = parseLogLevel(wsConfig.MinLevel)
		if len(wsConfig.ExcludePatterns) > 0 {
			excludePatterns = wsConfig.ExcludePatterns
		}
	}

	return &LogFeed{
		handler:         handler,
		channel:         make(chan []arbormodels.LogEvent, 10),
		minLevel:        minLevel,
		excludePatterns: excludePatterns,
		done:            make(chan struct{}),
	}
}

// Channel returns the channel for arbor to send log batches to
func (f *LogFeed) Channel() chan []arbormodels.LogEvent {
	return f.channel
}

// Start launches the consumer goroutine
func (f *LogFeed) Start() {
	f.wg.Add(1)
	go f.consume()
}

// Stop drains and shuts down the consumer
func (f *LogFeed) Stop() {
	close(f.done)
	f.wg.Wait()
}

func (f *LogFeed) consume() {
	defer f.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			f.handler.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Log feed panic recovered")
		}
	}()

	for {
		select {
		case batch, ok := <-f.channel:
			if !ok {
				return
			}
			for _, event := range batch {
				f.broadcast(event)
			}
		case <-f.done:
			return
		}
	}
}

func (f *LogFeed) broadcast(event arbormodels.LogEvent) {
	arborLevel := plogToArborLevel(event.Level)
	if arborLevel < f.minLevel {
		return
	}

	for _, pattern := range f.excludePatterns {
		if strings.Contains(event.Message, pattern) {
			return
		}
	}

	f.handler.BroadcastLog(LogEntry{
		Timestamp: event.Timestamp.Format("15:04:05"),
		Level:     mapLevel(arborLevel),
		Message:   event.Message,
	})
}

// plogToArborLevel converts phuslu/log.Level to arbor levels.LogLevel
func plogToArborLevel(level plog.Level) levels.LogLevel {
	switch level {
	case plog.ErrorLevel:
		return levels.ErrorLevel
	case plog.WarnLevel:
		return levels.WarnLevel
	case plog.InfoLevel:
		return levels.InfoLevel
	case plog.DebugLevel:
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// parseLogLevel converts string log level to arbor levels.LogLevel
func parseLogLevel(level string) levels.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return levels.ErrorLevel
	case "warn", "warning":
		return levels.WarnLevel
	case "info":
		return levels.InfoLevel
	case "debug":
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// mapLevel maps arbor log levels to UI strings
func mapLevel(level levels.LogLevel) string {
	switch level {
	case levels.ErrorLevel:
		return "error"
	case levels.WarnLevel:
		return "warn"
	case levels.InfoLevel:
		return "info"
	case levels.DebugLevel:
		return "debug"
	default:
		return "info"
	}
}

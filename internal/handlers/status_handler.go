package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/common"
	"github.com/smartduke/metaseek/internal/interfaces"
)

// StatusHandler reports service health
type StatusHandler struct {
	llmService interfaces.LLMService
	embeddings interfaces.EmbeddingService
	logger     arbor.ILogger
}

func NewStatusHandler(llmService interfaces.LLMService, embeddings interfaces.EmbeddingService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		llmService: llmService,
		embeddings: embeddings,
		logger:     logger,
	}
}

// HealthHandler handles GET /health requests
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := map[string]interface{}{
		"version":    common.GetVersion(),
		"model":      h.llmService.ModelName(),
		"embeddings": h.embeddings.IsAvailable(ctx),
	}

	w.Header().Set("Content-Type", "application/json")

	if err := h.llmService.HealthCheck(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("LLM health check failed")
		status["healthy"] = false
		status["error"] = err.Error()
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(status)
		return
	}

	status["healthy"] = true
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

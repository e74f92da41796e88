package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/smartduke/metaseek/internal/interfaces"
	"github.com/smartduke/metaseek/internal/models"
	"github.com/smartduke/metaseek/internal/services/agent"
)

// SearchHandler handles answer pipeline HTTP requests
type SearchHandler struct {
	agentService interfaces.AgentService
	logger       arbor.ILogger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(agentService interfaces.AgentService, logger arbor.ILogger) *SearchHandler {
	return &SearchHandler{
		agentService: agentService,
		logger:       logger,
	}
}

// searchRequest is the POST /api/search payload
type searchRequest struct {
	interfaces.AnswerRequest
	// Stream selects newline-delimited JSON event streaming. When false
	// the handler collects the full answer and responds once.
	Stream *bool `json:"stream,omitempty"`
}

// SearchHandler handles POST /api/search requests
func (h *SearchHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode search request")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Query field is required")
		return
	}

	h.logger.Info().
		Str("mode", string(req.Mode)).
		Int("history_messages", len(req.History)).
		Int("file_ids", len(req.FileIDs)).
		Msg("Processing search request")

	events := h.agentService.Answer(r.Context(), req.AnswerRequest)

	if req.Stream == nil || *req.Stream {
		h.streamEvents(w, events)
		return
	}
	h.collectAnswer(w, events)
}

// streamEvents writes one JSON object per line as events arrive.
func (h *SearchHandler) streamEvents(w http.ResponseWriter, events <-chan models.StreamEvent) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	encoder := json.NewEncoder(w)

	for event := range events {
		if err := encoder.Encode(event); err != nil {
			h.logger.Warn().Err(err).Msg("Client disconnected during event stream")
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

// collectAnswer drains the stream and responds with the assembled answer.
func (h *SearchHandler) collectAnswer(w http.ResponseWriter, events <-chan models.StreamEvent) {
	answer, sources, errMsg := agent.Drain(events)

	if errMsg != "" {
		h.logger.Error().Str("error", errMsg).Msg("Answer pipeline failed")
		writeError(w, http.StatusInternalServerError, errMsg)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": answer,
		"sources": sources,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

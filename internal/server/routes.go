package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (answer streams and live log feed)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes
	mux.HandleFunc("/api/search", s.app.SearchHandler.SearchHandler)

	// System
	mux.HandleFunc("/health", s.app.StatusHandler.HealthHandler)

	return mux
}

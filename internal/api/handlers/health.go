// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rate-copy-manager/backend/internal/copier"
	"github.com/rate-copy-manager/backend/internal/storage"
	"github.com/rate-copy-manager/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check. db may be
// nil when the history database is disabled.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db == nil || db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	ActiveSessions   int `json:"active_sessions"`
	WebSocketClients int `json:"websocket_clients"`
	SubmissionCount  int `json:"submission_count"`
}

// Status returns a handler that provides system status information.
func Status(sessions *copier.Store, hub *websocket.Hub, history *storage.HistoryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := StatusResponse{
			ActiveSessions:   sessions.Count(),
			WebSocketClients: hub.ClientCount(),
		}

		if history != nil {
			if count, err := history.Count(r.Context()); err == nil {
				response.SubmissionCount = count
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rate-copy-manager/backend/internal/api/handlers"
	"github.com/rate-copy-manager/backend/internal/api/middleware"
	"github.com/rate-copy-manager/backend/internal/copier"
	"github.com/rate-copy-manager/backend/internal/pms"
	"github.com/rate-copy-manager/backend/internal/storage"
	"github.com/rate-copy-manager/backend/internal/websocket"
)

// NewRouter creates and configures the HTTP router with all API routes.
// db and history may be nil when the audit database is disabled.
func NewRouter(
	client *pms.Client,
	sessions *copier.Store,
	hub *websocket.Hub,
	db *storage.DB,
	history *storage.HistoryRepository,
	staticDir string,
) *mux.Router {
	builder := copier.NewBuilder(client, hub)
	submitter := copier.NewSubmitter(client, hub)

	// Keep a disabled history as a nil interface, not a typed nil pointer.
	var recorder handlers.SubmissionRecorder
	if history != nil {
		recorder = history
	}

	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(db)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(sessions, hub, history)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(hub)).Methods("GET")

	// Session endpoints
	api.HandleFunc("/sessions", handlers.CreateSession(sessions, client)).Methods("POST")
	api.HandleFunc("/sessions/{id}/room-types", handlers.GetRoomTypes(sessions)).Methods("GET")

	// Selection grid endpoints
	api.HandleFunc("/sessions/{id}/grid", handlers.BuildGrid(sessions, builder)).Methods("POST")
	api.HandleFunc("/sessions/{id}/grid", handlers.GetGrid(sessions)).Methods("GET")
	api.HandleFunc("/sessions/{id}/grid/toggle", handlers.ToggleGridCell(sessions)).Methods("POST")
	api.HandleFunc("/sessions/{id}/grid/select", handlers.BulkSelectGrid(sessions)).Methods("POST")
	api.HandleFunc("/sessions/{id}/grid/pointer", handlers.GridPointer(sessions)).Methods("POST")

	// Preview endpoints
	api.HandleFunc("/sessions/{id}/preview", handlers.CreatePreview(sessions, builder)).Methods("POST")
	api.HandleFunc("/sessions/{id}/preview/from-grid", handlers.CreatePreviewFromGrid(sessions, builder)).Methods("POST")
	api.HandleFunc("/sessions/{id}/preview", handlers.GetPreview(sessions)).Methods("GET")
	api.HandleFunc("/sessions/{id}/preview", handlers.DismissPreview(sessions)).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/preview/operations/{index}", handlers.UpdatePendingRate(sessions)).Methods("PATCH")

	// Submission endpoints
	api.HandleFunc("/sessions/{id}/submit", handlers.Submit(sessions, submitter, recorder, hub)).Methods("POST")
	api.HandleFunc("/history", handlers.ListHistory(history)).Methods("GET")

	// Serve static frontend files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return r
}

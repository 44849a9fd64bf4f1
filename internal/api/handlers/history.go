package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rate-copy-manager/backend/internal/api/middleware"
	"github.com/rate-copy-manager/backend/internal/storage"
	"github.com/rate-copy-manager/backend/internal/storage/models"
)

// ListHistory returns the most recent submission records, newest first.
// An optional limit query parameter caps the page size.
func ListHistory(history *storage.HistoryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if history == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Submission history is disabled")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		records, err := history.List(r.Context(), limit)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query submission history")
			return
		}

		if records == nil {
			records = []models.SubmissionRecord{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

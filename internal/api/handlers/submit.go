package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/rate-copy-manager/backend/internal/api/middleware"
	"github.com/rate-copy-manager/backend/internal/copier"
	"github.com/rate-copy-manager/backend/internal/storage/models"
	"github.com/rate-copy-manager/backend/internal/websocket"
)

// SubmissionRecorder appends one audit row per submitted operation.
// Implemented by *storage.HistoryRepository.
type SubmissionRecorder interface {
	Record(ctx context.Context, rec models.SubmissionRecord) error
}

type SubmitResponse struct {
	Results []copier.Result `json:"results"`
	Summary copier.Summary  `json:"summary"`
}

// Submit executes the session's pending batch sequentially against the
// PMS API. Per-operation failures become failure results; the batch is
// cleared only after the whole run returned, so an aborted run leaves it
// intact for retry. history may be nil when the audit database is
// disabled.
func Submit(sessions *copier.Store, submitter *copier.Submitter, history SubmissionRecorder, hub *websocket.Hub) http.HandlerFunc {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		operations := session.Pending()
		if len(operations) == 0 {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "No pending operations to submit")
			return
		}

		if err := session.BeginSubmission(); err != nil {
			if errors.Is(err, copier.ErrSubmissionInProgress) {
				middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, err.Error())
				return
			}
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, err.Error())
			return
		}
		defer session.EndSubmission()

		results, err := submitter.Submit(r.Context(), session.ID, session.Creds, operations)
		if err != nil {
			// Run aborted (client gone); keep the batch for retry.
			log.Printf("Submission aborted for session %s after %d/%d operation(s): %v",
				session.ID, len(results), len(operations), err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Submission aborted")
			return
		}

		recordResults(session, operations, results, history)
		session.ClearPending()

		summary := copier.Summarize(results)
		broadcaster.BroadcastSubmissionCompleted(session.ID, summary.Total, summary.Successful)
		broadcaster.BroadcastNotification("success", "Submission complete",
			fmt.Sprintf("%d/%d rate(s) copied", summary.Successful, summary.Total))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SubmitResponse{
			Results: results,
			Summary: summary,
		})
	}
}

// recordResults writes one audit row per submitted operation. Failures to
// record are logged and never affect the response. The writes run on a
// detached context: the run already completed upstream, so a client that
// disconnects while the response is written must not lose the audit trail.
func recordResults(session *copier.Session, operations []copier.Operation, results []copier.Result, history SubmissionRecorder) {
	if history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i, result := range results {
		op := operations[i]

		var errMsg *string
		if result.Error != "" {
			msg := result.Error
			errMsg = &msg
		}

		rec := models.SubmissionRecord{
			SessionID:  session.ID,
			PropertyID: session.Creds.PropertyID,
			RoomTypeID: op.RoomTypeID,
			SourceDate: op.SourceDate,
			TargetDate: op.TargetDate,
			TargetYear: op.TargetYear,
			RateAmount: op.RateAmount,
			Success:    result.Success,
			Error:      errMsg,
		}

		if err := history.Record(ctx, rec); err != nil {
			log.Printf("Failed to record submission history: %v", err)
		}
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rate-copy-manager/backend/internal/api/middleware"
	"github.com/rate-copy-manager/backend/internal/copier"
	"github.com/rate-copy-manager/backend/internal/pms"
)

type CreatePreviewRequest struct {
	RoomTypeIDs []string `json:"roomTypeIDs"`
	Years       []int    `json:"years"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
}

// PreviewOperation is one pending operation as shown in the preview,
// including its index for rate edits.
type PreviewOperation struct {
	Index        int     `json:"index"`
	RoomTypeID   string  `json:"roomTypeID"`
	RoomTypeName string  `json:"roomTypeName"`
	SourceDate   string  `json:"sourceDate"`
	TargetDate   string  `json:"targetDate"`
	TargetYear   int     `json:"targetYear"`
	RateAmount   float64 `json:"rateAmount"`
}

type PreviewResponse struct {
	Operations []PreviewOperation `json:"operations"`
	Count      int                `json:"count"`
	Message    string             `json:"message,omitempty"`
}

func previewResponse(session *copier.Session, operations []copier.Operation) PreviewResponse {
	resp := PreviewResponse{
		Operations: make([]PreviewOperation, 0, len(operations)),
		Count:      len(operations),
	}

	for i, op := range operations {
		resp.Operations = append(resp.Operations, PreviewOperation{
			Index:        i,
			RoomTypeID:   op.RoomTypeID,
			RoomTypeName: session.RoomTypeName(op.RoomTypeID),
			SourceDate:   op.SourceDate,
			TargetDate:   op.TargetDate,
			TargetYear:   op.TargetYear,
			RateAmount:   op.RateAmount,
		})
	}

	if len(operations) == 0 {
		resp.Message = "No rates found to copy"
	} else {
		resp.Message = fmt.Sprintf("Ready to copy %d rate(s)", len(operations))
	}

	return resp
}

// writeBuildError maps builder failures onto HTTP statuses: validation
// errors are the caller's fault, everything else is an upstream problem.
func writeBuildError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, copier.ErrNoRoomTypes),
		errors.Is(err, copier.ErrNoYears),
		errors.Is(err, copier.ErrNoDateRange),
		errors.Is(err, pms.ErrMissingProperty):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
	case errors.Is(err, pms.ErrMissingToken):
		middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, err.Error())
	default:
		middleware.WriteError(w, http.StatusBadGateway, middleware.ErrInternalError, err.Error())
	}
}

// CreatePreview builds a pending batch from an explicit room-type, year
// and date-range selection (basic mode). The new batch replaces any
// previous one. Zero resulting operations is an informational outcome,
// not an error.
func CreatePreview(sessions *copier.Store, builder *copier.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		var req CreatePreviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		operations, err := builder.BuildFromRange(r.Context(), session.ID, session.Creds,
			req.RoomTypeIDs, req.Years, req.StartDate, req.EndDate)
		if err != nil {
			writeBuildError(w, err)
			return
		}

		session.CreatePreview(operations)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(previewResponse(session, operations))
	}
}

// CreatePreviewFromGrid builds a pending batch from the selection grid
// (advanced mode).
func CreatePreviewFromGrid(sessions *copier.Store, builder *copier.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		grid := session.Grid()
		if grid == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No grid loaded for this session")
			return
		}

		session.Lock()
		operations := builder.BuildFromGrid(grid)
		session.Unlock()

		session.CreatePreview(operations)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(previewResponse(session, operations))
	}
}

// GetPreview returns the current pending batch.
func GetPreview(sessions *copier.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(previewResponse(session, session.Pending()))
	}
}

type UpdateRateRequest struct {
	// Rate comes straight from an input field; numbers and numeric
	// strings are both accepted.
	Rate any `json:"rate"`
}

// UpdatePendingRate overrides the rate amount of one pending operation.
// Values that do not parse as a non-negative number are ignored and the
// stored amount is returned unchanged; only an invalid index is an error.
func UpdatePendingRate(sessions *copier.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		index, err := strconv.Atoi(mux.Vars(r)["index"])
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid operation index")
			return
		}

		var req UpdateRateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		op, ok := session.UpdateRate(index, rawAmount(req.Rate))
		if !ok {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No pending operation at that index")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(PreviewOperation{
			Index:        index,
			RoomTypeID:   op.RoomTypeID,
			RoomTypeName: session.RoomTypeName(op.RoomTypeID),
			SourceDate:   op.SourceDate,
			TargetDate:   op.TargetDate,
			TargetYear:   op.TargetYear,
			RateAmount:   op.RateAmount,
		})
	}
}

// rawAmount renders the loosely typed rate field for parsing.
func rawAmount(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return ""
	}
}

// DismissPreview closes the preview without discarding the pending batch;
// it stays submittable until a submission completes or a new preview is
// built.
func DismissPreview(sessions *copier.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		session.DismissPreview()
		w.WriteHeader(http.StatusNoContent)
	}
}

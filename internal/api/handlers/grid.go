package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rate-copy-manager/backend/internal/api/middleware"
	"github.com/rate-copy-manager/backend/internal/copier"
)

type BuildGridRequest struct {
	RoomTypeIDs []string `json:"roomTypeIDs"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
}

type GridResponse struct {
	Entries       []copier.GridEntry `json:"entries"`
	SelectedCount int                `json:"selectedCount"`
	Years         []int              `json:"years"`
}

// writeGrid renders the grid from a snapshot taken under the session lock,
// so the encoder never touches the live selection maps while another
// request mutates them.
func writeGrid(w http.ResponseWriter, session *copier.Session, grid *copier.SelectionGrid) {
	session.Lock()
	entries, count := grid.Snapshot()
	session.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GridResponse{
		Entries:       entries,
		SelectedCount: count,
		Years:         copier.GridYears,
	})
}

// BuildGrid loads source rates for the requested room types and date range
// into a fresh selection grid, replacing any previous grid of the session.
func BuildGrid(sessions *copier.Store, builder *copier.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		var req BuildGridRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		grid, err := builder.BuildGrid(r.Context(), session.ID, session.Creds, req.RoomTypeIDs, req.StartDate, req.EndDate)
		if err != nil {
			writeBuildError(w, err)
			return
		}

		session.SetGrid(grid)
		writeGrid(w, session, grid)
	}
}

// GetGrid returns the session's current selection grid.
func GetGrid(sessions *copier.Store) http.HandlerFunc {
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

		writeGrid(w, session, grid)
	}
}

type ToggleCellRequest struct {
	RoomTypeID string `json:"roomTypeID"`
	Date       string `json:"date"`
	Year       int    `json:"year"`
	Selected   bool   `json:"selected"`
}

// ToggleGridCell sets one (room type, date, year) selection flag.
func ToggleGridCell(sessions *copier.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		var req ToggleCellRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		grid := session.Grid()
		if grid == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No grid loaded for this session")
			return
		}

		session.Lock()
		toggled := grid.Toggle(req.RoomTypeID, req.Date, req.Year, req.Selected)
		session.Unlock()

		if !toggled {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No selectable cell for that room type, date and year")
			return
		}

		writeGrid(w, session, grid)
	}
}

type BulkSelectRequest struct {
	Mode copier.SelectionMode `json:"mode"`
}

// BulkSelectGrid applies one of the bulk selection operators:
// all, none, weekends, weekdays.
func BulkSelectGrid(sessions *copier.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		var req BulkSelectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		grid := session.Grid()
		if grid == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No grid loaded for this session")
			return
		}

		session.Lock()
		err := grid.BulkSelect(req.Mode)
		session.Unlock()

		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		writeGrid(w, session, grid)
	}
}

type GridPointerRequest struct {
	Action     string `json:"action"` // down, enter, up
	RoomTypeID string `json:"roomTypeID,omitempty"`
	Date       string `json:"date,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// GridPointer drives the drag-to-select state machine. A "down" on a cell
// toggles it and starts painting its new value; each "enter" while
// dragging paints the entered cell; "up" ends the drag.
func GridPointer(sessions *copier.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		var req GridPointerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		grid := session.Grid()
		if grid == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No grid loaded for this session")
			return
		}

		session.Lock()
		drag := session.Drag()
		switch req.Action {
		case "down":
			entry, found := grid.Entry(req.RoomTypeID, req.Date)
			if !found {
				session.Unlock()
				middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No selectable cell for that room type and date")
				return
			}
			value := !entry.Selected[req.Year]
			// The drag only starts once the press actually lands on a cell;
			// a year outside the grid columns must not leave a stuck drag.
			if !grid.Toggle(req.RoomTypeID, req.Date, req.Year, value) {
				session.Unlock()
				middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No selectable cell for that room type, date and year")
				return
			}
			drag.PointerDown(value)

		case "enter":
			if value, active := drag.PointerEnter(); active {
				grid.Toggle(req.RoomTypeID, req.Date, req.Year, value)
			}

		case "up":
			drag.PointerUp()

		default:
			session.Unlock()
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "action must be down, enter or up")
			return
		}
		session.Unlock()

		writeGrid(w, session, grid)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rate-copy-manager/backend/internal/api/middleware"
	"github.com/rate-copy-manager/backend/internal/copier"
	"github.com/rate-copy-manager/backend/internal/pms"
)

// bearerTokenHeader carries the PMS access token, supplied by the user and
// never stored outside the session.
const bearerTokenHeader = "X-Bearer-Token"

// RoomTypeLister fetches the room types of a property.
// Implemented by *pms.Client.
type RoomTypeLister interface {
	GetRoomTypes(ctx context.Context, creds pms.Credentials) ([]pms.RoomType, error)
}

type CreateSessionRequest struct {
	PropertyID string `json:"propertyID"`
}

type CreateSessionResponse struct {
	SessionID string         `json:"sessionID"`
	RoomTypes []pms.RoomType `json:"roomTypes"`
}

// CreateSession validates the credentials, fetches the property's room
// types and opens a new session owning all further state of this
// interaction.
func CreateSession(sessions *copier.Store, rooms RoomTypeLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		creds := pms.Credentials{
			PropertyID: req.PropertyID,
			Token:      r.Header.Get(bearerTokenHeader),
		}

		if creds.PropertyID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "propertyID is required")
			return
		}
		if creds.Token == "" {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Bearer token is required")
			return
		}

		roomTypes, err := rooms.GetRoomTypes(r.Context(), creds)
		if err != nil {
			middleware.WriteError(w, http.StatusBadGateway, middleware.ErrInternalError, "Failed to load room types: "+err.Error())
			return
		}

		session := sessions.Create(creds)
		session.SetRoomTypes(roomTypes)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CreateSessionResponse{
			SessionID: session.ID,
			RoomTypes: roomTypes,
		})
	}
}

// GetRoomTypes returns the room types cached at session creation.
func GetRoomTypes(sessions *copier.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		roomTypes := session.RoomTypes()
		if roomTypes == nil {
			roomTypes = []pms.RoomType{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(roomTypes)
	}
}

// requireSession resolves the {id} path variable into a live session and
// writes a 404 when it is unknown or expired.
func requireSession(w http.ResponseWriter, r *http.Request, sessions *copier.Store) (*copier.Session, bool) {
	id := mux.Vars(r)["id"]

	session, ok := sessions.Get(id)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Session not found or expired")
		return nil, false
	}
	return session, true
}

package copier

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rate-copy-manager/backend/internal/pms"
)

// ErrSubmissionInProgress is returned when a submission is started while
// another one is still running for the same session.
var ErrSubmissionInProgress = errors.New("a submission is already in progress")

// Session owns all state of one user interaction with one property: the
// credentials captured at creation, the cached room types, the selection
// grid, and the pending batch. Nothing is shared across sessions.
type Session struct {
	ID    string
	Creds pms.Credentials

	mu         sync.Mutex
	roomTypes  []pms.RoomType
	grid       *SelectionGrid
	drag       DragSelector
	pending    []Operation
	submitting bool
	lastActive time.Time
}

func newSession(creds pms.Credentials) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Creds:      creds,
		lastActive: time.Now(),
	}
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

// SetRoomTypes caches the property's room types for the session lifetime.
func (s *Session) SetRoomTypes(roomTypes []pms.RoomType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomTypes = roomTypes
	s.touch()
}

// RoomTypes returns the cached room types.
func (s *Session) RoomTypes() []pms.RoomType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomTypes
}

// RoomTypeName resolves a room type ID to its display name, falling back
// to the ID itself.
func (s *Session) RoomTypeName(roomTypeID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rt := range s.roomTypes {
		if rt.RoomTypeID == roomTypeID {
			return rt.RoomTypeName
		}
	}
	return roomTypeID
}

// SetGrid replaces the selection grid, resetting any drag in progress.
func (s *Session) SetGrid(grid *SelectionGrid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = grid
	s.drag = DragSelector{}
	s.touch()
}

// Grid returns the current selection grid, which may be nil.
func (s *Session) Grid() *SelectionGrid {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.grid
}

// Drag returns the drag-select state machine for the grid.
func (s *Session) Drag() *DragSelector {
	return &s.drag
}

// Lock takes the session mutex for a multi-step grid mutation.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session mutex.
func (s *Session) Unlock() { s.mu.Unlock() }

// CreatePreview replaces the pending batch with a fresh operation list.
// Always a full replace, never a merge.
func (s *Session) CreatePreview(operations []Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = operations
	s.touch()
}

// UpdateRate overrides the rate amount of one pending operation. The raw
// value comes straight from an interactive edit: anything that does not
// parse as a non-negative number is ignored and the stored amount kept.
// Returns the operation as stored and whether the index was valid.
func (s *Session) UpdateRate(index int, raw string) (Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if index < 0 || index >= len(s.pending) {
		return Operation{}, false
	}

	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount < 0 {
		return s.pending[index], true
	}

	op := &s.pending[index]
	op.RateAmount = amount
	op.RateData.SetAmount(amount)
	return *op, true
}

// DismissPreview closes the preview surface. The pending batch is kept on
// purpose: the user can dismiss the dialog and still submit afterwards.
// Only a completed submission or a fresh preview discards it.
func (s *Session) DismissPreview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
}

// Pending returns a snapshot of the pending batch.
func (s *Session) Pending() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return append([]Operation(nil), s.pending...)
}

// ClearPending discards the pending batch after a completed submission.
func (s *Session) ClearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	if s.grid != nil {
		s.grid.ClearSelections()
	}
	s.touch()
}

// BeginSubmission marks the session busy. Only one submission flow may run
// at a time per session.
func (s *Session) BeginSubmission() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionInProgress
	}
	s.submitting = true
	s.touch()
	return nil
}

// EndSubmission clears the busy flag.
func (s *Session) EndSubmission() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.touch()
}

// IdleSince returns the time of the last session activity.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Store holds the live sessions keyed by ID.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewStore creates a session store. Sessions idle longer than ttl are
// removed by PruneIdle.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a new session for the given credentials.
func (st *Store) Create(creds pms.Credentials) *Session {
	session := newSession(creds)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[session.ID] = session
	return session
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	session, ok := st.sessions[id]
	return session, ok
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// PruneIdle removes sessions idle longer than the store TTL and returns
// how many were removed. Sessions mid-submission are skipped.
func (st *Store) PruneIdle() int {
	cutoff := time.Now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	pruned := 0
	for id, session := range st.sessions {
		session.mu.Lock()
		idle := session.lastActive.Before(cutoff) && !session.submitting
		session.mu.Unlock()

		if idle {
			delete(st.sessions, id)
			pruned++
		}
	}
	return pruned
}

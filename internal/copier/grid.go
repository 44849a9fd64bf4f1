package copier

import (
	"errors"

	"github.com/rate-copy-manager/backend/internal/pms"
)

// GridYears are the target-year columns of the selection grid.
var GridYears = []int{2026, 2027, 2028, 2029}

// SelectionMode names a bulk selection operator on the grid.
type SelectionMode string

const (
	SelectAll      SelectionMode = "all"
	SelectNone     SelectionMode = "none"
	SelectWeekends SelectionMode = "weekends"
	SelectWeekdays SelectionMode = "weekdays"
)

// ErrUnknownSelectionMode is returned for an unrecognized bulk operator.
var ErrUnknownSelectionMode = errors.New("unknown selection mode")

// GridEntry is one (room type, source date) cell row of the selection grid.
// An entry exists only when a source rate was found for the pair.
type GridEntry struct {
	RoomTypeID string       `json:"roomTypeID"`
	Date       string       `json:"date"`
	Weekend    bool         `json:"weekend"`
	RateAmount float64      `json:"rateAmount"`
	Selected   map[int]bool `json:"selected"`
	RateData   pms.RateData `json:"-"`
}

// SelectionGrid tracks per-year selection flags across (room type, date)
// entries. Entries keep their insertion order: grouped by room type, dates
// ascending within each, which fixes the order of the operations built
// from the grid.
type SelectionGrid struct {
	entries []*GridEntry
	index   map[string]*GridEntry
}

// NewSelectionGrid creates an empty grid.
func NewSelectionGrid() *SelectionGrid {
	return &SelectionGrid{
		index: make(map[string]*GridEntry),
	}
}

func gridKey(roomTypeID, date string) string {
	return roomTypeID + "|" + date
}

// Add appends an entry with all year flags cleared. Adding the same
// (room type, date) pair twice replaces the rate but keeps the flags.
func (g *SelectionGrid) Add(roomTypeID, date string, weekend bool, rate pms.RateData) {
	if existing, ok := g.index[gridKey(roomTypeID, date)]; ok {
		existing.RateAmount = rate.Amount()
		existing.RateData = rate
		return
	}

	selected := make(map[int]bool, len(GridYears))
	for _, year := range GridYears {
		selected[year] = false
	}

	entry := &GridEntry{
		RoomTypeID: roomTypeID,
		Date:       date,
		Weekend:    weekend,
		RateAmount: rate.Amount(),
		Selected:   selected,
		RateData:   rate,
	}

	g.entries = append(g.entries, entry)
	g.index[gridKey(roomTypeID, date)] = entry
}

// Entries returns the grid rows in insertion order.
func (g *SelectionGrid) Entries() []*GridEntry {
	return g.entries
}

// Entry returns the row for a (room type, date) pair, if present.
func (g *SelectionGrid) Entry(roomTypeID, date string) (*GridEntry, bool) {
	entry, ok := g.index[gridKey(roomTypeID, date)]
	return entry, ok
}

// Toggle sets one year flag. Returns false when the cell does not exist,
// either because the pair has no rate or the year is not a grid column.
func (g *SelectionGrid) Toggle(roomTypeID, date string, year int, selected bool) bool {
	entry, ok := g.index[gridKey(roomTypeID, date)]
	if !ok {
		return false
	}
	if _, ok := entry.Selected[year]; !ok {
		return false
	}

	entry.Selected[year] = selected
	return true
}

// BulkSelect applies one of the bulk operators. "weekends" and "weekdays"
// turn matching rows on without touching the rest; "all" and "none" set
// every flag.
func (g *SelectionGrid) BulkSelect(mode SelectionMode) error {
	switch mode {
	case SelectAll:
		g.setAll(true)
	case SelectNone:
		g.setAll(false)
	case SelectWeekends:
		g.setWhere(true, true)
	case SelectWeekdays:
		g.setWhere(false, true)
	default:
		return ErrUnknownSelectionMode
	}
	return nil
}

func (g *SelectionGrid) setAll(selected bool) {
	for _, entry := range g.entries {
		for _, year := range GridYears {
			entry.Selected[year] = selected
		}
	}
}

func (g *SelectionGrid) setWhere(weekend, selected bool) {
	for _, entry := range g.entries {
		if entry.Weekend != weekend {
			continue
		}
		for _, year := range GridYears {
			entry.Selected[year] = selected
		}
	}
}

// Snapshot returns value copies of the grid rows with their selection maps
// duplicated, plus the count of set flags. Callers take it under the owning
// session's lock and can then render it after the lock is released, while
// other requests keep mutating the live grid.
func (g *SelectionGrid) Snapshot() ([]GridEntry, int) {
	entries := make([]GridEntry, 0, len(g.entries))
	count := 0
	for _, entry := range g.entries {
		copied := *entry
		copied.Selected = make(map[int]bool, len(entry.Selected))
		for year, on := range entry.Selected {
			copied.Selected[year] = on
			if on {
				count++
			}
		}
		entries = append(entries, copied)
	}
	return entries, count
}

// ClearSelections turns every flag off, keeping the loaded rates.
func (g *SelectionGrid) ClearSelections() {
	g.setAll(false)
}

// SelectedCount returns the number of set (entry, year) flags.
func (g *SelectionGrid) SelectedCount() int {
	count := 0
	for _, entry := range g.entries {
		for _, on := range entry.Selected {
			if on {
				count++
			}
		}
	}
	return count
}

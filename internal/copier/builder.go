package copier

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/rate-copy-manager/backend/internal/align"
	"github.com/rate-copy-manager/backend/internal/pms"
	"github.com/rate-copy-manager/backend/internal/websocket"
)

// Validation errors raised before any network call is issued.
var (
	ErrNoRoomTypes = errors.New("at least one room type is required")
	ErrNoYears     = errors.New("at least one target year is required")
	ErrNoDateRange = errors.New("start and end dates are required")
)

// RateFetcher looks up the rate for one room type on one date.
// Implemented by *pms.Client.
type RateFetcher interface {
	GetRate(ctx context.Context, creds pms.Credentials, roomTypeID, date string) (pms.RateData, error)
}

// Builder expands user selections into ordered operation lists.
type Builder struct {
	rates       RateFetcher
	broadcaster *websocket.EventBroadcaster
}

// NewBuilder creates a batch builder. hub may be nil; progress events are
// then skipped.
func NewBuilder(rates RateFetcher, hub *websocket.Hub) *Builder {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Builder{
		rates:       rates,
		broadcaster: broadcaster,
	}
}

// BuildFromRange expands (room types x date range x target years) into an
// operation list, fetching each source rate once per (room type, date) pair.
// Pairs with no rate are skipped silently; a fetch failure is logged and
// treated the same way. An empty result is not an error.
//
// Order is deterministic: room types in the given order, dates ascending,
// years ascending.
func (b *Builder) BuildFromRange(ctx context.Context, sessionID string, creds pms.Credentials, roomTypeIDs []string, years []int, startDate, endDate string) ([]Operation, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if len(roomTypeIDs) == 0 {
		return nil, ErrNoRoomTypes
	}
	if len(years) == 0 {
		return nil, ErrNoYears
	}

	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	sortedYears := append([]int(nil), years...)
	sort.Ints(sortedYears)

	dates := align.DateRange(start, end)
	total := len(roomTypeIDs) * len(dates)
	fetched := 0

	var operations []Operation
	for _, roomTypeID := range roomTypeIDs {
		for _, date := range dates {
			dateStr := align.FormatDate(date)

			rate, err := b.rates.GetRate(ctx, creds, roomTypeID, dateStr)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Printf("Rate lookup failed for roomType %s on %s: %v", roomTypeID, dateStr, err)
				rate = nil
			}

			fetched++
			b.broadcaster.BroadcastBatchBuildProgress(sessionID, roomTypeID, dateStr, fetched, total, rate != nil)

			if rate == nil {
				continue
			}

			operations = append(operations, expand(roomTypeID, date, rate, sortedYears)...)
		}
	}

	return operations, nil
}

// BuildFromGrid expands a selection grid into an operation list: one
// operation per selected (entry, year) flag, grouped by the grid's entry
// order with years ascending.
func (b *Builder) BuildFromGrid(grid *SelectionGrid) []Operation {
	if grid == nil {
		return nil
	}

	var operations []Operation
	for _, entry := range grid.Entries() {
		date, err := align.ParseDate(entry.Date)
		if err != nil {
			continue
		}

		var selected []int
		for _, year := range GridYears {
			if entry.Selected[year] {
				selected = append(selected, year)
			}
		}
		if len(selected) == 0 {
			continue
		}

		operations = append(operations, expand(entry.RoomTypeID, date, entry.RateData, selected)...)
	}

	return operations
}

// BuildGrid fetches rates for every (room type, date) pair and returns a
// selection grid containing an entry for each pair where a rate exists.
func (b *Builder) BuildGrid(ctx context.Context, sessionID string, creds pms.Credentials, roomTypeIDs []string, startDate, endDate string) (*SelectionGrid, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if len(roomTypeIDs) == 0 {
		return nil, ErrNoRoomTypes
	}

	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	dates := align.DateRange(start, end)
	total := len(roomTypeIDs) * len(dates)
	fetched := 0

	grid := NewSelectionGrid()
	for _, roomTypeID := range roomTypeIDs {
		for _, date := range dates {
			dateStr := align.FormatDate(date)

			rate, err := b.rates.GetRate(ctx, creds, roomTypeID, dateStr)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Printf("Rate lookup failed for roomType %s on %s: %v", roomTypeID, dateStr, err)
				rate = nil
			}

			fetched++
			b.broadcaster.BroadcastBatchBuildProgress(sessionID, roomTypeID, dateStr, fetched, total, rate != nil)

			if rate == nil {
				continue
			}

			grid.Add(roomTypeID, dateStr, align.IsWeekend(date), rate)
		}
	}

	return grid, nil
}

// expand emits one operation per target year for a fetched rate. Each
// operation gets its own payload copy so later per-operation edits stay
// independent.
func expand(roomTypeID string, sourceDate time.Time, rate pms.RateData, years []int) []Operation {
	amount := rate.Amount()

	operations := make([]Operation, 0, len(years))
	for _, year := range years {
		targetDate := align.AlignToYear(sourceDate, year)
		operations = append(operations, Operation{
			RoomTypeID: roomTypeID,
			SourceDate: align.FormatDate(sourceDate),
			TargetDate: align.FormatDate(targetDate),
			TargetYear: year,
			RateAmount: amount,
			RateData:   rate.Clone(),
		})
	}

	return operations
}

func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	if startDate == "" || endDate == "" {
		return time.Time{}, time.Time{}, ErrNoDateRange
	}

	start, err := align.ParseDate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, ErrNoDateRange
	}

	end, err := align.ParseDate(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, ErrNoDateRange
	}

	return start, end, nil
}

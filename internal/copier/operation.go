// Package copier implements the rate copy workflow: expanding a selection
// into copy operations, holding the editable pending batch, and submitting
// it against the PMS API one operation at a time.
package copier

import "github.com/rate-copy-manager/backend/internal/pms"

// Operation is one unit of work: copy the rate of one room type on one
// source date to the aligned date in one target year.
type Operation struct {
	RoomTypeID string       `json:"roomTypeID"`
	SourceDate string       `json:"sourceDate"`
	TargetDate string       `json:"targetDate"`
	TargetYear int          `json:"targetYear"`
	RateAmount float64      `json:"rateAmount"`
	RateData   pms.RateData `json:"rateData"`
}

// Result is the per-operation outcome of a submission, order-correlated
// with the submitted batch.
type Result struct {
	Success bool     `json:"success"`
	Date    string   `json:"date"`
	Year    int      `json:"year"`
	Rate    *float64 `json:"rate,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Summary aggregates a result list.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
}

// Summarize counts successes across a result list.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Successful++
		}
	}
	return s
}

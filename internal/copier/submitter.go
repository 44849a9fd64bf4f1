package copier

import (
	"context"

	"github.com/rate-copy-manager/backend/internal/pms"
	"github.com/rate-copy-manager/backend/internal/websocket"
)

// unknownError is reported when neither the response body nor the
// transport yielded an error message.
const unknownError = "Unknown error"

// RateCopier submits one copy request to the PMS API.
// Implemented by *pms.Client.
type RateCopier interface {
	CopyRate(ctx context.Context, creds pms.Credentials, req pms.CopyRateRequest) (*pms.CopyRateResponse, error)
}

// Submitter executes a pending batch against the PMS API, one operation at
// a time, and collects a per-operation result without ever aborting the
// batch on an individual failure.
type Submitter struct {
	copier      RateCopier
	broadcaster *websocket.EventBroadcaster
}

// NewSubmitter creates a submitter. hub may be nil; progress events are
// then skipped.
func NewSubmitter(copier RateCopier, hub *websocket.Hub) *Submitter {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Submitter{
		copier:      copier,
		broadcaster: broadcaster,
	}
}

// Submit processes the operations sequentially and returns one result per
// operation, in submission order. Individual failures become failure
// results; only context cancellation stops the run early, in which case
// the partial results are returned alongside the context error and the
// caller must keep the pending batch for retry.
func (s *Submitter) Submit(ctx context.Context, sessionID string, creds pms.Credentials, operations []Operation) ([]Result, error) {
	results := make([]Result, 0, len(operations))

	for _, op := range operations {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := s.submitOne(ctx, creds, op)
		results = append(results, result)

		s.broadcaster.BroadcastSubmissionProgress(
			sessionID, len(results), len(operations),
			op.TargetDate, op.TargetYear, result.Success, result.Error,
		)
	}

	return results, nil
}

func (s *Submitter) submitOne(ctx context.Context, creds pms.Credentials, op Operation) Result {
	// Patch the possibly user-edited amount into the payload copy that
	// goes over the wire.
	data := op.RateData.Clone()
	data.SetAmount(op.RateAmount)

	resp, err := s.copier.CopyRate(ctx, creds, pms.CopyRateRequest{
		PropertyID: creds.PropertyID,
		RoomTypeID: op.RoomTypeID,
		SourceDate: op.SourceDate,
		TargetDate: op.TargetDate,
		Years:      []int{op.TargetYear},
		RateData:   data,
	})
	if err != nil {
		return failure(op, err.Error())
	}

	if !resp.Success || len(resp.Results) == 0 {
		return failure(op, resp.ErrorMessage())
	}

	first := resp.Results[0]
	return Result{
		Success: first.Success,
		Date:    first.Date,
		Year:    first.Year,
		Rate:    first.Rate,
		Error:   first.Error,
	}
}

func failure(op Operation, message string) Result {
	if message == "" {
		message = unknownError
	}
	return Result{
		Success: false,
		Date:    op.TargetDate,
		Year:    op.TargetYear,
		Error:   message,
	}
}

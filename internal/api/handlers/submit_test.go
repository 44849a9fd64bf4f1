package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rate-copy-manager/backend/internal/copier"
	"github.com/rate-copy-manager/backend/internal/pms"
	"github.com/rate-copy-manager/backend/internal/storage/models"
)

func submitEnv(rc *fakeCopier) *testEnv {
	return newTestEnv(&fakeRooms{}, &fakeRates{rates: map[string]pms.RateData{
		"rt-A|2024-06-15": {"rate": 120.0},
	}}, rc)
}

func stageBatch(t *testing.T, env *testEnv, sessionID string) {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/preview", CreatePreviewRequest{
		RoomTypeIDs: []string{"rt-A"},
		Years:       []int{2026, 2027},
		StartDate:   "2024-06-15",
		EndDate:     "2024-06-15",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmit(t *testing.T) {
	rc := &fakeCopier{}
	env := submitEnv(rc)
	session := env.openSession(t)
	stageBatch(t, env, session.ID)

	rec := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/submit", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[SubmitResponse](t, rec)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Equal(t, 2, resp.Summary.Successful)
	assert.True(t, resp.Results[0].Success)
	assert.Equal(t, "2026-06-13", resp.Results[0].Date)
	assert.Equal(t, 2026, resp.Results[0].Year)

	// One upstream call per operation, in batch order.
	require.Len(t, rc.calls, 2)
	assert.Equal(t, "prop-1", rc.calls[0].PropertyID)
	assert.Equal(t, []int{2026}, rc.calls[0].Years)
	assert.Equal(t, []int{2027}, rc.calls[1].Years)

	// A completed run consumes the batch.
	assert.Empty(t, session.Pending())
}

func TestSubmitPartialFailure(t *testing.T) {
	rc := &fakeCopier{fail: map[string]string{"2027-06-12": "rate plan closed"}}
	env := submitEnv(rc)
	session := env.openSession(t)
	stageBatch(t, env, session.ID)

	rec := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/submit", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[SubmitResponse](t, rec)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Summary.Successful)

	failed := resp.Results[1]
	assert.False(t, failed.Success)
	assert.Equal(t, "2027-06-12", failed.Date)
	assert.Equal(t, 2027, failed.Year)
	assert.Equal(t, "rate plan closed", failed.Error)

	// Failures do not keep the batch around; the run completed.
	assert.Empty(t, session.Pending())
}

func TestSubmitUnknownError(t *testing.T) {
	rc := &fakeCopier{fail: map[string]string{"2026-06-13": "", "2027-06-12": ""}}
	env := submitEnv(rc)
	session := env.openSession(t)
	stageBatch(t, env, session.ID)

	rec := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/submit", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[SubmitResponse](t, rec)
	assert.Equal(t, 0, resp.Summary.Successful)
	assert.Equal(t, "Unknown error", resp.Results[0].Error)
}

func TestSubmitEmptyBatch(t *testing.T) {
	env := submitEnv(&fakeCopier{})
	session := env.openSession(t)

	rec := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/submit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeRecorder struct {
	records []models.SubmissionRecord
	ctxErrs []error
}

func (f *fakeRecorder) Record(ctx context.Context, rec models.SubmissionRecord) error {
	f.records = append(f.records, rec)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return nil
}

// A client that drops the connection as the run finishes cancels the
// request context; the audit rows must still all be written.
func TestSubmitRecordsHistoryAfterDisconnect(t *testing.T) {
	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rc := &fakeCopier{onCall: func(call int) {
		if call == 2 {
			cancel()
		}
	}}
	recorder := &fakeRecorder{}

	sessions := copier.NewStore(time.Hour)
	builder := copier.NewBuilder(&fakeRates{rates: map[string]pms.RateData{
		"rt-A|2024-06-15": {"rate": 120.0},
	}}, nil)
	submitter := copier.NewSubmitter(rc, nil)

	r := mux.NewRouter()
	r.HandleFunc("/api/sessions/{id}/preview", CreatePreview(sessions, builder)).Methods("POST")
	r.HandleFunc("/api/sessions/{id}/submit", Submit(sessions, submitter, recorder, nil)).Methods("POST")

	session := sessions.Create(pms.Credentials{PropertyID: "prop-1", Token: "tok"})

	body, err := json.Marshal(CreatePreviewRequest{
		RoomTypeIDs: []string{"rt-A"},
		Years:       []int{2026, 2027},
		StartDate:   "2024-06-15",
		EndDate:     "2024-06-15",
	})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/preview", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/submit", nil).WithContext(reqCtx)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, recorder.records, 2)
	for _, ctxErr := range recorder.ctxErrs {
		assert.NoError(t, ctxErr)
	}
	assert.Equal(t, 2026, recorder.records[0].TargetYear)
	assert.Equal(t, 2027, recorder.records[1].TargetYear)
}

func TestSubmitUsesEditedAmount(t *testing.T) {
	rc := &fakeCopier{}
	env := submitEnv(rc)
	session := env.openSession(t)
	stageBatch(t, env, session.ID)

	rec := env.do(t, http.MethodPatch, "/api/sessions/"+session.ID+"/preview/operations/0",
		UpdateRateRequest{Rate: "200"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, rc.calls, 2)
	assert.Equal(t, 200.0, rc.calls[0].RateData.Amount())
	assert.Equal(t, 120.0, rc.calls[1].RateData.Amount())
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rate-copy-manager/backend/internal/copier"
	"github.com/rate-copy-manager/backend/internal/pms"
)

// gridEnv serves rates for rt-A across a Friday-to-Monday window.
func gridEnv() *testEnv {
	return newTestEnv(&fakeRooms{}, &fakeRates{rates: map[string]pms.RateData{
		"rt-A|2024-06-14": {"rate": 100.0}, // Friday
		"rt-A|2024-06-15": {"rate": 110.0}, // Saturday
		"rt-A|2024-06-16": {"rate": 110.0}, // Sunday
		"rt-A|2024-06-17": {"rate": 100.0}, // Monday
	}}, &fakeCopier{})
}

func buildGrid(t *testing.T, env *testEnv, sessionID string) GridResponse {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/grid", BuildGridRequest{
		RoomTypeIDs: []string{"rt-A"},
		StartDate:   "2024-06-14",
		EndDate:     "2024-06-17",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody[GridResponse](t, rec)
}

func TestBuildGrid(t *testing.T) {
	env := gridEnv()
	session := env.openSession(t)

	resp := buildGrid(t, env, session.ID)

	require.Len(t, resp.Entries, 4)
	assert.Equal(t, 0, resp.SelectedCount)
	assert.Equal(t, copier.GridYears, resp.Years)

	assert.False(t, resp.Entries[0].Weekend) // Friday
	assert.True(t, resp.Entries[1].Weekend)  // Saturday
	assert.True(t, resp.Entries[2].Weekend)  // Sunday
	assert.False(t, resp.Entries[3].Weekend) // Monday
}

func TestGetGridWithoutBuild(t *testing.T) {
	env := gridEnv()
	session := env.openSession(t)

	rec := env.do(t, http.MethodGet, "/api/sessions/"+session.ID+"/grid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleGridCell(t *testing.T) {
	env := gridEnv()
	session := env.openSession(t)
	buildGrid(t, env, session.ID)

	rec := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/toggle", ToggleCellRequest{
		RoomTypeID: "rt-A", Date: "2024-06-15", Year: 2027, Selected: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[GridResponse](t, rec).SelectedCount)

	// Cells without a loaded rate do not exist.
	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/toggle", ToggleCellRequest{
		RoomTypeID: "rt-A", Date: "2024-06-18", Year: 2027, Selected: true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Years outside the grid columns do not exist either.
	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/toggle", ToggleCellRequest{
		RoomTypeID: "rt-A", Date: "2024-06-15", Year: 2031, Selected: true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkSelectGrid(t *testing.T) {
	env := gridEnv()
	session := env.openSession(t)
	buildGrid(t, env, session.ID)

	rec := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/select",
		BulkSelectRequest{Mode: copier.SelectWeekends})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2*len(copier.GridYears), decodeBody[GridResponse](t, rec).SelectedCount)

	// Weekdays add to the weekend selection instead of replacing it.
	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/select",
		BulkSelectRequest{Mode: copier.SelectWeekdays})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4*len(copier.GridYears), decodeBody[GridResponse](t, rec).SelectedCount)

	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/select",
		BulkSelectRequest{Mode: copier.SelectNone})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[GridResponse](t, rec).SelectedCount)

	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/select",
		BulkSelectRequest{Mode: "sundays"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGridPointerDrag(t *testing.T) {
	env := gridEnv()
	session := env.openSession(t)
	buildGrid(t, env, session.ID)

	// Press on an unselected cell: it turns on and the drag paints "on".
	rec := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/pointer", GridPointerRequest{
		Action: "down", RoomTypeID: "rt-A", Date: "2024-06-14", Year: 2026,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[GridResponse](t, rec).SelectedCount)

	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/pointer", GridPointerRequest{
		Action: "enter", RoomTypeID: "rt-A", Date: "2024-06-15", Year: 2026,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[GridResponse](t, rec).SelectedCount)

	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/pointer",
		GridPointerRequest{Action: "up"})
	require.Equal(t, http.StatusOK, rec.Code)

	// After release, enters no longer paint.
	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/pointer", GridPointerRequest{
		Action: "enter", RoomTypeID: "rt-A", Date: "2024-06-16", Year: 2026,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[GridResponse](t, rec).SelectedCount)

	// Pressing a selected cell starts an "off" drag.
	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/pointer", GridPointerRequest{
		Action: "down", RoomTypeID: "rt-A", Date: "2024-06-14", Year: 2026,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/pointer", GridPointerRequest{
		Action: "enter", RoomTypeID: "rt-A", Date: "2024-06-15", Year: 2026,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[GridResponse](t, rec).SelectedCount)
}

func TestGridPointerDownUnknownYear(t *testing.T) {
	env := gridEnv()
	session := env.openSession(t)
	buildGrid(t, env, session.ID)

	// A press on a year outside the grid columns is rejected and must not
	// start a drag.
	rec := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/pointer", GridPointerRequest{
		Action: "down", RoomTypeID: "rt-A", Date: "2024-06-14", Year: 2031,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/pointer", GridPointerRequest{
		Action: "enter", RoomTypeID: "rt-A", Date: "2024-06-15", Year: 2026,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[GridResponse](t, rec).SelectedCount)
}

// Drag bursts fire toggles while other requests render the grid; the
// renders must never touch the live selection maps mid-write.
func TestGridConcurrentToggleAndRead(t *testing.T) {
	env := gridEnv()
	session := env.openSession(t)
	buildGrid(t, env, session.ID)

	togglePath := "/api/sessions/" + session.ID + "/grid/toggle"
	getPath := "/api/sessions/" + session.ID + "/grid"

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		body, err := json.Marshal(ToggleCellRequest{
			RoomTypeID: "rt-A",
			Date:       "2024-06-15",
			Year:       copier.GridYears[i%len(copier.GridYears)],
			Selected:   i%2 == 0,
		})
		require.NoError(t, err)

		wg.Add(2)
		go func(body []byte) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, togglePath, bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			env.router.ServeHTTP(httptest.NewRecorder(), req)
		}(body)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, getPath, nil)
			env.router.ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	rec := env.do(t, http.MethodGet, getPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[GridResponse](t, rec)
	assert.Len(t, resp.Entries, 4)
	assert.GreaterOrEqual(t, resp.SelectedCount, 0)
	assert.LessOrEqual(t, resp.SelectedCount, 4*len(copier.GridYears))
}

func TestCreatePreviewFromGrid(t *testing.T) {
	env := gridEnv()
	session := env.openSession(t)
	buildGrid(t, env, session.ID)

	env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/toggle", ToggleCellRequest{
		RoomTypeID: "rt-A", Date: "2024-06-15", Year: 2027, Selected: true,
	})
	env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/grid/toggle", ToggleCellRequest{
		RoomTypeID: "rt-A", Date: "2024-06-15", Year: 2026, Selected: true,
	})

	rec := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/preview/from-grid", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[PreviewResponse](t, rec)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, 2026, resp.Operations[0].TargetYear)
	assert.Equal(t, "2026-06-13", resp.Operations[0].TargetDate)
	assert.Equal(t, 2027, resp.Operations[1].TargetYear)
	assert.Equal(t, 110.0, resp.Operations[0].RateAmount)
}

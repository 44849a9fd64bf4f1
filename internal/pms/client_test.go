package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCreds() Credentials {
	return Credentials{PropertyID: "12345", Token: "test-token"}
}

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	return client, srv
}

func TestCredentials_Validate(t *testing.T) {
	assert.NoError(t, testCreds().Validate())
	assert.ErrorIs(t, Credentials{Token: "t"}.Validate(), ErrMissingProperty)
	assert.ErrorIs(t, Credentials{PropertyID: "1"}.Validate(), ErrMissingToken)
}

func TestGetRoomTypes(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getRoomTypes", r.URL.Path)
		assert.Equal(t, "12345", r.URL.Query().Get("propertyID"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]string{
				{"roomTypeID": "A", "roomTypeName": "King Suite"},
				{"roomTypeID": "B", "roomTypeName": "Double Queen"},
			},
		})
	}))
	defer srv.Close()

	roomTypes, err := client.GetRoomTypes(context.Background(), testCreds())

	require.NoError(t, err)
	require.Len(t, roomTypes, 2)
	assert.Equal(t, "King Suite", roomTypes[0].RoomTypeName)
}

func TestGetRoomTypes_APIFailure(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "invalid token"})
	}))
	defer srv.Close()

	_, err := client.GetRoomTypes(context.Background(), testCreds())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestGetRate_ObjectPayload(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getRate", r.URL.Path)
		assert.Equal(t, "2024-06-15", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2024-06-16", r.URL.Query().Get("endDate"))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"rate": 150.0, "rateID": "r1"},
		})
	}))
	defer srv.Close()

	rate, err := client.GetRate(context.Background(), testCreds(), "A", "2024-06-15")

	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 150.0, rate.Amount())
}

func TestGetRate_ListPayloadTakesFirst(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"roomRate": 99.5},
				{"roomRate": 120.0},
			},
		})
	}))
	defer srv.Close()

	rate, err := client.GetRate(context.Background(), testCreds(), "A", "2024-06-15")

	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 99.5, rate.Amount())
}

func TestGetRate_NoRateIsNotAnError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "No rate found for this date"})
	}))
	defer srv.Close()

	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)

	rate, err := client.GetRate(context.Background(), testCreds(), "A", "2024-06-15")

	require.NoError(t, err)
	assert.Nil(t, rate)

	// The reported reason is logged, not silently discarded.
	assert.Contains(t, logged.String(), "No rate found for this date")
}

func TestCopyRate(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/putRate", r.URL.Path)

		var body CopyRateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-06-15", body.SourceDate)
		assert.Equal(t, "2027-06-12", body.TargetDate)
		assert.Equal(t, []int{2027}, body.Years)

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"results": []map[string]any{
				{"success": true, "date": "2027-06-12", "year": 2027, "rate": 150.0},
			},
		})
	}))
	defer srv.Close()

	resp, err := client.CopyRate(context.Background(), testCreds(), CopyRateRequest{
		PropertyID: "12345",
		RoomTypeID: "A",
		SourceDate: "2024-06-15",
		TargetDate: "2027-06-12",
		Years:      []int{2027},
		RateData:   RateData{"rate": 150.0},
	})

	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "2027-06-12", resp.Results[0].Date)
}

func TestCopyRate_HTTPError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := client.CopyRate(context.Background(), testCreds(), CopyRateRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestRateData_AmountPrecedence(t *testing.T) {
	assert.Equal(t, 100.0, RateData{"rate": 100.0, "roomRate": 90.0, "totalRate": 80.0}.Amount())
	assert.Equal(t, 90.0, RateData{"rate": 0.0, "roomRate": 90.0}.Amount())
	assert.Equal(t, 80.0, RateData{"totalRate": 80.0}.Amount())
	assert.Equal(t, 75.5, RateData{"rate": "75.50"}.Amount())
	assert.Equal(t, 0.0, RateData{"minStay": 2.0}.Amount())
	assert.Equal(t, 0.0, RateData(nil).Amount())
}

func TestRateData_SetAmountPatchesPresentKeysOnly(t *testing.T) {
	rd := RateData{"rate": 100.0, "totalRate": 110.0, "minStay": 2.0}

	rd.SetAmount(125.0)

	assert.Equal(t, 125.0, rd["rate"])
	assert.Equal(t, 125.0, rd["totalRate"])
	assert.Equal(t, 2.0, rd["minStay"])
	_, hasRoomRate := rd["roomRate"]
	assert.False(t, hasRoomRate)
}

func TestRateData_CloneIsIndependent(t *testing.T) {
	orig := RateData{"rate": 100.0}
	clone := orig.Clone()
	clone.SetAmount(200.0)

	assert.Equal(t, 100.0, orig["rate"])
	assert.Equal(t, 200.0, clone["rate"])
}

package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/rate-copy-manager/backend/internal/align"
)

// Client is a client for the PMS rate API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new PMS API client.
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// roomTypesResponse is the envelope for getRoomTypes.
type roomTypesResponse struct {
	Success bool       `json:"success"`
	Data    []RoomType `json:"data"`
	Message string     `json:"message"`
}

// GetRoomTypes retrieves all room types for the property.
func (c *Client) GetRoomTypes(ctx context.Context, creds Credentials) ([]RoomType, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{"propertyID": {creds.PropertyID}}

	var resp roomTypesResponse
	if err := c.get(ctx, creds, "/getRoomTypes", query, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("getRoomTypes failed: %s", apiMessage(resp.Message))
	}

	return resp.Data, nil
}

// rateResponse is the envelope for getRate. Data is either a single rate
// object or a list with the wanted rate first.
type rateResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// GetRate retrieves the rate for one room type on one date. Returns
// (nil, nil) when no rate exists for that pair; absence is expected and is
// not an error.
func (c *Client) GetRate(ctx context.Context, creds Credentials, roomTypeID, date string) (RateData, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	start, err := align.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	query := url.Values{
		"propertyID": {creds.PropertyID},
		"roomTypeID": {roomTypeID},
		"startDate":  {date},
		"endDate":    {align.FormatDate(start.AddDate(0, 0, 1))},
	}

	var resp rateResponse
	if err := c.get(ctx, creds, "/getRate", query, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		// A reported failure still means "no rate" for this pair, but the
		// reason should not vanish.
		if resp.Message != "" {
			log.Printf("getRate reported failure for roomType %s on %s: %s", roomTypeID, date, resp.Message)
		}
		return nil, nil
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	// The API returns either an object or an array depending on the plan.
	var single RateData
	if err := json.Unmarshal(resp.Data, &single); err == nil {
		return single, nil
	}

	var list []RateData
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return nil, fmt.Errorf("decoding rate data: %w", err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// CopyRateRequest carries one copy operation to the PMS API.
type CopyRateRequest struct {
	PropertyID string   `json:"propertyID"`
	RoomTypeID string   `json:"roomTypeID"`
	SourceDate string   `json:"date"`
	TargetDate string   `json:"targetDate"`
	Years      []int    `json:"years"`
	RateData   RateData `json:"rateData"`
}

// CopyResult is one per-date outcome inside a copy-rate response.
type CopyResult struct {
	Success bool     `json:"success"`
	Date    string   `json:"date"`
	Year    int      `json:"year"`
	Rate    *float64 `json:"rate,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// CopyRateResponse is the envelope for a copy-rate call.
type CopyRateResponse struct {
	Success bool         `json:"success"`
	Results []CopyResult `json:"results"`
	Error   string       `json:"error"`
	Message string       `json:"message"`
}

// ErrorMessage returns the most specific error text in the response body,
// or the empty string when the body carried none.
func (r CopyRateResponse) ErrorMessage() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}

// CopyRate submits one copy operation. A non-2xx status or transport
// failure is returned as an error; a decoded body with success=false is
// returned to the caller for per-operation reporting.
func (c *Client) CopyRate(ctx context.Context, creds Credentials, reqBody CopyRateRequest) (*CopyRateResponse, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := c.newRequest(ctx, creds, http.MethodPut, "/putRate", "", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, respBody)
	}

	var out CopyRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &out, nil
}

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, creds Credentials, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, creds, http.MethodGet, path, query.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// newRequest creates a new HTTP request with bearer authentication.
func (c *Client) newRequest(ctx context.Context, creds Credentials, method, path, rawQuery string, body io.Reader) (*http.Request, error) {
	u := c.config.BaseURL + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+creds.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func apiMessage(msg string) string {
	if msg == "" {
		return "unknown error from API"
	}
	return msg
}

// Package deltaban provides a Go SDK for the deltaban-server API.
package deltaban

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"deltaban/internal/httpapi"
	"deltaban/internal/util"
)

// Client provides a Go SDK for interacting with the deltaban-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *util.RateLimiter
}

// NewClient creates a new API client. Requests are rate limited to keep a
// misbehaving caller from hammering the server.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    util.NewRateLimiter(600),
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// do sends one request and decodes the JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// CreateSession creates a new calculator session.
func (c *Client) CreateSession(ctx context.Context, stock string, price float64) (*httpapi.SessionJSON, error) {
	var out httpapi.SessionJSON
	err := c.do(ctx, http.MethodPost, "/api/sessions",
		httpapi.CreateSessionRequest{Stock: stock, Price: price}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession retrieves a session with both books.
func (c *Client) GetSession(ctx context.Context, id int64) (*httpapi.SessionJSON, error) {
	var out httpapi.SessionJSON
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/sessions/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions retrieves all sessions, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]httpapi.SessionJSON, error) {
	var out httpapi.SessionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// UpdateSession changes a session's stock and reference price.
func (c *Client) UpdateSession(ctx context.Context, id int64, stock string, price float64) (*httpapi.SessionJSON, error) {
	var out httpapi.SessionJSON
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/sessions/%d", id),
		httpapi.UpdateSessionRequest{Stock: stock, Price: price}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession removes a session and its books.
func (c *Client) DeleteSession(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/sessions/%d", id), nil, nil)
}

// AddPosition appends a position to one side ("base" or "new") of a session.
func (c *Client) AddPosition(ctx context.Context, id int64, side string, req httpapi.AddPositionRequest) (*httpapi.PositionJSON, error) {
	var out httpapi.PositionJSON
	err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("/api/sessions/%d/books/%s/positions", id, side), req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveLastPosition drops the most recently added row from one side.
func (c *Client) RemoveLastPosition(ctx context.Context, id int64, side string) error {
	return c.do(ctx, http.MethodDelete,
		fmt.Sprintf("/api/sessions/%d/books/%s/positions/last", id, side), nil, nil)
}

// ClearBook removes all rows from one side.
func (c *Client) ClearBook(ctx context.Context, id int64, side string) error {
	return c.do(ctx, http.MethodDelete,
		fmt.Sprintf("/api/sessions/%d/books/%s/positions", id, side), nil, nil)
}

// CopyBaseToNew replaces the new book with a copy of the base book.
func (c *Client) CopyBaseToNew(ctx context.Context, id int64) (*httpapi.SessionJSON, error) {
	var out httpapi.SessionJSON
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/sessions/%d/copy", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAssessment computes the assessment for a session's current books.
func (c *Client) GetAssessment(ctx context.Context, id int64) (*httpapi.AssessmentJSON, error) {
	var out httpapi.AssessmentJSON
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/sessions/%d/assessment", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordAssessment computes a session's assessment and writes it to the
// journal.
func (c *Client) RecordAssessment(ctx context.Context, id int64) (*httpapi.AssessmentJSON, error) {
	var out httpapi.AssessmentJSON
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/sessions/%d/record", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Assess runs a stateless assessment over inline books.
func (c *Client) Assess(ctx context.Context, req httpapi.AssessRequest) (*httpapi.AssessmentJSON, error) {
	var out httpapi.AssessmentJSON
	if err := c.do(ctx, http.MethodPost, "/api/assess", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBanList retrieves the securities currently in the ban period.
func (c *Client) GetBanList(ctx context.Context) ([]httpapi.BanEntryJSON, error) {
	var out httpapi.BanListResponse
	if err := c.do(ctx, http.MethodGet, "/api/banlist", nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// GetJournalDates retrieves the journal dates that have recorded assessments.
func (c *Client) GetJournalDates(ctx context.Context) ([]string, error) {
	var out httpapi.DatesResponse
	if err := c.do(ctx, http.MethodGet, "/api/journal/dates", nil, &out); err != nil {
		return nil, err
	}
	return out.Dates, nil
}

// GetJournal retrieves one date's recorded assessments.
func (c *Client) GetJournal(ctx context.Context, date string) (*httpapi.JournalResponse, error) {
	var out httpapi.JournalResponse
	if err := c.do(ctx, http.MethodGet, "/api/journal/"+date, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/calendar"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/storage"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) Sessions(ctx context.Context, start, end time.Time) ([]*models.WorkoutSession, error) {
	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))

	var sessions []*models.WorkoutSession
	if err := c.get(ctx, "/api/v1/sessions", params, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) Records(ctx context.Context, definitionID *uuid.UUID) ([]*models.PersonalRecord, error) {
	params := url.Values{}
	if definitionID != nil {
		params.Set("definition_id", definitionID.String())
	}

	var recs []*models.PersonalRecord
	if err := c.get(ctx, "/api/v1/records", params, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *HTTPClient) Exercises(ctx context.Context) ([]*models.ExerciseDefinition, error) {
	var defs []*models.ExerciseDefinition
	if err := c.get(ctx, "/api/v1/exercises", nil, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func (c *HTTPClient) Baseline(ctx context.Context, definitionID uuid.UUID) (*models.Baseline, error) {
	var b models.Baseline
	if err := c.get(ctx, "/api/v1/exercises/"+definitionID.String()+"/baseline", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *HTTPClient) CalendarMonth(ctx context.Context, year int, month time.Month) (*calendar.MonthView, error) {
	var view calendar.MonthView
	path := "/api/v1/calendar/" + strconv.Itoa(year) + "/" + strconv.Itoa(int(month))
	if err := c.get(ctx, path, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) Stats(ctx context.Context) (*storage.DataStats, error) {
	var stats storage.DataStats
	if err := c.get(ctx, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) LiveSession(ctx context.Context) (*session.Snapshot, error) {
	var snap session.Snapshot
	if err := c.get(ctx, "/api/v1/session", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

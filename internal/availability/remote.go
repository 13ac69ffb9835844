package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"petalz/internal/calendar"
)

// RemoteSource asks an external inventory service for the bookable dates:
//
//	GET {base}/api/v1/availability/{room}?from=YYYY-MM-DD&to=YYYY-MM-DD
//	-> {"dates": ["YYYY-MM-DD", ...]}
type RemoteSource struct {
	baseURL    string
	apiKey     string
	days       int
	location   *time.Location
	now        func() time.Time
	httpClient *http.Client
}

// AvailabilityResponse is the inventory service payload.
type AvailabilityResponse struct {
	Room  string   `json:"room"`
	Dates []string `json:"dates"`
}

// NewRemoteSource constructs a client for baseURL with an optional API key.
func NewRemoteSource(baseURL, apiKey string, days int, loc *time.Location) *RemoteSource {
	if days <= 0 {
		days = DefaultHorizonDays
	}
	return &RemoteSource{
		baseURL:    baseURL,
		apiKey:     apiKey,
		days:       days,
		location:   loc,
		now:        time.Now,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch implements calendar.Source. Dates the service returns outside the
// horizon are dropped.
func (c *RemoteSource) Fetch(ctx context.Context, room string) (calendar.Set, error) {
	from := calendar.Today(c.now(), c.location)
	to := from.AddDays(c.days - 1)
	endpoint := fmt.Sprintf("%s/api/v1/availability/%s?from=%s&to=%s",
		c.baseURL, url.PathEscape(room), url.QueryEscape(from.String()), url.QueryEscape(to.String()))

	var resp AvailabilityResponse
	if err := c.doGet(ctx, endpoint, &resp); err != nil {
		return calendar.Set{}, err
	}

	dates := make([]calendar.Date, 0, len(resp.Dates))
	for _, s := range resp.Dates {
		d, err := calendar.ParseDate(s)
		if err != nil {
			return calendar.Set{}, fmt.Errorf("inventory response: %w", err)
		}
		if d.Before(from) || d.After(to) {
			continue
		}
		dates = append(dates, d)
	}
	return calendar.NewSet(dates...), nil
}

// HealthCheck checks that the inventory service answers.
func (c *RemoteSource) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}

func (c *RemoteSource) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("inventory http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

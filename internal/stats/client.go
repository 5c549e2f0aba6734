// Package stats is the HTTP client for the analytics service. The
// engine uses it only to record public views and to enrich read-side
// event payloads; it never gates a lifecycle decision.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/afisha-api/internal/logger"
)

// DateTimeLayout is the timestamp format of the stats service wire protocol.
const DateTimeLayout = "2006-01-02 15:04:05"

// Client records hits and queries view counts by URI and time range.
type Client interface {
	Hit(ctx context.Context, uri, ip string)
	Views(ctx context.Context, start, end time.Time, uris []string, unique bool) (map[string]int64, error)
}

// HitPayload is the body of a hit submission.
type HitPayload struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

// ViewStat is one row of the stats service response.
type ViewStat struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// HTTPClient talks to a running stats server.
type HTTPClient struct {
	baseURL string
	app     string
	client  *http.Client
	log     *log.Logger
}

// NewHTTPClient creates a stats client for the given base URL.
func NewHTTPClient(baseURL, app string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		app:     app,
		client:  &http.Client{Timeout: timeout},
		log:     logger.Stats(),
	}
}

// Hit records a view of uri from ip. Failures are logged and dropped:
// analytics must never break the request that triggered them.
func (c *HTTPClient) Hit(ctx context.Context, uri, ip string) {
	payload := HitPayload{
		App:       c.app,
		URI:       uri,
		IP:        ip,
		Timestamp: time.Now().Format(DateTimeLayout),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Error("failed to encode hit", "error", err, "uri", uri)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", strings.NewReader(string(body)))
	if err != nil {
		c.log.Error("failed to build hit request", "error", err, "uri", uri)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("stats service unreachable, hit dropped", "error", err, "uri", uri)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.log.Warn("stats service rejected hit", "status", resp.StatusCode, "uri", uri)
		return
	}

	c.log.Debug("hit recorded", "uri", uri, "ip", ip)
}

// Views returns the hit count per URI over [start, end]. When unique is
// true only distinct IPs are counted.
func (c *HTTPClient) Views(ctx context.Context, start, end time.Time, uris []string, unique bool) (map[string]int64, error) {
	params := url.Values{}
	params.Set("start", start.Format(DateTimeLayout))
	params.Set("end", end.Format(DateTimeLayout))
	params.Set("unique", strconv.FormatBool(unique))
	for _, uri := range uris {
		params.Add("uris", uri)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stats request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats service returned status %d", resp.StatusCode)
	}

	var rows []ViewStat
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}

	views := make(map[string]int64, len(rows))
	for _, row := range rows {
		views[row.URI] = row.Hits
	}
	return views, nil
}

// Noop is a stats client that records nothing and reports zero views.
// It backs deployments without a stats server and unit tests.
type Noop struct{}

// Hit implements Client.
func (Noop) Hit(ctx context.Context, uri, ip string) {}

// Views implements Client.
func (Noop) Views(ctx context.Context, start, end time.Time, uris []string, unique bool) (map[string]int64, error) {
	return map[string]int64{}, nil
}

// FromConfig returns an HTTP client when a base URL is configured and
// the no-op client otherwise.
func FromConfig(baseURL, app string, timeout time.Duration) Client {
	if baseURL == "" {
		return Noop{}
	}
	return NewHTTPClient(baseURL, app, timeout)
}

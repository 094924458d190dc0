package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/logtap/logtap/internal/api"
	"github.com/logtap/logtap/internal/constants"
)

// Client is an HTTP client for the logtap API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client. The token of a running server is
// discovered from the state file; it may be empty when auth is disabled.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   discoverToken(),
		httpClient: &http.Client{
			Timeout: constants.DefaultRequestTimeout,
		},
	}
}

// GetStatus gets server status
func (c *Client) GetStatus() (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSubscriptions gets all subscriptions
func (c *Client) GetSubscriptions() (*api.SubscriptionListResponse, error) {
	var resp api.SubscriptionListResponse
	if err := c.get("/api/v1/subscriptions", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSubscription gets a single subscription
func (c *Client) GetSubscription(id string) (*api.SubscriptionResponse, error) {
	var resp api.SubscriptionResponse
	if err := c.get("/api/v1/subscriptions/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartSubscription starts streaming for a subscription
func (c *Client) StartSubscription(id string) error {
	var resp api.SuccessResponse
	return c.post("/api/v1/subscriptions/"+url.PathEscape(id)+"/start", nil, &resp)
}

// StopSubscription stops streaming for a subscription
func (c *Client) StopSubscription(id string) error {
	var resp api.SuccessResponse
	return c.post("/api/v1/subscriptions/"+url.PathEscape(id)+"/stop", nil, &resp)
}

// Pause pauses the stream view
func (c *Client) Pause() error {
	var resp api.SuccessResponse
	return c.post("/api/v1/stream/pause", nil, &resp)
}

// Resume resumes the stream view
func (c *Client) Resume() error {
	var resp api.SuccessResponse
	return c.post("/api/v1/stream/resume", nil, &resp)
}

// GetFilter gets the stored filter criteria
func (c *Client) GetFilter() (*api.FilterResponse, error) {
	var resp api.FilterResponse
	if err := c.get("/api/v1/filter", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetFilter replaces the stored filter criteria
func (c *Client) SetFilter(filter api.FilterResponse) error {
	var resp api.SuccessResponse
	return c.put("/api/v1/filter", filter, &resp)
}

// LogParams contains parameters for log queries
type LogParams struct {
	Levels []string
	Query  string
	Source string
	Last   string
	Limit  int
}

func (p LogParams) values() url.Values {
	query := url.Values{}
	if len(p.Levels) > 0 {
		query.Set("levels", strings.Join(p.Levels, ","))
	}
	if p.Query != "" {
		query.Set("q", p.Query)
	}
	if p.Source != "" {
		query.Set("source", p.Source)
	}
	if p.Last != "" {
		query.Set("last", p.Last)
	}
	if p.Limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", p.Limit))
	}
	return query
}

// GetLogs gets logs with optional filtering
func (c *Client) GetLogs(params LogParams) (*api.LogsResponse, error) {
	path := "/api/v1/logs"
	if query := params.values(); len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp api.LogsResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearLogs empties the log buffers
func (c *Client) ClearLogs() error {
	var resp api.SuccessResponse
	return c.delete("/api/v1/logs", &resp)
}

// StreamLogs streams logs and calls the callback for each entry
func (c *Client) StreamLogs(params LogParams, callback func(api.LogEntryResponse)) error {
	path := "/api/v1/logs/stream"
	if query := params.values(); len(query) > 0 {
		path += "?" + query.Encode()
	}

	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	c.addAuthHeader(req)

	// Streaming never times out
	client := &http.Client{Timeout: 0}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data: ") {
			data := strings.TrimPrefix(line, "data: ")
			var entry api.LogEntryResponse
			if err := json.Unmarshal([]byte(data), &entry); err == nil {
				callback(entry)
			}
		}
	}
}

// StreamLogsChannel streams the unfiltered live log stream through a
// channel. The channel closes when the stream ends.
func (c *Client) StreamLogsChannel() (<-chan api.LogEntryResponse, error) {
	// Verify the server is reachable before handing back a channel
	if _, err := c.GetStatus(); err != nil {
		return nil, err
	}

	ch := make(chan api.LogEntryResponse, 100)
	go func() {
		defer close(ch)
		_ = c.StreamLogs(LogParams{}, func(entry api.LogEntryResponse) {
			ch <- entry
		})
	}()
	return ch, nil
}

// AlertParams contains parameters for alert queries
type AlertParams struct {
	Unread      bool
	Severity    string
	MinSeverity string
}

// GetAlerts gets alerts with optional filtering
func (c *Client) GetAlerts(params AlertParams) (*api.AlertsResponse, error) {
	query := url.Values{}
	if params.Unread {
		query.Set("unread", "true")
	}
	if params.Severity != "" {
		query.Set("severity", params.Severity)
	}
	if params.MinSeverity != "" {
		query.Set("min_severity", params.MinSeverity)
	}

	path := "/api/v1/alerts"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp api.AlertsResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarkAlertRead marks one alert as read
func (c *Client) MarkAlertRead(id string) error {
	var resp api.SuccessResponse
	return c.post("/api/v1/alerts/"+url.PathEscape(id)+"/read", nil, &resp)
}

// MarkAllAlertsRead marks every alert as read
func (c *Client) MarkAllAlertsRead() error {
	var resp api.SuccessResponse
	return c.post("/api/v1/alerts/read_all", nil, &resp)
}

// DismissAlert removes one alert
func (c *Client) DismissAlert(id string) error {
	var resp api.SuccessResponse
	return c.delete("/api/v1/alerts/"+url.PathEscape(id), &resp)
}

// GetStats gets aggregate statistics
func (c *Client) GetStats() (*api.StatsResponse, error) {
	var resp api.StatsResponse
	if err := c.get("/api/v1/stats", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Export downloads logs or alerts in the given format, writing the raw
// body to w
func (c *Client) Export(kind, format string, w io.Writer) error {
	path := fmt.Sprintf("/api/v1/export/%s?format=%s", url.PathEscape(kind), url.QueryEscape(format))

	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.addAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// Shutdown shuts down the server
func (c *Client) Shutdown() error {
	var resp api.SuccessResponse
	return c.post("/api/v1/shutdown", nil, &resp)
}

func (c *Client) get(path string, v any) error {
	return c.do("GET", path, nil, v)
}

func (c *Client) post(path string, body, v any) error {
	return c.do("POST", path, body, v)
}

func (c *Client) put(path string, body, v any) error {
	return c.do("PUT", path, body, v)
}

func (c *Client) delete(path string, v any) error {
	return c.do("DELETE", path, nil, v)
}

func (c *Client) do(method, path string, body, v any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = strings.NewReader(string(data))
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.addAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func decodeError(resp *http.Response) error {
	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("%s: %s", errResp.Code, errResp.Error)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}

// addAuthHeader adds the Authorization header if a token is available
func (c *Client) addAuthHeader(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// Package airtable implements the project registry over the Airtable REST
// API. Every transport failure is absorbed into the repository's failure
// values and logged.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.airtable.com/v0"
	DefaultTimeout = 10 * time.Second

	// maxPages bounds offset pagination on list queries.
	maxPages = 10
)

var errNoAPIKey = errors.New("no Airtable API key configured")

// Config configures the Airtable client.
type Config struct {
	APIKey        string
	BaseID        string
	BaseURL       string
	ClientsTable  string
	ProjectsTable string
	UpdatesTable  string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// APIError is a non-2xx response from Airtable.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("airtable: HTTP %d: %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("airtable: HTTP %d: %s", e.StatusCode, e.Message)
}

type record struct {
	ID     string         `json:"id,omitempty"`
	Fields map[string]any `json:"fields"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// Client is the Airtable record store.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// New creates a client. Empty table names default to Clients, Projects and
// Updates.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ClientsTable == "" {
		cfg.ClientsTable = "Clients"
	}
	if cfg.ProjectsTable == "" {
		cfg.ProjectsTable = "Projects"
	}
	if cfg.UpdatesTable == "" {
		cfg.UpdatesTable = "Updates"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger, now: time.Now}
}

func (c *Client) tableURL(table string) string {
	return c.cfg.BaseURL + "/" + url.PathEscape(c.cfg.BaseID) + "/" + url.PathEscape(table)
}

// list runs a filterByFormula query, following the offset cursor.
func (c *Client) list(ctx context.Context, table, formula string, maxRecords int) ([]record, error) {
	var records []record
	offset := ""
	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("filterByFormula", formula)
		if maxRecords > 0 {
			params.Set("maxRecords", fmt.Sprint(maxRecords))
		}
		if offset != "" {
			params.Set("offset", offset)
		}

		var resp listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL(table)+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, err
		}
		records = append(records, resp.Records...)
		if resp.Offset == "" || (maxRecords > 0 && len(records) >= maxRecords) {
			return records, nil
		}
		offset = resp.Offset
	}
	c.logger.Warn("airtable list truncated", "table", table, "pages", maxPages)
	return records, nil
}

func (c *Client) create(ctx context.Context, table string, fields map[string]any) (record, error) {
	var created record
	err := c.do(ctx, http.MethodPost, c.tableURL(table), record{Fields: fields}, &created)
	return created, err
}

func (c *Client) patch(ctx context.Context, table, recordID string, fields map[string]any) error {
	return c.do(ctx, http.MethodPatch, c.tableURL(table)+"/"+url.PathEscape(recordID), record{Fields: fields}, nil)
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	if c.cfg.APIKey == "" {
		return errNoAPIKey
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// readAPIError reads both Airtable error shapes: {"error":{"type","message"}}
// and {"error":"NOT_FOUND"}.
func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Error) == 0 {
		return apiErr
	}
	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Error, &detail) == nil {
		apiErr.Type, apiErr.Message = detail.Type, detail.Message
		return apiErr
	}
	var code string
	if json.Unmarshal(envelope.Error, &code) == nil {
		apiErr.Type, apiErr.Message = code, ""
	}
	return apiErr
}

// quote renders s as a single-quoted formula string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

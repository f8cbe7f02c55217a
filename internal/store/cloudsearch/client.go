package cloudsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goto/salt/log"
)

const apiVersion = "2011-02-01"

type Config struct {
	// Endpoints of the remote domain's three surfaces.
	ConfigEndpoint   string `mapstructure:"config_endpoint" default:"http://localhost:9980"`
	DocumentEndpoint string `mapstructure:"document_endpoint" default:"http://localhost:9981"`
	SearchEndpoint   string `mapstructure:"search_endpoint" default:"http://localhost:9982"`

	// Domain is the remote search domain name shared by all indexes.
	Domain string `mapstructure:"domain" default:"searchbridge"`
}

// DomainStatus reports the processing state of the remote domain.
type DomainStatus struct {
	Processing       bool `json:"processing"`
	RequiresIndexing bool `json:"requires_indexing"`
}

// Client talks to the remote domain's index-administration, document
// and search endpoints. It performs single blocking calls with no
// retry; resilience policy belongs to the caller.
type Client struct {
	httpClient *http.Client
	logger     log.Logger
	config     Config
}

type ClientOption func(*Client)

// WithHTTPClient overrides the transport, primarily for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(logger log.Logger, config Config, opts ...ClientOption) (*Client, error) {
	if config.Domain == "" {
		return nil, errors.New("cloudsearch: domain name is required")
	}

	c := &Client{
		logger: logger,
		config: config,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c, nil
}

// ListFields retrieves every field currently defined on the domain.
// Fields flagged pending-deletion are treated as nonexistent.
func (c *Client) ListFields(ctx context.Context) ([]RemoteField, error) {
	var response struct {
		Fields []RemoteField `json:"fields"`
	}
	u := c.configURL("index-fields", nil)
	if err := c.do(ctx, http.MethodGet, u, nil, &response); err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}

	fields := response.Fields[:0]
	for _, f := range response.Fields {
		if f.PendingDeletion {
			continue
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// AddOrUpdateField defines or redefines one index field.
func (c *Client) AddOrUpdateField(ctx context.Context, spec IndexFieldSpec) error {
	body, err := json.Marshal(spec.payload())
	if err != nil {
		return fmt.Errorf("serialize field %q: %w", spec.Name, err)
	}
	u := c.configURL("index-fields", nil)
	if err := c.do(ctx, http.MethodPost, u, bytes.NewReader(body), nil); err != nil {
		return fmt.Errorf("define field %q: %w", spec.Name, err)
	}
	return nil
}

// RemoveField deletes one index field by its encoded name.
func (c *Client) RemoveField(ctx context.Context, name string) error {
	u := c.configURL("index-fields/"+url.PathEscape(name), nil)
	if err := c.do(ctx, http.MethodDelete, u, nil, nil); err != nil {
		return fmt.Errorf("remove field %q: %w", name, err)
	}
	return nil
}

// TriggerReindex asks the domain to start indexing pending field
// changes. The domain retains structural changes even when this fails.
func (c *Client) TriggerReindex(ctx context.Context) error {
	u := c.configURL("index-documents", nil)
	if err := c.do(ctx, http.MethodPost, u, nil, nil); err != nil {
		return fmt.Errorf("trigger reindex: %w", err)
	}
	return nil
}

// DomainStatus fetches the domain's processing flags.
func (c *Client) DomainStatus(ctx context.Context) (DomainStatus, error) {
	var status DomainStatus
	u := c.configURL("domain-status", nil)
	if err := c.do(ctx, http.MethodGet, u, nil, &status); err != nil {
		return DomainStatus{}, fmt.Errorf("domain status: %w", err)
	}
	return status, nil
}

type batchItem struct {
	Type    string                 `json:"type"`
	ID      string                 `json:"id"`
	Version int64                  `json:"version,omitempty"`
	Lang    string                 `json:"lang,omitempty"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

type batchResponse struct {
	Status  string `json:"status"`
	Adds    int    `json:"adds"`
	Deletes int    `json:"deletes"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// submitBatch uploads one document batch to the document endpoint.
func (c *Client) submitBatch(ctx context.Context, items []batchItem) (batchResponse, error) {
	body, err := json.Marshal(items)
	if err != nil {
		return batchResponse{}, fmt.Errorf("serialize batch: %w", err)
	}

	u := fmt.Sprintf("%s/%s/documents/batch", strings.TrimRight(c.config.DocumentEndpoint, "/"), apiVersion)
	var response batchResponse
	if err := c.do(ctx, http.MethodPost, u, bytes.NewReader(body), &response); err != nil {
		return batchResponse{}, fmt.Errorf("submit batch: %w", err)
	}
	if response.Status == "error" {
		msg := "batch rejected"
		if len(response.Errors) > 0 {
			msg = response.Errors[0].Message
		}
		return response, errors.New(msg)
	}
	return response, nil
}

// SubmitQuery sends an already compiled query string to the search
// endpoint and returns the raw response body.
func (c *Client) SubmitQuery(ctx context.Context, queryString string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s/search?%s", strings.TrimRight(c.config.SearchEndpoint, "/"), apiVersion, queryString)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, remoteError(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read query response: %w", err)
	}
	// Query errors arrive inside the response body with HTTP 200 or
	// 4xx alike; the compiler decides what is fatal.
	return raw, nil
}

func (c *Client) configURL(path string, query url.Values) string {
	base := strings.TrimRight(c.config.ConfigEndpoint, "/")
	if query == nil {
		query = url.Values{}
	}
	query.Set("domain", c.config.Domain)
	return fmt.Sprintf("%s/%s/%s?%s", base, apiVersion, path, query.Encode())
}

func (c *Client) do(ctx context.Context, method, u string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return remoteError(err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", res.StatusCode, errorReasonFromResponse(res.Body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extract an error reason from a response body, falling back to the
// raw payload when it does not parse
func errorReasonFromResponse(body io.Reader) string {
	var (
		response struct {
			Message string `json:"message"`
		}
		copy bytes.Buffer
	)
	reader := io.TeeReader(body, &copy)
	if err := json.NewDecoder(reader).Decode(&response); err != nil || response.Message == "" {
		return fmt.Sprintf("raw response = %s", strings.TrimSpace(copy.String()))
	}
	return response.Message
}

// helper for decorating transport-level failures
func remoteError(err error) error {
	return fmt.Errorf("cloudsearch unavailable: %w", err)
}

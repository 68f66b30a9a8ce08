package backend

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

	"pairkeep/internal/config"
	"pairkeep/internal/logging"
	"pairkeep/internal/organize"
	"pairkeep/internal/services"
)

const (
	userAgent          = "Pairkeep-Go/0.1.0"
	defaultHTTPTimeout = 15 * time.Second
	createdByLabel     = "pairkeep-ai"
)

// Client wraps the hosted workspace HTTP API.
type Client struct {
	baseURL    string
	token      string
	workspace  string
	member     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (used in tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a backend client from application configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := defaultHTTPTimeout
	if cfg.Backend.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/"),
		token:      strings.TrimSpace(cfg.Backend.APIToken),
		workspace:  strings.TrimSpace(cfg.Workspace.ID),
		member:     strings.TrimSpace(cfg.Workspace.Member),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "backend"),
	}
}

// NewClientWithOptions constructs a client with explicit settings (used in tests).
func NewClientWithOptions(baseURL, token, workspace string, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		workspace:  strings.TrimSpace(workspace),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logging.NewComponentLogger(logger, "backend"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Workspace returns the workspace identifier the client is bound to.
func (c *Client) Workspace() string {
	return c.workspace
}

// ListUngroupedItems returns workspace items that have no grouping membership.
func (c *Client) ListUngroupedItems(ctx context.Context) ([]Item, error) {
	var items []Item
	path := fmt.Sprintf("/workspaces/%s/items?ungrouped=true", url.PathEscape(c.workspace))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListItems returns all workspace items.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	var items []Item
	path := fmt.Sprintf("/workspaces/%s/items", url.PathEscape(c.workspace))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListGroupings returns the workspace's groupings.
func (c *Client) ListGroupings(ctx context.Context) ([]organize.Grouping, error) {
	var groupings []organize.Grouping
	path := fmt.Sprintf("/workspaces/%s/groupings", url.PathEscape(c.workspace))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &groupings); err != nil {
		return nil, err
	}
	return groupings, nil
}

// CreateGrouping creates a named grouping owned by the workspace. Groupings
// created through this client are marked as engine-created so the app can
// distinguish them from user-created ones.
func (c *Client) CreateGrouping(ctx context.Context, name string) (organize.Grouping, error) {
	var grouping organize.Grouping
	name = strings.TrimSpace(name)
	if name == "" {
		return grouping, services.Wrap(services.ErrValidation, "backend", "create grouping", "grouping name required", nil)
	}
	body := createGroupingRequest{Name: name, CreatedBy: createdByLabel}
	path := fmt.Sprintf("/workspaces/%s/groupings", url.PathEscape(c.workspace))
	if err := c.doJSON(ctx, http.MethodPost, path, body, &grouping); err != nil {
		return organize.Grouping{}, err
	}
	return grouping, nil
}

// UpdateItemGrouping sets the grouping membership of one item. The update is
// a set-operation: repeating it with the same grouping succeeds silently.
func (c *Client) UpdateItemGrouping(ctx context.Context, itemID, groupingID string) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return services.Wrap(services.ErrValidation, "backend", "update item", "item id required", nil)
	}
	body := updateItemRequest{GroupingID: strings.TrimSpace(groupingID)}
	path := fmt.Sprintf("/workspaces/%s/items/%s", url.PathEscape(c.workspace), url.PathEscape(itemID))
	return c.doJSON(ctx, http.MethodPatch, path, body, nil)
}

// RefreshGroupings notifies the backend that listeners should re-read
// groupings. The signal is best-effort; failures are logged and swallowed.
func (c *Client) RefreshGroupings(ctx context.Context) {
	path := fmt.Sprintf("/workspaces/%s/groupings/refresh", url.PathEscape(c.workspace))
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		c.logger.Debug("grouping refresh signal failed", logging.Error(err))
	}
}

// HealthCheck verifies the backend is reachable and the workspace exists.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.workspace == "" {
		return services.Wrap(services.ErrConfiguration, "backend", "health", "workspace id required", nil)
	}
	path := fmt.Sprintf("/workspaces/%s/groupings", url.PathEscape(c.workspace))
	return c.doJSON(ctx, http.MethodGet, path, nil, &[]organize.Grouping{})
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend request: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("backend request: new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "backend", method+" "+path, "request timed out", err)
		}
		return services.Wrap(services.ErrTransient, "backend", method+" "+path, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return c.statusError(method, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, "backend", method+" "+path, "decode response", err)
	}
	return nil
}

func (c *Client) statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	detail := strings.TrimSpace(string(raw))
	var parsed errorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && strings.TrimSpace(parsed.Error) != "" {
		detail = strings.TrimSpace(parsed.Error)
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	marker := services.ErrTransient
	switch {
	case resp.StatusCode == http.StatusNotFound:
		marker = services.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		marker = services.ErrPermission
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		marker = services.ErrValidation
	case resp.StatusCode == http.StatusRequestTimeout:
		marker = services.ErrTimeout
	}
	return services.Wrap(marker, "backend", method+" "+path,
		fmt.Sprintf("http %d: %s", resp.StatusCode, detail), nil)
}

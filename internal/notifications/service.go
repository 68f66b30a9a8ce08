package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pairkeep/internal/config"
	"pairkeep/internal/organize"
)

const userAgent = "Pairkeep-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyRunStarted(ctx context.Context, itemCount int) error
	NotifyPlanProposed(ctx context.Context, groupings, relocations int) error
	NotifyOrganizationCompleted(ctx context.Context, result *organize.Result) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		organization: cfg.Notifications.Organization,
		errors:       cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	organization bool
	errors       bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, itemCount int) error {
	if !n.organization {
		return nil
	}
	data := payload{
		title:   "Pairkeep - Organizing",
		message: fmt.Sprintf("Started organizing %d ungrouped items", itemCount),
		tags:    []string{"pairkeep", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPlanProposed(ctx context.Context, groupings, relocations int) error {
	if !n.organization {
		return nil
	}
	data := payload{
		title:   "Pairkeep - Plan Ready",
		message: fmt.Sprintf("Plan proposed: %d new groupings, %d relocations", groupings, relocations),
		tags:    []string{"pairkeep", "plan", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyOrganizationCompleted(ctx context.Context, result *organize.Result) error {
	if !n.organization {
		return nil
	}
	data := payload{
		title:   "Pairkeep - Organized",
		message: result.Summary(),
		tags:    []string{"pairkeep", "run", "completed"},
	}
	if result != nil && len(result.Failures) > 0 {
		data.title = "Pairkeep - Organized (with failures)"
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Pairkeep - Error",
		message:  builder.String(),
		tags:     []string{"pairkeep", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Pairkeep - Test",
		message:  "Notification system test",
		tags:     []string{"pairkeep", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, int) error                             { return nil }
func (noopService) NotifyPlanProposed(context.Context, int, int) error                      { return nil }
func (noopService) NotifyOrganizationCompleted(context.Context, *organize.Result) error     { return nil }
func (noopService) NotifyError(context.Context, error, string) error                        { return nil }
func (noopService) TestNotification(context.Context) error                                  { return nil }

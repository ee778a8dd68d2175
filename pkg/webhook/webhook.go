// Package webhook posts activity reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccollicutt/teamsactivity/pkg/config"
	"github.com/ccollicutt/teamsactivity/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// maxResponseBody caps how much of a response is kept.
const maxResponseBody = 1024 * 1024

const (
	userAgent     = "teamsactivity-webhook"
	triggerHeader = "X-Teamsactivity-Trigger"
)

// Client sends activity reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new webhook client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts report to hook as JSON. The hook's timeout bounds the whole
// request; zero means DefaultTimeout.
func (c *Client) Send(ctx context.Context, hook config.WebhookConfig, report *output.Report) *Response {
	payload, err := json.Marshal(report)
	if err != nil {
		return &Response{Error: fmt.Errorf("encoding report: %w", err)}
	}
	return c.post(ctx, hook, payload)
}

func (c *Client) post(ctx context.Context, hook config.WebhookConfig, payload []byte) (resp *Response) {
	start := time.Now()
	resp = &Response{}
	defer func() { resp.Duration = time.Since(start) }()

	timeout := hook.Timeout.Std()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := newRequest(ctx, hook, payload)
	if err != nil {
		resp.Error = err
		return resp
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		resp.Error = fmt.Errorf("posting report: %w", err)
		return resp
	}
	defer httpResp.Body.Close()

	resp.StatusCode = httpResp.StatusCode
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	resp.Body = string(body)

	switch {
	case err != nil:
		resp.Error = fmt.Errorf("reading response: %w", err)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		resp.Error = fmt.Errorf("%s returned status %d", hookName(hook), resp.StatusCode)
	}
	return resp
}

func newRequest(ctx context.Context, hook config.WebhookConfig, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if hook.Trigger != "" {
		req.Header.Set(triggerHeader, string(hook.Trigger))
	}
	if hook.Token != "" {
		req.Header.Set("Authorization", "Bearer "+hook.Token)
	}
	return req, nil
}

// hookName is the name used in logs, falling back to the URL.
func hookName(hook config.WebhookConfig) string {
	if hook.Name != "" {
		return hook.Name
	}
	return hook.URL
}

// ShouldFire reports whether a webhook with the given trigger fires for
// report. An empty or unknown trigger behaves like on_activity.
func ShouldFire(trigger config.WebhookTrigger, report *output.Report) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return report.HasActivity()
	}
}

// Dispatch sends report to every hook whose trigger fires and returns the
// number of successful deliveries. Failures are logged, not returned.
func (c *Client) Dispatch(ctx context.Context, hooks []config.WebhookConfig, report *output.Report, log logrus.FieldLogger) int {
	var payload []byte
	sent := 0
	for _, wh := range hooks {
		if !ShouldFire(wh.Trigger, report) {
			log.WithField("webhook", hookName(wh)).Debug("Webhook not triggered")
			continue
		}

		if payload == nil {
			p, err := json.Marshal(report)
			if err != nil {
				log.WithError(err).Warn("Cannot encode report for webhooks")
				return 0
			}
			payload = p
		}

		resp := c.post(ctx, wh, payload)
		entry := log.WithFields(logrus.Fields{
			"webhook":  hookName(wh),
			"duration": resp.Duration,
		})
		if !resp.Success() {
			entry.WithError(resp.Error).Warn("Webhook failed")
			continue
		}
		entry.WithField("status", resp.StatusCode).Info("Webhook sent")
		sent++
	}
	return sent
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// Webhook posts the event as JSON to an external endpoint.
type Webhook struct {
	url    string
	client *http.Client
}

var _ Notifier = (*Webhook)(nil)

func NewWebhook(url string, client *http.Client) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: WEBHOOK_URL is empty", ErrNotConfigured)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{url: url, client: client}, nil
}

func (w *Webhook) NotifyRegistered(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := slogx.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(slogx.RequestIDHeader, id)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp.StatusCode, fmt.Errorf("webhook: status %d", resp.StatusCode))
	}
	return nil
}

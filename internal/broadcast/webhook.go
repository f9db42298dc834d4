package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookNotifier POSTs envelopes to an HTTP endpoint. No retries.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier creates a notifier for url.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "seat-monitor")
	return &WebhookNotifier{client: client, url: url}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

func (w *WebhookNotifier) Notify(ctx context.Context, msg Message) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(msg.Data).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}

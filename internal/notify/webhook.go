// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/recyclehub/recyclehub/internal/auth"
)

// Webhook defaults.
const (
	DefaultWebhookRetries = 3
	defaultBaseDelay      = 200 * time.Millisecond
)

// Payload is the JSON body posted to the webhook.
type Payload struct {
	To        string    `json:"to"`
	Name      string    `json:"name,omitempty"`
	Purpose   string    `json:"purpose"`
	Subject   string    `json:"subject"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WebhookNotifier posts notifications to an HTTP endpoint that relays them
// to the mail provider. 5xx answers and transport errors are retried with
// exponential backoff; 4xx answers are permanent.
type WebhookNotifier struct {
	url        string
	client     *http.Client
	maxRetries uint64
	baseDelay  time.Duration
}

// WebhookOption configures a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookNotifier) {
		if c != nil {
			w.client = c
		}
	}
}

// WithMaxRetries sets how many times a failed post is retried.
func WithMaxRetries(n int) WebhookOption {
	return func(w *WebhookNotifier) {
		if n >= 0 {
			w.maxRetries = uint64(n)
		}
	}
}

// WithBaseDelay sets the first backoff interval.
func WithBaseDelay(d time.Duration) WebhookOption {
	return func(w *WebhookNotifier) {
		if d > 0 {
			w.baseDelay = d
		}
	}
}

// NewWebhookNotifier creates a WebhookNotifier posting to url.
func NewWebhookNotifier(url string, opts ...WebhookOption) (*WebhookNotifier, error) {
	if url == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("webhook url is required")
	}
	w := &WebhookNotifier{
		url:        url,
		client:     &http.Client{Timeout: DefaultWebhookTimeout},
		maxRetries: DefaultWebhookRetries,
		baseDelay:  defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Send posts n and retries transient failures until ctx is done.
func (w *WebhookNotifier) Send(ctx context.Context, n auth.Notification) error {
	body, err := json.Marshal(Payload{
		To:        n.To,
		Name:      n.Name,
		Purpose:   string(n.Purpose),
		Subject:   Subject(n.Purpose),
		Code:      n.Code,
		ExpiresAt: n.ExpiresAt.UTC(),
	})
	if err != nil {
		return oops.Code("NOTIFY_ENCODE_FAILED").Wrap(err)
	}

	backoff := retry.WithMaxRetries(w.maxRetries, retry.NewExponential(w.baseDelay))
	attempts := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		return w.post(ctx, body)
	})
	if err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").
			With("purpose", string(n.Purpose)).
			With("attempts", attempts).
			Wrap(err)
	}
	return nil
}

func (w *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return retry.RetryableError(fmt.Errorf("webhook answered %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return fmt.Errorf("webhook rejected notification with %d", resp.StatusCode)
	}
	return nil
}

// Subject returns the mail subject for a purpose.
func Subject(p auth.Purpose) string {
	switch p {
	case auth.PurposeEmailVerify:
		return "Verify your RecycleHub email"
	case auth.PurposePasswordReset:
		return "Reset your RecycleHub password"
	default:
		return "Your RecycleHub code"
	}
}

var _ auth.Notifier = (*WebhookNotifier)(nil)

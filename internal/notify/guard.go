// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package notify

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// DefaultWebhookTimeout bounds a single webhook attempt.
const DefaultWebhookTimeout = 10 * time.Second

// NewGuardedClient returns an HTTP client that refuses to connect to
// private, loopback, link-local and cloud metadata addresses, checked after
// DNS resolution. Only http and https on ports 80 and 443 are allowed.
func NewGuardedClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	return safeurl.Client(config).Client
}

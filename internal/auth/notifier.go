// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package auth

import (
	"context"
	"time"
)

// Notification is an outbound one-time code addressed to a user.
type Notification struct {
	To        string
	Name      string
	Purpose   Purpose
	Code      string
	ExpiresAt time.Time
}

// Notifier delivers verification and reset codes to users.
// Implementations must honor ctx cancellation.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

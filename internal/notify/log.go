// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package notify

import (
	"context"
	"log/slog"

	"github.com/recyclehub/recyclehub/internal/auth"
)

// LogNotifier writes notifications to a logger. It is meant for local
// development: the code itself is only emitted at debug level.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs n.
func (l *LogNotifier) Send(ctx context.Context, n auth.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "notification queued",
		"to", n.To,
		"purpose", string(n.Purpose),
		"expires_at", n.ExpiresAt)
	l.logger.DebugContext(ctx, "notification code",
		"to", n.To,
		"purpose", string(n.Purpose),
		"code", n.Code)
	return nil
}

var _ auth.Notifier = (*LogNotifier)(nil)

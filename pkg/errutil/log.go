// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

// Package errutil bridges oops errors to structured logs and tests.
package errutil

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it extracts and logs the message, code and context.
// For standard errors, it logs the error string.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	LogErrorContext(context.Background(), logger, msg, err, attrs...)
}

// LogErrorContext is LogError with a context, so trace IDs reach the handler.
func LogErrorContext(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	all := make([]any, 0, len(attrs)+6)
	if oopsErr, ok := oops.AsOops(err); ok {
		all = append(all, "error", oopsErr.Error())
		if code := Code(err); code != "" {
			all = append(all, "code", code)
		}
		if c := oopsErr.Context(); len(c) > 0 {
			all = append(all, "context", c)
		}
	} else {
		all = append(all, "error", err)
	}
	all = append(all, attrs...)
	logger.ErrorContext(ctx, msg, all...)
}

// Code returns the oops code of err as a string, or "" when err carries none.
// Nested oops errors report the innermost code.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code := oopsErr.Code()
	if code == nil {
		return ""
	}
	if s, ok := code.(string); ok {
		return s
	}
	return fmt.Sprint(code)
}

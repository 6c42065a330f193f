// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

// Package httpapi exposes the auth flows as a JSON HTTP API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/recyclehub/recyclehub/internal/auth"
)

// PathPrefix is the alternate mount point of every route.
const PathPrefix = "/api/auth"

// AuthService is the subset of auth.Service the API calls.
type AuthService interface {
	Authenticator
	Signup(ctx context.Context, in auth.SignupInput) (*auth.User, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	ResendVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email, code string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	UpdateProfile(ctx context.Context, userID ulid.ULID, profile auth.Profile) (*auth.User, error)
}

// Options configures the router's middleware stack.
type Options struct {
	Logger *slog.Logger

	// Metrics receives per-route request counts and latencies.
	Metrics RequestObserver

	// RateLimiter throttles the unauthenticated POST routes. Nil disables
	// limiting. The caller owns it and must Stop it.
	RateLimiter *RateLimiter

	// AllowedOrigins enables CORS for matching browser origins.
	AllowedOrigins []string

	// MinClientVersion, when set, rejects older mobile clients with 426.
	MinClientVersion string
}

// NewRouter builds the API handler. Routes are served both at the root and
// under PathPrefix.
func NewRouter(svc AuthService, opts Options) (http.Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Tracing)
	r.Use(Logging(logger, opts.Metrics))
	r.Use(Recovery(logger))

	if len(opts.AllowedOrigins) > 0 {
		cors, err := CORS(opts.AllowedOrigins)
		if err != nil {
			return nil, err
		}
		r.Use(cors)
	}
	if opts.MinClientVersion != "" {
		gate, err := MinClientVersion(opts.MinClientVersion)
		if err != nil {
			return nil, err
		}
		r.Use(gate)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	h := &handlers{svc: svc, logger: logger}
	routes := func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(opts.RateLimiter.Middleware)
			}
			r.Post("/signup", h.signup)
			r.Post("/login", h.login)
			r.Post("/resend-verification", h.resendVerification)
			r.Post("/verify-email", h.verifyEmail)
			r.Post("/forgot-password", h.forgotPassword)
			r.Post("/reset-password", h.resetPassword)
		})
		r.Group(func(r chi.Router) {
			r.Use(RequireUser(svc, logger))
			r.Get("/me", h.me)
			r.Patch("/me", h.updateMe)
		})
	}
	routes(r)
	r.Route(PathPrefix, routes)

	return r, nil
}

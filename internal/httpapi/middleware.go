// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-chi/chi/v5"
	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/recyclehub/recyclehub/internal/auth"
)

// Header names understood by the API.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderClientVersion = "X-Client-Version"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	userKey
)

// RequestIDFromContext returns the request ID assigned by the RequestID
// middleware, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// UserFromContext returns the user authenticated by the bearer middleware.
func UserFromContext(ctx context.Context) (*auth.User, bool) {
	u, ok := ctx.Value(userKey).(*auth.User)
	return u, ok && u != nil
}

// RequestID propagates a caller-supplied UUID request ID or assigns a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	//nolint:wrapcheck // ResponseWriter passthrough
	return sr.ResponseWriter.Write(b)
}

// RequestObserver records per-route request metrics.
type RequestObserver interface {
	ObserveRequest(route string, status int, elapsed time.Duration)
}

// Logging writes one structured access log line per request, at WARN for
// 4xx and ERROR for 5xx responses, and feeds observer when it is non-nil.
func Logging(logger *slog.Logger, observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			route := routePattern(r)
			if observer != nil {
				observer.ObserveRequest(route, rec.statusCode, elapsed)
			}

			level := slog.LevelInfo
			switch {
			case rec.statusCode >= 500:
				level = slog.LevelError
			case rec.statusCode >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", float64(elapsed.Nanoseconds())/float64(time.Millisecond)),
				slog.String("request_id", RequestIDFromContext(r.Context())),
			)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Recovery turns a handler panic into a 500 response.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.ErrorContext(r.Context(), "panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", RequestIDFromContext(r.Context()),
						"stack", string(debug.Stack()),
					)
					writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows browser calls from origins matching any of patterns. A lone
// "*" allows every origin. Preflight requests are answered with 204.
func CORS(patterns []string) (func(http.Handler) http.Handler, error) {
	allowAll := false
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		if p == "*" {
			allowAll = true
			continue
		}
		g, err := glob.Compile(strings.ToLower(p), '.')
		if err != nil {
			return nil, oops.Code("HTTP_CONFIG_INVALID").
				With("origin_pattern", p).
				Wrap(err)
		}
		globs = append(globs, g)
	}

	allowed := func(origin string) bool {
		origin = strings.ToLower(origin)
		for _, g := range globs {
			if g.Match(origin) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				h := w.Header()
				h.Add("Vary", "Origin")
				switch {
				case allowAll:
					h.Set("Access-Control-Allow-Origin", "*")
				case allowed(origin):
					h.Set("Access-Control-Allow-Origin", origin)
				default:
					origin = ""
				}
				if origin != "" {
					h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
					h.Set("Access-Control-Allow-Headers", strings.Join([]string{
						"Authorization", "Content-Type", HeaderClientVersion, HeaderRequestID,
					}, ", "))
					h.Set("Access-Control-Expose-Headers", HeaderRequestID+", Retry-After")
					h.Set("Access-Control-Max-Age", "86400")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// MinClientVersion rejects requests whose X-Client-Version is older than
// minimum with 426. Requests without the header pass, since only the mobile
// app sends it.
func MinClientVersion(minimum string) (func(http.Handler) http.Handler, error) {
	floor, err := semver.NewVersion(minimum)
	if err != nil {
		return nil, oops.Code("HTTP_CONFIG_INVALID").
			With("min_version", minimum).
			Wrap(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(HeaderClientVersion)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			v, err := semver.NewVersion(raw)
			if err != nil || v.LessThan(floor) {
				w.Header().Set("X-Min-Client-Version", floor.String())
				writeError(w, http.StatusUpgradeRequired, "CLIENT_UPGRADE_REQUIRED",
					"Please update the app to continue")
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.User, error)
}

// RequireUser authenticates the Authorization bearer token and stores the
// user in the request context.
func RequireUser(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, kindCodes[auth.KindInvalidToken], kindMessages[auth.KindInvalidToken])
				return
			}
			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				writeServiceError(w, r, logger, err, routeMessages{internal: "Authentication failed"})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

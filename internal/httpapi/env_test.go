// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/recyclehub/recyclehub/internal/auth"
	"github.com/recyclehub/recyclehub/internal/auth/memory"
	"github.com/recyclehub/recyclehub/internal/httpapi"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// outbox captures codes instead of delivering them.
type outbox struct {
	mu   sync.Mutex
	sent []auth.Notification
}

func (o *outbox) Send(_ context.Context, n auth.Notification) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, n)
	return nil
}

// lastCode returns the most recent code sent to email for purpose.
func (o *outbox) lastCode(email string, purpose auth.Purpose) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].To == email && o.sent[i].Purpose == purpose {
			return o.sent[i].Code, true
		}
	}
	return "", false
}

type envConfig struct {
	codeOpts []auth.CodeServiceOption
	router   httpapi.Options
}

// apiEnv is a running API backed by the memory store.
type apiEnv struct {
	server *httptest.Server
	svc    *auth.Service
	users  *memory.UserRepository
	outbox *outbox
	clock  *fakeClock
	logs   *syncWriter
}

func newAPIEnv(cfg envConfig) (*apiEnv, error) {
	e := &apiEnv{
		users:  memory.NewUserRepository(),
		outbox: &outbox{},
		clock:  &fakeClock{t: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)},
		logs:   &syncWriter{},
	}
	logger := slog.New(slog.NewJSONHandler(e.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	codes, err := auth.NewCodeService(memory.NewCodeRepository(),
		append([]auth.CodeServiceOption{auth.WithClock(e.clock.Now)}, cfg.codeOpts...)...)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenIssuer(testSecret, auth.WithTokenClock(e.clock.Now))
	if err != nil {
		return nil, err
	}
	e.svc, err = auth.NewService(e.users, codes, auth.NewArgon2idHasher(), tokens, e.outbox,
		auth.WithLogger(logger),
		auth.WithServiceClock(e.clock.Now),
	)
	if err != nil {
		return nil, err
	}

	opts := cfg.router
	opts.Logger = logger
	router, err := httpapi.NewRouter(e.svc, opts)
	if err != nil {
		return nil, err
	}
	e.server = httptest.NewServer(router)
	return e, nil
}

func (e *apiEnv) Close() {
	e.server.Close()
}

type apiResponse struct {
	Status int
	Header http.Header
	Body   map[string]any
}

// call sends body as JSON, or verbatim when it is a string.
func (e *apiEnv) call(method, path string, body any, headers map[string]string) (*apiResponse, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		return nil, err
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.server.Client().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	out := &apiResponse{Status: resp.StatusCode, Header: resp.Header}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Body); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// syncWriter is a log sink shared by concurrent handlers.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncWriter) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recyclehub/recyclehub/internal/config"
	"github.com/recyclehub/recyclehub/internal/observability"
	"github.com/recyclehub/recyclehub/pkg/errutil"
)

type fakeObservabilityServer struct {
	metrics  *observability.Metrics
	ready    observability.ReadinessChecker
	startErr error
	errCh    chan error
	started  atomic.Bool
	stopped  atomic.Bool
}

func newFakeObservabilityServer() *fakeObservabilityServer {
	return &fakeObservabilityServer{
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
		errCh:   make(chan error, 1),
	}
}

func (f *fakeObservabilityServer) Start() (<-chan error, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started.Store(true)
	return f.errCh, nil
}

func (f *fakeObservabilityServer) Stop(context.Context) error {
	f.stopped.Store(true)
	return nil
}

func (f *fakeObservabilityServer) Addr() string                    { return "127.0.0.1:0" }
func (f *fakeObservabilityServer) Metrics() *observability.Metrics { return f.metrics }

// serveHarness runs the serve command against the memory store.
type serveHarness struct {
	obs      *fakeObservabilityServer
	addr     chan string
	done     chan error
	cancel   context.CancelFunc
	output   *bytes.Buffer
	listenFn func(network, address string) (net.Listener, error)
}

func startServe(t *testing.T, h *serveHarness, flags map[string]string) {
	t.Helper()
	isolate(t)
	t.Setenv("JWT_SECRET", testSecret)

	if h.obs == nil {
		h.obs = newFakeObservabilityServer()
	}
	h.addr = make(chan string, 1)
	h.done = make(chan error, 1)
	h.output = new(bytes.Buffer)

	listen := h.listenFn
	if listen == nil {
		listen = net.Listen
	}
	deps := &ServeDeps{
		ObservabilityServerFactory: func(_ string, ready observability.ReadinessChecker) ObservabilityServer {
			h.obs.ready = ready
			return h.obs
		},
		ListenerFactory: func(network, address string) (net.Listener, error) {
			l, err := listen(network, address)
			if err == nil {
				h.addr <- l.Addr().String()
			}
			return l, err
		},
	}

	cmd := NewServeCmd()
	cmd.SetOut(h.output)
	require.NoError(t, cmd.Flags().Set("store", "memory"))
	require.NoError(t, cmd.Flags().Set("http-addr", "127.0.0.1:0"))
	require.NoError(t, cmd.Flags().Set("log-level", "error"))
	for k, v := range flags {
		require.NoError(t, cmd.Flags().Set(k, v))
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	t.Cleanup(cancel)
	go func() { h.done <- runServeWithDeps(ctx, cmd, deps) }()
}

func (h *serveHarness) waitAddr(t *testing.T) string {
	t.Helper()
	select {
	case addr := <-h.addr:
		return addr
	case err := <-h.done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	return ""
}

func (h *serveHarness) waitDone(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not shut down")
	}
	return nil
}

func TestServe_ServesAPIAndShutsDown(t *testing.T) {
	h := &serveHarness{}
	startServe(t, h, nil)
	addr := h.waitAddr(t)

	resp, err := http.Post("http://"+addr+"/api/auth/signup", "application/json",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"pw-123456"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get("http://" + addr + "/me")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.NotNil(t, h.obs.ready)
	assert.True(t, h.obs.ready())
	assert.True(t, h.obs.started.Load())

	h.cancel()
	require.NoError(t, h.waitDone(t))
	assert.True(t, h.obs.stopped.Load())
	assert.Contains(t, h.output.String(), "RecycleHub API listening on "+addr)
}

func TestServe_ObservabilityFailureTriggersShutdown(t *testing.T) {
	h := &serveHarness{}
	startServe(t, h, nil)
	h.waitAddr(t)

	h.obs.errCh <- errors.New("metrics listener died")
	require.NoError(t, h.waitDone(t))
	assert.True(t, h.obs.stopped.Load())
}

func TestServe_ObservabilityStartFailure(t *testing.T) {
	obs := newFakeObservabilityServer()
	obs.startErr = errors.New("address in use")
	h := &serveHarness{obs: obs}
	startServe(t, h, nil)
	h.waitAddr(t)

	err := h.waitDone(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
}

func TestServe_ListenFailure(t *testing.T) {
	h := &serveHarness{listenFn: func(string, string) (net.Listener, error) {
		return nil, errors.New("permission denied")
	}}
	startServe(t, h, nil)

	err := h.waitDone(t)
	errutil.AssertErrorCode(t, err, "HTTP_LISTEN_FAILED")
	assert.False(t, h.obs.started.Load())
}

func TestServe_InvalidConfig(t *testing.T) {
	isolate(t)
	cmd := NewServeCmd()
	require.NoError(t, cmd.Flags().Set("store", "memory"))

	err := runServeWithDeps(context.Background(), cmd, nil)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "key", "auth.jwt_secret")
}

func TestServe_DatabaseConnectFailure(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", testSecret)
	cmd := NewServeCmd()
	require.NoError(t, cmd.Flags().Set("database-url", "postgres://db.invalid/recyclehub"))
	require.NoError(t, cmd.Flags().Set("log-level", "error"))

	var gotURL string
	deps := &ServeDeps{
		DatabaseConnector: func(_ context.Context, url string, _ time.Duration) (Database, error) {
			gotURL = url
			return nil, oops.Code("DB_CONNECT_FAILED").Wrap(errors.New("no route to host"))
		},
	}
	err := runServeWithDeps(context.Background(), cmd, deps)
	errutil.AssertErrorCode(t, err, "DB_CONNECT_FAILED")
	assert.Equal(t, "postgres://db.invalid/recyclehub", gotURL)
}

func TestNewNotifier(t *testing.T) {
	n, err := newNotifier(config.NotifyConfig{Driver: config.NotifyDriverWebhook}, slog.Default())
	errutil.AssertErrorCode(t, err, "NOTIFY_CONFIG_INVALID")
	assert.Nil(t, n)

	n, err = newNotifier(config.NotifyConfig{
		Driver:     config.NotifyDriverWebhook,
		WebhookURL: "https://hooks.example/codes",
	}, slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, n)

	n, err = newNotifier(config.NotifyConfig{Driver: config.NotifyDriverLog}, slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestNewNotifier_GuardedWebhook(t *testing.T) {
	n, err := newNotifier(config.NotifyConfig{
		Driver:               config.NotifyDriverWebhook,
		WebhookURL:           "http://127.0.0.1:1/codes",
		BlockPrivateNetworks: true,
	}, slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, n)
}

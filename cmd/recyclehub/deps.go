// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package main

import (
	"context"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recyclehub/recyclehub/internal/auth/postgres"
	"github.com/recyclehub/recyclehub/internal/observability"
	"github.com/recyclehub/recyclehub/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DatabaseConnector opens a Postgres pool.
	// Default: store.Connect
	DatabaseConnector func(ctx context.Context, url string, timeout time.Duration) (Database, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// ListenerFactory creates the API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)
}

// Database wraps the methods used from *pgxpool.Pool.
type Database interface {
	postgres.Pool
	Ping(ctx context.Context) error
	Close()
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.DatabaseConnector == nil {
		out.DatabaseConnector = func(ctx context.Context, url string, timeout time.Duration) (Database, error) {
			pool, err := store.Connect(ctx, url, timeout)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if out.ListenerFactory == nil {
		out.ListenerFactory = net.Listen
	}
	return &out
}

var _ Database = (*pgxpool.Pool)(nil)

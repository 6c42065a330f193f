// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

// Package memory provides in-process implementations of the auth
// repositories for local development and tests. State is lost on restart.
package memory

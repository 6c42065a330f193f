// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

// Package notify delivers one-time codes to users. Delivery channels are
// pluggable behind auth.Notifier; mail and SMS gateways sit behind a webhook.
package notify

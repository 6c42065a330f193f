// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package auth

// WithGenerator exposes withGenerator to external tests.
var WithGenerator = withGenerator

// CodeSpace exposes the number of distinct codes.
var CodeSpace = codeSpace

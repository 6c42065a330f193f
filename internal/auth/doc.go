// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

// Package auth provides the credential and one-time-code core for RecycleHub.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewUser - creates a User with a normalized email and a password digest
//   - NewVerificationCode - creates a VerificationCode scoped to a user and a purpose
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Services
//
//   - CodeService - issues, validates and consumes six-digit one-time codes
//   - TokenIssuer - mints and verifies signed, stateless session tokens
//   - Service - signup, login, email verification and password reset flows
//
// Persistence is abstracted behind UserRepository and CodeRepository; see the
// postgres and memory subpackages. Code delivery is abstracted behind Notifier.
package auth

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Sentinel errors for the auth flows. Service errors wrap one of these so
// callers can classify them with errors.Is or KindOf.
var (
	ErrValidation           = errors.New("invalid request")
	ErrDuplicateEmail       = errors.New("email already in use")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrTooManyCodes         = errors.New("too many active codes")
)

// ErrorKind classifies auth errors for transport layers.
type ErrorKind int

// Error kinds, from most to least specific.
const (
	KindInternal ErrorKind = iota
	KindValidation
	KindDuplicateEmail
	KindNotFound
	KindBadCredentials
	KindInvalidCode
	KindInvalidToken
	KindTooManyCodes
)

// String returns the kind name used in logs.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindNotFound:
		return "not_found"
	case KindBadCredentials:
		return "bad_credentials"
	case KindInvalidCode:
		return "invalid_code"
	case KindInvalidToken:
		return "invalid_token"
	case KindTooManyCodes:
		return "too_many_codes"
	default:
		return "internal"
	}
}

// KindOf reports the ErrorKind of err. Anything unrecognised is internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDuplicateEmail):
		return KindDuplicateEmail
	case errors.Is(err, ErrInvalidCredentials):
		return KindBadCredentials
	case errors.Is(err, ErrInvalidOrExpiredCode):
		return KindInvalidCode
	case errors.Is(err, ErrInvalidToken):
		return KindInvalidToken
	case errors.Is(err, ErrTooManyCodes):
		return KindTooManyCodes
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package httpapi

import (
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/recyclehub/recyclehub/internal/auth"
)

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Name     string `json:"name" jsonschema:"required,minLength=1"`
	Email    string `json:"email" jsonschema:"required,minLength=1"`
	Password string `json:"password" jsonschema:"required,minLength=1"`
	ProfileFields
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" jsonschema:"required,minLength=1"`
	Password string `json:"password" jsonschema:"required,minLength=1"`
}

// EmailRequest is the body of POST /resend-verification and
// POST /forgot-password.
type EmailRequest struct {
	Email string `json:"email" jsonschema:"required,minLength=1"`
}

// VerifyEmailRequest is the body of POST /verify-email.
type VerifyEmailRequest struct {
	Email string `json:"email" jsonschema:"required,minLength=1"`
	Code  string `json:"code" jsonschema:"required,minLength=1"`
}

// ResetPasswordRequest is the body of POST /reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email" jsonschema:"required,minLength=1"`
	Code        string `json:"code" jsonschema:"required,minLength=1"`
	NewPassword string `json:"newPassword" jsonschema:"required,minLength=1"`
}

// UpdateProfileRequest is the body of PATCH /me. Absent fields keep their
// stored value.
type UpdateProfileRequest struct {
	ProfileFields
}

// LocationBody is a client-reported position.
type LocationBody struct {
	Latitude  *float64 `json:"latitude,omitempty" jsonschema:"minimum=-90,maximum=90"`
	Longitude *float64 `json:"longitude,omitempty" jsonschema:"minimum=-180,maximum=180"`
}

// ProfileFields are the optional profile attributes shared by signup and
// profile updates.
type ProfileFields struct {
	Location        *LocationBody `json:"location,omitempty"`
	City            *string       `json:"city,omitempty" jsonschema:"maxLength=100"`
	Phone           *string       `json:"phone,omitempty" jsonschema:"maxLength=32"`
	Gender          *string       `json:"gender,omitempty"`
	DateOfBirth     *string       `json:"dateOfBirth,omitempty"`
	ProfilePhotoURL *string       `json:"profilePhotoUrl,omitempty" jsonschema:"maxLength=2048"`
}

// genders accepted in a profile. The empty string means unspecified.
var genders = map[string]bool{"": true, "Male": true, "Female": true, "Other": true}

// apply overlays the provided fields on base.
func (p ProfileFields) apply(base auth.Profile) (auth.Profile, error) {
	out := base
	if p.Location != nil {
		out.Location = auth.Location{Latitude: p.Location.Latitude, Longitude: p.Location.Longitude}
	}
	if p.City != nil {
		out.City = strings.TrimSpace(*p.City)
	}
	if p.Phone != nil {
		out.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Gender != nil {
		if !genders[*p.Gender] {
			return auth.Profile{}, oops.Code("AUTH_VALIDATION").
				With("field", "gender").
				Wrapf(auth.ErrValidation, "gender must be Male, Female or Other")
		}
		out.Gender = *p.Gender
	}
	if p.ProfilePhotoURL != nil {
		out.ProfilePhotoURL = strings.TrimSpace(*p.ProfilePhotoURL)
	}
	if p.DateOfBirth != nil {
		dob, err := parseDate(*p.DateOfBirth)
		if err != nil {
			return auth.Profile{}, err
		}
		out.DateOfBirth = dob
	}
	return out, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. An empty
// string clears the date.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, oops.Code("AUTH_VALIDATION").
		With("field", "dateOfBirth").
		Wrapf(auth.ErrValidation, "dateOfBirth %q is not a date", s)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/recyclehub/recyclehub/internal/auth"
	"github.com/recyclehub/recyclehub/pkg/errutil"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// MessageBody is the JSON shape of responses that only confirm an action.
type MessageBody struct {
	Message string `json:"message"`
}

// UserBody is the public view of a user. It never carries the password hash.
type UserBody struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Email               string       `json:"email"`
	Role                string       `json:"role"`
	Location            LocationBody `json:"location"`
	City                string       `json:"city"`
	Phone               string       `json:"phone"`
	Gender              string       `json:"gender"`
	DateOfBirth         *time.Time   `json:"dateOfBirth"`
	ProfilePhotoURL     string       `json:"profilePhotoUrl"`
	TotalRecycled       float64      `json:"totalRecycled"`
	ChallengesCompleted int          `json:"challengesCompleted"`
	ChallengesJoined    []string     `json:"challengesJoined"`
	EmailVerified       bool         `json:"emailVerified"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// UserResponse wraps a user with an optional confirmation message.
type UserResponse struct {
	Message string    `json:"message,omitempty"`
	User    *UserBody `json:"user"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *UserBody `json:"user"`
}

func newUserBody(u *auth.User) *UserBody {
	joined := u.ChallengesJoined
	if joined == nil {
		joined = []string{}
	}
	return &UserBody{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
		Location: LocationBody{
			Latitude:  u.Profile.Location.Latitude,
			Longitude: u.Profile.Location.Longitude,
		},
		City:                u.Profile.City,
		Phone:               u.Profile.Phone,
		Gender:              u.Profile.Gender,
		DateOfBirth:         u.Profile.DateOfBirth,
		ProfilePhotoURL:     u.Profile.ProfilePhotoURL,
		TotalRecycled:       u.TotalRecycled,
		ChallengesCompleted: u.ChallengesCompleted,
		ChallengesJoined:    joined,
		EmailVerified:       u.EmailVerified,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may have disconnected
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Message: message, Code: code})
}

// Error codes returned to clients, one per auth.ErrorKind.
var kindCodes = map[auth.ErrorKind]string{
	auth.KindValidation:     "AUTH_VALIDATION",
	auth.KindDuplicateEmail: "AUTH_DUPLICATE_EMAIL",
	auth.KindNotFound:       "AUTH_USER_NOT_FOUND",
	auth.KindBadCredentials: "AUTH_INVALID_CREDENTIALS",
	auth.KindInvalidCode:    "AUTH_INVALID_OR_EXPIRED_CODE",
	auth.KindInvalidToken:   "AUTH_INVALID_TOKEN",
	auth.KindTooManyCodes:   "AUTH_TOO_MANY_CODES",
	auth.KindInternal:       "INTERNAL_ERROR",
}

var kindMessages = map[auth.ErrorKind]string{
	auth.KindDuplicateEmail: "Email already in use",
	auth.KindNotFound:       "User not found",
	auth.KindBadCredentials: "Invalid credentials",
	auth.KindInvalidCode:    "Invalid or expired code",
	auth.KindInvalidToken:   "Not authorized",
	auth.KindTooManyCodes:   "Too many codes requested. Please try again later.",
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind auth.ErrorKind) int {
	switch kind {
	case auth.KindValidation, auth.KindDuplicateEmail, auth.KindInvalidCode:
		return http.StatusBadRequest
	case auth.KindNotFound:
		return http.StatusNotFound
	case auth.KindBadCredentials, auth.KindInvalidToken:
		return http.StatusUnauthorized
	case auth.KindTooManyCodes:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// routeMessages are the client-facing texts a route uses for failures whose
// wording depends on the route.
type routeMessages struct {
	validation string
	internal   string
}

// writeServiceError answers a failed service call. Internal errors are
// logged with their oops context and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, msgs routeMessages) {
	kind := auth.KindOf(err)
	status := StatusFor(kind)

	var message string
	switch kind {
	case auth.KindValidation:
		message = validationMessage(err, msgs.validation)
	case auth.KindInternal:
		message = msgs.internal
		errutil.LogErrorContext(r.Context(), logger, "request failed", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()))
	default:
		message = kindMessages[kind]
	}
	writeError(w, status, kindCodes[kind], message)
}

// validationMessage names the offending field when the error records one.
func validationMessage(err error, fallback string) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if field, ok := oopsErr.Context()["field"].(string); ok && field != "" {
			return fmt.Sprintf("Invalid %s", field)
		}
	}
	return fallback
}

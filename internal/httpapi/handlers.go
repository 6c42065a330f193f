// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/recyclehub/recyclehub/internal/auth"
	"github.com/recyclehub/recyclehub/pkg/errutil"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Client-facing messages.
const (
	msgAllFieldsRequired     = "All fields are required"
	msgEmailPasswordRequired = "Email and password are required"
	msgEmailRequired         = "Email is required"
	msgEmailCodeRequired     = "Email and code required"
	msgInvalidProfile        = "Invalid profile fields"
	msgMalformedBody         = "Malformed JSON body"
)

type handlers struct {
	svc    AuthService
	logger *slog.Logger
}

// decode reads, validates and decodes the body into dst. On failure it
// writes a 400 with the route's validation message and returns false.
func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any, invalidMsg string) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "REQUEST_MALFORMED", msgMalformedBody)
		return false
	}

	if err := validateBody(body, dst); err != nil {
		switch code := errutil.Code(err); code {
		case "REQUEST_MALFORMED":
			writeError(w, http.StatusBadRequest, code, msgMalformedBody)
		case "REQUEST_INVALID":
			writeError(w, http.StatusBadRequest, kindCodes[auth.KindValidation], invalidMsg)
		default:
			errutil.LogErrorContext(r.Context(), h.logger, "request schema unavailable", err,
				"request_id", RequestIDFromContext(r.Context()))
			writeError(w, http.StatusInternalServerError, kindCodes[auth.KindInternal], "Internal server error")
		}
		return false
	}
	return true
}

// POST /signup
func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !h.decode(w, r, &req, msgAllFieldsRequired) {
		return
	}
	msgs := routeMessages{validation: msgAllFieldsRequired, internal: "Signup error"}

	profile, err := req.ProfileFields.apply(auth.Profile{})
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgs)
		return
	}

	user, err := h.svc.Signup(r.Context(), auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Profile:  profile,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgs)
		return
	}
	writeJSON(w, http.StatusCreated, UserResponse{
		Message: "User created successfully. Please verify your email.",
		User:    newUserBody(user),
	})
}

// POST /login
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req, msgEmailPasswordRequired) {
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, routeMessages{validation: msgEmailPasswordRequired, internal: "Login error"})
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Message:   "Login successful",
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      newUserBody(res.User),
	})
}

// POST /resend-verification
func (h *handlers) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !h.decode(w, r, &req, msgEmailRequired) {
		return
	}

	if err := h.svc.ResendVerification(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, h.logger, err, routeMessages{validation: msgEmailRequired, internal: "Failed to resend code"})
		return
	}
	writeJSON(w, http.StatusOK, MessageBody{Message: "Verification code sent"})
}

// POST /verify-email
func (h *handlers) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !h.decode(w, r, &req, msgEmailCodeRequired) {
		return
	}

	if err := h.svc.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		writeServiceError(w, r, h.logger, err, routeMessages{validation: msgEmailCodeRequired, internal: "Verification failed"})
		return
	}
	writeJSON(w, http.StatusOK, MessageBody{Message: "Email verified successfully"})
}

// POST /forgot-password
func (h *handlers) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !h.decode(w, r, &req, msgEmailRequired) {
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, h.logger, err, routeMessages{validation: msgEmailRequired, internal: "Something went wrong"})
		return
	}
	writeJSON(w, http.StatusOK, MessageBody{Message: "Reset code sent to your email."})
}

// POST /reset-password
func (h *handlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req, msgAllFieldsRequired) {
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeServiceError(w, r, h.logger, err, routeMessages{validation: msgAllFieldsRequired, internal: "Password reset failed"})
		return
	}
	writeJSON(w, http.StatusOK, MessageBody{Message: "Password reset successfully"})
}

// GET /me
func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, UserResponse{User: newUserBody(user)})
}

// PATCH /me
func (h *handlers) updateMe(w http.ResponseWriter, r *http.Request) {
	current, _ := UserFromContext(r.Context())

	var req UpdateProfileRequest
	if !h.decode(w, r, &req, msgInvalidProfile) {
		return
	}
	msgs := routeMessages{validation: msgInvalidProfile, internal: "Profile update failed"}

	profile, err := req.ProfileFields.apply(current.Profile)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgs)
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), current.ID, profile)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgs)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{Message: "Profile updated", User: newUserBody(user)})
}

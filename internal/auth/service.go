// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/recyclehub/recyclehub/pkg/errutil"
)

// DefaultNotifyTimeout bounds a single Notifier.Send call.
const DefaultNotifyTimeout = 5 * time.Second

// Recorder receives counters from the auth flows.
type Recorder interface {
	CodeIssued(purpose Purpose)
	NotificationFailed(purpose Purpose)
}

type noopRecorder struct{}

func (noopRecorder) CodeIssued(Purpose)         {}
func (noopRecorder) NotificationFailed(Purpose) {}

// Service orchestrates signup, login, email verification and password reset.
type Service struct {
	users         UserRepository
	codes         *CodeService
	hasher        PasswordHasher
	tokens        *TokenIssuer
	notifier      Notifier
	logger        *slog.Logger
	recorder      Recorder
	notifyTimeout time.Duration
	now           func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for non-fatal failures.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithNotifyTimeout overrides DefaultNotifyTimeout.
func WithNotifyTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// WithServiceClock replaces time.Now for account and verification timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new Service.
func NewService(
	users UserRepository,
	codes *CodeService,
	hasher PasswordHasher,
	tokens *TokenIssuer,
	notifier Notifier,
	opts ...ServiceOption,
) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("user repository is required")
	}
	if codes == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("code service is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token issuer is required")
	}
	if notifier == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("notifier is required")
	}

	s := &Service{
		users:         users,
		codes:         codes,
		hasher:        hasher,
		tokens:        tokens,
		notifier:      notifier,
		logger:        slog.Default(),
		recorder:      noopRecorder{},
		notifyTimeout: DefaultNotifyTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SignupInput carries the fields accepted at signup.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Profile  Profile
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Signup creates an account and sends an email verification code.
// A failed delivery does not undo the signup; the user can request a resend.
// Failing to store the code does, and surfaces as an internal error.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	email := NormalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || email == "" || in.Password == "" {
		return nil, oops.Code("AUTH_VALIDATION").
			With("operation", "signup").
			Wrapf(ErrValidation, "name, email and password are required")
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail)
	case !errors.Is(err, ErrNotFound):
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(in.Name, email, hash, in.Profile, s.now())
	if err != nil {
		return nil, err
	}

	// The unique index is authoritative; the lookup above only spares a hash.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail)
		}
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	code, expiresAt, err := s.codes.Issue(ctx, user.ID, PurposeEmailVerify)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "issue verification code").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	s.recorder.CodeIssued(PurposeEmailVerify)
	s.notify(ctx, user, PurposeEmailVerify, code, expiresAt)

	return user, nil
}

// Login checks the password and issues a session token. Unverified accounts
// may log in.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, oops.Code("AUTH_VALIDATION").
			With("operation", "login").
			Wrapf(ErrValidation, "email and password are required")
	}

	user, err := s.lookup(ctx, email, "login")
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	if !ok {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ResendVerification issues another email verification code. Earlier codes
// remain valid until they expire or one is consumed.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	return s.sendCode(ctx, email, PurposeEmailVerify, "resend verification")
}

// ForgotPassword issues a password reset code.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	return s.sendCode(ctx, email, PurposePasswordReset, "forgot password")
}

// VerifyEmail marks the account verified and consumes every verification
// code issued to it.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	if email == "" || code == "" {
		return oops.Code("AUTH_VALIDATION").
			With("operation", "verify email").
			Wrapf(ErrValidation, "email and code are required")
	}

	user, err := s.lookup(ctx, email, "verify email")
	if err != nil {
		return err
	}

	if err := s.codes.Validate(ctx, user.ID, PurposeEmailVerify, code); err != nil {
		return err
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID, s.now().UTC()); err != nil {
		return oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "mark email verified").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	return s.codes.Consume(ctx, user.ID, PurposeEmailVerify)
}

// ResetPassword replaces the password after checking a reset code.
// Existing session tokens stay valid until they expire.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = NormalizeEmail(email)
	if email == "" || code == "" || newPassword == "" {
		return oops.Code("AUTH_VALIDATION").
			With("operation", "reset password").
			Wrapf(ErrValidation, "email, code and new password are required")
	}

	user, err := s.lookup(ctx, email, "reset password")
	if err != nil {
		return err
	}

	if err := s.codes.Validate(ctx, user.ID, PurposePasswordReset, code); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_RESET_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return oops.Code("AUTH_RESET_FAILED").
			With("operation", "update password").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	return s.codes.Consume(ctx, user.ID, PurposePasswordReset)
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// Account removed after the token was issued.
		return nil, oops.Code("AUTH_INVALID_TOKEN").
			With("user_id", id.String()).
			Wrap(ErrInvalidToken)
	}
	if err != nil {
		return nil, oops.Code("AUTH_AUTHENTICATE_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}
	return user, nil
}

// UpdateProfile replaces the profile of the given user and returns the
// stored result.
func (s *Service) UpdateProfile(ctx context.Context, userID ulid.ULID, profile Profile) (*User, error) {
	if err := s.users.UpdateProfile(ctx, userID, profile); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_USER_NOT_FOUND").
				With("user_id", userID.String()).
				Wrap(ErrNotFound)
		}
		return nil, oops.Code("AUTH_PROFILE_UPDATE_FAILED").
			With("operation", "update profile").
			Wrap(err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, oops.Code("AUTH_PROFILE_UPDATE_FAILED").
			With("operation", "reload user").
			Wrap(err)
	}
	return user, nil
}

// SetRole changes the role of the account registered under email.
func (s *Service) SetRole(ctx context.Context, email string, role Role) error {
	if role != RoleUser && role != RoleAdmin {
		return oops.Code("AUTH_INVALID_ROLE").
			With("role", role).
			Wrapf(ErrValidation, "unknown role %q", role)
	}

	user, err := s.lookup(ctx, NormalizeEmail(email), "set role")
	if err != nil {
		return err
	}

	if err := s.users.UpdateRole(ctx, user.ID, role); err != nil {
		return oops.Code("AUTH_SET_ROLE_FAILED").
			With("operation", "update role").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

func (s *Service) sendCode(ctx context.Context, email string, purpose Purpose, operation string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return oops.Code("AUTH_VALIDATION").
			With("operation", operation).
			Wrapf(ErrValidation, "email is required")
	}

	user, err := s.lookup(ctx, email, operation)
	if err != nil {
		return err
	}

	code, expiresAt, err := s.codes.Issue(ctx, user.ID, purpose)
	if err != nil {
		return err
	}
	s.recorder.CodeIssued(purpose)
	s.notify(ctx, user, purpose, code, expiresAt)
	return nil
}

func (s *Service) lookup(ctx context.Context, email, operation string) (*User, error) {
	if email == "" {
		return nil, oops.Code("AUTH_VALIDATION").
			With("operation", operation).
			Wrapf(ErrValidation, "email is required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_USER_NOT_FOUND").
			With("operation", operation).
			Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", operation).
			Wrap(err)
	}
	return user, nil
}

// notify delivers a code. Failures are logged and counted, never returned.
func (s *Service) notify(ctx context.Context, user *User, purpose Purpose, code string, expiresAt time.Time) {
	sendCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	err := s.notifier.Send(sendCtx, Notification{
		To:        user.Email,
		Name:      user.Name,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		s.recorder.NotificationFailed(purpose)
		s.logger.WarnContext(ctx, "code delivery failed",
			"user_id", user.ID.String(),
			"purpose", string(purpose),
			"error", err)
	}
}

func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "rehash legacy password", err, "user_id", user.ID.String())
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "store upgraded password hash", err, "user_id", user.ID.String())
		return
	}
	user.PasswordHash = hash
}

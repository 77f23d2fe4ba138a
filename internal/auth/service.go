// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Aytsuu/Skwela/pkg/errutil"
)

// TokenIssuer produces session credentials for a user.
type TokenIssuer interface {
	GenerateRefreshToken() (string, error)
	GenerateAccessToken(user *User) (string, time.Time, error)
}

// TokenPair is a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// AuthResult is returned by operations that establish a session.
type AuthResult struct {
	Tokens  TokenPair
	Profile Profile
}

// SignupInput carries a password-based registration request.
type SignupInput struct {
	DisplayName string
	Email       string
	Password    string
	Username    *string
	Role        Role
}

// Service coordinates signup, verification, login, refresh and federated sign-in.
type Service struct {
	users     UserRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	otps      OTPCache
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
	dummyHash string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for refresh-token expiry.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// dummyPassword is hashed once per Service so that logins for unknown
// accounts cost the same as logins with a wrong password.
//
//nolint:gosec // G101: not a credential
const dummyPassword = "skwela-timing-equalizer"

// NewService creates a Service. All collaborators are required.
func NewService(
	users UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	otps OTPCache,
	notifier Notifier,
	opts ...ServiceOption,
) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token issuer is required")
	}
	if otps == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("otp cache is required")
	}
	if notifier == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("notifier is required")
	}

	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").
			With("operation", "hash dummy password").
			Wrap(err)
	}

	s := &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		otps:      otps,
		notifier:  notifier,
		logger:    slog.Default(),
		now:       time.Now,
		dummyHash: dummyHash,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Signup registers a password-based account and sends a verification code.
// The account starts unverified and no tokens are issued. A failure to send
// the code is logged and does not undo the registration.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, ErrEmptyPassword
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, errEmailExists()
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

	user, err := NewUser(email, in.Username, in.DisplayName, hash, in.Role)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, errEmailExists()
		}
		if errors.Is(err, ErrUsernameTaken) {
			return nil, errUsernameExists()
		}
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID.String())

	if err := s.SendOTP(ctx, user.Email); err != nil {
		s.logger.WarnContext(ctx, "verification code not sent after signup",
			"user_id", user.ID.String(),
			"error", err)
	}
	return user, nil
}

// SendOTP generates a new verification code for email, caches it for OTPTTL
// replacing any previous code, and hands it to the notifier.
func (s *Service) SendOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	code, err := GenerateOTP()
	if err != nil {
		return s.otpSendFailed(ctx, "generate code", err)
	}
	if err := s.otps.Save(ctx, email, code, OTPTTL); err != nil {
		return s.otpSendFailed(ctx, "cache code", err)
	}
	if err := s.notifier.SendOTP(ctx, email, code); err != nil {
		return s.otpSendFailed(ctx, "dispatch code", err)
	}
	return nil
}

// ResendOTP sends a fresh code to a registered, unverified account. Unknown
// and already verified addresses succeed without sending anything so the
// outcome does not reveal whether an address is registered.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.DebugContext(ctx, "resend requested for unknown address")
		return nil
	case err != nil:
		return oops.Code("AUTH_RESEND_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	case user.EmailVerified:
		s.logger.DebugContext(ctx, "resend requested for verified account", "user_id", user.ID.String())
		return nil
	}
	return s.SendOTP(ctx, user.Email)
}

func (s *Service) otpSendFailed(ctx context.Context, operation string, cause error) error {
	errutil.LogErrorContext(ctx, s.logger, "send verification code failed", cause, "operation", operation)
	return oops.Code(CodeOTPSendFailed).
		With("operation", operation).
		Errorf("failed to resend verification code")
}

// VerifyEmail checks code against the cached code for email. On a match the
// account is marked verified, the code is consumed and a session is issued.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	cached, err := s.otps.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeCodeExpired).
				With("field", "code").
				Errorf("verification code has expired")
		}
		return nil, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "get cached code").
			Wrap(err)
	}
	if subtle.ConstantTimeCompare([]byte(cached), []byte(code)) != 1 {
		return nil, s.wrongCode(ctx, email)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeInvalidCode).
				With("field", "code").
				Errorf("verification code is invalid")
		}
		return nil, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	user.EmailVerified = true
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "persist verified flag").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	// Only consume the code once the flag is durable.
	if err := s.otps.Delete(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to delete consumed verification code",
			"user_id", user.ID.String(),
			"error", err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: *tokens, Profile: user.Profile()}, nil
}

// wrongCode records a failed guess and revokes the live code once
// OTPAttemptLimit is reached. If the guess cannot be counted the attempt
// fails as internal, so guesses are never unbounded.
func (s *Service) wrongCode(ctx context.Context, email string) error {
	failures, err := s.otps.RecordFailure(ctx, email, OTPTTL)
	if err != nil {
		return oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "record failed attempt").
			Wrap(err)
	}

	attempt := CheckOTPFailures(failures)
	if !attempt.Exhausted {
		return oops.Code(CodeInvalidCode).
			With("field", "code").
			With("attempts_remaining", attempt.Remaining).
			Errorf("verification code is invalid")
	}

	if err := s.otps.Delete(ctx, email); err != nil {
		return oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "revoke exhausted code").
			Wrap(err)
	}
	s.logger.WarnContext(ctx, "verification code revoked after too many attempts",
		"attempts", failures)
	return oops.Code(CodeInvalidCode).
		With("field", "code").
		With("attempts_remaining", 0).
		Errorf("too many incorrect attempts, request a new verification code")
}

// Login authenticates with email and password. Unknown accounts and wrong
// passwords fail identically. Unverified accounts get a fresh code and fail
// with CodeEmailNotVerified.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	user, lookupErr := s.users.GetByEmail(ctx, email)
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	// Federated-only accounts have no hash and are verified against the
	// dummy hash as well.
	exists := lookupErr == nil && user.PasswordHash != ""
	targetHash := s.dummyHash
	if exists {
		targetHash = user.PasswordHash
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if exists {
			s.logger.WarnContext(ctx, "stored password hash is malformed",
				"user_id", user.ID.String(),
				"error", verifyErr)
		}
		return nil, errInvalidCredentials()
	}
	if !exists || !valid {
		return nil, errInvalidCredentials()
	}

	if !user.EmailVerified {
		if err := s.SendOTP(ctx, user.Email); err != nil {
			s.logger.WarnContext(ctx, "verification code not sent on unverified login",
				"user_id", user.ID.String(),
				"error", err)
		}
		return nil, oops.Code(CodeEmailNotVerified).
			With("field", "email").
			Errorf("email address has not been verified")
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		if newHash, err := s.hasher.Hash(password); err == nil {
			user.PasswordHash = newHash
		}
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: *tokens, Profile: user.Profile()}, nil
}

// Refresh exchanges a live refresh token for a new token pair. The presented
// token stops working as soon as the new one is persisted.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, errInvalidRefreshToken()
	}

	user, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errInvalidRefreshToken()
		}
		return nil, oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get user by refresh token").
			Wrap(err)
	}

	if !user.RefreshTokenValidAt(s.now()) ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, errInvalidRefreshToken()
	}

	return s.issueTokens(ctx, user)
}

func errInvalidRefreshToken() error {
	return oops.Code(CodeInvalidRefreshToken).Errorf("invalid or expired refresh token")
}

// FederatedSignIn signs in a user whose email was verified by a trusted
// identity provider. New accounts are created verified and no code is sent.
// An existing unverified account was never proven to belong to the mailbox
// owner, so its password, refresh token and pending code are discarded
// before it is marked verified.
func (s *Service) FederatedSignIn(ctx context.Context, email, displayName string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !user.EmailVerified {
			s.claimUnverified(ctx, user)
		}
	case errors.Is(err, ErrNotFound):
		user, err = s.createFederatedUser(ctx, email, displayName)
		if err != nil {
			return nil, err
		}
	default:
		return nil, oops.Code("AUTH_FEDERATED_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: *tokens, Profile: user.Profile()}, nil
}

// claimUnverified hands an unverified account to the federated identity.
// issueTokens persists the change.
func (s *Service) claimUnverified(ctx context.Context, user *User) {
	user.PasswordHash = ""
	user.ClearRefreshToken()
	user.EmailVerified = true

	if err := s.otps.Delete(ctx, user.Email); err != nil {
		s.logger.WarnContext(ctx, "failed to delete pending verification code",
			"user_id", user.ID.String(),
			"error", err)
	}
	s.logger.InfoContext(ctx, "unverified account claimed by federated sign-in",
		"user_id", user.ID.String())
}

func (s *Service) createFederatedUser(ctx context.Context, email, displayName string) (*User, error) {
	user, err := NewUser(email, nil, displayName, "", RoleStudent)
	if err != nil {
		return nil, err
	}
	user.EmailVerified = true

	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			return nil, oops.Code("AUTH_FEDERATED_FAILED").
				With("operation", "create user").
				Wrap(err)
		}
		// Lost a race with a concurrent first sign-in.
		existing, getErr := s.users.GetByEmail(ctx, email)
		if getErr != nil {
			return nil, oops.Code("AUTH_FEDERATED_FAILED").
				With("operation", "get user after conflict").
				Wrap(getErr)
		}
		if !existing.EmailVerified {
			s.claimUnverified(ctx, existing)
		}
		return existing, nil
	}

	s.logger.InfoContext(ctx, "user created from federated sign-in", "user_id", user.ID.String())
	return user, nil
}

// CurrentUser returns the profile of the account identified by email.
// Unverified accounts are rejected even with a valid access token.
func (s *Service) CurrentUser(ctx context.Context, email string) (*Profile, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeUnauthorized).Errorf("account no longer exists")
		}
		return nil, oops.Code("AUTH_CURRENT_USER_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	if !user.EmailVerified {
		return nil, oops.Code(CodeEmailNotVerified).
			With("field", "email").
			Errorf("email address has not been verified")
	}
	profile := user.Profile()
	return &profile, nil
}

// Logout empties the user's refresh-token slot.
func (s *Service) Logout(ctx context.Context, userID ulid.ULID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeUnauthorized).
				With("user_id", userID.String()).
				Errorf("account no longer exists")
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	user.ClearRefreshToken()
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "clear refresh token").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// issueTokens overwrites the refresh-token slot, persists the user and signs
// a new access token.
func (s *Service) issueTokens(ctx context.Context, user *User) (*TokenPair, error) {
	refresh, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("operation", "generate refresh token").
			Wrap(err)
	}

	now := s.now().UTC()
	refreshExpiresAt := now.Add(RefreshTokenTTL)
	user.SetRefreshToken(refresh, refreshExpiresAt)
	user.UpdatedAt = now

	if err := s.users.Update(ctx, user); err != nil {
		return nil, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("operation", "persist refresh token").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	access, accessExpiresAt, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("operation", "sign access token").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	return &TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExpiresAt,
	}, nil
}

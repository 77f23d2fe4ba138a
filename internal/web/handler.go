// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

// Package web exposes the auth service over HTTP with gin.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Aytsuu/Skwela/internal/auth"
	"github.com/Aytsuu/Skwela/internal/observability"
)

// AuthService is the part of *auth.Service the handlers call.
type AuthService interface {
	Signup(ctx context.Context, in auth.SignupInput) (*auth.User, error)
	ResendOTP(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email, code string) (*auth.AuthResult, error)
	Login(ctx context.Context, email, password string) (*auth.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	FederatedSignIn(ctx context.Context, email, displayName string) (*auth.AuthResult, error)
	CurrentUser(ctx context.Context, email string) (*auth.Profile, error)
	Logout(ctx context.Context, userID ulid.ULID) error
}

// TokenParser validates access tokens.
type TokenParser interface {
	ParseAccessToken(token string) (*auth.AccessClaims, error)
}

// Config holds the HTTP-facing settings.
type Config struct {
	CookieDomain  string
	SecureCookies bool
	// FrontendURL is where the browser lands after a Google sign-in.
	FrontendURL string
}

// Handler serves the /api/auth routes.
type Handler struct {
	cfg      Config
	service  AuthService
	tokens   TokenParser
	google   OAuthProvider
	metrics  *observability.Metrics
	logger   *slog.Logger
	report   ReportFunc
	now      func() time.Time
	newState func() (string, error)
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithGoogle enables the Google sign-in routes.
func WithGoogle(p OAuthProvider) HandlerOption {
	return func(h *Handler) {
		h.google = p
	}
}

// WithMetrics records per-operation outcomes.
func WithMetrics(m *observability.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithHandlerLogger sets the logger. Defaults to slog.Default().
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithReporter replaces ReportToSentry.
func WithReporter(r ReportFunc) HandlerOption {
	return func(h *Handler) {
		if r != nil {
			h.report = r
		}
	}
}

// NewHandler creates a Handler.
func NewHandler(cfg Config, service AuthService, tokens TokenParser, opts ...HandlerOption) (*Handler, error) {
	if service == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("auth service is required")
	}
	if tokens == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("token parser is required")
	}
	h := &Handler{
		cfg:      cfg,
		service:  service,
		tokens:   tokens,
		logger:   slog.Default(),
		report:   ReportToSentry,
		now:      time.Now,
		newState: randomState,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	useJSONFieldNames()

	g := r.Group("/api/auth")
	g.POST("/signup", h.Signup)
	g.POST("/resend-otp", h.ResendOTP)
	g.POST("/verify-email", h.VerifyEmail)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.GET("/google", h.GoogleStart)
	g.GET("/google/callback", h.GoogleCallback)

	authed := g.Group("")
	authed.Use(RequireAuth(h.tokens))
	authed.GET("/me", h.Me)
	authed.POST("/logout", h.Logout)
}

// Signup registers a password account and sends the first verification code.
func (h *Handler) Signup(c *gin.Context) {
	const op = "signup"
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, op, err)
		return
	}

	_, err := h.service.Signup(c.Request.Context(), auth.SignupInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
		Username:    req.Username,
		Role:        auth.Role(req.Role),
	})
	if err != nil {
		h.writeError(c, op, err)
		return
	}

	h.metrics.RecordAuth(op, observability.ResultSuccess)
	c.JSON(http.StatusCreated, gin.H{"message": "account created, check your email for a verification code"})
}

// ResendOTP issues a fresh verification code. The response is the same
// whether or not the address belongs to an unverified account.
func (h *Handler) ResendOTP(c *gin.Context) {
	const op = "resend_otp"
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, op, err)
		return
	}

	if err := h.service.ResendOTP(c.Request.Context(), req.Email); err != nil {
		h.writeError(c, op, err)
		return
	}

	h.metrics.RecordAuth(op, observability.ResultSuccess)
	c.JSON(http.StatusOK, gin.H{"message": "if the address is awaiting verification, a new code has been sent"})
}

// VerifyEmail consumes a code and starts a session.
func (h *Handler) VerifyEmail(c *gin.Context) {
	const op = "verify_email"
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, op, err)
		return
	}

	result, err := h.service.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		h.writeError(c, op, err)
		return
	}
	h.startSession(c, op, result)
}

// Login authenticates with email and password.
func (h *Handler) Login(c *gin.Context) {
	const op = "login"
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, op, err)
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, op, err)
		return
	}
	h.startSession(c, op, result)
}

// Refresh rotates the session using the refresh_token cookie.
func (h *Handler) Refresh(c *gin.Context) {
	const op = "refresh"
	token, err := c.Cookie(RefreshTokenCookie)
	if err != nil || token == "" {
		h.writeError(c, op, oops.Code(auth.CodeInvalidRefreshToken).Errorf("refresh token cookie missing"))
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), token)
	if err != nil {
		h.writeError(c, op, err)
		return
	}

	h.setSessionCookies(c, *tokens)
	h.metrics.RecordAuth(op, observability.ResultSuccess)
	c.JSON(http.StatusOK, gin.H{
		"message":                 "session refreshed",
		"access_token_expires_at": tokens.AccessTokenExpiresAt,
	})
}

// Me returns the signed-in user's profile.
func (h *Handler) Me(c *gin.Context) {
	const op = "current_user"
	claims := ClaimsFrom(c)

	profile, err := h.service.CurrentUser(c.Request.Context(), claims.Email)
	if err != nil {
		h.writeError(c, op, err)
		return
	}

	h.metrics.RecordAuth(op, observability.ResultSuccess)
	c.JSON(http.StatusOK, profile)
}

// Logout empties the refresh-token slot and clears the session cookies.
func (h *Handler) Logout(c *gin.Context) {
	const op = "logout"
	claims := ClaimsFrom(c)

	userID, err := ulid.Parse(claims.Subject)
	if err != nil {
		h.clearSessionCookies(c)
		h.writeError(c, op, oops.Code(auth.CodeUnauthorized).With("subject", claims.Subject).Wrap(err))
		return
	}

	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		if auth.KindOf(err) == auth.KindUnauthorized {
			h.clearSessionCookies(c)
		}
		h.writeError(c, op, err)
		return
	}

	h.clearSessionCookies(c)
	h.metrics.RecordAuth(op, observability.ResultSuccess)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) startSession(c *gin.Context, op string, result *auth.AuthResult) {
	h.setSessionCookies(c, result.Tokens)
	h.metrics.RecordAuth(op, observability.ResultSuccess)
	c.JSON(http.StatusOK, result.Profile)
}

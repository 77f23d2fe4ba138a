// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token lifetimes.
const (
	RefreshTokenBytes     = 32
	DefaultAccessTokenTTL = 60 * time.Minute
	RefreshTokenTTL       = 7 * 24 * time.Hour
	MinSigningKeyBytes    = 32
)

// TokenConfig configures access-token issuance.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	// AccessTTL defaults to DefaultAccessTokenTTL when zero.
	AccessTTL time.Duration
}

// AccessClaims is the claim set carried by access tokens.
type AccessClaims struct {
	UniqueName   string `json:"unique_name"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	DisplayImage string `json:"display_image"`
	Role         Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner issues and validates HS256 access tokens and generates opaque
// refresh tokens.
type TokenSigner struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokenSigner creates a TokenSigner. A missing or short secret, issuer or
// audience is a configuration error.
func NewTokenSigner(cfg TokenConfig) (*TokenSigner, error) {
	if len(cfg.Secret) < MinSigningKeyBytes {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").
			With("min_bytes", MinSigningKeyBytes).
			Errorf("signing secret must be at least %d bytes", MinSigningKeyBytes)
	}
	if cfg.Issuer == "" {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("issuer is required")
	}
	if cfg.Audience == "" {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("audience is required")
	}
	ttl := cfg.AccessTTL
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &TokenSigner{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		accessTTL: ttl,
		now:       time.Now,
	}, nil
}

// AccessTTL returns the lifetime of issued access tokens.
func (s *TokenSigner) AccessTTL() time.Duration {
	return s.accessTTL
}

// GenerateRefreshToken returns 256 bits from crypto/rand, base64 encoded.
func (s *TokenSigner) GenerateRefreshToken() (string, error) {
	b := make([]byte, RefreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("TOKEN_RANDOM_FAILED").Wrap(err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// GenerateAccessToken signs an access token for user and returns it with its expiry.
func (s *TokenSigner) GenerateAccessToken(user *User) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.accessTTL)
	claims := AccessClaims{
		UniqueName:   user.UniqueName(),
		Email:        user.Email,
		Name:         user.DisplayName,
		DisplayImage: user.DisplayImage,
		Role:         user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, oops.Code("TOKEN_SIGN_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	return signed, expiresAt, nil
}

// ParseAccessToken validates signature, algorithm, issuer, audience and
// lifetime. Any failure is reported as CodeUnauthorized.
func (s *TokenSigner) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	if tokenString == "" {
		return nil, oops.Code(CodeUnauthorized).Errorf("access token is missing")
	}

	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, oops.Code(CodeUnauthorized).
			With("reason", errReason(err)).
			Errorf("invalid access token")
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, oops.Code(CodeUnauthorized).Errorf("access token is missing identity claims")
	}
	return claims, nil
}

func errReason(err error) string {
	if err == nil {
		return "invalid"
	}
	return err.Error()
}

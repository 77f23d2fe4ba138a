// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package web

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/Aytsuu/Skwela/internal/auth"
	"github.com/Aytsuu/Skwela/internal/observability"
)

// GoogleUserInfoURL is the OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// FederatedIdentity is what an external provider asserts about a user.
type FederatedIdentity struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"email_verified"`
}

// OAuthProvider drives an authorization-code sign-in.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Identity(ctx context.Context, code string) (*FederatedIdentity, error)
}

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint and UserInfoURL override Google's for tests.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// GoogleProvider signs users in with their Google account.
type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider validates cfg and returns a provider.
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, oops.Code("OAUTH_CONFIG_INVALID").
			Errorf("google client id, secret and redirect url are required")
	}
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = endpoints.Google
	}
	userInfo := cfg.UserInfoURL
	if userInfo == "" {
		userInfo = GoogleUserInfoURL
	}
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfo,
	}, nil
}

// AuthCodeURL returns the consent page URL.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Identity exchanges code for a token and fetches the user's profile.
func (p *GoogleProvider) Identity(ctx context.Context, code string) (*FederatedIdentity, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, oops.Code("OAUTH_EXCHANGE_FAILED").Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, http.NoBody)
	if err != nil {
		return nil, oops.Code("OAUTH_USERINFO_FAILED").Wrap(err)
	}
	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, oops.Code("OAUTH_USERINFO_FAILED").Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, oops.Code("OAUTH_USERINFO_FAILED").
			With("status", resp.StatusCode).
			Errorf("userinfo returned %s", resp.Status)
	}

	var id FederatedIdentity
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&id); err != nil {
		return nil, oops.Code("OAUTH_USERINFO_FAILED").Wrap(err)
	}
	return &id, nil
}

// GoogleStart redirects to the consent page with a fresh state cookie.
func (h *Handler) GoogleStart(c *gin.Context) {
	if h.google == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "google sign-in is not configured"})
		return
	}
	state, err := h.newState()
	if err != nil {
		h.writeError(c, "google_start", err)
		return
	}
	h.setCookie(c, OAuthStateCookie, state, int(oauthStateTTL.Seconds()))
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GoogleCallback completes the sign-in and sends the browser to the frontend.
// Failures redirect too, with an error query parameter.
func (h *Handler) GoogleCallback(c *gin.Context) {
	const op = "federated_sign_in"
	if h.google == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "google sign-in is not configured"})
		return
	}

	expected, _ := c.Cookie(OAuthStateCookie)
	h.setCookie(c, OAuthStateCookie, "", -1)
	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		h.metrics.RecordAuth(op, auth.KindUnauthorized.String())
		h.redirectFrontend(c, "invalid_state")
		return
	}
	if reason := c.Query("error"); reason != "" {
		h.metrics.RecordAuth(op, auth.KindUnauthorized.String())
		h.redirectFrontend(c, "access_denied")
		return
	}

	ctx := c.Request.Context()
	id, err := h.google.Identity(ctx, c.Query("code"))
	if err != nil {
		h.logger.WarnContext(ctx, "google identity lookup failed", "error", err)
		h.metrics.RecordAuth(op, auth.KindUnauthorized.String())
		h.redirectFrontend(c, "oauth_failed")
		return
	}
	if !id.EmailVerified {
		h.metrics.RecordAuth(op, auth.KindUnauthorized.String())
		h.redirectFrontend(c, "email_not_verified")
		return
	}

	result, err := h.service.FederatedSignIn(ctx, id.Email, id.Name)
	if err != nil {
		kind := auth.KindOf(err)
		h.metrics.RecordAuth(op, kind.String())
		if kind == auth.KindInternal {
			h.logger.ErrorContext(ctx, "federated sign-in failed", "error", err)
			h.report(c, err)
		}
		h.redirectFrontend(c, "sign_in_failed")
		return
	}

	h.setSessionCookies(c, result.Tokens)
	h.metrics.RecordAuth(op, observability.ResultSuccess)
	h.redirectFrontend(c, "")
}

func (h *Handler) redirectFrontend(c *gin.Context, reason string) {
	target := h.cfg.FrontendURL
	if target == "" {
		target = "/"
	}
	if reason != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "error=" + url.QueryEscape(reason)
	}
	c.Redirect(http.StatusFound, target)
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("OAUTH_STATE_FAILED").Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

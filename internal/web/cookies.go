// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aytsuu/Skwela/internal/auth"
)

// Cookie names.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	OAuthStateCookie   = "oauth_state"
)

const oauthStateTTL = 10 * time.Minute

func (h *Handler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", h.cfg.CookieDomain, h.cfg.SecureCookies, true)
}

func (h *Handler) setSessionCookies(c *gin.Context, tokens auth.TokenPair) {
	now := h.now()
	h.setCookie(c, AccessTokenCookie, tokens.AccessToken, secondsUntil(now, tokens.AccessTokenExpiresAt))
	h.setCookie(c, RefreshTokenCookie, tokens.RefreshToken, secondsUntil(now, tokens.RefreshTokenExpiresAt))
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	h.setCookie(c, AccessTokenCookie, "", -1)
	h.setCookie(c, RefreshTokenCookie, "", -1)
}

// secondsUntil never returns 0, which would make the cookie a session cookie.
func secondsUntil(now, t time.Time) int {
	s := int(t.Sub(now).Seconds())
	if s <= 0 {
		return -1
	}
	return s
}

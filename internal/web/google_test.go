// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package web_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Aytsuu/Skwela/internal/auth"
	"github.com/Aytsuu/Skwela/internal/web"
)

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, identity map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"google-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer google-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(identity)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newGoogle(t *testing.T, srv *httptest.Server) *web.GoogleProvider {
	t.Helper()
	p, err := web.NewGoogleProvider(web.GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://api.example.com/api/auth/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/auth",
			TokenURL: srv.URL + "/token",
		},
		UserInfoURL: srv.URL + "/userinfo",
	})
	require.NoError(t, err)
	return p
}

func TestNewGoogleProvider_RequiresClient(t *testing.T) {
	_, err := web.NewGoogleProvider(web.GoogleConfig{ClientID: "id"})
	require.Error(t, err)
}

func TestGoogleProvider_Identity(t *testing.T) {
	srv := fakeGoogle(t, map[string]any{"email": "ada@example.com", "name": "Ada", "email_verified": true})
	p := newGoogle(t, srv)

	id, err := p.Identity(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.Equal(t, "Ada", id.Name)
	assert.True(t, id.EmailVerified)

	_, err = p.Identity(context.Background(), "bad-code")
	require.Error(t, err)
}

func TestGoogleStart_RedirectsWithState(t *testing.T) {
	srv := fakeGoogle(t, nil)
	f := newFixture(t, web.WithGoogle(newGoogle(t, srv)))

	rec := f.do(t, http.MethodGet, "/api/auth/google", nil)

	require.Equal(t, http.StatusFound, rec.Code)
	state := cookieNamed(rec, web.OAuthStateCookie)
	require.NotNil(t, state)
	assert.True(t, state.HttpOnly)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth", loc.Path)
	assert.Equal(t, state.Value, loc.Query().Get("state"))
	assert.Equal(t, "select_account", loc.Query().Get("prompt"))
	assert.Equal(t, "client", loc.Query().Get("client_id"))
}

func TestGoogleCallback(t *testing.T) {
	verified := map[string]any{"email": "ada@example.com", "name": "Ada", "email_verified": true}

	t.Run("signs in and redirects to the frontend", func(t *testing.T) {
		f := newFixture(t, web.WithGoogle(newGoogle(t, fakeGoogle(t, verified))))
		f.service.On("FederatedSignIn", mock.Anything, "ada@example.com", "Ada").Return(sessionResult(), nil)

		rec := f.do(t, http.MethodGet, "/api/auth/google/callback?state=s1&code=good-code", nil,
			&http.Cookie{Name: web.OAuthStateCookie, Value: "s1"})

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://app.example.com/home", rec.Header().Get("Location"))
		assert.Equal(t, "access", cookieNamed(rec, web.AccessTokenCookie).Value)
	})

	t.Run("state mismatch", func(t *testing.T) {
		f := newFixture(t, web.WithGoogle(newGoogle(t, fakeGoogle(t, verified))))

		rec := f.do(t, http.MethodGet, "/api/auth/google/callback?state=other&code=good-code", nil,
			&http.Cookie{Name: web.OAuthStateCookie, Value: "s1"})

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://app.example.com/home?error=invalid_state", rec.Header().Get("Location"))
		assert.Nil(t, cookieNamed(rec, web.AccessTokenCookie))
	})

	t.Run("unverified google email", func(t *testing.T) {
		unverified := map[string]any{"email": "ada@example.com", "name": "Ada", "email_verified": false}
		f := newFixture(t, web.WithGoogle(newGoogle(t, fakeGoogle(t, unverified))))

		rec := f.do(t, http.MethodGet, "/api/auth/google/callback?state=s1&code=good-code", nil,
			&http.Cookie{Name: web.OAuthStateCookie, Value: "s1"})

		assert.Equal(t, "https://app.example.com/home?error=email_not_verified", rec.Header().Get("Location"))
	})

	t.Run("exchange failure", func(t *testing.T) {
		f := newFixture(t, web.WithGoogle(newGoogle(t, fakeGoogle(t, verified))))

		rec := f.do(t, http.MethodGet, "/api/auth/google/callback?state=s1&code=bad-code", nil,
			&http.Cookie{Name: web.OAuthStateCookie, Value: "s1"})

		assert.Equal(t, "https://app.example.com/home?error=oauth_failed", rec.Header().Get("Location"))
	})

	t.Run("service failure is reported", func(t *testing.T) {
		f := newFixture(t, web.WithGoogle(newGoogle(t, fakeGoogle(t, verified))))
		f.service.On("FederatedSignIn", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, kindErr("USER_CREATE_FAILED", "", "db down"))

		rec := f.do(t, http.MethodGet, "/api/auth/google/callback?state=s1&code=good-code", nil,
			&http.Cookie{Name: web.OAuthStateCookie, Value: "s1"})

		assert.Equal(t, "https://app.example.com/home?error=sign_in_failed", rec.Header().Get("Location"))
		assert.Len(t, f.reported, 1)
		assert.Equal(t, auth.KindInternal, auth.KindOf(f.reported[0]))
	})
}

func TestGoogleRoutes_NotConfigured(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/auth/google", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

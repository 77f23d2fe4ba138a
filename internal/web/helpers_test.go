// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Aytsuu/Skwela/internal/auth"
	"github.com/Aytsuu/Skwela/internal/observability"
	"github.com/Aytsuu/Skwela/internal/web"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) Signup(ctx context.Context, in auth.SignupInput) (*auth.User, error) {
	args := m.Called(ctx, in)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *serviceMock) ResendOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *serviceMock) VerifyEmail(ctx context.Context, email, code string) (*auth.AuthResult, error) {
	args := m.Called(ctx, email, code)
	res, _ := args.Get(0).(*auth.AuthResult)
	return res, args.Error(1)
}

func (m *serviceMock) Login(ctx context.Context, email, password string) (*auth.AuthResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*auth.AuthResult)
	return res, args.Error(1)
}

func (m *serviceMock) Refresh(ctx context.Context, token string) (*auth.TokenPair, error) {
	args := m.Called(ctx, token)
	pair, _ := args.Get(0).(*auth.TokenPair)
	return pair, args.Error(1)
}

func (m *serviceMock) FederatedSignIn(ctx context.Context, email, displayName string) (*auth.AuthResult, error) {
	args := m.Called(ctx, email, displayName)
	res, _ := args.Get(0).(*auth.AuthResult)
	return res, args.Error(1)
}

func (m *serviceMock) CurrentUser(ctx context.Context, email string) (*auth.Profile, error) {
	args := m.Called(ctx, email)
	p, _ := args.Get(0).(*auth.Profile)
	return p, args.Error(1)
}

func (m *serviceMock) Logout(ctx context.Context, userID ulid.ULID) error {
	return m.Called(ctx, userID).Error(0)
}

// tokenMap accepts only the tokens it holds.
type tokenMap map[string]*auth.AccessClaims

func (t tokenMap) ParseAccessToken(token string) (*auth.AccessClaims, error) {
	if c, ok := t[token]; ok {
		return c, nil
	}
	return nil, oops.Code(auth.CodeUnauthorized).Errorf("invalid access token")
}

type fixture struct {
	service  *serviceMock
	router   *gin.Engine
	metrics  *observability.Metrics
	reported []error
	userID   ulid.ULID
}

const validToken = "valid-access-token"

func newFixture(t *testing.T, opts ...web.HandlerOption) *fixture {
	t.Helper()
	f := &fixture{
		service: &serviceMock{},
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
		userID:  ulid.Make(),
	}
	tokens := tokenMap{validToken: {Email: "ada@example.com"}}
	tokens[validToken].Subject = f.userID.String()

	all := append([]web.HandlerOption{
		web.WithMetrics(f.metrics),
		web.WithReporter(func(_ *gin.Context, err error) { f.reported = append(f.reported, err) }),
	}, opts...)
	h, err := web.NewHandler(web.Config{FrontendURL: "https://app.example.com/home"}, f.service, tokens, all...)
	require.NoError(t, err)
	f.router = web.NewRouter(h)
	t.Cleanup(func() { f.service.AssertExpectations(t) })
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func kindErr(code, field, msg string) error {
	b := oops.Code(code)
	if field != "" {
		b = b.With("field", field)
	}
	return b.Errorf("%s", msg)
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, http.NoBody)
}

func serve(f *fixture, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

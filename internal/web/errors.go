// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package web

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/Aytsuu/Skwela/internal/auth"
	"github.com/Aytsuu/Skwela/pkg/errutil"
)

// ReportFunc forwards an unexpected failure to an error tracker.
type ReportFunc func(c *gin.Context, err error)

// ReportToSentry captures err on a per-request Sentry hub. It is a no-op
// until sentry.Init has been called with a DSN.
func ReportToSentry(c *gin.Context, err error) {
	hub := sentry.GetHubFromContext(c.Request.Context())
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(c.Request)
		scope.SetTag("route", c.FullPath())
		if code := errutil.Code(err); code != "" {
			scope.SetTag("error_code", code)
		}
		hub.CaptureException(err)
	})
}

type kindResponse struct {
	status  int
	message string
}

var kindResponses = map[auth.Kind]kindResponse{
	auth.KindValidation:          {http.StatusBadRequest, "validation failed"},
	auth.KindEmailExists:         {http.StatusConflict, "email is already registered"},
	auth.KindUsernameExists:      {http.StatusConflict, "username is already taken"},
	auth.KindInvalidCredentials:  {http.StatusUnauthorized, "invalid email or password"},
	auth.KindEmailNotVerified:    {http.StatusForbidden, "email address has not been verified"},
	auth.KindInvalidCode:         {http.StatusBadRequest, "invalid verification code"},
	auth.KindCodeExpired:         {http.StatusGone, "verification code has expired"},
	auth.KindInvalidRefreshToken: {http.StatusUnauthorized, "invalid or expired refresh token"},
	auth.KindUnauthorized:        {http.StatusUnauthorized, "unauthorized"},
	auth.KindOTPSendFailed:       {http.StatusBadGateway, "failed to resend verification code"},
}

// StatusFor returns the HTTP status for a failure kind.
func StatusFor(kind auth.Kind) int {
	if r, ok := kindResponses[kind]; ok {
		return r.status
	}
	return http.StatusInternalServerError
}

// writeError renders err as JSON. Internal failures are logged and reported;
// every other kind is an expected outcome and gets a fixed message.
func (h *Handler) writeError(c *gin.Context, operation string, err error) {
	kind := auth.KindOf(err)
	h.metrics.RecordAuth(operation, kind.String())

	resp, ok := kindResponses[kind]
	if !ok {
		errutil.LogErrorContext(c.Request.Context(), h.logger, "request failed", err,
			"operation", operation,
			"route", c.FullPath())
		h.report(c, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	body := gin.H{"error": resp.message}
	switch kind {
	case auth.KindValidation, auth.KindEmailExists, auth.KindUsernameExists:
		field := auth.FieldOf(err)
		if field == "" {
			field = "request"
		}
		body["errors"] = gin.H{field: messageOf(err, resp.message)}
	case auth.KindEmailNotVerified:
		body["requires_verification"] = true
	case auth.KindInvalidRefreshToken:
		h.clearSessionCookies(c)
	}
	c.AbortWithStatusJSON(resp.status, body)
}

// writeBindError renders a request decoding or validation failure.
func (h *Handler) writeBindError(c *gin.Context, operation string, err error) {
	h.metrics.RecordAuth(operation, auth.KindValidation.String())

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	fields := gin.H{}
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation failed", "errors": fields})
}

func messageOf(err error, fallback string) string {
	if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Error() != "" {
		return oopsErr.Error()
	}
	return fallback
}

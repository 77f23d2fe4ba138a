// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned by UserRepository.Create when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// ErrUsernameTaken is returned by UserRepository.Create when the username is in use.
var ErrUsernameTaken = errors.New("username already taken")

// Error codes surfaced by Service. Each maps to exactly one Kind.
const (
	CodeValidation          = "AUTH_VALIDATION_FAILED"
	CodeEmailExists         = "AUTH_EMAIL_EXISTS"
	CodeUsernameExists      = "AUTH_USERNAME_EXISTS"
	CodeInvalidCredentials  = "AUTH_INVALID_CREDENTIALS"
	CodeEmailNotVerified    = "AUTH_EMAIL_NOT_VERIFIED"
	CodeInvalidCode         = "AUTH_INVALID_CODE"
	CodeCodeExpired         = "AUTH_CODE_EXPIRED"
	CodeInvalidRefreshToken = "AUTH_INVALID_REFRESH_TOKEN"
	CodeUnauthorized        = "AUTH_UNAUTHORIZED"
	CodeOTPSendFailed       = "AUTH_OTP_SEND_FAILED"
)

// Kind classifies a Service failure for the transport layer.
type Kind int

// Failure kinds.
const (
	KindInternal Kind = iota
	KindValidation
	KindEmailExists
	KindInvalidCredentials
	KindEmailNotVerified
	KindInvalidCode
	KindCodeExpired
	KindInvalidRefreshToken
	KindUnauthorized
	KindOTPSendFailed
	KindUsernameExists
)

var kindNames = map[Kind]string{
	KindInternal:            "internal",
	KindValidation:          "validation_failure",
	KindEmailExists:         "email_already_exists",
	KindInvalidCredentials:  "invalid_credentials",
	KindEmailNotVerified:    "email_not_verified",
	KindInvalidCode:         "invalid_code",
	KindCodeExpired:         "code_expired",
	KindInvalidRefreshToken: "invalid_or_expired_refresh_token",
	KindUnauthorized:        "unauthorized",
	KindOTPSendFailed:       "otp_send_failed",
	KindUsernameExists:      "username_already_exists",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindOf returns the failure kind of err. Errors without a recognised code,
// including infrastructure failures, are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	switch oopsErr.Code() {
	case CodeValidation, "AUTH_EMPTY_PASSWORD", "USER_INVALID_EMAIL", "USER_INVALID_ROLE", "USER_MISSING_IDENTITY":
		return KindValidation
	case CodeEmailExists:
		return KindEmailExists
	case CodeUsernameExists:
		return KindUsernameExists
	case CodeInvalidCredentials:
		return KindInvalidCredentials
	case CodeEmailNotVerified:
		return KindEmailNotVerified
	case CodeInvalidCode:
		return KindInvalidCode
	case CodeCodeExpired:
		return KindCodeExpired
	case CodeInvalidRefreshToken:
		return KindInvalidRefreshToken
	case CodeUnauthorized:
		return KindUnauthorized
	case CodeOTPSendFailed:
		return KindOTPSendFailed
	default:
		return KindInternal
	}
}

// FieldOf returns the input field an error refers to, if any.
func FieldOf(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if field, ok := oopsErr.Context()["field"].(string); ok {
		return field
	}
	return ""
}

func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
}

func errUsernameExists() error {
	return oops.Code(CodeUsernameExists).
		With("field", "username").
		Errorf("username is already taken")
}

func errEmailExists() error {
	return oops.Code(CodeEmailExists).
		With("field", "email").
		Errorf("email is already registered")
}

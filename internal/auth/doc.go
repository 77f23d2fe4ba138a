// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

// Package auth provides authentication and session lifecycle for Skwela.
//
// # Domain Types
//
// Users should be created with NewUser, which normalizes the email, applies
// the default role and display image, and rejects records without an
// identifying contact. Direct struct initialization bypasses validation.
//
// # Lifecycle
//
// An account moves from unauthenticated to pending verification on Signup,
// and to authenticated on VerifyEmail, Login, Refresh or FederatedSignIn.
// Each user holds a single refresh token; issuing a new one overwrites the
// previous one.
//
// # Collaborators
//
// Service depends only on interfaces declared here:
//   - UserRepository - user directory (see auth/postgres)
//   - OTPCache - short-lived verification codes (see auth/redis)
//   - Notifier - code delivery (see notify)
//   - PasswordHasher - BcryptHasher
//   - TokenIssuer - TokenSigner
//
// Failures carry oops codes; KindOf maps them to the failure kinds the
// transport layer renders.
package auth

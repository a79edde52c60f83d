// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the account entity plus the logic for registration, login,
refresh-token rotation, and logout. Role membership itself lives in the
role package; this package only embeds the resolved set into tokens at
issue time.

# Architecture

  - Service: Orchestrates business logic (Register, Login, Refresh).
  - Repository: Abstracted interfaces for Postgres (accounts) and Redis (sessions).
  - Security: Bcrypt hashing and RSA-signed JWTs.
*/
package auth

import (
	"time"
)

// # Domain Entities

// User represents a registered account on the Mentora platform.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string    `json:"display_name"`
	Roles        []string  `json:"roles"` // Resolved role set, hydrated at read time.
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldDisplayName = "display_name"
	FieldLogin       = "login"
	FieldAccessToken = "access_token"
	FieldTokenType   = "token_type"
	FieldExpiresIn   = "expires_in"
	FieldUser        = "user"
)

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	// Short (15m) so role grants and revokes take effect quickly: the role
	// set rides inside the token and only updates at refresh.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the duration a refresh token remains valid.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random secure token.
	RefreshTokenLength = 32
)

// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error
}

// # Volatile Session Data Access

// SessionRepository defines the contract for refresh-token sessions.
//
// Sessions are volatile: the hashed refresh token maps to its account for
// the token's lifetime and expiry is delegated to the store's TTL, so no
// cleanup job is needed.
type SessionRepository interface {

	/*
		Set stores a refresh-token hash against its account for the TTL.

		Parameters:
		  - context: context.Context
		  - tokenHash: string
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, tokenHash, userID string, ttl time.Duration) error

	/*
		Get retrieves the account bound to a refresh-token hash.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - string: UserID
		  - error: apperr.NotFound when absent or expired
	*/
	Get(context context.Context, tokenHash string) (string, error)

	/*
		Delete revokes a refresh-token session.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, tokenHash string) error
}

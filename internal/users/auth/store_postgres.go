// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trinhvq/mentora/internal/platform/dberr"
)

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository constructs a PostgreSQL backed user store.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, username, email, passwordhash, displayname, createdat, updatedat`

// # Account Retrieval

/*
FindByID retrieves a single account by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users.account WHERE id = $1`
	return repository.scanOne(context, query, id)
}

/*
FindByEmail retrieves a single account by email (case-insensitive).

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users.account WHERE LOWER(email) = LOWER($1)`
	return repository.scanOne(context, query, email)
}

/*
FindByUsername retrieves a single account by username (case-insensitive).

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users.account WHERE LOWER(username) = LOWER($1)`
	return repository.scanOne(context, query, username)
}

func (repository *PostgresUserRepository) scanOne(context context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := repository.db.QueryRow(context, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.DisplayName, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "get_user")
	}
	return user, nil
}

// # Account Mutation

/*
Create inserts a new account record.

Description: Unique indexes on username and email surface duplicates as
conflicts through dberr.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Persistence failures
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, passwordhash, displayname, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING createdat, updatedat
	`
	err := repository.db.QueryRow(context, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.DisplayName,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	return dberr.Wrap(err, "create_user")
}

// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package role

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trinhvq/mentora/internal/platform/dberr"
	"github.com/trinhvq/mentora/internal/platform/sec"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed role store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Assignment Retrieval

/*
ListByUser returns every role held by an account.

Description: No row for the account simply yields an empty slice, which is
the correct resolved set for an unknown identity.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []sec.Role: Roles held, possibly empty
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListByUser(context context.Context, userID string) ([]sec.Role, error) {
	const query = `
		SELECT role
		FROM users.roleassignment
		WHERE userid = $1
		ORDER BY grantedat ASC
	`
	rows, err := repository.db.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_roles_by_user")
	}
	defer rows.Close()

	var roles []sec.Role
	for rows.Next() {
		var r sec.Role
		if err := rows.Scan(&r); err != nil {
			return nil, dberr.Wrap(err, "scan_role")
		}
		roles = append(roles, r)
	}
	return roles, nil
}

/*
ListAssignments returns the account's assignments with grant timestamps.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []*Assignment: Assignments in grant order
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListAssignments(context context.Context, userID string) ([]*Assignment, error) {
	const query = `
		SELECT userid, role, grantedat
		FROM users.roleassignment
		WHERE userid = $1
		ORDER BY grantedat ASC
	`
	rows, err := repository.db.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_role_assignments")
	}
	defer rows.Close()

	var assignments []*Assignment
	for rows.Next() {
		assignment := &Assignment{}
		if err := rows.Scan(&assignment.UserID, &assignment.Role, &assignment.GrantedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_role_assignment")
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}

// # Assignment Mutation

/*
Grant attaches a role to an account.

Description: ON CONFLICT DO NOTHING makes repeated grants idempotent; the
foreign key rejects grants to accounts that do not exist.

Parameters:
  - context: context.Context
  - userID: string
  - role: sec.Role

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Grant(context context.Context, userID string, role sec.Role) error {
	const query = `
		INSERT INTO users.roleassignment (userid, role, grantedat)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING
	`
	_, err := repository.db.Exec(context, query, userID, role)
	return dberr.Wrap(err, "grant_role")
}

/*
Revoke detaches a role from an account.

Parameters:
  - context: context.Context
  - userID: string
  - role: sec.Role

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Revoke(context context.Context, userID string, role sec.Role) error {
	const query = `DELETE FROM users.roleassignment WHERE userid = $1 AND role = $2`
	_, err := repository.db.Exec(context, query, userID, role)
	return dberr.Wrap(err, "revoke_role")
}

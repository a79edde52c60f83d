// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package role

import (
	"context"
	"log/slog"

	"github.com/trinhvq/mentora/internal/platform/apperr"
	"github.com/trinhvq/mentora/internal/platform/sec"
	"github.com/trinhvq/mentora/internal/platform/validate"
)

// Service resolves and administers role assignments.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs the role service.
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

// # Resolution

/*
Resolve returns the set of roles held by an account.

Description: Unknown accounts resolve to the empty set rather than an
error; authorization layers treat an empty set as "no access" naturally.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []sec.Role: Roles held, possibly empty
  - error: Database retrieval failures
*/
func (service *Service) Resolve(context context.Context, userID string) ([]sec.Role, error) {
	return service.repository.ListByUser(context, userID)
}

// ResolveStrings returns the resolved roles as plain strings for embedding
// in token claims.
func (service *Service) ResolveStrings(context context.Context, userID string) ([]string, error) {
	roles, err := service.repository.ListByUser(context, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out, nil
}

// Assignments returns the account's assignments with their grant times.
func (service *Service) Assignments(context context.Context, userID string) ([]*Assignment, error) {
	return service.repository.ListAssignments(context, userID)
}

// # Internal Grants

/*
Grant attaches a role to an account without an acting admin.

Description: This is the internal path used by registration (learner) and
mentor onboarding (mentor). It deliberately refuses the admin role: admin
can only arrive through [Service.AdminGrant], performed by another admin.

Parameters:
  - context: context.Context
  - userID: string
  - role: sec.Role

Returns:
  - error: Validation or persistence failures
*/
func (service *Service) Grant(context context.Context, userID string, role sec.Role) error {
	if !role.Valid() {
		return validate.RequiredError(FieldRole, "Unknown role")
	}
	if role == sec.RoleAdmin {
		return apperr.Forbidden("Admin cannot be granted through this path")
	}

	if err := service.repository.Grant(context, userID, role); err != nil {
		return err
	}

	service.logger.Info("role_granted",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)
	return nil
}

// # Administration

/*
AdminGrant attaches any role to an account on behalf of an admin.

Description: The one rule beyond validity is no self-escalation: an actor
may never grant the admin role to their own account, so every admin in the
system traces back to a different admin (or to seed data).

Parameters:
  - context: context.Context
  - actorID: string Admin performing the grant
  - userID: string Target account
  - role: sec.Role

Returns:
  - error: Validation, self-escalation, or persistence failures
*/
func (service *Service) AdminGrant(context context.Context, actorID, userID string, role sec.Role) error {
	if !role.Valid() {
		return validate.RequiredError(FieldRole, "Unknown role")
	}
	if role == sec.RoleAdmin && actorID == userID {
		return apperr.Forbidden("Admins cannot grant themselves the admin role")
	}

	if err := service.repository.Grant(context, userID, role); err != nil {
		return err
	}

	service.logger.Info("role_granted",
		slog.String("actor_id", actorID),
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)
	return nil
}

/*
AdminRevoke detaches a role from an account on behalf of an admin.

Description: Revoking a role the account does not hold is a silent
success. The change lands in tokens at the next refresh.

Parameters:
  - context: context.Context
  - actorID: string Admin performing the revoke
  - userID: string Target account
  - role: sec.Role

Returns:
  - error: Validation or persistence failures
*/
func (service *Service) AdminRevoke(context context.Context, actorID, userID string, role sec.Role) error {
	if !role.Valid() {
		return validate.RequiredError(FieldRole, "Unknown role")
	}

	if err := service.repository.Revoke(context, userID, role); err != nil {
		return err
	}

	service.logger.Info("role_revoked",
		slog.String("actor_id", actorID),
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)
	return nil
}

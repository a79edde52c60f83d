// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package role

import (
	"context"

	"github.com/trinhvq/mentora/internal/platform/sec"
)

// # Repository Interface

// Repository defines the persistence contract for role assignments.
type Repository interface {
	// ListByUser returns the account's roles. An unknown account yields an
	// empty set, not an error.
	ListByUser(ctx context.Context, userID string) ([]sec.Role, error)

	// ListAssignments returns the account's assignments with grant times.
	ListAssignments(ctx context.Context, userID string) ([]*Assignment, error)

	// Grant attaches a role to an account. Idempotent: granting a role the
	// account already holds is a silent success.
	Grant(ctx context.Context, userID string, role sec.Role) error

	// Revoke detaches a role. Revoking an absent role is a silent success.
	Revoke(ctx context.Context, userID string, role sec.Role) error
}

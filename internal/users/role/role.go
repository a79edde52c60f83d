// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

/*
Package role resolves which hats an account wears.

Roles form a flat set: learner, mentor, admin. Holding one implies nothing
about the others, and admin in particular does not subsume learner or
mentor. An account collects roles over time (learner at registration,
mentor at onboarding, admin by explicit grant) and never loses the learner
role implicitly.

The resolved set is embedded in access tokens at login, so a grant or
revoke takes effect on the next token refresh, not mid-token.
*/
package role

import (
	"time"

	"github.com/trinhvq/mentora/internal/platform/sec"
)

// # Core Entity

// Assignment links one role to one account.
type Assignment struct {
	UserID    string    `json:"user_id"`
	Role      sec.Role  `json:"role"`
	GrantedAt time.Time `json:"granted_at"`
}

// # Field Identifiers

const (
	FieldUserID = "user_id"
	FieldRole   = "role"
)

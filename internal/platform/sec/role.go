// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package sec

// # User Roles

// Role represents an authorization capability granted to an identity.
//
// Unlike a hierarchical rank, roles are an unordered set: an identity may
// hold any combination of them, and each protected operation names the
// single role it requires. Absence of the required role is an authorization
// failure (403), distinct from "not logged in" (401).
type Role string

const (
	// Can book sessions and submit feedback
	RoleLearner Role = "learner"

	// Can accept, schedule, and complete own sessions
	RoleMentor Role = "mentor"

	// Can verify mentors and view every session and profile
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known assignable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleLearner, RoleMentor, RoleAdmin:
		return true
	default:
		return false
	}
}

// # Role Sets

// HasRole reports whether the set contains the target role.
//
// Admin does NOT imply other roles: an admin that never onboarded as a
// mentor cannot accept sessions. Admin-only escapes are granted explicitly
// at each call site that allows them.
func HasRole(roles []string, target Role) bool {
	for _, r := range roles {
		if Role(r) == target {
			return true
		}
	}
	return false
}

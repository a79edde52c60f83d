// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package mentor

import "context"

// # Repository Interface

// Repository defines the persistence contract for mentor profiles.
type Repository interface {
	// Create inserts a new profile. One profile per account: a duplicate
	// insert surfaces as a conflict via the unique primary key.
	Create(ctx context.Context, mentor *Mentor) error

	// FindByUserID fetches a profile by its owning account.
	FindByUserID(ctx context.Context, userID string) (*Mentor, error)

	// ListBookable returns every verified profile in directory order:
	// best-rated first, unrated last, ties broken by session volume then ID.
	ListBookable(ctx context.Context) ([]*Mentor, error)

	// List returns a page of all profiles with the total count. Admin surface.
	List(ctx context.Context, limit, offset int) ([]*Mentor, int, error)

	// SetAvailability flips the bookable toggle on a profile.
	SetAvailability(ctx context.Context, userID string, available bool) (*Mentor, error)

	// SetVerification flips the admin verification flag on a profile.
	SetVerification(ctx context.Context, userID string, verified bool) (*Mentor, error)
}

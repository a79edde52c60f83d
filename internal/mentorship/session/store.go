// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package session

import (
	"context"
	"time"
)

// # Repository Interface

/*
Repository defines the persistence contract for sessions.

Implementations must make UpdateStatus and SetFeedback compare-and-swap
operations: the write only lands when the stored row still matches the
expected precondition, so two racing actors can never both win.
*/
type Repository interface {
	// CreateForAvailableMentor inserts a new pending session if, and only
	// if, the mentor row is verified and currently available. The price is
	// snapshotted from the mentor's hourly rate inside the same statement,
	// so a concurrent availability flip or rate change cannot slip between
	// the check and the insert. Returns dberr.ErrNotFound (wrapped) when
	// the mentor is missing, unverified or unavailable.
	CreateForAvailableMentor(ctx context.Context, id, learnerID, mentorID string, durationMinutes int, scheduledAt *time.Time) (*Session, error)

	// FindByID fetches a single session.
	FindByID(ctx context.Context, id string) (*Session, error)

	// UpdateStatus moves a session from the expected status to the target
	// status. Zero rows updated means the row no longer matches `from`;
	// callers distinguish a lost race from a missing row via FindByID.
	// scheduledAt, when non-nil, is written alongside the status.
	UpdateStatus(ctx context.Context, id string, from, to Status, scheduledAt *time.Time) (*Session, error)

	// SetFeedback records the learner's one-time rating and optional review.
	// The write only lands when the session is completed and unrated.
	SetFeedback(ctx context.Context, id string, rating int, review *string) (*Session, error)

	// CompleteElapsed marks every scheduled session whose time window has
	// fully passed as completed, returning the sessions that changed.
	CompleteElapsed(ctx context.Context, now time.Time) ([]*Session, error)

	// ListByLearner returns the learner's sessions, newest first.
	ListByLearner(ctx context.Context, learnerID string) ([]*Session, error)

	// ListByMentor returns the mentor's sessions, newest first.
	ListByMentor(ctx context.Context, mentorID string) ([]*Session, error)

	// List returns a page of all sessions with the total count, newest first.
	List(ctx context.Context, limit, offset int) ([]*Session, int, error)
}

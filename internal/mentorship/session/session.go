// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

/*
Package session implements the booking record and its lifecycle engine.

It defines the [Session] entity, the status state machine, and the rules for
who may trigger each transition. Every mutation of a booking flows through
this package; dashboards and rollups are read-only projections of it.

# State Machine

	pending ──► scheduled ──► completed
	   │            │
	   └────────────┴──────► cancelled

completed and cancelled are terminal: no transition leaves them. Re-issuing
a transition whose target equals the current status is a no-op success,
which protects against duplicate UI actions and retried notifications.
*/
package session

import "time"

// # Session Status

// Status is the lifecycle state of a booked session.
type Status string

const (
	// Awaiting the mentor's accept/reject decision
	StatusPending Status = "pending"

	// Accepted by the mentor, not yet held
	StatusScheduled Status = "scheduled"

	// Held and finished; unlocks feedback and earnings
	StatusCompleted Status = "completed"

	// Rejected or called off by either party
	StatusCancelled Status = "cancelled"
)

// transitions is the complete edge set of the lifecycle state machine.
// An edge absent from this table is an invalid transition, full stop.
var transitions = map[Status][]Status{
	StatusPending:   {StatusScheduled, StatusCancelled},
	StatusScheduled: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// Valid reports whether the status is one of the four known states.
func (s Status) Valid() bool {
	_, known := transitions[s]
	return known
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether the state machine has an edge from s to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// # Core Entity

// Session represents a single booked mentoring engagement between one
// learner and one mentor.
//
// LearnerID and MentorID are immutable after creation. Price is a snapshot
// of the mentor's rate at booking time and is never recomputed, even if the
// mentor changes rates later. Sessions are never physically deleted; the
// full history feeds the aggregation rollups.
type Session struct {
	ID              string     `json:"id"` // UUIDv7
	LearnerID       string     `json:"learner_id"`
	MentorID        string     `json:"mentor_id"`
	DurationMinutes int        `json:"duration_minutes"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	Price           float64    `json:"price"`
	Status          Status     `json:"status"`
	Rating          *int       `json:"rating,omitempty"`
	Review          *string    `json:"review,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsOwner reports whether the given identity is one of the two owning parties.
func (s *Session) IsOwner(userID string) bool {
	return s.LearnerID == userID || s.MentorID == userID
}

// # Field Identifiers

const (
	FieldMentorID        = "mentor_id"
	FieldDurationMinutes = "duration_minutes"
	FieldStatus          = "status"
	FieldScheduledAt     = "scheduled_at"
	FieldRating          = "rating"
	FieldReview          = "review"
)

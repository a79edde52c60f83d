// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/trinhvq/mentora/internal/notify"
	"github.com/trinhvq/mentora/internal/platform/apperr"
	"github.com/trinhvq/mentora/internal/platform/dberr"
	"github.com/trinhvq/mentora/internal/platform/sec"
	"github.com/trinhvq/mentora/internal/platform/validate"
	"github.com/trinhvq/mentora/pkg/uuidv7"
)

// # Service Contracts

// Notifier publishes change events after successful writes. Publishing is
// fire-and-forget: implementations never block and never return errors to
// the write path.
type Notifier interface {
	Publish(context context.Context, event notify.Event)
}

// Service orchestrates the session lifecycle: booking, the transition state
// machine, feedback, and read access for the owning parties.
type Service struct {
	repository Repository
	notifier   Notifier
	logger     *slog.Logger
}

// NewService constructs the session lifecycle service.
func NewService(repository Repository, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		notifier:   notifier,
		logger:     logger,
	}
}

// # Input Payloads

// BookInput carries the learner's booking request.
type BookInput struct {
	MentorID        string     `json:"mentor_id"`
	DurationMinutes int        `json:"duration_minutes"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
}

// TransitionInput carries a requested lifecycle transition.
type TransitionInput struct {
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// FeedbackInput carries the learner's one-time session feedback.
type FeedbackInput struct {
	Rating int     `json:"rating"`
	Review *string `json:"review,omitempty"`
}

// # Booking

/*
Book creates a new pending session for a learner.

Description: The mentor must exist, be verified and be currently available;
the availability check, the price snapshot (hourly rate prorated by
duration) and the insert run in one atomic statement, so a mentor flipping
unavailable mid-request can never be half-booked. Learners cannot book
themselves.

Parameters:
  - context: context.Context
  - learnerID: string Authenticated actor
  - input: BookInput

Returns:
  - *Session: The pending session with its snapshotted price
  - error: Validation, self-booking, or availability failures
*/
func (service *Service) Book(context context.Context, learnerID string, input BookInput) (*Session, error) {
	validator := &validate.Validator{}
	err := validator.
		Required(FieldMentorID, input.MentorID).
		UUID(FieldMentorID, input.MentorID).
		Positive(FieldDurationMinutes, input.DurationMinutes).
		Range(FieldDurationMinutes, input.DurationMinutes, 15, 480).
		Err()
	if err != nil {
		return nil, err
	}

	if input.MentorID == learnerID {
		return nil, apperr.SelfBooking()
	}

	record, err := service.repository.CreateForAvailableMentor(
		context, uuidv7.Must(), learnerID, input.MentorID, input.DurationMinutes, input.ScheduledAt,
	)
	if err != nil {
		// Zero rows from the guarded insert means the mentor row failed the
		// verified+available predicate, not that the session is missing.
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apperr.MentorUnavailable()
		}
		return nil, err
	}

	service.logger.Info("session_booked",
		slog.String("session_id", record.ID),
		slog.String("learner_id", record.LearnerID),
		slog.String("mentor_id", record.MentorID),
		slog.Float64("price", record.Price),
	)
	service.notifier.Publish(context, notify.SessionEvent(record.ID, record.LearnerID, record.MentorID))

	return record, nil
}

// # Lifecycle Transitions

/*
Transition moves a session through the lifecycle state machine.

Description: Enforces, in order: the target is a known status; the actor is
one of the two owning parties; the request is an idempotent no-op when the
session already sits in the target status; the edge exists in the state
machine; the actor's party is allowed to trigger that edge. The final write
is a compare-and-swap against the status the actor observed, so a lost race
surfaces as a staleness conflict instead of a silent double-transition.

Parameters:
  - context: context.Context
  - actorID: string Authenticated actor
  - sessionID: string
  - input: TransitionInput

Returns:
  - *Session: The session after the transition (or unchanged on a no-op)
  - error: Authorization, transition, or staleness failures
*/
func (service *Service) Transition(context context.Context, actorID, sessionID string, input TransitionInput) (*Session, error) {
	target := Status(input.Status)
	if !target.Valid() {
		return nil, validate.RequiredError(FieldStatus, "Must be one of: pending, scheduled, completed, cancelled")
	}

	record, err := service.repository.FindByID(context, sessionID)
	if err != nil {
		return nil, err
	}

	if !record.IsOwner(actorID) {
		return nil, apperr.Forbidden("Only the session's learner or mentor may modify it")
	}

	// Duplicate submissions and retried requests land here: already being in
	// the target status is a success, and no change event is re-published.
	if record.Status == target {
		return record, nil
	}

	if !record.Status.CanTransitionTo(target) {
		return nil, apperr.InvalidTransition(string(record.Status), string(target))
	}

	if err := authorizeTransition(record, actorID, target); err != nil {
		return nil, err
	}

	updated, err := service.repository.UpdateStatus(context, sessionID, record.Status, target, input.ScheduledAt)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			// The row exists but no longer matches the observed status:
			// someone else transitioned it first.
			return nil, apperr.StaleState("Session was modified by another request")
		}
		return nil, err
	}

	service.logger.Info("session_transitioned",
		slog.String("session_id", updated.ID),
		slog.String("actor_id", actorID),
		slog.String("from", string(record.Status)),
		slog.String("to", string(updated.Status)),
	)
	service.notifier.Publish(context, notify.SessionEvent(updated.ID, updated.LearnerID, updated.MentorID))

	return updated, nil
}

// authorizeTransition applies the per-edge actor rules: accepting and
// completing are the mentor's moves, cancelling belongs to either party.
func authorizeTransition(record *Session, actorID string, target Status) error {
	switch target {
	case StatusScheduled:
		if actorID != record.MentorID {
			return apperr.Forbidden("Only the mentor may accept a session")
		}
	case StatusCompleted:
		if actorID != record.MentorID {
			return apperr.Forbidden("Only the mentor may complete a session")
		}
	case StatusCancelled:
		// Either owning party; ownership was already checked.
	}
	return nil
}

/*
CompleteElapsed auto-completes scheduled sessions whose slot has passed.

Description: Invoked periodically by the janitor in main. Each closed
session gets its own change event so dashboards and rollups converge
without a mentor ever pressing "complete".

Parameters:
  - context: context.Context

Returns:
  - int: Number of sessions auto-completed
  - error: Database mutation failures
*/
func (service *Service) CompleteElapsed(context context.Context) (int, error) {
	closed, err := service.repository.CompleteElapsed(context, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	for _, record := range closed {
		service.logger.Info("session_auto_completed", slog.String("session_id", record.ID))
		service.notifier.Publish(context, notify.SessionEvent(record.ID, record.LearnerID, record.MentorID))
	}

	return len(closed), nil
}

// # Feedback

/*
SubmitFeedback records the learner's rating and optional review.

Description: Only the session's learner may rate, only once, and only after
completion. The store write re-checks both preconditions, so concurrent
duplicate submissions collapse to exactly one stored rating.

Parameters:
  - context: context.Context
  - actorID: string Authenticated actor
  - sessionID: string
  - input: FeedbackInput

Returns:
  - *Session: The session carrying the stored feedback
  - error: Authorization, state, or duplicate-feedback failures
*/
func (service *Service) SubmitFeedback(context context.Context, actorID, sessionID string, input FeedbackInput) (*Session, error) {
	validator := &validate.Validator{}
	err := validator.
		Range(FieldRating, input.Rating, 1, 5).
		Err()
	if err != nil {
		return nil, err
	}
	if input.Review != nil {
		if err := (&validate.Validator{}).MaxLen(FieldReview, *input.Review, 2000).Err(); err != nil {
			return nil, err
		}
	}

	record, err := service.repository.FindByID(context, sessionID)
	if err != nil {
		return nil, err
	}

	if actorID != record.LearnerID {
		return nil, apperr.Forbidden("Only the session's learner may submit feedback")
	}
	if record.Status != StatusCompleted {
		return nil, apperr.NotCompleted()
	}
	if record.Rating != nil {
		return nil, apperr.Conflict("Feedback has already been submitted")
	}

	updated, err := service.repository.SetFeedback(context, sessionID, input.Rating, input.Review)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apperr.Conflict("Feedback has already been submitted")
		}
		return nil, err
	}

	service.logger.Info("session_feedback_submitted",
		slog.String("session_id", updated.ID),
		slog.Int("rating", input.Rating),
	)
	service.notifier.Publish(context, notify.SessionEvent(updated.ID, updated.LearnerID, updated.MentorID))

	return updated, nil
}

// # Read Access

/*
Get fetches a single session for an owning party or an admin.

Parameters:
  - context: context.Context
  - claims: *sec.AuthClaims Authenticated actor
  - sessionID: string

Returns:
  - *Session: Hydrated entity
  - error: Not-found or authorization failures
*/
func (service *Service) Get(context context.Context, claims *sec.AuthClaims, sessionID string) (*Session, error) {
	record, err := service.repository.FindByID(context, sessionID)
	if err != nil {
		return nil, err
	}
	if !record.IsOwner(claims.UserID) && !claims.HasRole(sec.RoleAdmin) {
		return nil, apperr.Forbidden("You are not a party to this session")
	}
	return record, nil
}

// ListAsLearner returns the actor's sessions where they are the learner.
func (service *Service) ListAsLearner(context context.Context, userID string) ([]*Session, error) {
	return service.repository.ListByLearner(context, userID)
}

// ListAsMentor returns the actor's sessions where they are the mentor.
func (service *Service) ListAsMentor(context context.Context, userID string) ([]*Session, error) {
	return service.repository.ListByMentor(context, userID)
}

// ListAll returns a page of every session. Admin surface.
func (service *Service) ListAll(context context.Context, limit, offset int) ([]*Session, int, error) {
	return service.repository.List(context, limit, offset)
}

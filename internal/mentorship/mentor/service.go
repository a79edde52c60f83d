// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package mentor

import (
	"context"
	"log/slog"

	"github.com/trinhvq/mentora/internal/notify"
	"github.com/trinhvq/mentora/internal/platform/apperr"
	"github.com/trinhvq/mentora/internal/platform/sec"
	"github.com/trinhvq/mentora/internal/platform/validate"
	"github.com/trinhvq/mentora/pkg/slug"
)

// # Service Contracts

// RoleGranter attaches a role to an account. Satisfied by the role service.
type RoleGranter interface {
	Grant(ctx context.Context, userID string, role sec.Role) error
}

// Notifier publishes change events after successful writes.
type Notifier interface {
	Publish(ctx context.Context, event notify.Event)
}

// Service orchestrates mentor onboarding, discovery and moderation.
type Service struct {
	repository Repository
	roles      RoleGranter
	notifier   Notifier
	logger     *slog.Logger
}

// NewService constructs the mentor directory service.
func NewService(repository Repository, roles RoleGranter, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		roles:      roles,
		notifier:   notifier,
		logger:     logger,
	}
}

// # Input Payloads

// CreateInput carries the onboarding request for a new mentor profile.
type CreateInput struct {
	Expertise       []string `json:"expertise"`
	Languages       []string `json:"languages,omitempty"`
	YearsExperience int      `json:"years_experience"`
	HourlyRate      float64  `json:"hourly_rate"`
	Bio             *string  `json:"bio,omitempty"`
}

// # Onboarding

/*
CreateProfile onboards the authenticated account as a mentor.

Description: Expertise and language tags are slug-normalized and deduplicated
so the directory filters match regardless of input casing or accents. On
success the account gains the mentor role; attempting to onboard twice hits
the one-profile-per-account key and surfaces as a conflict. The role grant
is re-issued on that conflict, so an onboarding that failed after the insert
is repaired by retrying.

Parameters:
  - context: context.Context
  - userID: string Authenticated actor
  - input: CreateInput

Returns:
  - *Mentor: The unverified, available profile
  - error: Validation, duplicate-profile, or role failures
*/
func (service *Service) CreateProfile(context context.Context, userID string, input CreateInput) (*Mentor, error) {
	expertise := slug.FromAll(input.Expertise)
	languages := slug.FromAll(input.Languages)

	validator := &validate.Validator{}
	err := validator.
		NotEmptySlice(FieldExpertise, expertise).
		NonNegative(FieldYearsExperience, input.YearsExperience).
		Custom(FieldHourlyRate, input.HourlyRate <= 0, "Must be a positive amount").
		Custom(FieldHourlyRate, input.HourlyRate > 10000, "Unreasonably high hourly rate").
		Err()
	if err != nil {
		return nil, err
	}
	if input.Bio != nil {
		if err := (&validate.Validator{}).MaxLen(FieldBio, *input.Bio, 4000).Err(); err != nil {
			return nil, err
		}
	}

	record := &Mentor{
		UserID:          userID,
		Expertise:       expertise,
		Languages:       languages,
		YearsExperience: input.YearsExperience,
		HourlyRate:      input.HourlyRate,
		Bio:             input.Bio,
	}

	if err := service.repository.Create(context, record); err != nil {
		// A duplicate profile can be the residue of an earlier attempt that
		// failed between the insert and the role grant. The grant is
		// idempotent, so re-issue it before reporting the conflict; the
		// account is then repaired on retry instead of stuck profile-only.
		if appError := apperr.As(err); appError != nil && appError.Code == "CONFLICT" {
			if grantErr := service.roles.Grant(context, userID, sec.RoleMentor); grantErr != nil {
				return nil, grantErr
			}
		}
		return nil, err
	}

	if err := service.roles.Grant(context, userID, sec.RoleMentor); err != nil {
		return nil, err
	}

	service.logger.Info("mentor_onboarded",
		slog.String("user_id", userID),
		slog.Int("expertise_count", len(expertise)),
	)
	service.notifier.Publish(context, notify.MentorEvent(userID))

	return record, nil
}

// # Moderation

/*
SetAvailability flips the actor's own bookable toggle.

Description: Availability is strictly self-service; the handler routes only
the authenticated mentor's own ID here. Going unavailable does not touch
already-booked sessions.

Parameters:
  - context: context.Context
  - userID: string Authenticated mentor
  - available: bool

Returns:
  - *Mentor: Profile after the update
  - error: Not-found or persistence failures
*/
func (service *Service) SetAvailability(context context.Context, userID string, available bool) (*Mentor, error) {
	record, err := service.repository.SetAvailability(context, userID, available)
	if err != nil {
		return nil, err
	}

	service.logger.Info("mentor_availability_changed",
		slog.String("user_id", userID),
		slog.Bool("available", available),
	)
	service.notifier.Publish(context, notify.MentorEvent(userID))

	return record, nil
}

/*
SetVerification flips a profile's verification flag. Admin surface.

Description: Verification is the gate into the learner-facing directory.
Revoking it hides the profile and blocks new bookings without touching
existing sessions.

Parameters:
  - context: context.Context
  - actorID: string Admin performing the change
  - userID: string Target mentor
  - verified: bool

Returns:
  - *Mentor: Profile after the update
  - error: Not-found or persistence failures
*/
func (service *Service) SetVerification(context context.Context, actorID, userID string, verified bool) (*Mentor, error) {
	record, err := service.repository.SetVerification(context, userID, verified)
	if err != nil {
		return nil, err
	}

	service.logger.Info("mentor_verification_changed",
		slog.String("actor_id", actorID),
		slog.String("user_id", userID),
		slog.Bool("verified", verified),
	)
	service.notifier.Publish(context, notify.MentorEvent(userID))

	return record, nil
}

// # Discovery

// Get fetches one mentor profile.
func (service *Service) Get(context context.Context, userID string) (*Mentor, error) {
	return service.repository.FindByUserID(context, userID)
}

// ListBookable returns the verified directory in ranking order.
func (service *Service) ListBookable(context context.Context) ([]*Mentor, error) {
	return service.repository.ListBookable(context)
}

// ListAll returns a page of every profile, verified or not. Admin surface.
func (service *Service) ListAll(context context.Context, limit, offset int) ([]*Mentor, int, error) {
	return service.repository.List(context, limit, offset)
}

// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

/*
Package stats computes mentor rollups from session history.

Every number here is a pure function of the session table: total sessions
across all statuses, average rating over completed rated sessions, and
earnings summed over completed sessions at their snapshotted prices.
Cancelled sessions count toward volume but never toward earnings.

A cached copy of the volume and rating lives on the mentor row for cheap
directory ordering. The refresher recomputes it from scratch on every
session change rather than applying deltas, so the cache can drift at most
until the next event and is always reproducible.
*/
package stats

import (
	"context"
	"log/slog"

	"github.com/trinhvq/mentora/internal/notify"
)

// # Rollup Type

// Stats is the aggregate view of one mentor's session history.
type Stats struct {
	MentorID      string   `json:"mentor_id"`
	TotalSessions int      `json:"total_sessions"`
	Completed     int      `json:"completed"`
	Cancelled     int      `json:"cancelled"`
	Rating        *float64 `json:"rating"` // nil until a completed session is rated
	Earnings      float64  `json:"earnings"`
}

// # Repository Interface

// Repository defines the aggregation queries over session history.
type Repository interface {
	// Compute derives the rollup from session history. Side-effect free; a
	// mentor with no sessions yields the zero rollup, not an error.
	Compute(ctx context.Context, mentorID string) (*Stats, error)

	// Refresh recomputes the rollup and writes the cached copy onto the
	// mentor row in the same statement. Returns the fresh rollup.
	Refresh(ctx context.Context, mentorID string) (*Stats, error)
}

// Notifier publishes change events after a cache refresh.
type Notifier interface {
	Publish(ctx context.Context, event notify.Event)
}

// # Service

// Service exposes mentor rollups and keeps the cached copy current.
type Service struct {
	repository Repository
	notifier   Notifier
	logger     *slog.Logger
}

// NewService constructs the aggregation service.
func NewService(repository Repository, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		notifier:   notifier,
		logger:     logger,
	}
}

// Get returns the rollup computed fresh from session history.
func (service *Service) Get(context context.Context, mentorID string) (*Stats, error) {
	return service.repository.Compute(context, mentorID)
}

/*
Refresh recomputes the mentor's rollup and updates the cached copy.

Description: Invoked by the change listener on every session event for the
mentor. Publishes a mentor event afterwards so dashboards refetch; mentor
events deliberately do not re-trigger refresh, which breaks the cycle.

Parameters:
  - context: context.Context
  - mentorID: string

Returns:
  - *Stats: The fresh rollup
  - error: Aggregation or cache-write failures
*/
func (service *Service) Refresh(context context.Context, mentorID string) (*Stats, error) {
	rollup, err := service.repository.Refresh(context, mentorID)
	if err != nil {
		return nil, err
	}

	service.logger.Info("mentor_stats_refreshed",
		slog.String("mentor_id", mentorID),
		slog.Int("total_sessions", rollup.TotalSessions),
		slog.Float64("earnings", rollup.Earnings),
	)
	service.notifier.Publish(context, notify.MentorEvent(mentorID))

	return rollup, nil
}

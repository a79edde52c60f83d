// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package stats

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trinhvq/mentora/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed aggregation store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// rollupQuery derives the full rollup in one pass over the mentor's
// sessions. FILTER keeps each aggregate scoped without self-joins; AVG and
// SUM see only completed rows, so cancellations count toward volume alone.
const rollupQuery = `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'completed'),
		COUNT(*) FILTER (WHERE status = 'cancelled'),
		AVG(rating) FILTER (WHERE status = 'completed' AND rating IS NOT NULL),
		COALESCE(SUM(price) FILTER (WHERE status = 'completed'), 0)
	FROM mentorship.session
	WHERE mentorid = $1
`

// # Aggregation

/*
Compute derives the mentor's rollup directly from session history.

Description: Aggregates over zero rows produce the zero rollup (count 0,
null rating, zero earnings), so unknown mentors are indistinguishable from
mentors who have never been booked. Side-effect free.

Parameters:
  - context: context.Context
  - mentorID: string

Returns:
  - *Stats: Derived rollup
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) Compute(context context.Context, mentorID string) (*Stats, error) {
	rollup := &Stats{MentorID: mentorID}
	err := repository.db.QueryRow(context, rollupQuery, mentorID).Scan(
		&rollup.TotalSessions, &rollup.Completed, &rollup.Cancelled, &rollup.Rating, &rollup.Earnings,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "compute_mentor_stats")
	}
	return rollup, nil
}

/*
Refresh recomputes the rollup and writes the cached copy in one statement.

Description: The UPDATE's subquery is the same aggregation as Compute, so
the cached totalsessions and rating on the mentor row can never disagree
with a fresh computation made at the same instant. Zero rows updated means
the mentor profile does not exist.

Parameters:
  - context: context.Context
  - mentorID: string

Returns:
  - *Stats: The rollup that was cached
  - error: Not-found or database mutation failures
*/
func (repository *PostgresRepository) Refresh(context context.Context, mentorID string) (*Stats, error) {
	const query = `
		WITH rollup AS (
			SELECT
				COUNT(*) AS total,
				COUNT(*) FILTER (WHERE status = 'completed') AS completed,
				COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled,
				AVG(rating) FILTER (WHERE status = 'completed' AND rating IS NOT NULL) AS rating,
				COALESCE(SUM(price) FILTER (WHERE status = 'completed'), 0) AS earnings
			FROM mentorship.session
			WHERE mentorid = $1
		)
		UPDATE mentorship.mentor m
		SET totalsessions = rollup.total, rating = rollup.rating, updatedat = NOW()
		FROM rollup
		WHERE m.userid = $1
		RETURNING rollup.total, rollup.completed, rollup.cancelled, rollup.rating, rollup.earnings
	`
	rollup := &Stats{MentorID: mentorID}
	err := repository.db.QueryRow(context, query, mentorID).Scan(
		&rollup.TotalSessions, &rollup.Completed, &rollup.Cancelled, &rollup.Rating, &rollup.Earnings,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "refresh_mentor_stats")
	}
	return rollup, nil
}

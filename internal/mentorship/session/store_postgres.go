// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package session

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trinhvq/mentora/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed session store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `
	id, learnerid, mentorid, durationminutes, scheduledat,
	price, status, rating, review, createdat, updatedat
`

func scanSession(row pgx.Row) (*Session, error) {
	record := &Session{}
	err := row.Scan(
		&record.ID, &record.LearnerID, &record.MentorID, &record.DurationMinutes, &record.ScheduledAt,
		&record.Price, &record.Status, &record.Rating, &record.Review, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// # Session Creation

/*
CreateForAvailableMentor inserts a pending session gated on mentor availability.

Description: The INSERT sources its row from a SELECT over the mentor table,
so the verified/available check, the hourly-rate price snapshot and the
insert all happen in one atomic statement. A mentor flipping unavailable
concurrently makes the SELECT produce zero rows, which surfaces as
pgx.ErrNoRows rather than a half-booked session.

Parameters:
  - context: context.Context
  - id: string Pre-generated UUIDv7
  - learnerID: string
  - mentorID: string
  - durationMinutes: int
  - scheduledAt: *time.Time Optional requested slot

Returns:
  - *Session: Hydrated entity with the snapshotted price
  - error: Not-found when the mentor is missing, unverified or unavailable
*/
func (repository *PostgresRepository) CreateForAvailableMentor(context context.Context, id, learnerID, mentorID string, durationMinutes int, scheduledAt *time.Time) (*Session, error) {
	const query = `
		INSERT INTO mentorship.session (
			id, learnerid, mentorid, durationminutes, scheduledat,
			price, status, createdat, updatedat
		)
		SELECT
			$1, $2, m.userid, $4, $5,
			ROUND(m.hourlyrate * $4 / 60.0, 2), 'pending', NOW(), NOW()
		FROM mentorship.mentor m
		WHERE m.userid = $3 AND m.isverified = TRUE AND m.isavailable = TRUE
		RETURNING ` + sessionColumns
	record, err := scanSession(repository.db.QueryRow(context, query, id, learnerID, mentorID, durationMinutes, scheduledAt))
	if err != nil {
		return nil, dberr.Wrap(err, "create_session")
	}
	return record, nil
}

// # Session Retrieval

/*
FindByID retrieves a single session record by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Session: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM mentorship.session WHERE id = $1`
	record, err := scanSession(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_session_by_id")
	}
	return record, nil
}

/*
ListByLearner returns all sessions booked by a learner, newest first.

Parameters:
  - context: context.Context
  - learnerID: string

Returns:
  - []*Session: Slice of matching sessions
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListByLearner(context context.Context, learnerID string) ([]*Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM mentorship.session
		WHERE learnerid = $1
		ORDER BY createdat DESC
	`
	return repository.queryMany(context, query, "list_sessions_by_learner", learnerID)
}

/*
ListByMentor returns all sessions addressed to a mentor, newest first.

Parameters:
  - context: context.Context
  - mentorID: string

Returns:
  - []*Session: Slice of matching sessions
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListByMentor(context context.Context, mentorID string) ([]*Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM mentorship.session
		WHERE mentorid = $1
		ORDER BY createdat DESC
	`
	return repository.queryMany(context, query, "list_sessions_by_mentor", mentorID)
}

/*
List returns a paginated slice of every session with total metadata.

Description: Uses COUNT(*) OVER() for the total so admins page a single query.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*Session: Page of sessions
  - int: Total record count
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) List(context context.Context, limit, offset int) ([]*Session, int, error) {
	const query = `
		SELECT ` + sessionColumns + `, COUNT(*) OVER() as total
		FROM mentorship.session
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := repository.db.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_sessions")
	}
	defer rows.Close()

	var sessions []*Session
	var total int
	for rows.Next() {
		record := &Session{}
		err := rows.Scan(
			&record.ID, &record.LearnerID, &record.MentorID, &record.DurationMinutes, &record.ScheduledAt,
			&record.Price, &record.Status, &record.Rating, &record.Review, &record.CreatedAt, &record.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_session")
		}
		sessions = append(sessions, record)
	}

	return sessions, total, nil
}

func (repository *PostgresRepository) queryMany(context context.Context, query, operation string, args ...any) ([]*Session, error) {
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, operation)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_session")
		}
		sessions = append(sessions, record)
	}
	return sessions, nil
}

// # Lifecycle Mutation

/*
UpdateStatus performs the compare-and-swap transition write.

Description: The WHERE clause pins both the primary key and the expected
current status. When another actor already moved the row, zero rows match
and pgx.ErrNoRows comes back; the service layer turns that into a staleness
conflict after confirming the row still exists. scheduledat is only
overwritten when a new slot is supplied.

Parameters:
  - context: context.Context
  - id: string
  - from: Status Expected current status
  - to: Status Target status
  - scheduledAt: *time.Time Optional confirmed slot

Returns:
  - *Session: Entity after the transition
  - error: Not-found when the precondition no longer holds
*/
func (repository *PostgresRepository) UpdateStatus(context context.Context, id string, from, to Status, scheduledAt *time.Time) (*Session, error) {
	const query = `
		UPDATE mentorship.session
		SET status = $3, scheduledat = COALESCE($4, scheduledat), updatedat = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns
	record, err := scanSession(repository.db.QueryRow(context, query, id, from, to, scheduledAt))
	if err != nil {
		return nil, dberr.Wrap(err, "transition_session")
	}
	return record, nil
}

/*
SetFeedback records the learner's one-shot rating and review.

Description: The WHERE clause requires a completed, still-unrated row, so a
duplicate submission races to zero rows instead of overwriting the first.

Parameters:
  - context: context.Context
  - id: string
  - rating: int
  - review: *string

Returns:
  - *Session: Entity carrying the stored feedback
  - error: Not-found when the session is not completed or already rated
*/
func (repository *PostgresRepository) SetFeedback(context context.Context, id string, rating int, review *string) (*Session, error) {
	const query = `
		UPDATE mentorship.session
		SET rating = $2, review = $3, updatedat = NOW()
		WHERE id = $1 AND status = 'completed' AND rating IS NULL
		RETURNING ` + sessionColumns
	record, err := scanSession(repository.db.QueryRow(context, query, id, rating, review))
	if err != nil {
		return nil, dberr.Wrap(err, "set_session_feedback")
	}
	return record, nil
}

/*
CompleteElapsed closes out scheduled sessions whose slot has fully passed.

Description: Run periodically by the lifecycle janitor. Only rows whose
scheduled start plus duration lies before the cutoff are touched, and the
changed rows are returned so their change events can be published.

Parameters:
  - context: context.Context
  - now: time.Time Cutoff instant

Returns:
  - []*Session: Sessions that were auto-completed
  - error: Database mutation failures
*/
func (repository *PostgresRepository) CompleteElapsed(context context.Context, now time.Time) ([]*Session, error) {
	const query = `
		UPDATE mentorship.session
		SET status = 'completed', updatedat = NOW()
		WHERE status = 'scheduled'
		  AND scheduledat IS NOT NULL
		  AND scheduledat + make_interval(mins => durationminutes) < $1
		RETURNING ` + sessionColumns
	return repository.queryMany(context, query, "complete_elapsed_sessions", now)
}

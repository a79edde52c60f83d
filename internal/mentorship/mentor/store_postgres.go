// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package mentor

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trinhvq/mentora/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed mentor store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const mentorColumns = `
	userid, expertise, languages, yearsexperience, hourlyrate, bio,
	isverified, isavailable, totalsessions, rating, createdat, updatedat
`

func scanMentor(row pgx.Row) (*Mentor, error) {
	record := &Mentor{}
	err := row.Scan(
		&record.UserID, &record.Expertise, &record.Languages, &record.YearsExperience, &record.HourlyRate, &record.Bio,
		&record.IsVerified, &record.IsAvailable, &record.TotalSessions, &record.Rating, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// # Profile Mutation

/*
Create inserts a new mentor profile.

Description: The primary key is the account ID, so onboarding twice hits a
unique violation which dberr maps to a conflict.

Parameters:
  - context: context.Context
  - mentor: *Mentor

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Create(context context.Context, mentor *Mentor) error {
	const query = `
		INSERT INTO mentorship.mentor (
			userid, expertise, languages, yearsexperience, hourlyrate, bio,
			isverified, isavailable, totalsessions, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, FALSE, TRUE, 0, NOW(), NOW())
		RETURNING isverified, isavailable, totalsessions, createdat, updatedat
	`
	err := repository.db.QueryRow(context, query,
		mentor.UserID, mentor.Expertise, mentor.Languages, mentor.YearsExperience, mentor.HourlyRate, mentor.Bio,
	).Scan(&mentor.IsVerified, &mentor.IsAvailable, &mentor.TotalSessions, &mentor.CreatedAt, &mentor.UpdatedAt)

	return dberr.Wrap(err, "create_mentor")
}

/*
SetAvailability flips the mentor's bookable toggle.

Parameters:
  - context: context.Context
  - userID: string
  - available: bool

Returns:
  - *Mentor: Entity after the update
  - error: Persistence failures
*/
func (repository *PostgresRepository) SetAvailability(context context.Context, userID string, available bool) (*Mentor, error) {
	const query = `
		UPDATE mentorship.mentor
		SET isavailable = $2, updatedat = NOW()
		WHERE userid = $1
		RETURNING ` + mentorColumns
	record, err := scanMentor(repository.db.QueryRow(context, query, userID, available))
	if err != nil {
		return nil, dberr.Wrap(err, "set_mentor_availability")
	}
	return record, nil
}

/*
SetVerification flips the admin verification flag.

Parameters:
  - context: context.Context
  - userID: string
  - verified: bool

Returns:
  - *Mentor: Entity after the update
  - error: Persistence failures
*/
func (repository *PostgresRepository) SetVerification(context context.Context, userID string, verified bool) (*Mentor, error) {
	const query = `
		UPDATE mentorship.mentor
		SET isverified = $2, updatedat = NOW()
		WHERE userid = $1
		RETURNING ` + mentorColumns
	record, err := scanMentor(repository.db.QueryRow(context, query, userID, verified))
	if err != nil {
		return nil, dberr.Wrap(err, "set_mentor_verification")
	}
	return record, nil
}

// # Profile Retrieval

/*
FindByUserID retrieves a single mentor profile by its account ID.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *Mentor: Hydrated entity
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) FindByUserID(context context.Context, userID string) (*Mentor, error) {
	const query = `SELECT ` + mentorColumns + ` FROM mentorship.mentor WHERE userid = $1`
	record, err := scanMentor(repository.db.QueryRow(context, query, userID))
	if err != nil {
		return nil, dberr.Wrap(err, "get_mentor_by_user_id")
	}
	return record, nil
}

/*
ListBookable returns the learner-facing directory.

Description: Only verified profiles appear. Ordering is deterministic:
rating descending with unrated profiles last, then session volume, then ID,
so the directory never reshuffles between identical reads.

Parameters:
  - context: context.Context

Returns:
  - []*Mentor: Directory in ranking order
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListBookable(context context.Context) ([]*Mentor, error) {
	const query = `
		SELECT ` + mentorColumns + `
		FROM mentorship.mentor
		WHERE isverified = TRUE
		ORDER BY rating DESC NULLS LAST, totalsessions DESC, userid ASC
	`
	rows, err := repository.db.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_bookable_mentors")
	}
	defer rows.Close()

	var mentors []*Mentor
	for rows.Next() {
		record, err := scanMentor(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_mentor")
		}
		mentors = append(mentors, record)
	}
	return mentors, nil
}

/*
List returns a paginated slice of every profile with total metadata.

Description: Uses COUNT(*) OVER() for the total. Admin surface, includes
unverified profiles.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*Mentor: Page of profiles
  - int: Total record count
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) List(context context.Context, limit, offset int) ([]*Mentor, int, error) {
	const query = `
		SELECT ` + mentorColumns + `, COUNT(*) OVER() as total
		FROM mentorship.mentor
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := repository.db.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_mentors")
	}
	defer rows.Close()

	var mentors []*Mentor
	var total int
	for rows.Next() {
		record := &Mentor{}
		err := rows.Scan(
			&record.UserID, &record.Expertise, &record.Languages, &record.YearsExperience, &record.HourlyRate, &record.Bio,
			&record.IsVerified, &record.IsAvailable, &record.TotalSessions, &record.Rating, &record.CreatedAt, &record.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_mentor")
		}
		mentors = append(mentors, record)
	}

	return mentors, total, nil
}

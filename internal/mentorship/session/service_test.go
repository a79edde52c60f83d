// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package session_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trinhvq/mentora/internal/mentorship/session"
	"github.com/trinhvq/mentora/internal/notify"
	"github.com/trinhvq/mentora/internal/platform/apperr"
	"github.com/trinhvq/mentora/internal/platform/dberr"
	"github.com/trinhvq/mentora/internal/platform/sec"
	"github.com/trinhvq/mentora/pkg/uuidv7"
)

// # Test Doubles

type fakeMentorRow struct {
	hourlyRate float64
	verified   bool
	available  bool
}

// fakeRepository mirrors the CAS semantics of the postgres store in memory:
// a status precondition that no longer holds yields dberr.ErrNotFound.
type fakeRepository struct {
	mu       sync.Mutex
	mentors  map[string]fakeMentorRow
	sessions map[string]*session.Session
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		mentors:  make(map[string]fakeMentorRow),
		sessions: make(map[string]*session.Session),
	}
}

func (f *fakeRepository) CreateForAvailableMentor(_ context.Context, id, learnerID, mentorID string, durationMinutes int, scheduledAt *time.Time) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	mentor, ok := f.mentors[mentorID]
	if !ok || !mentor.verified || !mentor.available {
		return nil, dberr.ErrNotFound
	}

	record := &session.Session{
		ID:              id,
		LearnerID:       learnerID,
		MentorID:        mentorID,
		DurationMinutes: durationMinutes,
		ScheduledAt:     scheduledAt,
		Price:           mentor.hourlyRate * float64(durationMinutes) / 60.0,
		Status:          session.StatusPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.sessions[id] = record
	return copySession(record), nil
}

func (f *fakeRepository) FindByID(_ context.Context, id string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.sessions[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return copySession(record), nil
}

func (f *fakeRepository) UpdateStatus(_ context.Context, id string, from, to session.Status, scheduledAt *time.Time) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.sessions[id]
	if !ok || record.Status != from {
		return nil, dberr.ErrNotFound
	}
	record.Status = to
	if scheduledAt != nil {
		record.ScheduledAt = scheduledAt
	}
	record.UpdatedAt = time.Now()
	return copySession(record), nil
}

func (f *fakeRepository) SetFeedback(_ context.Context, id string, rating int, review *string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.sessions[id]
	if !ok || record.Status != session.StatusCompleted || record.Rating != nil {
		return nil, dberr.ErrNotFound
	}
	record.Rating = &rating
	record.Review = review
	return copySession(record), nil
}

func (f *fakeRepository) CompleteElapsed(_ context.Context, now time.Time) ([]*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var closed []*session.Session
	for _, record := range f.sessions {
		if record.Status != session.StatusScheduled || record.ScheduledAt == nil {
			continue
		}
		if record.ScheduledAt.Add(time.Duration(record.DurationMinutes) * time.Minute).Before(now) {
			record.Status = session.StatusCompleted
			closed = append(closed, copySession(record))
		}
	}
	return closed, nil
}

func (f *fakeRepository) ListByLearner(_ context.Context, learnerID string) ([]*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*session.Session
	for _, record := range f.sessions {
		if record.LearnerID == learnerID {
			out = append(out, copySession(record))
		}
	}
	return out, nil
}

func (f *fakeRepository) ListByMentor(_ context.Context, mentorID string) ([]*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*session.Session
	for _, record := range f.sessions {
		if record.MentorID == mentorID {
			out = append(out, copySession(record))
		}
	}
	return out, nil
}

func (f *fakeRepository) List(_ context.Context, limit, offset int) ([]*session.Session, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*session.Session
	for _, record := range f.sessions {
		out = append(out, copySession(record))
	}
	return out, len(out), nil
}

func copySession(record *session.Session) *session.Session {
	clone := *record
	return &clone
}

// recordingNotifier captures every published event, concurrency-safe.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Publish(_ context.Context, event notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

// # Fixtures

var (
	learnerID  = uuidv7.Must()
	mentorID   = uuidv7.Must()
	strangerID = uuidv7.Must()
)

func newTestService(t *testing.T) (*session.Service, *fakeRepository, *recordingNotifier) {
	t.Helper()
	repo := newFakeRepository()
	repo.mentors[mentorID] = fakeMentorRow{hourlyRate: 60, verified: true, available: true}
	notifier := &recordingNotifier{}
	logger := slog.New(slog.DiscardHandler)
	return session.NewService(repo, notifier, logger), repo, notifier
}

func mustBook(t *testing.T, service *session.Service) *session.Session {
	t.Helper()
	record, err := service.Book(context.Background(), learnerID, session.BookInput{
		MentorID:        mentorID,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	return record
}

func mustTransition(t *testing.T, service *session.Service, actorID, sessionID string, to session.Status) *session.Session {
	t.Helper()
	record, err := service.Transition(context.Background(), actorID, sessionID, session.TransitionInput{Status: string(to)})
	require.NoError(t, err)
	return record
}

// # Booking

/*
TestService_Book covers the booking entry point: price snapshotting,
self-booking rejection, and the availability gate.
*/
func TestService_Book(t *testing.T) {
	t.Run("snapshots_prorated_price", func(t *testing.T) {
		service, _, notifier := newTestService(t)

		record, err := service.Book(context.Background(), learnerID, session.BookInput{
			MentorID:        mentorID,
			DurationMinutes: 90,
		})

		require.NoError(t, err)
		assert.Equal(t, session.StatusPending, record.Status)
		assert.Equal(t, learnerID, record.LearnerID)
		assert.InDelta(t, 90.0, record.Price, 0.001) // 60/hr for 90 minutes
		assert.Equal(t, 1, notifier.count())
	})

	t.Run("rejects_self_booking", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Book(context.Background(), mentorID, session.BookInput{
			MentorID:        mentorID,
			DurationMinutes: 60,
		})

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "SELF_BOOKING", ae.Code)
	})

	t.Run("rejects_unavailable_mentor", func(t *testing.T) {
		service, repo, notifier := newTestService(t)
		repo.mentors[mentorID] = fakeMentorRow{hourlyRate: 60, verified: true, available: false}

		_, err := service.Book(context.Background(), learnerID, session.BookInput{
			MentorID:        mentorID,
			DurationMinutes: 60,
		})

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "MENTOR_UNAVAILABLE", ae.Code)
		assert.Equal(t, 0, notifier.count())
	})

	t.Run("rejects_unverified_mentor", func(t *testing.T) {
		service, repo, _ := newTestService(t)
		repo.mentors[mentorID] = fakeMentorRow{hourlyRate: 60, verified: false, available: true}

		_, err := service.Book(context.Background(), learnerID, session.BookInput{
			MentorID:        mentorID,
			DurationMinutes: 60,
		})

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "MENTOR_UNAVAILABLE", ae.Code)
	})

	t.Run("rejects_unknown_mentor", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Book(context.Background(), learnerID, session.BookInput{
			MentorID:        uuidv7.Must(),
			DurationMinutes: 60,
		})

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "MENTOR_UNAVAILABLE", ae.Code)
	})

	t.Run("rejects_bad_duration", func(t *testing.T) {
		service, _, _ := newTestService(t)

		for _, minutes := range []int{0, -30, 5, 600} {
			_, err := service.Book(context.Background(), learnerID, session.BookInput{
				MentorID:        mentorID,
				DurationMinutes: minutes,
			})

			ae := apperr.As(err)
			require.NotNil(t, ae, "duration %d must fail", minutes)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
		}
	})
}

// # State Machine

/*
TestService_Transition_StateMachine walks every from/to pair and asserts
the edge set: pending may schedule or cancel, scheduled may complete or
cancel, terminals admit nothing.
*/
func TestService_Transition_StateMachine(t *testing.T) {
	tests := []struct {
		name    string
		from    session.Status
		to      session.Status
		actor   string
		allowed bool
	}{
		{"pending_to_scheduled", session.StatusPending, session.StatusScheduled, mentorID, true},
		{"pending_to_cancelled", session.StatusPending, session.StatusCancelled, mentorID, true},
		{"pending_to_completed", session.StatusPending, session.StatusCompleted, mentorID, false},
		{"scheduled_to_completed", session.StatusScheduled, session.StatusCompleted, mentorID, true},
		{"scheduled_to_cancelled", session.StatusScheduled, session.StatusCancelled, learnerID, true},
		{"scheduled_to_pending", session.StatusScheduled, session.StatusPending, mentorID, false},
		{"completed_to_cancelled", session.StatusCompleted, session.StatusCancelled, learnerID, false},
		{"completed_to_scheduled", session.StatusCompleted, session.StatusScheduled, mentorID, false},
		{"cancelled_to_scheduled", session.StatusCancelled, session.StatusScheduled, mentorID, false},
		{"cancelled_to_completed", session.StatusCancelled, session.StatusCompleted, mentorID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _ := newTestService(t)
			record := mustBook(t, service)
			repo.sessions[record.ID].Status = tt.from

			_, err := service.Transition(context.Background(), tt.actor, record.ID, session.TransitionInput{
				Status: string(tt.to),
			})

			if tt.allowed {
				require.NoError(t, err)
				stored, findErr := repo.FindByID(context.Background(), record.ID)
				require.NoError(t, findErr)
				assert.Equal(t, tt.to, stored.Status)
			} else {
				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "INVALID_TRANSITION", ae.Code)
			}
		})
	}
}

/*
TestService_Transition_ActorRules pins who may trigger which edge: accepting
and completing are the mentor's moves, cancelling belongs to either owner,
and outsiders get nothing.
*/
func TestService_Transition_ActorRules(t *testing.T) {
	t.Run("learner_cannot_accept", func(t *testing.T) {
		service, _, _ := newTestService(t)
		record := mustBook(t, service)

		_, err := service.Transition(context.Background(), learnerID, record.ID, session.TransitionInput{
			Status: string(session.StatusScheduled),
		})

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "FORBIDDEN", ae.Code)
	})

	t.Run("learner_cannot_complete", func(t *testing.T) {
		service, _, _ := newTestService(t)
		record := mustBook(t, service)
		mustTransition(t, service, mentorID, record.ID, session.StatusScheduled)

		_, err := service.Transition(context.Background(), learnerID, record.ID, session.TransitionInput{
			Status: string(session.StatusCompleted),
		})

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "FORBIDDEN", ae.Code)
	})

	t.Run("learner_may_cancel", func(t *testing.T) {
		service, _, _ := newTestService(t)
		record := mustBook(t, service)

		updated := mustTransition(t, service, learnerID, record.ID, session.StatusCancelled)
		assert.Equal(t, session.StatusCancelled, updated.Status)
	})

	t.Run("mentor_may_cancel", func(t *testing.T) {
		service, _, _ := newTestService(t)
		record := mustBook(t, service)
		mustTransition(t, service, mentorID, record.ID, session.StatusScheduled)

		updated := mustTransition(t, service, mentorID, record.ID, session.StatusCancelled)
		assert.Equal(t, session.StatusCancelled, updated.Status)
	})

	t.Run("stranger_is_rejected", func(t *testing.T) {
		service, _, _ := newTestService(t)
		record := mustBook(t, service)

		_, err := service.Transition(context.Background(), strangerID, record.ID, session.TransitionInput{
			Status: string(session.StatusCancelled),
		})

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "FORBIDDEN", ae.Code)
	})
}

/*
TestService_Transition_Idempotent verifies that re-requesting the current
status succeeds without writing or re-publishing a change event.
*/
func TestService_Transition_Idempotent(t *testing.T) {
	service, _, notifier := newTestService(t)
	record := mustBook(t, service)
	mustTransition(t, service, mentorID, record.ID, session.StatusScheduled)
	published := notifier.count()

	updated, err := service.Transition(context.Background(), mentorID, record.ID, session.TransitionInput{
		Status: string(session.StatusScheduled),
	})

	require.NoError(t, err)
	assert.Equal(t, session.StatusScheduled, updated.Status)
	assert.Equal(t, published, notifier.count(), "no-op must not publish")
}

// staleRepository serves reads from a snapshot that lags the real row,
// reproducing the window between an actor's read and their write.
type staleRepository struct {
	*fakeRepository
	observed session.Status
}

func (s *staleRepository) FindByID(context context.Context, id string) (*session.Session, error) {
	record, err := s.fakeRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	record.Status = s.observed
	return record, nil
}

/*
TestService_Transition_StaleState simulates a lost race: the session moved
under the actor between their read and their write, so the compare-and-swap
misses and the request gets a conflict instead of a silent double write.
*/
func TestService_Transition_StaleState(t *testing.T) {
	service, repo, _ := newTestService(t)
	record := mustBook(t, service)
	mustTransition(t, service, mentorID, record.ID, session.StatusScheduled)
	mustTransition(t, service, learnerID, record.ID, session.StatusCancelled)

	// The mentor still sees the session as scheduled and tries to complete
	// it, but the learner's cancellation already landed.
	stale := session.NewService(
		&staleRepository{fakeRepository: repo, observed: session.StatusScheduled},
		&recordingNotifier{},
		slog.New(slog.DiscardHandler),
	)

	_, err := stale.Transition(context.Background(), mentorID, record.ID, session.TransitionInput{
		Status: string(session.StatusCompleted),
	})

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)

	final, err := repo.FindByID(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCancelled, final.Status)
}

/*
TestService_Transition_ConcurrentCompletion fires many identical completion
requests at one scheduled session. Exactly one change event may result; the
rest collapse into idempotent no-ops or staleness conflicts.
*/
func TestService_Transition_ConcurrentCompletion(t *testing.T) {
	service, repo, notifier := newTestService(t)
	record := mustBook(t, service)
	mustTransition(t, service, mentorID, record.ID, session.StatusScheduled)
	before := notifier.count()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Transition(context.Background(), mentorID, record.ID, session.TransitionInput{
				Status: string(session.StatusCompleted),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "CONFLICT", ae.Code)
		}
	}

	final, err := repo.FindByID(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, final.Status)
	assert.Equal(t, before+1, notifier.count(), "exactly one completion event")
}

// # Feedback

/*
TestService_SubmitFeedback covers the one-shot feedback rules.
*/
func TestService_SubmitFeedback(t *testing.T) {
	completedSession := func(t *testing.T, service *session.Service) *session.Session {
		record := mustBook(t, service)
		mustTransition(t, service, mentorID, record.ID, session.StatusScheduled)
		mustTransition(t, service, mentorID, record.ID, session.StatusCompleted)
		return record
	}

	t.Run("stores_rating_and_review", func(t *testing.T) {
		service, _, notifier := newTestService(t)
		record := completedSession(t, service)
		before := notifier.count()
		review := "Sharp, patient, well prepared."

		updated, err := service.SubmitFeedback(context.Background(), learnerID, record.ID, session.FeedbackInput{
			Rating: 5,
			Review: &review,
		})

		require.NoError(t, err)
		require.NotNil(t, updated.Rating)
		assert.Equal(t, 5, *updated.Rating)
		assert.Equal(t, before+1, notifier.count())
	})

	t.Run("rejects_non_learner", func(t *testing.T) {
		service, _, _ := newTestService(t)
		record := completedSession(t, service)

		_, err := service.SubmitFeedback(context.Background(), mentorID, record.ID, session.FeedbackInput{Rating: 4})

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "FORBIDDEN", ae.Code)
	})

	t.Run("rejects_incomplete_session", func(t *testing.T) {
		service, _, _ := newTestService(t)
		record := mustBook(t, service)

		_, err := service.SubmitFeedback(context.Background(), learnerID, record.ID, session.FeedbackInput{Rating: 4})

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "NOT_COMPLETED", ae.Code)
	})

	t.Run("rejects_second_submission", func(t *testing.T) {
		service, _, _ := newTestService(t)
		record := completedSession(t, service)

		_, err := service.SubmitFeedback(context.Background(), learnerID, record.ID, session.FeedbackInput{Rating: 5})
		require.NoError(t, err)

		_, err = service.SubmitFeedback(context.Background(), learnerID, record.ID, session.FeedbackInput{Rating: 1})
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "CONFLICT", ae.Code)
	})

	t.Run("rejects_out_of_range_rating", func(t *testing.T) {
		service, _, _ := newTestService(t)
		record := completedSession(t, service)

		for _, rating := range []int{0, 6, -1} {
			_, err := service.SubmitFeedback(context.Background(), learnerID, record.ID, session.FeedbackInput{Rating: rating})
			ae := apperr.As(err)
			require.NotNil(t, ae, "rating %d must fail", rating)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
		}
	})
}

// # Auto-Completion

/*
TestService_CompleteElapsed verifies the janitor path closes out only
scheduled sessions whose slot has fully passed.
*/
func TestService_CompleteElapsed(t *testing.T) {
	service, repo, notifier := newTestService(t)

	past := time.Now().Add(-3 * time.Hour)
	future := time.Now().Add(3 * time.Hour)

	elapsed := mustBook(t, service)
	mustTransition(t, service, mentorID, elapsed.ID, session.StatusScheduled)
	repo.sessions[elapsed.ID].ScheduledAt = &past

	upcoming := mustBook(t, service)
	mustTransition(t, service, mentorID, upcoming.ID, session.StatusScheduled)
	repo.sessions[upcoming.ID].ScheduledAt = &future

	pending := mustBook(t, service)
	repo.sessions[pending.ID].ScheduledAt = &past

	before := notifier.count()
	closed, err := service.CompleteElapsed(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.Equal(t, before+1, notifier.count())

	stored, err := repo.FindByID(context.Background(), elapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, stored.Status)

	stored, err = repo.FindByID(context.Background(), upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusScheduled, stored.Status)
}

// # Read Access

/*
TestService_Get verifies read visibility: owners and admins only.
*/
func TestService_Get(t *testing.T) {
	service, _, _ := newTestService(t)
	record := mustBook(t, service)

	ownerClaims := &sec.AuthClaims{UserID: learnerID, Roles: []string{string(sec.RoleLearner)}}
	adminClaims := &sec.AuthClaims{UserID: strangerID, Roles: []string{string(sec.RoleAdmin)}}
	strangerClaims := &sec.AuthClaims{UserID: strangerID, Roles: []string{string(sec.RoleLearner)}}

	got, err := service.Get(context.Background(), ownerClaims, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	_, err = service.Get(context.Background(), adminClaims, record.ID)
	require.NoError(t, err)

	_, err = service.Get(context.Background(), strangerClaims, record.ID)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "FORBIDDEN", ae.Code)
}

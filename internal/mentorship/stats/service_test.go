// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package stats_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trinhvq/mentora/internal/mentorship/stats"
	"github.com/trinhvq/mentora/internal/notify"
	"github.com/trinhvq/mentora/pkg/pointer"
	"github.com/trinhvq/mentora/pkg/uuidv7"
)

// # Test Doubles

type fakeRepository struct {
	mu        sync.Mutex
	rollups   map[string]*stats.Stats
	refreshed []string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rollups: make(map[string]*stats.Stats)}
}

func (f *fakeRepository) Compute(_ context.Context, mentorID string) (*stats.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rollup, ok := f.rollups[mentorID]; ok {
		clone := *rollup
		return &clone, nil
	}
	return &stats.Stats{MentorID: mentorID}, nil
}

func (f *fakeRepository) Refresh(context context.Context, mentorID string) (*stats.Stats, error) {
	rollup, err := f.Compute(context, mentorID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.refreshed = append(f.refreshed, mentorID)
	f.mu.Unlock()
	return rollup, nil
}

func (f *fakeRepository) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refreshed)
}

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

func (n *recordingNotifier) at(i int) notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[i]
}

// # Rollup Semantics

/*
TestService_Get verifies the rollup shape for empty and populated history.
*/
func TestService_Get(t *testing.T) {
	repo := newFakeRepository()
	service := stats.NewService(repo, &recordingNotifier{}, slog.New(slog.DiscardHandler))

	t.Run("empty_history_yields_zero_rollup", func(t *testing.T) {
		rollup, err := service.Get(context.Background(), uuidv7.Must())

		require.NoError(t, err)
		assert.Equal(t, 0, rollup.TotalSessions)
		assert.Nil(t, rollup.Rating, "no rating until a completed session is rated")
		assert.Zero(t, rollup.Earnings)
	})

	t.Run("cancelled_sessions_count_toward_volume_only", func(t *testing.T) {
		mentorID := uuidv7.Must()
		repo.rollups[mentorID] = &stats.Stats{
			MentorID:      mentorID,
			TotalSessions: 3,
			Completed:     1,
			Cancelled:     2,
			Rating:        pointer.To(5.0),
			Earnings:      80,
		}

		rollup, err := service.Get(context.Background(), mentorID)

		require.NoError(t, err)
		assert.Equal(t, 3, rollup.TotalSessions)
		assert.Equal(t, 2, rollup.Cancelled)
		assert.InDelta(t, 80.0, rollup.Earnings, 0.001)
		require.NotNil(t, rollup.Rating)
		assert.InDelta(t, 5.0, *rollup.Rating, 0.001)
	})
}

/*
TestService_Refresh verifies a refresh publishes exactly one mentor event.
*/
func TestService_Refresh(t *testing.T) {
	repo := newFakeRepository()
	notifier := &recordingNotifier{}
	service := stats.NewService(repo, notifier, slog.New(slog.DiscardHandler))
	mentorID := uuidv7.Must()

	_, err := service.Refresh(context.Background(), mentorID)

	require.NoError(t, err)
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, notify.EntityMentor, notifier.at(0).EntityType)
	assert.Equal(t, mentorID, notifier.at(0).EntityID)
}

// # Change-Driven Refresh

/*
TestListener verifies session events trigger a refresh and mentor events do
not, which is what keeps refresh from feeding itself.
*/
func TestListener(t *testing.T) {
	repo := newFakeRepository()
	hub := notify.NewHub(slog.New(slog.DiscardHandler))
	service := stats.NewService(repo, &recordingNotifier{}, slog.New(slog.DiscardHandler))
	listener := stats.NewListener(service, hub, slog.New(slog.DiscardHandler))

	listenerContext, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(listenerContext)

	// Give the listener a beat to subscribe.
	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	mentorID := uuidv7.Must()
	hub.Broadcast(notify.SessionEvent(uuidv7.Must(), uuidv7.Must(), mentorID))

	require.Eventually(t, func() bool {
		return repo.refreshCount() == 1
	}, time.Second, 10*time.Millisecond, "session event must trigger a refresh")

	hub.Broadcast(notify.MentorEvent(mentorID))

	// Mentor events must not re-trigger; the count stays put.
	assert.Never(t, func() bool {
		return repo.refreshCount() > 1
	}, 200*time.Millisecond, 20*time.Millisecond)
}

// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package notify_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trinhvq/mentora/internal/notify"
	"github.com/trinhvq/mentora/pkg/uuidv7"
)

func newHub() *notify.Hub {
	return notify.NewHub(slog.New(slog.DiscardHandler))
}

func receive(t *testing.T, subscription *notify.Subscription) notify.Event {
	t.Helper()
	select {
	case event := <-subscription.Events():
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return notify.Event{}
	}
}

func assertNoEvent(t *testing.T, subscription *notify.Subscription) {
	t.Helper()
	select {
	case event := <-subscription.Events():
		t.Fatalf("unexpected event: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

// # Filter Routing

/*
TestHub_FilterRouting verifies that events reach exactly the subscribers
whose party filter matches.
*/
func TestHub_FilterRouting(t *testing.T) {
	hub := newHub()
	learnerID := uuidv7.Must()
	mentorID := uuidv7.Must()
	otherID := uuidv7.Must()

	asLearner := hub.Subscribe(notify.Filter{LearnerID: learnerID})
	asMentor := hub.Subscribe(notify.Filter{MentorID: mentorID})
	asAdmin := hub.Subscribe(notify.Filter{Admin: true})
	asStranger := hub.Subscribe(notify.Filter{LearnerID: otherID})
	defer func() {
		asLearner.Close()
		asMentor.Close()
		asAdmin.Close()
		asStranger.Close()
	}()

	published := notify.SessionEvent(uuidv7.Must(), learnerID, mentorID)
	hub.Broadcast(published)

	assert.Equal(t, published, receive(t, asLearner))
	assert.Equal(t, published, receive(t, asMentor))
	assert.Equal(t, published, receive(t, asAdmin))
	assertNoEvent(t, asStranger)
}

/*
TestHub_MentorEventRouting verifies profile events reach the mentor and
admins but no learner filters.
*/
func TestHub_MentorEventRouting(t *testing.T) {
	hub := newHub()
	mentorID := uuidv7.Must()

	asMentor := hub.Subscribe(notify.Filter{MentorID: mentorID})
	asLearner := hub.Subscribe(notify.Filter{LearnerID: uuidv7.Must()})
	defer func() {
		asMentor.Close()
		asLearner.Close()
	}()

	hub.Broadcast(notify.MentorEvent(mentorID))

	event := receive(t, asMentor)
	assert.Equal(t, notify.EntityMentor, event.EntityType)
	assert.Equal(t, mentorID, event.EntityID)
	assertNoEvent(t, asLearner)
}

// # Lifecycle

/*
TestHub_Close verifies closing a subscription unregisters it, closes its
channel, and tolerates double closes.
*/
func TestHub_Close(t *testing.T) {
	hub := newHub()
	subscription := hub.Subscribe(notify.Filter{Admin: true})
	require.Equal(t, 1, hub.SubscriberCount())

	subscription.Close()
	subscription.Close() // Double close is a no-op.

	assert.Equal(t, 0, hub.SubscriberCount())
	_, open := <-subscription.Events()
	assert.False(t, open, "channel must be closed")

	// Broadcasting to an empty hub is harmless.
	hub.Broadcast(notify.MentorEvent(uuidv7.Must()))
}

/*
TestHub_SlowSubscriberDropsEvents verifies a full subscriber buffer loses
the overflow instead of blocking the broadcaster, and that other
subscribers keep receiving.
*/
func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := newHub()
	mentorID := uuidv7.Must()

	slow := hub.Subscribe(notify.Filter{Admin: true})
	healthy := hub.Subscribe(notify.Filter{MentorID: mentorID})
	defer func() {
		slow.Close()
		healthy.Close()
	}()

	// Overflow the slow subscriber's buffer without reading from it.
	for i := 0; i < 200; i++ {
		hub.Broadcast(notify.MentorEvent(mentorID))
	}

	// Broadcast never blocked, and the healthy subscriber still drains.
	drained := 0
	for {
		select {
		case <-healthy.Events():
			drained++
			continue
		default:
		}
		break
	}
	assert.Greater(t, drained, 0)
	assert.LessOrEqual(t, drained, 200)
}

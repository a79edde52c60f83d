// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package notify

import (
	"log/slog"
	"sync"

	"github.com/trinhvq/mentora/pkg/uuidv7"
)

// # Subscription Filtering

// Filter selects which events a subscription receives.
//
// A zero filter matches nothing. Admin matches everything; otherwise an
// event matches when its learner or mentor equals the filter's party.
type Filter struct {
	LearnerID string
	MentorID  string
	Admin     bool
}

// Matches reports whether the event should be delivered under this filter.
func (f Filter) Matches(event Event) bool {
	if f.Admin {
		return true
	}
	if f.LearnerID != "" && event.LearnerID == f.LearnerID {
		return true
	}
	if f.MentorID != "" && event.MentorID == f.MentorID {
		return true
	}
	return false
}

// # Fan-out Hub

// subscriptionBuffer is the per-subscriber channel depth. A subscriber
// further behind than this starts losing events.
const subscriptionBuffer = 64

// Subscription is one registered event consumer.
type Subscription struct {
	id     string
	filter Filter
	events chan Event
	hub    *Hub
	once   sync.Once
}

// Events returns the channel delivering matched events. The channel is
// closed when the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close unregisters the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}

// Hub fans events out to all matching subscriptions in-process.
//
// Delivery is non-blocking: a subscriber whose buffer is full loses the
// event and the drop is logged. Publishers are never stalled by consumers.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	logger        *slog.Logger
}

// NewHub constructs an empty fan-out hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscriptions: make(map[string]*Subscription),
		logger:        logger,
	}
}

// Subscribe registers a new consumer for events matching the filter.
func (hub *Hub) Subscribe(filter Filter) *Subscription {
	subscription := &Subscription{
		id:     uuidv7.Must(),
		filter: filter,
		events: make(chan Event, subscriptionBuffer),
		hub:    hub,
	}

	hub.mu.Lock()
	hub.subscriptions[subscription.id] = subscription
	hub.mu.Unlock()

	return subscription
}

// Broadcast delivers the event to every matching subscription without
// blocking. Slow subscribers lose the event; the drop is logged so a stuck
// consumer is visible in operations.
func (hub *Hub) Broadcast(event Event) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for _, subscription := range hub.subscriptions {
		if !subscription.filter.Matches(event) {
			continue
		}
		select {
		case subscription.events <- event:
		default:
			hub.logger.Warn("change_event_dropped",
				slog.String("subscription_id", subscription.id),
				slog.String("entity_type", event.EntityType),
				slog.String("entity_id", event.EntityID),
			)
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (hub *Hub) SubscriberCount() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subscriptions)
}

func (hub *Hub) unsubscribe(id string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	subscription, ok := hub.subscriptions[id]
	if !ok {
		return
	}
	delete(hub.subscriptions, id)
	close(subscription.events)
}

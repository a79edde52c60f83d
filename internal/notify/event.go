// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

/*
Package notify fans change events out to interested subscribers.

Writes to sessions and mentor profiles publish a small [Event] describing
what changed. Events travel through Redis pub/sub so every API instance
sees every change, then through an in-process [Hub] that routes them to
websocket clients and internal listeners by party filter.

Delivery is best-effort: publishing never blocks the write path, and a
subscriber that cannot keep up loses events (with a log line) rather than
stalling everyone else. Clients that need a guaranteed view re-fetch.
*/
package notify

// # Event Types

const (
	// A session row changed: created, transitioned, or rated
	EntitySession = "session"

	// A mentor profile changed: onboarded, verified, availability or rollup
	EntityMentor = "mentor"
)

// Event is the minimal description of a single entity change.
//
// It deliberately carries no payload beyond identity and the owning
// parties. Subscribers re-fetch the entity when they care about its
// content, which keeps stale events harmless.
type Event struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	LearnerID  string `json:"learner_id,omitempty"`
	MentorID   string `json:"mentor_id,omitempty"`
}

// SessionEvent builds the change event for a session write.
func SessionEvent(sessionID, learnerID, mentorID string) Event {
	return Event{
		EntityType: EntitySession,
		EntityID:   sessionID,
		LearnerID:  learnerID,
		MentorID:   mentorID,
	}
}

// MentorEvent builds the change event for a mentor profile write.
func MentorEvent(mentorID string) Event {
	return Event{
		EntityType: EntityMentor,
		EntityID:   mentorID,
		MentorID:   mentorID,
	}
}

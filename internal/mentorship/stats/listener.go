// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package stats

import (
	"context"
	"log/slog"

	"github.com/trinhvq/mentora/internal/notify"
)

// Listener drives cache refreshes from the change feed.
//
// It subscribes to the hub with an admin-scope filter and refreshes the
// affected mentor's rollup on every session event. Mentor-profile events
// are ignored: Refresh itself publishes one, and reacting to it would spin
// the refresh loop forever.
type Listener struct {
	service *Service
	hub     *notify.Hub
	logger  *slog.Logger
}

// NewListener constructs the stats refresh listener.
func NewListener(service *Service, hub *notify.Hub, logger *slog.Logger) *Listener {
	return &Listener{
		service: service,
		hub:     hub,
		logger:  logger,
	}
}

// Run blocks consuming session events until the context is cancelled.
// Intended to be launched as a goroutine from main.
func (listener *Listener) Run(runContext context.Context) {
	subscription := listener.hub.Subscribe(notify.Filter{Admin: true})
	defer subscription.Close()

	listener.logger.Info("stats_listener_started")

	for {
		select {
		case <-runContext.Done():
			listener.logger.Info("stats_listener_stopped")
			return
		case event, ok := <-subscription.Events():
			if !ok {
				return
			}
			if event.EntityType != notify.EntitySession || event.MentorID == "" {
				continue
			}

			if _, err := listener.service.Refresh(runContext, event.MentorID); err != nil {
				// A missed refresh self-heals on the mentor's next session
				// event; the log line is the operational breadcrumb.
				listener.logger.Error("stats_refresh_failed",
					slog.String("mentor_id", event.MentorID),
					slog.Any("error", err),
				)
			}
		}
	}
}

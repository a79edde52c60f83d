// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trinhvq/mentora/internal/platform/constants"
)

// publishTimeout bounds the fire-and-forget publish so a wedged broker
// cannot pile up goroutines forever.
const publishTimeout = 2 * time.Second

// # Publishing Side

// RedisPublisher pushes change events onto the shared Redis channel so
// every API instance (including this one, via the bridge) fans them out.
type RedisPublisher struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisPublisher constructs the Redis-backed event publisher.
func NewRedisPublisher(client *redis.Client, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, logger: logger}
}

// Publish sends the event to the Redis channel, fire-and-forget.
//
// The write path that triggered the event has already committed; a lost
// notification costs a dashboard refresh, not data, so failures are logged
// and never propagated.
func (publisher *RedisPublisher) Publish(_ context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		publisher.logger.Error("change_event_encode_failed", slog.Any("error", err))
		return
	}

	go func() {
		publishContext, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := publisher.client.Publish(publishContext, constants.RedisChannelChanges, payload).Err(); err != nil {
			publisher.logger.Error("change_event_publish_failed",
				slog.String("entity_type", event.EntityType),
				slog.String("entity_id", event.EntityID),
				slog.Any("error", err),
			)
		}
	}()
}

// # Subscribing Side

// Bridge consumes the Redis channel and rebroadcasts each event into the
// in-process [Hub]. Runs once per API instance.
type Bridge struct {
	client *redis.Client
	hub    *Hub
	logger *slog.Logger
}

// NewBridge constructs the Redis-to-hub bridge.
func NewBridge(client *redis.Client, hub *Hub, logger *slog.Logger) *Bridge {
	return &Bridge{client: client, hub: hub, logger: logger}
}

// Run blocks consuming the Redis channel until the context is cancelled.
// Intended to be launched as a goroutine from main.
func (bridge *Bridge) Run(runContext context.Context) {
	pubsub := bridge.client.Subscribe(runContext, constants.RedisChannelChanges)
	defer pubsub.Close()

	bridge.logger.Info("notify_bridge_started", slog.String("channel", constants.RedisChannelChanges))

	channel := pubsub.Channel()
	for {
		select {
		case <-runContext.Done():
			bridge.logger.Info("notify_bridge_stopped")
			return
		case message, ok := <-channel:
			if !ok {
				bridge.logger.Warn("notify_bridge_channel_closed")
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
				bridge.logger.Error("change_event_decode_failed", slog.Any("error", err))
				continue
			}
			bridge.hub.Broadcast(event)
		}
	}
}

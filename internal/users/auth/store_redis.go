// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trinhvq/mentora/internal/platform/apperr"
	"github.com/trinhvq/mentora/internal/platform/constants"
)

// RedisSessionRepository implements [SessionRepository] using Redis.
//
// Each refresh-token hash is a key bound to its account with the token's
// TTL, so expired sessions disappear on their own.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository creates a new Redis-backed SessionRepository.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

/*
Set stores a refresh-token hash with its associated userID and TTL.

Parameters:
  - context: context.Context
  - tokenHash: string
  - userID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisSessionRepository) Set(context context.Context, tokenHash, userID string, ttl time.Duration) error {
	key := constants.RedisPrefixSession + tokenHash

	if err := repository.client.Set(context, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}

	return nil
}

/*
Get retrieves the userID for a given refresh-token hash.

Description: Returns apperr.Unauthorized if the session is absent or
expired; both cases look identical to the caller on purpose.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - string: UserID
  - error: apperr.Unauthorized or connectivity errors
*/
func (repository *RedisSessionRepository) Get(context context.Context, tokenHash string) (string, error) {
	key := constants.RedisPrefixSession + tokenHash

	userID, err := repository.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.Unauthorized("Invalid or expired refresh token")
		}
		return "", fmt.Errorf("redis_session_get_failed: %w", err)
	}

	return userID, nil
}

/*
Delete revokes a refresh-token session.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisSessionRepository) Delete(context context.Context, tokenHash string) error {
	key := constants.RedisPrefixSession + tokenHash

	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}

	return nil
}

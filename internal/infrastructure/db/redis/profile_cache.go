package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hourbook/volunteer-api/internal/core/ports"
)

const profileKeyPrefix = "identity:profile:"

// ProfileCache decorates a ports.ProfileFetcher with a Redis read-through
// cache. Cache failures are logged and bypassed; only successful lookups are
// cached, so a rejected subject is re-checked with the provider every time.
type ProfileCache struct {
	client *redis.Client
	next   ports.ProfileFetcher
	ttl    time.Duration
	logger zerolog.Logger
}

// NewProfileCache wraps next. Entries expire after ttl.
func NewProfileCache(client *redis.Client, next ports.ProfileFetcher, ttl time.Duration, logger zerolog.Logger) *ProfileCache {
	return &ProfileCache{client: client, next: next, ttl: ttl, logger: logger}
}

func (c *ProfileCache) FetchProfile(ctx context.Context, subjectID string) (*ports.Profile, error) {
	key := profileKeyPrefix + subjectID

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p ports.Profile
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding undecodable cached profile")
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn().Err(err).Str("key", key).Msg("profile cache read failed")
	}

	p, err := c.next.FetchProfile(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("profile cache write failed")
		}
	}
	return p, nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/repository"
)

const defaultProfileCachePrefix = "learnhub:profile"

// ProfileCache caches profile rows by identity id for low-latency reads.
type ProfileCache struct {
	client *red.Client
	prefix string
}

// NewProfileCache constructs a profile cache helper.
func NewProfileCache(client *red.Client, keyPrefix string) *ProfileCache {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultProfileCachePrefix
	}

	return &ProfileCache{client: client, prefix: prefix}
}

// Get fetches the cached profile, returning repository.ErrNotFound on a miss.
func (c *ProfileCache) Get(ctx context.Context, id string) (*domain.Profile, error) {
	key := c.key(id)
	if key == "" {
		return nil, fmt.Errorf("profile id is required")
	}

	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get profile: %w", err)
	}

	var profile domain.Profile
	if err := json.Unmarshal(value, &profile); err != nil {
		return nil, fmt.Errorf("decode cached profile: %w", err)
	}

	return &profile, nil
}

// Set stores the profile with the provided TTL.
func (c *ProfileCache) Set(ctx context.Context, profile domain.Profile, ttl time.Duration) error {
	key := c.key(profile.ID)
	if key == "" {
		return fmt.Errorf("profile id is required")
	}

	value, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set profile: %w", err)
	}

	return nil
}

// Invalidate removes the cached profile.
func (c *ProfileCache) Invalidate(ctx context.Context, id string) error {
	key := c.key(id)
	if key == "" {
		return fmt.Errorf("profile id is required")
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete profile: %w", err)
	}

	return nil
}

func (c *ProfileCache) key(id string) string {
	if strings.TrimSpace(id) == "" {
		return ""
	}
	return c.prefix + ":" + id
}

package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"picktrack/tracking/internal/cache"
	"picktrack/tracking/internal/models"
)

// Cached is a read-through cache in front of a results client. Cache
// failures degrade to a direct fetch rather than failing the run.
type Cached struct {
	client   *Client
	cache    *cache.RedisCache
	lineTTL  time.Duration
	finalTTL time.Duration
}

// NewCached wraps a client with a Redis cache
func NewCached(client *Client, c *cache.RedisCache, lineTTL, finalTTL time.Duration) *Cached {
	return &Cached{
		client:   client,
		cache:    c,
		lineTTL:  lineTTL,
		finalTTL: finalTTL,
	}
}

// PlayerLines fetches player stat lines, via cache when possible
func (c *Cached) PlayerLines(ctx context.Context, date time.Time) ([]models.PlayerLine, error) {
	key := fmt.Sprintf("results:lines:%s", date.Format("2006-01-02"))

	var lines []models.PlayerLine
	if hit, err := c.lookup(ctx, key, &lines); err == nil && hit {
		return lines, nil
	}

	lines, err := c.client.PlayerLines(ctx, date)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, lines, c.lineTTL)
	return lines, nil
}

// TeamResults fetches game results, via cache when possible
func (c *Cached) TeamResults(ctx context.Context, date time.Time) ([]models.TeamResult, error) {
	key := fmt.Sprintf("results:finals:%s", date.Format("2006-01-02"))

	var results []models.TeamResult
	if hit, err := c.lookup(ctx, key, &results); err == nil && hit {
		return results, nil
	}

	results, err := c.client.TeamResults(ctx, date)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, results, c.finalTTL)
	return results, nil
}

func (c *Cached) lookup(ctx context.Context, key string, out interface{}) (bool, error) {
	if c.cache == nil {
		return false, nil
	}

	data, err := c.cache.Get(ctx, key)
	if err == cache.ErrMiss {
		return false, nil
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache lookup failed, fetching directly")
		return false, nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Corrupt cache entry, fetching directly")
		return false, nil
	}

	return true, nil
}

func (c *Cached) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := c.cache.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to populate cache")
	}
}

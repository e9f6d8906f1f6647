package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tripplanner/planner"
)

const DefaultTTL = 24 * time.Hour

// Connect parses a redis:// URL (or a bare host:port) and pings the server.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(rawURL, "://") {
		parsed, err := redis.ParseURL(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: rawURL}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func normalise(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ─── Attractions ──────────────────────────────────────────────────────────────

// Attractions is a read-through cache in front of an AttractionProvider.
type Attractions struct {
	Next  planner.AttractionProvider
	Redis *redis.Client
	TTL   time.Duration
}

func attractionKey(q planner.AttractionQuery) string {
	return fmt.Sprintf("tp:attr:%s:%d:%d", normalise(q.City), q.Limit, q.RadiusMeters)
}

func (c *Attractions) Attractions(ctx context.Context, q planner.AttractionQuery) ([]planner.Attraction, error) {
	key := attractionKey(q)

	raw, err := c.Redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []planner.Attraction
		if jerr := json.Unmarshal(raw, &cached); jerr == nil {
			return cached, nil
		}
		log.Printf("⚠️  Dropping unreadable cache entry %s", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("⚠️  Redis GET %s failed: %v", key, err)
	}

	list, err := c.Next.Attractions(ctx, q)
	if err != nil || len(list) == 0 {
		return list, err
	}

	if b, err := json.Marshal(list); err == nil {
		if err := c.Redis.Set(ctx, key, b, ttl(c.TTL)).Err(); err != nil {
			log.Printf("⚠️  Redis SET %s failed: %v", key, err)
		}
	}
	return list, nil
}

// ─── Photos ───────────────────────────────────────────────────────────────────

// Photos is a read-through cache in front of a PhotoProvider.
type Photos struct {
	Next  planner.PhotoProvider
	Redis *redis.Client
	TTL   time.Duration
}

func photoKey(subject, city string) string {
	return fmt.Sprintf("tp:photo:%s:%s", normalise(city), normalise(subject))
}

func (c *Photos) Photo(ctx context.Context, subject, city string) (string, error) {
	key := photoKey(subject, city)

	img, err := c.Redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		return img, nil
	case !errors.Is(err, redis.Nil):
		log.Printf("⚠️  Redis GET %s failed: %v", key, err)
	}

	img, err = c.Next.Photo(ctx, subject, city)
	if err != nil || img == "" {
		return img, err
	}
	if err := c.Redis.Set(ctx, key, img, ttl(c.TTL)).Err(); err != nil {
		log.Printf("⚠️  Redis SET %s failed: %v", key, err)
	}
	return img, nil
}

func ttl(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTTL
	}
	return d
}

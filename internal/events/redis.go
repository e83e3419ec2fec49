package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStreamKey = "events:orders"
	defaultMaxLen    = 10000
)

// RedisFeed keeps the most recent events in a capped Redis list so the admin
// tooling can read them without a broker.
type RedisFeed struct {
	redis  *redis.Client
	key    string
	maxLen int64
}

func NewRedisFeed(client *redis.Client, key string) *RedisFeed {
	if key == "" {
		key = DefaultStreamKey
	}
	return &RedisFeed{redis: client, key: key, maxLen: defaultMaxLen}
}

func (f *RedisFeed) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := f.redis.LPush(ctx, f.key, data).Err(); err != nil {
		return fmt.Errorf("queue event %s: %w", e.Type, err)
	}
	if err := f.redis.LTrim(ctx, f.key, 0, f.maxLen-1).Err(); err != nil {
		return fmt.Errorf("trim event feed: %w", err)
	}
	return nil
}

// Recent returns up to n events, newest first.
func (f *RedisFeed) Recent(ctx context.Context, n int64) ([]Event, error) {
	if n <= 0 {
		n = 50
	}
	raw, err := f.redis.LRange(ctx, f.key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read event feed: %w", err)
	}

	out := make([]Event, 0, len(raw))
	for _, item := range raw {
		var e Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *RedisFeed) Length(ctx context.Context) int64 {
	n, _ := f.redis.LLen(ctx, f.key).Result()
	return n
}

// Close is a no-op; the client is owned by the caller.
func (f *RedisFeed) Close() error {
	return nil
}

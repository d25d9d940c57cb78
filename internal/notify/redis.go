package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"familyspace/internal/models"
)

// RedisMessage is the payload published for push workers subscribed to a
// family channel
type RedisMessage struct {
	Event      Event           `json:"event"`
	Recipients []RedisAudience `json:"recipients"`
}

// RedisAudience identifies one recipient of a published event
type RedisAudience struct {
	MemberID  int64  `json:"member_id"`
	PushToken string `json:"push_token,omitempty"`
}

// RedisSink publishes events on a per-family pub/sub channel
type RedisSink struct {
	client *redis.Client
	prefix string
}

// NewRedisClient connects to Redis
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

// NewRedisSink creates a sink publishing to prefix + family id
func NewRedisSink(client *redis.Client, prefix string) *RedisSink {
	return &RedisSink{client: client, prefix: prefix}
}

func (s *RedisSink) Name() string { return "redis" }

// Channel returns the channel a family's events are published on
func (s *RedisSink) Channel(familyID int64) string {
	return s.prefix + strconv.FormatInt(familyID, 10)
}

func (s *RedisSink) Deliver(ctx context.Context, event Event, recipients []models.Member) error {
	msg := RedisMessage{Event: event}
	for _, r := range recipients {
		msg.Recipients = append(msg.Recipients, RedisAudience{MemberID: r.ID, PushToken: r.PushToken})
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := s.client.Publish(ctx, s.Channel(event.FamilyID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

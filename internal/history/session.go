package history

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/temcen/reelrank/pkg/models"
)

// SessionStore keeps the watch history of anonymous sessions in Redis: one
// hash per session mapping item id to the watch time in unix nanoseconds.
// The hash expires ttl after the last write.
type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: client, ttl: ttl}
}

func sessionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("history:%s", sessionID.String())
}

func (s *SessionStore) Load(ctx context.Context, sessionID uuid.UUID) ([]models.WatchEvent, error) {
	fields, err := s.redis.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	events := make([]models.WatchEvent, 0, len(fields))
	for field, value := range fields {
		itemID, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		nanos, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		events = append(events, models.WatchEvent{
			UserID:    sessionID,
			ItemID:    itemID,
			WatchedAt: time.Unix(0, nanos).UTC(),
		})
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].WatchedAt.Equal(events[j].WatchedAt) {
			return events[i].WatchedAt.After(events[j].WatchedAt)
		}
		return events[i].ItemID < events[j].ItemID
	})

	return events, nil
}

func (s *SessionStore) Upsert(ctx context.Context, sessionID uuid.UUID, itemID int, at time.Time) error {
	key := sessionKey(sessionID)

	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(itemID), strconv.FormatInt(at.UnixNano(), 10))
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record session watch event: %w", err)
	}
	return nil
}

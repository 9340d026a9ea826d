package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"idverify/internal/document/models"
	"idverify/pkg/platform/secrets"
	"idverify/pkg/platform/sentinel"
)

const recordKeyPrefix = "idverify:record:"

// RedisStore keeps each sealed record under its own key with a TTL equal to
// the remaining retention, so Redis does the purging.
type RedisStore struct {
	client *redis.Client
	codec  codec
}

func NewRedisStore(client *redis.Client, sealer *secrets.Sealer) *RedisStore {
	return &RedisStore{client: client, codec: codec{sealer: sealer}}
}

func recordKey(requestID string) string {
	return recordKeyPrefix + requestID
}

func (s *RedisStore) Save(ctx context.Context, record *models.VerificationRecord) error {
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	sealed, err := s.codec.seal(record)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(sealed)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.client.Set(ctx, recordKey(record.RequestID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save record: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

func (s *RedisStore) FindByRequestID(ctx context.Context, requestID string, now time.Time) (*models.VerificationRecord, error) {
	payload, err := s.client.Get(ctx, recordKey(requestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w", errors.Join(sentinel.ErrUnavailable, err))
	}

	var sealed sealedRecord
	if err := json.Unmarshal(payload, &sealed); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	// Key TTL and the request clock can disagree by a few milliseconds.
	if !now.Before(sealed.ExpiresAt) {
		return nil, sentinel.ErrExpired
	}
	return s.codec.open(&sealed)
}

// PurgeExpired is a no-op: keys expire on their own.
func (s *RedisStore) PurgeExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, requestIDs []string) (int, error) {
	if len(requestIDs) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(requestIDs))
	for _, id := range requestIDs {
		keys = append(keys, recordKey(id))
	}
	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return int(n), nil
}

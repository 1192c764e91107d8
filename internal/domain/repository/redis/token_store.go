// File: backend/services/auth-service/internal/domain/repository/redis/token_store.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/interfaces"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/utils/metrics"
)

// TokenStore persists one session's token pair in Redis. Each slot lives
// under its own key so the two credentials expire independently of any other
// session state.
type TokenStore struct {
	client    *redis.Client
	logger    *zap.Logger
	sessionID string
	ttl       time.Duration
}

var _ interfaces.TokenStore = (*TokenStore)(nil)

// NewTokenStore creates a store bound to one session ID.
func NewTokenStore(client *redis.Client, logger *zap.Logger, sessionID string, ttl time.Duration) *TokenStore {
	return &TokenStore{
		client:    client,
		logger:    logger,
		sessionID: sessionID,
		ttl:       ttl,
	}
}

func (s *TokenStore) key(slot interfaces.TokenSlot) string {
	return fmt.Sprintf("session:%s:%s", s.sessionID, slot)
}

// GetItem returns the slot value. A missing key reads as an empty string.
func (s *TokenStore) GetItem(ctx context.Context, slot interfaces.TokenSlot) (string, error) {
	value, err := s.client.Get(ctx, s.key(slot)).Result()
	if err != nil {
		if err == redis.Nil {
			metrics.CacheOperationsTotal.WithLabelValues("get", metrics.StatusSuccess).Inc()
			return "", nil
		}
		s.logger.Error("Failed to get token from cache", zap.Error(err), zap.String("slot", string(slot)))
		metrics.CacheOperationsTotal.WithLabelValues("get", metrics.StatusFailure).Inc()
		return "", err
	}
	metrics.CacheOperationsTotal.WithLabelValues("get", metrics.StatusSuccess).Inc()
	return value, nil
}

// SetItem writes the slot value with the store's TTL.
func (s *TokenStore) SetItem(ctx context.Context, slot interfaces.TokenSlot, value string) error {
	if err := s.client.Set(ctx, s.key(slot), value, s.ttl).Err(); err != nil {
		s.logger.Error("Failed to set token in cache", zap.Error(err), zap.String("slot", string(slot)))
		metrics.CacheOperationsTotal.WithLabelValues("set", metrics.StatusFailure).Inc()
		return err
	}
	metrics.CacheOperationsTotal.WithLabelValues("set", metrics.StatusSuccess).Inc()
	return nil
}

// RemoveItem deletes the slot key. Deleting a missing key is not an error.
func (s *TokenStore) RemoveItem(ctx context.Context, slot interfaces.TokenSlot) error {
	if err := s.client.Del(ctx, s.key(slot)).Err(); err != nil {
		s.logger.Error("Failed to delete token from cache", zap.Error(err), zap.String("slot", string(slot)))
		metrics.CacheOperationsTotal.WithLabelValues("del", metrics.StatusFailure).Inc()
		return err
	}
	metrics.CacheOperationsTotal.WithLabelValues("del", metrics.StatusSuccess).Inc()
	return nil
}

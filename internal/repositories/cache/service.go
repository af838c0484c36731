package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tourneypay/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// ClaimKey sets key only if it does not exist yet. It reports whether this
// caller claimed it.
func (s *CacheService) ClaimKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim key: %w", err)
	}
	return ok, nil
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// Tournament payment caching
func (s *CacheService) CacheTournamentPayment(ctx context.Context, payment *models.TournamentPayment) error {
	if payment == nil {
		return errors.New("cannot cache nil tournament payment")
	}
	return s.Set(ctx, s.GenerateKey("tournament_payment", "tournament", payment.TournamentID), payment)
}

func (s *CacheService) GetTournamentPayment(ctx context.Context, tournamentID uint) (*models.TournamentPayment, error) {
	var payment models.TournamentPayment
	found, err := s.Get(ctx, s.GenerateKey("tournament_payment", "tournament", tournamentID), &payment)
	if err != nil || !found {
		return nil, err
	}
	return &payment, nil
}

func (s *CacheService) InvalidateTournamentPayment(ctx context.Context, tournamentID uint) error {
	return s.Delete(ctx, s.GenerateKey("tournament_payment", "tournament", tournamentID))
}

// FlushAll flushes all keys from the cache
func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}

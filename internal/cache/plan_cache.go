package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blagoySimandov/clinicbook/internal/models"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const planKeyPrefix = "clinicbook:plans:"

type PlanCache interface {
	Get(ctx context.Context, accountID string) ([]models.Plan, bool)
	Set(ctx context.Context, accountID string, plans []models.Plan) error
}

func PlanKey(accountID string) string {
	return planKeyPrefix + accountID
}

type RedisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPlanCache(client *redis.Client, ttl time.Duration) *RedisPlanCache {
	return &RedisPlanCache{client: client, ttl: ttl}
}

func (c *RedisPlanCache) Get(ctx context.Context, accountID string) ([]models.Plan, bool) {
	raw, err := c.client.Get(ctx, PlanKey(accountID)).Bytes()
	if err != nil {
		return nil, false
	}
	var plans []models.Plan
	if err := json.Unmarshal(raw, &plans); err != nil {
		return nil, false
	}
	return plans, true
}

func (c *RedisPlanCache) Set(ctx context.Context, accountID string, plans []models.Plan) error {
	if plans == nil {
		plans = []models.Plan{}
	}
	raw, err := json.Marshal(plans)
	if err != nil {
		return fmt.Errorf("failed to encode plans: %w", err)
	}
	if err := c.client.Set(ctx, PlanKey(accountID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache plans for %s: %w", accountID, err)
	}
	return nil
}

// InMemoryPlanCache is the per-process fallback when Redis is not configured.
type InMemoryPlanCache struct {
	lru *lru.LRU[string, []models.Plan]
}

func NewInMemoryPlanCache(size int, ttl time.Duration) *InMemoryPlanCache {
	return &InMemoryPlanCache{
		lru: lru.NewLRU[string, []models.Plan](size, nil, ttl),
	}
}

func (c *InMemoryPlanCache) Get(ctx context.Context, accountID string) ([]models.Plan, bool) {
	plans, ok := c.lru.Get(PlanKey(accountID))
	if !ok {
		return nil, false
	}
	result := make([]models.Plan, len(plans))
	copy(result, plans)
	return result, true
}

func (c *InMemoryPlanCache) Set(ctx context.Context, accountID string, plans []models.Plan) error {
	stored := make([]models.Plan, len(plans))
	copy(stored, plans)
	c.lru.Add(PlanKey(accountID), stored)
	return nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]models.Plan, bool) { return nil, false }
func (Nop) Set(context.Context, string, []models.Plan) error  { return nil }

var ErrRedisUnavailable = errors.New("redis unavailable")

// NewRedisClient connects and pings. Callers fall back to the in-memory cache on error.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, ErrRedisUnavailable
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return client, nil
}

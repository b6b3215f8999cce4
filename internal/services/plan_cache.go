package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/pkg/models"
)

// RedisPlanCache stores generated day plans as JSON. A nil client turns
// the cache off; Redis errors are logged and treated as misses.
type RedisPlanCache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisPlanCache(client *redis.Client, logger *logrus.Logger) *RedisPlanCache {
	return &RedisPlanCache{client: client, logger: logger}
}

// PlanCacheKey identifies a plan request. Requests that differ only in
// fields the planner ignores share a key. model is the identity of the
// preference model that ranks the plan, see ModelCacheIdentity.
func PlanCacheKey(profile models.UserProfile, perMeal int, explain bool, model string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%t:%s", profile.CacheKey(), perMeal, explain, model)))
	return fmt.Sprintf("smartdiet:plan:%x", sum[:12])
}

// ModelCacheIdentity names the active model for PlanCacheKey. Activating
// another model or re-registering one under the same name changes it.
// A nil source or a registry with no active model yields "".
func ModelCacheIdentity(source ActiveModelSource) string {
	if source == nil {
		return ""
	}
	info, err := source.ActiveModel()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s@%s:%s:%d", info.Name, info.Version, info.Hash, info.LoadedAt.UnixNano())
}

func (c *RedisPlanCache) Get(ctx context.Context, key string) (*models.DayPlan, bool) {
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", key).Warn("Failed to read plan cache")
		}
		return nil, false
	}

	var plan models.DayPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Discarding unreadable cached plan")
		return nil, false
	}
	return &plan, true
}

func (c *RedisPlanCache) Set(ctx context.Context, key string, plan *models.DayPlan, ttl time.Duration) {
	if c.client == nil || ttl <= 0 {
		return
	}

	data, err := json.Marshal(plan)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode plan for cache")
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to write plan cache")
	}
}

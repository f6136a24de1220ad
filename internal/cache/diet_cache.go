package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"dailydiet/internal/model"
)

// DietListCache keeps each user's diet list in Redis for a short TTL.
// Writers invalidate the owner's entry so reads never serve a stale list
// past one TTL window.
type DietListCache struct {
	client  *redisv9.Client
	listTTL time.Duration
}

func NewDietListCache(client *redisv9.Client, listTTL time.Duration) *DietListCache {
	if listTTL <= 0 {
		listTTL = 60 * time.Second
	}
	return &DietListCache{
		client:  client,
		listTTL: listTTL,
	}
}

func (c *DietListCache) GetList(ctx context.Context, userID uint) ([]model.Diet, bool, error) {
	key := c.listKey(userID)
	raw, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get diet list failed: %w", err)
	}

	var diets []model.Diet
	if err := json.Unmarshal([]byte(raw), &diets); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached diet list failed: %w", err)
	}
	return diets, true, nil
}

func (c *DietListCache) SetList(ctx context.Context, userID uint, diets []model.Diet) error {
	key := c.listKey(userID)
	payload, err := json.Marshal(diets)
	if err != nil {
		return fmt.Errorf("marshal diet list cache failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.listTTL).Err(); err != nil {
		return fmt.Errorf("redis set diet list failed: %w", err)
	}
	return nil
}

func (c *DietListCache) DeleteList(ctx context.Context, userID uint) error {
	key := c.listKey(userID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete diet list failed: %w", err)
	}
	return nil
}

func (c *DietListCache) listKey(userID uint) string {
	return fmt.Sprintf("diet:list:%d", userID)
}

package repository

import (
	"cms-go/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	menuTreeKeyPrefix = "cms:menu:tree:visible"
	menuTreeGenKey    = "cms:menu:tree:gen"
)

// MenuCache 缓存公开菜单树，菜单发生任何写操作后必须调用 Invalidate。
// 缓存按代(generation)存放：Invalidate 递增代号，读到旧代号的回填只会写进无人读取的旧 key。
type MenuCache interface {
	// Get 返回当前代号以及该代的缓存菜单树，未命中时 ok 为 false。
	Get(ctx context.Context) (tree []*model.Menu, gen int64, ok bool, err error)
	// Set 把菜单树写入 gen 代，gen 必须来自之前的 Get。
	Set(ctx context.Context, gen int64, tree []*model.Menu) error
	Invalidate(ctx context.Context) error
}

type redisMenuCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewMenuCache 创建一个基于 Redis 的 MenuCache。
func NewMenuCache(redisClient *redis.Client, ttl time.Duration) MenuCache {
	return &redisMenuCache{redisClient: redisClient, ttl: ttl}
}

func menuTreeKey(gen int64) string {
	return fmt.Sprintf("%s:%d", menuTreeKeyPrefix, gen)
}

func (c *redisMenuCache) Get(ctx context.Context) ([]*model.Menu, int64, bool, error) {
	gen, err := c.redisClient.Get(ctx, menuTreeGenKey).Int64()
	if err != nil && err != redis.Nil {
		return nil, 0, false, fmt.Errorf("failed to get menu tree generation: %w", err)
	}
	data, err := c.redisClient.Get(ctx, menuTreeKey(gen)).Bytes()
	if err == redis.Nil {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("failed to get menu tree cache: %w", err)
	}
	var tree []*model.Menu
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, gen, false, fmt.Errorf("failed to unmarshal menu tree cache: %w", err)
	}
	return tree, gen, true, nil
}

func (c *redisMenuCache) Set(ctx context.Context, gen int64, tree []*model.Menu) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal menu tree: %w", err)
	}
	if err := c.redisClient.Set(ctx, menuTreeKey(gen), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set menu tree cache: %w", err)
	}
	return nil
}

func (c *redisMenuCache) Invalidate(ctx context.Context) error {
	gen, err := c.redisClient.Incr(ctx, menuTreeGenKey).Result()
	if err != nil {
		return fmt.Errorf("failed to bump menu tree generation: %w", err)
	}
	// 旧代的树已不可达，顺手删掉，删失败也只是等 TTL 过期
	c.redisClient.Del(ctx, menuTreeKey(gen-1))
	return nil
}

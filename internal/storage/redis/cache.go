package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"nboxie/backend/internal/domain"
)

// MarkerCache 扫描标记的 Redis 快速路径缓存。
// 只做加速，不是事实来源：未命中时调用方回查持久存储。
type MarkerCache struct {
	client *redis.Client
	ctx    context.Context
}

// NewMarkerCache 创建 Redis 缓存实例并测试连接
func NewMarkerCache(addr, password string, db int) (*MarkerCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &MarkerCache{
		client: client,
		ctx:    ctx,
	}, nil
}

// HasMarker 查询缓存中是否存在扫描标记
func (c *MarkerCache) HasMarker(messageID string) (bool, error) {
	n, err := c.client.Exists(c.ctx, markerKey(messageID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetMarker 写入扫描标记，标记永久保留，不设 TTL
func (c *MarkerCache) SetMarker(marker *domain.ScanMarker) error {
	data, err := json.Marshal(marker)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, markerKey(marker.MessageID), data, 0).Err()
}

// Close 关闭 Redis 连接
func (c *MarkerCache) Close() error {
	return c.client.Close()
}

func markerKey(messageID string) string {
	return fmt.Sprintf("scanmark:%s", messageID)
}

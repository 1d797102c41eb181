package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// StreamPublisher 发布消息到 Redis Streams（下游服务通过消费者组回放）
type StreamPublisher interface {
	PublishJSON(ctx context.Context, stream string, data interface{}) (string, error)
}

// RedisStreamPublisher 基于 go-redis 的 Streams 发布器
type RedisStreamPublisher struct {
	client *redis.Client
}

func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client}
}

// PublishJSON 序列化为 JSON 并通过 XADD 追加到流
func (p *RedisStreamPublisher) PublishJSON(ctx context.Context, stream string, data interface{}) (string, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(jsonBytes),
			"timestamp": time.Now().Unix(),
		},
	}).Result()
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/KuiHua-JAC/winsports-cron/internal/interfaces"

	"github.com/redis/go-redis/v9"
)

// redisRepository 每个文档一个 hash，顶层字段各占一个 field（值为 JSON），HSET 天然是合并语义
type redisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) interfaces.DocumentStore {
	return &redisRepository{client: client}
}

func redisDocKey(collection, key string) string {
	return fmt.Sprintf("%s:%s", collection, key)
}

func (r *redisRepository) Upsert(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	pairs := make([]string, 0, len(fields)*2)
	for field, v := range fields {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("序列化字段%s失败: %w", field, err)
		}
		pairs = append(pairs, field, string(data))
	}
	if len(pairs) == 0 {
		return nil
	}
	if err := r.client.HSet(ctx, redisDocKey(collection, key), interfaces.ToInterfaceSlice(pairs)...).Err(); err != nil {
		return fmt.Errorf("写入文档失败: %w, key: %s", err, key)
	}
	return nil
}

func (r *redisRepository) Get(ctx context.Context, collection, key string) (map[string]interface{}, error) {
	raw, err := r.client.HGetAll(ctx, redisDocKey(collection, key)).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, interfaces.ErrDocumentNotFound
	}
	fields := make(map[string]interface{}, len(raw))
	for field, s := range raw {
		var v interface{}
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("解析字段%s失败: %w", field, err)
		}
		fields[field] = v
	}
	return fields, nil
}

func (r *redisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisRepository) Close() error {
	return r.client.Close()
}

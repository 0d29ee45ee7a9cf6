package cache

import (
	"context"
	"encoding/json"
	"errors"
	"ielts_exam_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
)

// ResultCache 结果读缓存。只有物化覆盖写入(Set)，读路径回填用 Fill，
// 不会用旧行覆盖物化刚写入的新结果
type ResultCache interface {
	Set(ctx context.Context, res *model.Result) error
	Fill(ctx context.Context, res *model.Result) error
	Get(ctx context.Context, ref model.ResultRef) (*model.Result, error)
	Delete(ctx context.Context, ref model.ResultRef) error
}

type resultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultCache(client *redis.Client, ttl time.Duration) ResultCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &resultCache{
		client: client,
		ttl:    ttl,
	}
}

func resultKey(ref model.ResultRef) string {
	return "ielts:result:" + ref.String()
}

func (c *resultCache) Set(ctx context.Context, res *model.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, resultKey(res.Ref()), data, c.ttl).Err()
}

// Fill stores res only when the key is absent.
func (c *resultCache) Fill(ctx context.Context, res *model.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.SetNX(ctx, resultKey(res.Ref()), data, c.ttl).Err()
}

// Get returns nil, nil on a miss.
func (c *resultCache) Get(ctx context.Context, ref model.ResultRef) (*model.Result, error) {
	data, err := c.client.Get(ctx, resultKey(ref)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var res model.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *resultCache) Delete(ctx context.Context, ref model.ResultRef) error {
	return c.client.Del(ctx, resultKey(ref)).Err()
}

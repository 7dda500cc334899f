package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"S2Grid-App/internal/domain/repository"
)

const redisKeyPrefix = "s2grid:coverage:"

// RedisCoverageRepository カバレッジ結果をJSON配列としてRedisに保持する
type RedisCoverageRepository struct {
	rdb *redis.Client
}

func NewRedisCoverageRepository(rdb *redis.Client) *RedisCoverageRepository {
	return &RedisCoverageRepository{rdb: rdb}
}

var _ repository.CoverageCacheRepository = (*RedisCoverageRepository)(nil)

func (r *RedisCoverageRepository) Get(ctx context.Context, key string) ([]string, bool, error) {
	data, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Redisからのカバレッジ取得失敗: %w", err)
	}

	var cells []string
	if err := json.Unmarshal(data, &cells); err != nil {
		return nil, false, fmt.Errorf("カバレッジのJSONアンマーシャル失敗: %w", err)
	}
	return cells, true, nil
}

// Set ttlが0以下なら期限なしで保存する
func (r *RedisCoverageRepository) Set(ctx context.Context, key string, cells []string, ttl time.Duration) error {
	data, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("カバレッジのJSONマーシャル失敗: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("Redisへのカバレッジ保存失敗: %w", err)
	}
	return nil
}

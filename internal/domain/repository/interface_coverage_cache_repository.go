package repository

import (
	"context"
	"time"
)

// CoverageCacheRepository カバレッジ結果（セルID文字列のリスト）のキャッシュ
type CoverageCacheRepository interface {
	// Get キーが存在しなければ (nil, false, nil)
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, cells []string, ttl time.Duration) error
}

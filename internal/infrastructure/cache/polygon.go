package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"S2Grid-App/internal/domain/model"
)

// PolygonCache セルIDから頂点座標への変換結果を保持するプロセス内キャッシュ
// 変換は決定的なので無効化は不要
type PolygonCache struct {
	c *ristretto.Cache[uint64, model.S2Response]
}

// NewPolygonCache maxEntries件まで保持するキャッシュを作成する
// maxEntriesが0以下ならnilを返し、呼び出し側はキャッシュなしで動作する
func NewPolygonCache(maxEntries int64) (*PolygonCache, error) {
	if maxEntries <= 0 {
		return nil, nil
	}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, model.S2Response]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ポリゴンキャッシュの初期化に失敗: %w", err)
	}
	return &PolygonCache{c: c}, nil
}

func (p *PolygonCache) Get(id uint64) (model.S2Response, bool) {
	if p == nil {
		return model.S2Response{}, false
	}
	return p.c.Get(id)
}

func (p *PolygonCache) Set(id uint64, resp model.S2Response) {
	if p == nil {
		return
	}
	p.c.Set(id, resp, 1)
}

// Wait バッファ中の書き込みが反映されるまで待つ
func (p *PolygonCache) Wait() {
	if p != nil {
		p.c.Wait()
	}
}

func (p *PolygonCache) Close() {
	if p != nil {
		p.c.Close()
	}
}

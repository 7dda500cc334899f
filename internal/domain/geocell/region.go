package geocell

import (
	"context"
	"runtime"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"golang.org/x/sync/errgroup"

	"S2Grid-App/internal/domain/model"
)

// MaxRegionCells 境界ボックス・ポリゴンのカバーで返すセル数の上限
const MaxRegionCells = 100000

// RegionRect 度で指定した範囲のs2.Rect（経度は-180〜180に正規化）
func RegionRect(minLat, maxLat, minLon, maxLon float64) s2.Rect {
	lo := s2.LatLngFromDegrees(minLat, minLon)
	hi := s2.LatLngFromDegrees(maxLat, maxLon)
	return s2.Rect{
		Lat: r1.Interval{Lo: lo.Lat.Radians(), Hi: hi.Lat.Radians()},
		Lng: s1.IntervalFromEndpoints(lo.Lng.Radians(), hi.Lng.Radians()),
	}
}

// RegionCells 範囲と交わる同一レベルのセルをID順に先頭MaxRegionCells件まで返す
func RegionCells(ctx context.Context, minLat, maxLat, minLon, maxLon float64, level int) (s2.CellUnion, bool, error) {
	return FixedLevelCells(ctx, RegionRect(minLat, maxLat, minLon, maxLon), level, MaxRegionCells)
}

// GetCells 範囲のカバーを先頭MaxRegionCells件までレスポンス形式にする。超過分は捨てる
func GetCells(ctx context.Context, level int, minLat, minLon, maxLat, maxLon float64) ([]model.S2Response, error) {
	cells, _, err := RegionCells(ctx, minLat, maxLat, minLon, maxLon, level)
	if err != nil {
		return nil, err
	}
	return ToResponses(cells), nil
}

// ToResponses 先頭MaxRegionCells件までをレスポンス形式にする
func ToResponses(cells s2.CellUnion) []model.S2Response {
	n := min(len(cells), MaxRegionCells)
	out := make([]model.S2Response, n)
	for i := 0; i < n; i++ {
		out[i] = ToResponse(cells[i])
	}
	return out
}

func workerCount(workers int) int {
	if workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return workers
}

// GetPolygons 10進文字列のセルIDをまとめてポリゴンに変換する
// 解析できないIDは結果から外してParseErrorとして返す。入力1件につき出力は最大1件
func GetPolygons(ctx context.Context, ids []string, workers int) ([]model.S2Response, []*ParseError, error) {
	if len(ids) == 0 {
		return []model.S2Response{}, nil, nil
	}

	chunks := min(workerCount(workers), len(ids))
	chunkSize := (len(ids) + chunks - 1) / chunks
	results := make([][]model.S2Response, chunks)
	skipped := make([][]*ParseError, chunks)

	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < chunks; c++ {
		c := c
		lo := c * chunkSize
		hi := min(lo+chunkSize, len(ids))
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			out := make([]model.S2Response, 0, hi-lo)
			for _, raw := range ids[lo:hi] {
				if err := gctx.Err(); err != nil {
					return err
				}
				id, err := ParseCellID(raw)
				if err != nil {
					skipped[c] = append(skipped[c], &ParseError{Input: raw, Err: err})
					continue
				}
				out = append(out, ToResponse(id))
			}
			results[c] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var cells []model.S2Response
	var errs []*ParseError
	for c := 0; c < chunks; c++ {
		cells = append(cells, results[c]...)
		errs = append(errs, skipped[c]...)
	}
	if cells == nil {
		cells = []model.S2Response{}
	}
	return cells, errs, nil
}

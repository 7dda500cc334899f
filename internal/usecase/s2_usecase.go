package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/s2"
	"go.uber.org/zap"

	"S2Grid-App/internal/domain/geocell"
	"S2Grid-App/internal/domain/model"
	"S2Grid-App/internal/domain/repository"
	"S2Grid-App/internal/infrastructure/cache"
	"S2Grid-App/internal/metrics"
)

// クエリ種別（メトリクスのラベル）
const (
	QueryCells          = "cells"
	QueryPolygons       = "polygons"
	QueryCircleCoverage = "circle_coverage"
	QueryCellCoverage   = "cell_coverage"
	QueryCellMap        = "cell_map"
)

const (
	cacheLabelPolygon  = "polygon"
	cacheLabelCoverage = "coverage"
)

type S2UseCase interface {
	// GetCells 境界ボックスを同一レベルのセルでカバーする
	GetCells(ctx context.Context, req *model.CellsRequest) ([]model.S2Response, error)

	// GetPolygons セルID文字列をポリゴンに変換する。解析できないIDは数だけ返す
	GetPolygons(ctx context.Context, ids []string) (*model.PolygonsResponse, error)

	// CircleCoverage 円と交差するセルのID一覧
	CircleCoverage(ctx context.Context, req *model.CircleCoverageRequest) (*model.CoverageResponse, error)

	// CellCoverage 点の周囲size×sizeのセルのID一覧
	CellCoverage(ctx context.Context, req *model.CellCoverageRequest) (*model.CoverageResponse, error)

	// CellMap ポイントを祖先セルごとにまとめる
	CellMap(ctx context.Context, req *model.CellMapRequest) (map[uint64][]model.PointArray, error)
}

// S2Options 計算の実行パラメータ
type S2Options struct {
	Workers  int
	MaxCells int
	Timeout  time.Duration
	CacheTTL time.Duration
}

type s2UseCaseImpl struct {
	log      *zap.Logger
	opts     S2Options
	polygons *cache.PolygonCache
	coverage repository.CoverageCacheRepository
}

// NewS2UseCase polygonsとcoverageはnilでもよい（キャッシュなし）
func NewS2UseCase(log *zap.Logger, opts S2Options, polygons *cache.PolygonCache, coverage repository.CoverageCacheRepository) S2UseCase {
	return &s2UseCaseImpl{
		log:      log,
		opts:     opts,
		polygons: polygons,
		coverage: coverage,
	}
}

// observe クエリ1回分のメトリクスを記録する
func observe(query string, start time.Time, cells int, err error) {
	metrics.QueriesTotal.WithLabelValues(query).Inc()
	metrics.QueryDurationSeconds.WithLabelValues(query).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueryFailuresTotal.WithLabelValues(query, FailureReason(err)).Inc()
		return
	}
	metrics.ResultCells.WithLabelValues(query).Observe(float64(cells))
}

// FailureReason エラーをメトリクス・ログ用の理由に分類する
func FailureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, geocell.ErrCellBudgetExceeded):
		return "budget"
	case errors.Is(err, geocell.ErrInvariantViolation):
		return "invariant"
	default:
		return "error"
	}
}

func (u *s2UseCaseImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.opts.Timeout > 0 {
		return context.WithTimeout(ctx, u.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// response ポリゴンキャッシュを経由してセルをレスポンス形式にする
func (u *s2UseCaseImpl) response(id s2.CellID) model.S2Response {
	if r, ok := u.polygons.Get(uint64(id)); ok {
		metrics.CacheHitsTotal.WithLabelValues(cacheLabelPolygon).Inc()
		return r
	}
	r := geocell.ToResponse(id)
	if u.polygons != nil {
		metrics.CacheMissesTotal.WithLabelValues(cacheLabelPolygon).Inc()
		u.polygons.Set(uint64(id), r)
	}
	return r
}

func (u *s2UseCaseImpl) GetCells(ctx context.Context, req *model.CellsRequest) (out []model.S2Response, err error) {
	start := time.Now()
	defer func() { observe(QueryCells, start, len(out), err) }()

	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	cells, truncated, err := geocell.RegionCells(ctx, req.MinLat, req.MaxLat, req.MinLon, req.MaxLon, req.Level)
	if err != nil {
		u.log.Error("❌ region covering failed",
			zap.Int("level", req.Level), zap.String("reason", FailureReason(err)), zap.Error(err))
		return nil, err
	}
	if truncated {
		u.log.Warn("⚠️ covering truncated", zap.Int("limit", geocell.MaxRegionCells), zap.Int("level", req.Level))
	}

	out = make([]model.S2Response, len(cells))
	for i, id := range cells {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		out[i] = u.response(id)
	}
	return out, nil
}

// GetPolygons キャッシュにあるセルはそのまま使い、残りだけを並列に変換する
func (u *s2UseCaseImpl) GetPolygons(ctx context.Context, ids []string) (resp *model.PolygonsResponse, err error) {
	start := time.Now()
	defer func() {
		n := 0
		if resp != nil {
			n = len(resp.Cells)
		}
		observe(QueryPolygons, start, n, err)
	}()

	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	slots := make([]*model.S2Response, len(ids))
	var skipped []*geocell.ParseError
	var missIdx []int
	var missRaw []string
	for i, raw := range ids {
		id, perr := geocell.ParseCellID(raw)
		if perr != nil {
			skipped = append(skipped, &geocell.ParseError{Input: raw, Err: perr})
			continue
		}
		if r, ok := u.polygons.Get(uint64(id)); ok {
			metrics.CacheHitsTotal.WithLabelValues(cacheLabelPolygon).Inc()
			slots[i] = &r
			continue
		}
		missIdx = append(missIdx, i)
		missRaw = append(missRaw, raw)
	}

	computed, more, err := geocell.GetPolygons(ctx, missRaw, u.opts.Workers)
	if err != nil {
		u.log.Error("❌ polygon lookup failed", zap.Int("ids", len(ids)), zap.Error(err))
		return nil, err
	}
	skipped = append(skipped, more...)
	// missRawは解析済みの有効なIDだけなので入力と出力は1対1
	for j, r := range computed {
		r := r
		slots[missIdx[j]] = &r
		if u.polygons != nil {
			metrics.CacheMissesTotal.WithLabelValues(cacheLabelPolygon).Inc()
			id, _ := strconv.ParseUint(r.ID, 10, 64)
			u.polygons.Set(id, r)
		}
	}

	cells := make([]model.S2Response, 0, len(ids)-len(skipped))
	for _, s := range slots {
		if s != nil {
			cells = append(cells, *s)
		}
	}

	if len(skipped) > 0 {
		metrics.SkippedIDsTotal.Add(float64(len(skipped)))
		for _, pe := range skipped {
			u.log.Debug("skipped cell id", zap.String("input", pe.Input), zap.Error(pe.Err))
		}
		u.log.Warn("⚠️ skipped unparsable cell ids", zap.Int("skipped", len(skipped)), zap.Int("total", len(ids)))
	}

	return &model.PolygonsResponse{Cells: cells, Skipped: len(skipped)}, nil
}

// CoverageKey カバレッジキャッシュのキー
func CoverageKey(kind string, lat, lon, extent float64, level int) string {
	return strings.Join([]string{
		kind,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
		strconv.FormatFloat(extent, 'f', -1, 64),
		strconv.Itoa(level),
	}, ":")
}

// cachedCoverage キャッシュにあれば返し、なければcomputeの結果を保存する
// キャッシュの失敗はログに残すだけで計算結果には影響させない
func (u *s2UseCaseImpl) cachedCoverage(ctx context.Context, key string, compute func(context.Context) (*geocell.CoveredSet, error)) (*model.CoverageResponse, error) {
	if u.coverage != nil {
		cells, ok, err := u.coverage.Get(ctx, key)
		switch {
		case err != nil:
			u.log.Warn("⚠️ coverage cache read failed", zap.String("key", key), zap.Error(err))
		case ok:
			metrics.CacheHitsTotal.WithLabelValues(cacheLabelCoverage).Inc()
			return &model.CoverageResponse{Cells: cells, Count: len(cells), Cached: true}, nil
		default:
			metrics.CacheMissesTotal.WithLabelValues(cacheLabelCoverage).Inc()
		}
	}

	set, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	cells := set.Strings()

	if u.coverage != nil {
		if err := u.coverage.Set(ctx, key, cells, u.opts.CacheTTL); err != nil {
			u.log.Warn("⚠️ coverage cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return &model.CoverageResponse{Cells: cells, Count: len(cells)}, nil
}

func (u *s2UseCaseImpl) CircleCoverage(ctx context.Context, req *model.CircleCoverageRequest) (resp *model.CoverageResponse, err error) {
	start := time.Now()
	defer func() {
		n := 0
		if resp != nil {
			n = resp.Count
		}
		observe(QueryCircleCoverage, start, n, err)
	}()

	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	key := CoverageKey("circle", req.Lat, req.Lon, req.Radius, req.Level)
	resp, err = u.cachedCoverage(ctx, key, func(ctx context.Context) (*geocell.CoveredSet, error) {
		return geocell.CircleCoverage(ctx, req.Lat, req.Lon, req.Radius, req.Level, geocell.CircleOptions{
			Workers:  u.opts.Workers,
			MaxCells: u.opts.MaxCells,
		})
	})
	if err != nil {
		u.log.Error("❌ circle coverage failed",
			zap.Float64("lat", req.Lat), zap.Float64("lon", req.Lon),
			zap.Float64("radius", req.Radius), zap.Int("level", req.Level),
			zap.String("reason", FailureReason(err)), zap.Error(err))
		return nil, err
	}
	u.log.Debug("circle coverage",
		zap.Int("cells", resp.Count), zap.Bool("cached", resp.Cached), zap.Duration("took", time.Since(start)))
	return resp, nil
}

func (u *s2UseCaseImpl) CellCoverage(ctx context.Context, req *model.CellCoverageRequest) (resp *model.CoverageResponse, err error) {
	start := time.Now()
	defer func() {
		n := 0
		if resp != nil {
			n = resp.Count
		}
		observe(QueryCellCoverage, start, n, err)
	}()

	key := CoverageKey("grid", req.Lat, req.Lon, float64(req.Size), req.Level)
	resp, err = u.cachedCoverage(ctx, key, func(context.Context) (*geocell.CoveredSet, error) {
		return geocell.CellCoverage(req.Lat, req.Lon, req.Size, req.Level)
	})
	if err != nil {
		u.log.Error("❌ cell coverage failed",
			zap.Float64("lat", req.Lat), zap.Float64("lon", req.Lon),
			zap.Int("size", req.Size), zap.Int("level", req.Level),
			zap.String("reason", FailureReason(err)), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

func (u *s2UseCaseImpl) CellMap(ctx context.Context, req *model.CellMapRequest) (out map[uint64][]model.PointArray, err error) {
	start := time.Now()
	defer func() { observe(QueryCellMap, start, len(out), err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return geocell.CreateCellMap(req.Points, req.SplitLevel), nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"S2Grid-App/internal/domain/geocell"
	"S2Grid-App/internal/domain/model"
	"S2Grid-App/internal/domain/repository"
	repoImpl "S2Grid-App/internal/repository"
)

const QueryGeofenceCover = "geofence_cover"

// ErrInvalidGeofence 登録しようとしたFeatureが不正
var ErrInvalidGeofence = errors.New("invalid geofence")

type GeofenceUseCase interface {
	// Save FeatureCollectionの各Featureを名前をキーに登録・更新する
	Save(ctx context.Context, fc *geojson.FeatureCollection) (*model.UpsertResult, error)

	// All 全ジオフェンスをFeatureCollectionで返す
	All(ctx context.Context) (*geojson.FeatureCollection, error)

	// Get IDまたは名前でジオフェンスを取得する
	Get(ctx context.Context, idOrName string) (*geojson.Feature, error)

	Reference(ctx context.Context) ([]model.GeofenceReference, error)
	Delete(ctx context.Context, id string) error

	// Cover ジオフェンスを同一レベルのS2セルでカバーする
	Cover(ctx context.Context, idOrName string, level int) (*model.GeofenceCoverageResponse, error)
}

type geofenceUseCaseImpl struct {
	log     *zap.Logger
	repo    repository.GeofenceRepository
	timeout time.Duration
}

// NewGeofenceUseCase timeoutはCoverの計算時間の上限（0なら無制限）
func NewGeofenceUseCase(log *zap.Logger, repo repository.GeofenceRepository, timeout time.Duration) GeofenceUseCase {
	return &geofenceUseCaseImpl{
		log:     log,
		repo:    repo,
		timeout: timeout,
	}
}

func (u *geofenceUseCaseImpl) Save(ctx context.Context, fc *geojson.FeatureCollection) (*model.UpsertResult, error) {
	if fc == nil || len(fc.Features) == 0 {
		return nil, fmt.Errorf("%w: featureがありません", ErrInvalidGeofence)
	}

	// 1件でも不正なら何も保存しない
	fences := make([]*model.Geofence, 0, len(fc.Features))
	for i, f := range fc.Features {
		g, err := repoImpl.FeatureToGeofence(f)
		if err != nil {
			return nil, fmt.Errorf("%w: features[%d]: %w", ErrInvalidGeofence, i, err)
		}
		fences = append(fences, g)
	}

	result, err := u.repo.UpsertAll(ctx, fences)
	if err != nil {
		u.log.Error("❌ geofence save failed", zap.Int("features", len(fences)), zap.Error(err))
		return nil, err
	}
	u.log.Info("✅ geofences saved", zap.Int("inserts", result.Inserts), zap.Int("updates", result.Updates))
	return result, nil
}

func (u *geofenceUseCaseImpl) All(ctx context.Context) (*geojson.FeatureCollection, error) {
	fences, err := u.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return repoImpl.GeofencesToCollection(fences), nil
}

func (u *geofenceUseCaseImpl) find(ctx context.Context, idOrName string) (*model.Geofence, error) {
	g, err := u.repo.GetByID(ctx, idOrName)
	if errors.Is(err, repository.ErrGeofenceNotFound) {
		return u.repo.GetByName(ctx, idOrName)
	}
	return g, err
}

func (u *geofenceUseCaseImpl) Get(ctx context.Context, idOrName string) (*geojson.Feature, error) {
	g, err := u.find(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	return repoImpl.GeofenceToFeature(g), nil
}

func (u *geofenceUseCaseImpl) Reference(ctx context.Context) ([]model.GeofenceReference, error) {
	return u.repo.Reference(ctx)
}

func (u *geofenceUseCaseImpl) Delete(ctx context.Context, id string) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return err
	}
	u.log.Info("🗑️ geofence deleted", zap.String("id", id))
	return nil
}

// Cover 各ポリゴンの外周をカバーして合わせる（穴は考慮しない）
func (u *geofenceUseCaseImpl) Cover(ctx context.Context, idOrName string, level int) (resp *model.GeofenceCoverageResponse, err error) {
	start := time.Now()
	defer func() {
		n := 0
		if resp != nil {
			n = resp.Count
		}
		observe(QueryGeofenceCover, start, n, err)
	}()

	g, err := u.find(ctx, idOrName)
	if err != nil {
		return nil, err
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	var cells []s2.CellID
	truncated := false
	for _, poly := range g.Polygons() {
		loop, err := geocell.LoopFromRing(poly[0])
		if err != nil {
			return nil, fmt.Errorf("ジオフェンス %s: %w", g.Name, err)
		}
		part, cut, err := geocell.LoopCells(ctx, loop, level)
		if err != nil {
			u.log.Error("❌ geofence covering failed",
				zap.String("geofence", g.Name), zap.Int("level", level),
				zap.String("reason", FailureReason(err)), zap.Error(err))
			return nil, err
		}
		cells = append(cells, part...)
		truncated = truncated || cut
	}
	// 同一レベルなのでNormalizeで親にまとめず、重複だけ除く
	slices.Sort(cells)
	cells = slices.Compact(cells)
	if truncated || len(cells) > geocell.MaxRegionCells {
		u.log.Warn("⚠️ geofence covering truncated",
			zap.String("geofence", g.Name), zap.Int("limit", geocell.MaxRegionCells), zap.Int("level", level))
	}

	out := geocell.ToResponses(cells)
	return &model.GeofenceCoverageResponse{
		ID:    g.ID,
		Name:  g.Name,
		Level: level,
		Count: len(out),
		Cells: out,
	}, nil
}

package geocell

import (
	"context"
	"sync"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"S2Grid-App/internal/domain/model"
)

const (
	// circleVertices 円を近似する多角形の頂点数
	circleVertices = 60
	bearingStep    = 360.0 / circleVertices
)

// CircleOptions 円カバレッジの実行パラメータ
type CircleOptions struct {
	Workers  int // 同時に展開するフロンティアセル数。0以下ならGOMAXPROCS
	MaxCells int // 結果セル数の上限。0以下なら無制限
}

// CircleLoop 中心から半径radius（メートル）の円を60角形で近似したループ
// 方位は6度刻み。S2のループは内側を左に見る向き（反時計回り）なので方位を逆順に並べる
func CircleLoop(lat, lon, radius float64) *s2.Loop {
	center := orb.Point{lon, lat}
	points := make([]s2.Point, 0, circleVertices)
	for i := 0; i < circleVertices; i++ {
		bearing := 360 - float64(i)*bearingStep
		p := geo.PointAtBearingAndDistance(center, bearing, radius)
		points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon())))
	}
	return s2.LoopFromPoints(points)
}

// CircleCoverage 中心を含むセルから隣接セルへ塗りつぶしを広げ、
// 近似円と交差するlevelのセル集合を返す
//
// 各セルはseen集合で先に確保してから交差判定するので判定は1セル1回だけ。
// フロンティアは上限付きのワーカーで展開し、空になった時点で終了する。
// ctxのキャンセル・期限切れや上限超過では途中結果を捨ててエラーを返す。
func CircleCoverage(ctx context.Context, lat, lon, radius float64, level int, opts CircleOptions) (*CoveredSet, error) {
	seed := CellFromPoint(model.PointArray{lat, lon}, level)
	covered := NewCoveredSet()
	covered.Add(seed)
	if radius <= 0 {
		return covered, nil
	}

	f := &floodFill{
		circle:   CircleLoop(lat, lon, radius),
		covered:  covered,
		seen:     NewCoveredSet(),
		maxCells: opts.MaxCells,
	}
	f.seen.Add(seed)
	// 並行に参照する前にループのインデックスを構築しておく
	f.circle.IntersectsCell(s2.CellFromCellID(seed))

	workers := workerCount(opts.Workers)
	frontier := []s2.CellID{seed}
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := f.expand(ctx, frontier, workers)
		if err != nil {
			return nil, err
		}
		frontier = next
	}
	return covered, nil
}

type floodFill struct {
	circle   *s2.Loop
	covered  *CoveredSet
	seen     *CoveredSet
	maxCells int
}

// expand フロンティアの各セルを並行に展開し、次のフロンティアを返す
func (f *floodFill) expand(ctx context.Context, frontier []s2.CellID, workers int) ([]s2.CellID, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	var next []s2.CellID
	for _, cell := range frontier {
		cell := cell
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found, err := f.neighbors(cell)
			if err != nil {
				return err
			}
			if len(found) > 0 {
				mu.Lock()
				next = append(next, found...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

// neighbors 未確認の隣接セルのうち円と交差するものを登録して返す
func (f *floodFill) neighbors(cell s2.CellID) ([]s2.CellID, error) {
	var found []s2.CellID
	for _, n := range cell.EdgeNeighbors() {
		if !f.seen.Add(n) {
			continue
		}
		if !IntersectsCircle(f.circle, n) {
			continue
		}
		added, size := f.covered.add(n)
		if !added {
			continue
		}
		if f.maxCells > 0 && size > f.maxCells {
			return nil, errors.Wrapf(ErrCellBudgetExceeded, "more than %d cells", f.maxCells)
		}
		found = append(found, n)
	}
	return found, nil
}

// IntersectsCircle セルの境界ループが近似円と交差するか（包含も交差に含む）
func IntersectsCircle(circle *s2.Loop, id s2.CellID) bool {
	return circle.Intersects(CellLoop(id))
}

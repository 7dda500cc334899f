package geocell

import (
	"context"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// LoopFromRing GeoJSONの外周リング（[経度, 緯度]）からs2.Loopを作る
//
// GeoJSONでは向きの制約がないので、平面上の向きで反時計回りに揃えてから、
// 半球より大きくなった場合（極や日付変更線をまたぐ場合）は逆向きに作り直す。
func LoopFromRing(ring orb.Ring) (*s2.Loop, error) {
	n := len(ring)
	if n > 1 && ring.Closed() {
		n--
	}
	if n < 3 {
		return nil, errors.Errorf("ring needs at least 3 distinct points, got %d", n)
	}
	points := ring[:n]
	reverse := points.Orientation() == orb.CW
	l := loopFromPoints(points, reverse)
	if l.CapBound().Radius().Degrees() > 90 {
		l = loopFromPoints(points, !reverse)
	}
	return l, nil
}

func loopFromPoints(ring orb.Ring, reverse bool) *s2.Loop {
	n := len(ring)
	pts := make([]s2.Point, n)
	for i := 0; i < n; i++ {
		p := ring[i]
		if reverse {
			p = ring[n-1-i]
		}
		pts[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon()))
	}
	return s2.LoopFromPoints(pts)
}

// LoopCells ループと交わる同一レベルのセルをID順に先頭MaxRegionCells件まで返す
func LoopCells(ctx context.Context, l *s2.Loop, level int) (s2.CellUnion, bool, error) {
	return FixedLevelCells(ctx, l, level, MaxRegionCells)
}

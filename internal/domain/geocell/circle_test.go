package geocell

import (
	"context"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"S2Grid-App/internal/domain/model"
)

func TestCircleLoopShape(t *testing.T) {
	const radius = 1500.0
	center := orb.Point{139.767125, 35.681236}
	loop := CircleLoop(center.Lat(), center.Lon(), radius)

	require.Equal(t, 60, loop.NumVertices())
	assert.True(t, loop.ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(center.Lat(), center.Lon()))))
	assert.Less(t, loop.Area(), 1e-5)

	for i := 0; i < loop.NumVertices(); i++ {
		ll := s2.LatLngFromPoint(loop.Vertex(i))
		d := geo.Distance(center, orb.Point{ll.Lng.Degrees(), ll.Lat.Degrees()})
		assert.InDelta(t, radius, d, 1.0)
	}
}

func TestCircleCoverageSeed(t *testing.T) {
	covered, err := CircleCoverage(context.Background(), 45.0, -93.0, 500.0, 20, CircleOptions{})
	require.NoError(t, err)

	seed := CellFromPoint(model.PointArray{45.0, -93.0}, 20)
	assert.Greater(t, covered.Len(), 1)
	assert.True(t, covered.Contains(seed))
}

func TestCircleCoverageCellsIntersectCircle(t *testing.T) {
	lat, lon, radius, level := 35.681236, 139.767125, 2000.0, 15
	covered, err := CircleCoverage(context.Background(), lat, lon, radius, level, CircleOptions{Workers: 4})
	require.NoError(t, err)

	seed := CellFromPoint(model.PointArray{lat, lon}, level)
	circle := CircleLoop(lat, lon, radius)
	for _, id := range covered.CellIDs() {
		assert.Equal(t, level, id.Level())
		if id != seed {
			assert.True(t, IntersectsCircle(circle, id), "cell %s", FormatCellID(id))
		}
	}

	center := orb.Point{lon, lat}
	for _, bearing := range []float64{0, 90, 180, 270} {
		p := geo.PointAtBearingAndDistance(center, bearing, radius/2)
		assert.True(t, covered.Contains(CellFromPoint(model.PointArray{p.Lat(), p.Lon()}, level)), "bearing %v", bearing)
	}
}

func TestCircleCoverageMonotonic(t *testing.T) {
	lat, lon, level := 40.7128, -74.0060, 15

	var prev *CoveredSet
	for _, radius := range []float64{300, 1200, 2500} {
		covered, err := CircleCoverage(context.Background(), lat, lon, radius, level, CircleOptions{})
		require.NoError(t, err)
		if prev != nil {
			assert.GreaterOrEqual(t, covered.Len(), prev.Len())
			for _, id := range prev.CellIDs() {
				assert.True(t, covered.Contains(id), "radius %v lost %s", radius, FormatCellID(id))
			}
		}
		prev = covered
	}
}

func TestCircleCoverageIndependentOfWorkers(t *testing.T) {
	single, err := CircleCoverage(context.Background(), -33.8688, 151.2093, 1800, 15, CircleOptions{Workers: 1})
	require.NoError(t, err)
	parallel, err := CircleCoverage(context.Background(), -33.8688, 151.2093, 1800, 15, CircleOptions{Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, single.CellIDs(), parallel.CellIDs())
}

func TestCircleCoverageZeroRadius(t *testing.T) {
	covered, err := CircleCoverage(context.Background(), 10, 10, 0, 12, CircleOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, covered.Len())
}

func TestCircleCoverageCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	covered, err := CircleCoverage(ctx, 10, 10, 1000, 14, CircleOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, covered)
}

func TestCircleCoverageBudget(t *testing.T) {
	covered, err := CircleCoverage(context.Background(), 10, 10, 5000, 16, CircleOptions{MaxCells: 10})
	assert.ErrorIs(t, err, ErrCellBudgetExceeded)
	assert.Nil(t, covered)
}

package geocell

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedLevelCellsMatchesRegionCoverer(t *testing.T) {
	london, err := LoopFromRing(square(51.5074, -0.1278, 0.05, false))
	require.NoError(t, err)

	regions := map[string]s2.Region{
		"tokyo rect":   RegionRect(35.60, 35.70, 139.60, 139.80),
		"equator rect": RegionRect(-0.5, 0.5, -0.5, 0.5),
		"london loop":  london,
	}
	for name, region := range regions {
		region := region
		t.Run(name, func(t *testing.T) {
			coverer := &s2.RegionCoverer{MinLevel: 12, MaxLevel: 12, LevelMod: 1, MaxCells: MaxRegionCells}
			want := coverer.Covering(region)

			got, truncated, err := FixedLevelCells(context.Background(), region, 12, MaxRegionCells)
			require.NoError(t, err)
			assert.False(t, truncated)
			assert.Equal(t, want, got)
		})
	}
}

func TestFixedLevelCellsLimit(t *testing.T) {
	world := RegionRect(-90, 90, -180, 180)

	cells, truncated, err := FixedLevelCells(context.Background(), world, 0, 6)
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Len(t, cells, 6)

	cells, truncated, err = FixedLevelCells(context.Background(), world, 0, 5)
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Len(t, cells, 5)
}

func TestFixedLevelCellsWorldStopsAtLimit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 面0を丸ごとは含まないので境界の枝も辿る
	region := RegionRect(-10, 10, -30, 30)
	for _, level := range []int{12, 20, 30} {
		cells, truncated, err := FixedLevelCells(ctx, region, level, MaxRegionCells)
		require.NoError(t, err)
		assert.True(t, truncated)
		require.Len(t, cells, MaxRegionCells)
		assert.True(t, slices.IsSorted(cells))
		assert.Equal(t, level, cells[0].Level())
		assert.Equal(t, level, cells[len(cells)-1].Level())
	}
}

func TestFixedLevelCellsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := FixedLevelCells(ctx, RegionRect(-90, 90, -180, 180), 20, MaxRegionCells)
	assert.ErrorIs(t, err, context.Canceled)
}

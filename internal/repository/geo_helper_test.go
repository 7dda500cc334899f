package repository

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"S2Grid-App/internal/domain/model"
)

var square = orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}

func TestFeatureToGeofence(t *testing.T) {
	f := geojson.NewFeature(square)
	f.Properties["name"] = " downtown "

	g, err := FeatureToGeofence(f)
	require.NoError(t, err)
	assert.Equal(t, "downtown", g.Name)
	assert.Equal(t, DefaultGeofenceMode, g.Mode)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, square, g.Geometry)
}

func TestFeatureToGeofenceKeepsID(t *testing.T) {
	f := geojson.NewFeature(square)
	f.Properties["name"] = "a"
	f.Properties["mode"] = "circle_pokemon"
	f.ID = "fence-1"

	g, err := FeatureToGeofence(f)
	require.NoError(t, err)
	assert.Equal(t, "fence-1", g.ID)
	assert.Equal(t, "circle_pokemon", g.Mode)
}

func TestFeatureToGeofenceRejects(t *testing.T) {
	noName := geojson.NewFeature(square)
	_, err := FeatureToGeofence(noName)
	assert.Error(t, err)

	point := geojson.NewFeature(orb.Point{1, 2})
	point.Properties["name"] = "p"
	_, err = FeatureToGeofence(point)
	assert.Error(t, err)

	open := geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 0}, {0, 0}}})
	open.Properties["name"] = "tiny"
	_, err = FeatureToGeofence(open)
	assert.Error(t, err)

	_, err = FeatureToGeofence(nil)
	assert.Error(t, err)
}

func TestRowRoundTrip(t *testing.T) {
	g := &model.Geofence{ID: "x", Name: "n", Mode: "m", Geometry: orb.MultiPolygon{square}}

	row, err := ToRow(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,1],[0,0]]]]}`, string(row.Geometry))

	back, err := row.ToGeofence()
	require.NoError(t, err)
	assert.Equal(t, g.Geometry, back.Geometry)
	assert.Equal(t, "n", back.Name)
}

func TestGeofencesToCollection(t *testing.T) {
	fc := GeofencesToCollection([]model.Geofence{
		{ID: "1", Name: "a", Mode: "m", Geometry: square},
		{ID: "2", Name: "b", Mode: "m", Geometry: square},
	})
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "b", fc.Features[1].Properties["name"])
	assert.Equal(t, "2", fc.Features[1].ID)
}

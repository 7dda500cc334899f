package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"S2Grid-App/internal/domain/model"
	"S2Grid-App/internal/domain/repository"
	"S2Grid-App/internal/usecase"
)

// fakeGeofenceUseCase 1件だけ持つテスト用の実装
type fakeGeofenceUseCase struct {
	saved     *geojson.FeatureCollection
	lastLevel int
	deleted   string
}

var fakeFence = model.Geofence{
	ID: "f1", Name: "tokyo", Mode: "unset",
	Geometry: orb.Polygon{{{139.7, 35.6}, {139.8, 35.6}, {139.8, 35.7}, {139.7, 35.7}, {139.7, 35.6}}},
}

func notFound(id string) error {
	return fmt.Errorf("%s: %w", id, repository.ErrGeofenceNotFound)
}

func (f *fakeGeofenceUseCase) Save(_ context.Context, fc *geojson.FeatureCollection) (*model.UpsertResult, error) {
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("%w: empty", usecase.ErrInvalidGeofence)
	}
	f.saved = fc
	return &model.UpsertResult{Inserts: len(fc.Features)}, nil
}

func (f *fakeGeofenceUseCase) All(context.Context) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(fakeFence.Geometry))
	return fc, nil
}

func (f *fakeGeofenceUseCase) Get(_ context.Context, id string) (*geojson.Feature, error) {
	if id != fakeFence.ID && id != fakeFence.Name {
		return nil, notFound(id)
	}
	feat := geojson.NewFeature(fakeFence.Geometry)
	feat.Properties["name"] = fakeFence.Name
	return feat, nil
}

func (f *fakeGeofenceUseCase) Reference(context.Context) ([]model.GeofenceReference, error) {
	return []model.GeofenceReference{{ID: fakeFence.ID, Name: fakeFence.Name, Mode: fakeFence.Mode}}, nil
}

func (f *fakeGeofenceUseCase) Delete(_ context.Context, id string) error {
	if id != fakeFence.ID {
		return notFound(id)
	}
	f.deleted = id
	return nil
}

func (f *fakeGeofenceUseCase) Cover(_ context.Context, id string, level int) (*model.GeofenceCoverageResponse, error) {
	if id != fakeFence.ID {
		return nil, notFound(id)
	}
	f.lastLevel = level
	return &model.GeofenceCoverageResponse{ID: id, Name: fakeFence.Name, Level: level, Cells: []model.S2Response{}}, nil
}

func TestGeofenceSave(t *testing.T) {
	fake := &fakeGeofenceUseCase{}
	r := setupRouter(t, fake)

	body := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"a"},
		"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}]}`
	w := doJSON(t, r, http.MethodPost, "/api/v1/geofence/save", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"inserts":1,"updates":0}`, w.Body.String())
	require.NotNil(t, fake.saved)
	assert.Equal(t, "a", fake.saved.Features[0].Properties["name"])

	w = doJSON(t, r, http.MethodPost, "/api/v1/geofence/save", `{"type":"FeatureCollection","features":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", errorCode(t, w))

	w = doJSON(t, r, http.MethodPost, "/api/v1/geofence/save", `[1,2`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeofenceRead(t *testing.T) {
	r := setupRouter(t, &fakeGeofenceUseCase{})

	w := doJSON(t, r, http.MethodGet, "/api/v1/geofence/all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)

	w = doJSON(t, r, http.MethodGet, "/api/v1/geofence/reference", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"f1","name":"tokyo","mode":"unset"}]`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/v1/geofence/area/tokyo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	f, err := geojson.UnmarshalFeature(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "tokyo", f.Properties["name"])

	w = doJSON(t, r, http.MethodGet, "/api/v1/geofence/area/osaka", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorCode(t, w))
}

func TestGeofenceS2(t *testing.T) {
	fake := &fakeGeofenceUseCase{}
	r := setupRouter(t, fake)

	w := doJSON(t, r, http.MethodGet, "/api/v1/geofence/f1/s2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, DefaultGeofenceLevel, fake.lastLevel)

	w = doJSON(t, r, http.MethodGet, "/api/v1/geofence/f1/s2?level=11", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 11, fake.lastLevel)

	for _, q := range []string{"x", "31", "-1"} {
		w = doJSON(t, r, http.MethodGet, "/api/v1/geofence/f1/s2?level="+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/geofence/nope/s2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGeofenceDelete(t *testing.T) {
	fake := &fakeGeofenceUseCase{}
	r := setupRouter(t, fake)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/geofence/f1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "f1", fake.deleted)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/geofence/f2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

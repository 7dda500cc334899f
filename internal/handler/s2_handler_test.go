package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"S2Grid-App/internal/domain/geocell"
	"S2Grid-App/internal/domain/model"
	"S2Grid-App/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, geofence usecase.GeofenceUseCase) *gin.Engine {
	t.Helper()
	deps := RouterDeps{
		Log: zap.NewNop(),
		S2:  NewS2Handler(usecase.NewS2UseCase(zap.NewNop(), usecase.S2Options{Workers: 2, MaxCells: 100000}, nil, nil)),
	}
	if geofence != nil {
		deps.Geofence = NewGeofenceHandler(geofence)
	}
	return NewRouter(deps)
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	code, _ := body["error"].(string)
	return code
}

func TestPostCells(t *testing.T) {
	r := setupRouter(t, nil)
	w := doJSON(t, r, http.MethodPost, "/api/v1/s2/cells", model.CellsRequest{
		Level: 8, MinLat: 35, MinLon: 139, MaxLat: 36, MaxLon: 140,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var cells []model.S2Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cells))
	want, err := geocell.GetCells(context.Background(), 8, 35, 139, 36, 140)
	require.NoError(t, err)
	assert.Equal(t, want, cells)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestPostCellsValidation(t *testing.T) {
	r := setupRouter(t, nil)
	cases := []struct {
		name  string
		req   model.CellsRequest
		field string
	}{
		{"level", model.CellsRequest{Level: 31, MaxLat: 1, MaxLon: 1}, "level"},
		{"lat", model.CellsRequest{Level: 5, MinLat: -91, MaxLat: 1, MaxLon: 1}, "min_lat"},
		{"lon", model.CellsRequest{Level: 5, MaxLat: 1, MaxLon: 181}, "max_lon"},
		{"inverted", model.CellsRequest{Level: 5, MinLat: 2, MaxLat: 1, MaxLon: 1}, "min_lat"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/s2/cells", tc.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "validation_error", body["error"])
			assert.Equal(t, tc.field, body["field"])
		})
	}
}

func TestPostCellsBadJSON(t *testing.T) {
	r := setupRouter(t, nil)
	w := doJSON(t, r, http.MethodPost, "/api/v1/s2/cells", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errorCode(t, w))
}

func TestPostPolygons(t *testing.T) {
	r := setupRouter(t, nil)
	id := geocell.CellFromPoint(model.PointArray{48.85, 2.35}, 13)
	w := doJSON(t, r, http.MethodPost, "/api/v1/s2/polygons", []string{geocell.FormatCellID(id), "abc"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.PolygonsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Skipped)
	require.Len(t, resp.Cells, 1)
	assert.Equal(t, geocell.ToResponse(id), resp.Cells[0])
}

func TestPostCircleCoverage(t *testing.T) {
	r := setupRouter(t, nil)
	w := doJSON(t, r, http.MethodPost, "/api/v1/s2/circle-coverage", model.CircleCoverageRequest{
		Lat: 40.7128, Lon: -74.006, Radius: 300, Level: 16,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.CoverageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, len(resp.Cells), resp.Count)
	seed := geocell.FormatCellID(geocell.CellFromPoint(model.PointArray{40.7128, -74.006}, 16))
	assert.Contains(t, resp.Cells, seed)
}

func TestPostCircleCoverageRejectsRadius(t *testing.T) {
	r := setupRouter(t, nil)
	w := doJSON(t, r, http.MethodPost, "/api/v1/s2/circle-coverage", model.CircleCoverageRequest{Lat: 1, Lon: 1, Radius: 0, Level: 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostCircleCoverageBudget(t *testing.T) {
	deps := RouterDeps{
		Log: zap.NewNop(),
		S2:  NewS2Handler(usecase.NewS2UseCase(zap.NewNop(), usecase.S2Options{MaxCells: 5}, nil, nil)),
	}
	r := NewRouter(deps)
	w := doJSON(t, r, http.MethodPost, "/api/v1/s2/circle-coverage", model.CircleCoverageRequest{Lat: 0, Lon: 0, Radius: 1000, Level: 20})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "too_many_cells", errorCode(t, w))
}

func TestPostCellCoverage(t *testing.T) {
	r := setupRouter(t, nil)
	w := doJSON(t, r, http.MethodPost, "/api/v1/s2/cell-coverage", model.CellCoverageRequest{Lat: 10, Lon: 20, Size: 5, Level: 14})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.CoverageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 25, resp.Count)

	for _, size := range []int{0, 256} {
		w := doJSON(t, r, http.MethodPost, "/api/v1/s2/cell-coverage", model.CellCoverageRequest{Lat: 10, Lon: 20, Size: size, Level: 14})
		assert.Equal(t, http.StatusBadRequest, w.Code, "size %d", size)
	}
}

func TestPostCellMap(t *testing.T) {
	r := setupRouter(t, nil)
	w := doJSON(t, r, http.MethodPost, "/api/v1/s2/cell-map", map[string]any{
		"points":      [][2]float64{{40.7128, -74.006}, {-33.86, 151.2}},
		"split_level": 6,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var buckets map[string][][2]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &buckets))
	assert.Len(t, buckets, 2)

	key := geocell.FormatCellID(geocell.ParentOf(model.PointArray{40.7128, -74.006}, 6))
	assert.Equal(t, [][2]float64{{40.7128, -74.006}}, buckets[key])
}

func TestHealthAndMetrics(t *testing.T) {
	r := setupRouter(t, nil)
	w := doJSON(t, r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	doJSON(t, r, http.MethodPost, "/api/v1/s2/cell-coverage", model.CellCoverageRequest{Lat: 1, Lon: 1, Size: 1, Level: 3})
	w = doJSON(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "s2grid_queries_total")
}

func TestGeofenceRoutesDisabled(t *testing.T) {
	r := setupRouter(t, nil)
	w := doJSON(t, r, http.MethodGet, "/api/v1/geofence/all", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

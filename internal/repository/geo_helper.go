package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"S2Grid-App/internal/domain/model"
)

// ジオフェンスのプロパティキー
const (
	PropertyID   = "id"
	PropertyName = "name"
	PropertyMode = "mode"
)

// DefaultGeofenceMode modeプロパティが省略されたときの値
const DefaultGeofenceMode = "unset"

// GeofenceRow geofencesテーブルの1行 (geometryはGeoJSONのjsonb)
type GeofenceRow struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Mode      string          `json:"mode"`
	Geometry  json.RawMessage `json:"geometry"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GeometryToJSON orbのジオメトリをGeoJSONに変換
func GeometryToJSON(g orb.Geometry) ([]byte, error) {
	data, err := geojson.NewGeometry(g).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("ジオメトリのJSONマーシャル失敗: %w", err)
	}
	return data, nil
}

// GeometryFromJSON GeoJSONのジオメトリを解析し、ポリゴン系であることを確認する
func GeometryFromJSON(data []byte) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("ジオメトリのJSONアンマーシャル失敗: %w", err)
	}
	return checkPolygonal(g.Geometry())
}

func checkPolygonal(g orb.Geometry) (orb.Geometry, error) {
	switch geom := g.(type) {
	case orb.Polygon:
		if len(geom) == 0 || len(geom[0]) < 4 {
			return nil, fmt.Errorf("ポリゴンの外周には4点以上が必要です")
		}
		return geom, nil
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return nil, fmt.Errorf("空のMultiPolygonです")
		}
		for _, p := range geom {
			if len(p) == 0 || len(p[0]) < 4 {
				return nil, fmt.Errorf("ポリゴンの外周には4点以上が必要です")
			}
		}
		return geom, nil
	case nil:
		return nil, fmt.Errorf("ジオメトリがありません")
	default:
		return nil, fmt.Errorf("サポートされていないジオメトリ型です: %s", g.GeoJSONType())
	}
}

// ToRow model.GeofenceをDB保存用に変換
func ToRow(g *model.Geofence) (*GeofenceRow, error) {
	data, err := GeometryToJSON(g.Geometry)
	if err != nil {
		return nil, err
	}
	return &GeofenceRow{
		ID:        g.ID,
		Name:      g.Name,
		Mode:      g.Mode,
		Geometry:  data,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}, nil
}

// ToGeofence DBの行をmodel.Geofenceに変換
func (r *GeofenceRow) ToGeofence() (*model.Geofence, error) {
	geom, err := GeometryFromJSON(r.Geometry)
	if err != nil {
		return nil, fmt.Errorf("ジオフェンス %s: %w", r.ID, err)
	}
	return &model.Geofence{
		ID:        r.ID,
		Name:      r.Name,
		Mode:      r.Mode,
		Geometry:  geom,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// FeatureToGeofence GeoJSON Featureをジオフェンスに変換
// nameプロパティは必須。idがなければ新しいUUIDを割り当てる
func FeatureToGeofence(f *geojson.Feature) (*model.Geofence, error) {
	if f == nil {
		return nil, fmt.Errorf("featureがありません")
	}
	name := strings.TrimSpace(f.Properties.MustString(PropertyName, ""))
	if name == "" {
		return nil, fmt.Errorf("featureにnameプロパティがありません")
	}
	geom, err := checkPolygonal(f.Geometry)
	if err != nil {
		return nil, fmt.Errorf("feature %q: %w", name, err)
	}

	id := f.Properties.MustString(PropertyID, "")
	if id == "" {
		if s, ok := f.ID.(string); ok {
			id = s
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	mode := f.Properties.MustString(PropertyMode, "")
	if mode == "" {
		mode = DefaultGeofenceMode
	}

	return &model.Geofence{ID: id, Name: name, Mode: mode, Geometry: geom}, nil
}

// GeofenceToFeature ジオフェンスをGeoJSON Featureに変換
func GeofenceToFeature(g *model.Geofence) *geojson.Feature {
	f := geojson.NewFeature(g.Geometry)
	f.ID = g.ID
	f.Properties[PropertyID] = g.ID
	f.Properties[PropertyName] = g.Name
	f.Properties[PropertyMode] = g.Mode
	return f
}

// GeofencesToCollection ジオフェンス一覧をFeatureCollectionに変換
func GeofencesToCollection(fences []model.Geofence) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range fences {
		fc.Append(GeofenceToFeature(&fences[i]))
	}
	return fc
}

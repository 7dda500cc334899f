package model

import (
	"time"

	"github.com/paulmach/orb"
)

// Geofence 名前付きの多角形領域
// GeometryはPolygonまたはMultiPolygonのみ
type Geofence struct {
	ID        string
	Name      string
	Mode      string
	Geometry  orb.Geometry
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Polygons ジオメトリを構成するポリゴン一覧を返す
func (g *Geofence) Polygons() []orb.Polygon {
	switch geom := g.Geometry.(type) {
	case orb.Polygon:
		return []orb.Polygon{geom}
	case orb.MultiPolygon:
		return []orb.Polygon(geom)
	default:
		return nil
	}
}

// GeofenceReference 形状を含まない一覧表示用の参照情報
type GeofenceReference struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mode string `json:"mode"`
}

// UpsertResult 一括登録の結果
type UpsertResult struct {
	Inserts int `json:"inserts"`
	Updates int `json:"updates"`
}

// GeofenceCoverageResponse ジオフェンスのS2カバレッジ
type GeofenceCoverageResponse struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Level int          `json:"level"`
	Count int          `json:"count"`
	Cells []S2Response `json:"cells"`
}

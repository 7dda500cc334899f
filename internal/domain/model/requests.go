package model

// CellsRequest 境界ボックス内のセル取得リクエスト
type CellsRequest struct {
	Level  int     `json:"level"`
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// PolygonsResponse セルIDリストからのポリゴン一括取得レスポンス
type PolygonsResponse struct {
	Cells   []S2Response `json:"cells"`
	Skipped int          `json:"skipped"` // 解析できずスキップしたID数
}

// CircleCoverageRequest 円形領域のカバレッジリクエスト
type CircleCoverageRequest struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius float64 `json:"radius"` // メートル
	Level  int     `json:"level"`
}

// CellCoverageRequest グリッド（または単一セル）カバレッジリクエスト
type CellCoverageRequest struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Size  int     `json:"size"`
	Level int     `json:"level"`
}

// CoverageResponse カバレッジ結果
type CoverageResponse struct {
	Cells  []string `json:"cells"`
	Count  int      `json:"count"`
	Cached bool     `json:"cached"`
}

// CellMapRequest ポイントのバケット分けリクエスト
type CellMapRequest struct {
	Points     SingleVec `json:"points"`
	SplitLevel int       `json:"split_level"`
}

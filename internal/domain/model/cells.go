package model

// PointArray [緯度, 経度] の2要素配列（度）
type PointArray [2]float64

// Lat 緯度
func (p PointArray) Lat() float64 { return p[0] }

// Lng 経度
func (p PointArray) Lng() float64 { return p[1] }

// SingleVec PointArrayの順序付きリスト
type SingleVec []PointArray

// S2Response セルIDとその4頂点ポリゴン
type S2Response struct {
	ID     string        `json:"id"`     // 64bitセルIDの10進文字列
	Coords [4]PointArray `json:"coords"` // [緯度, 経度] × 4（反時計回り）
}

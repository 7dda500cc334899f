package geocell

import (
	"github.com/golang/geo/s2"

	"S2Grid-App/internal/domain/model"
)

// CellCoverage 点を含むlevelのセルを中心にsize×sizeのグリッドを集合で返す
// size == 1 なら中心セルのみ
func CellCoverage(lat, lon float64, size, level int) (*CoveredSet, error) {
	center := CellFromPoint(model.PointArray{lat, lon}, level)
	covered := NewCoveredSet()
	if size == 1 {
		covered.Add(center)
		return covered, nil
	}

	cells, err := BuildGrid(center, size)
	if err != nil {
		return nil, err
	}
	for _, c := range cells {
		covered.Add(c)
	}
	return covered, nil
}

// CreateCellMap 各ポイントをFineLevelのセルに丸め、splitLevelの祖先セルごとにまとめる
// バケット内は入力順。splitLevelは0〜FineLevelに丸める
func CreateCellMap(points []model.PointArray, splitLevel int) map[uint64][]model.PointArray {
	buckets := make(map[uint64][]model.PointArray)
	for _, p := range points {
		key := uint64(ParentOf(p, splitLevel))
		buckets[key] = append(buckets[key], p)
	}
	return buckets
}

// ParentOf ポイントのsplitLevelでの祖先セル（CreateCellMapと同じ丸め）
func ParentOf(p model.PointArray, splitLevel int) s2.CellID {
	splitLevel = max(0, min(splitLevel, FineLevel))
	return CellFromPoint(p, FineLevel).Parent(splitLevel)
}

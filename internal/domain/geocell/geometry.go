// Package geocell はS2セル（立方体投影の階層四分木）を使ったカバレッジ計算を提供する。
// ロギングは行わず、スキップや失敗はすべて戻り値で呼び出し側に返す。
package geocell

import (
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"S2Grid-App/internal/domain/model"
)

// FineLevel ポイントを最初に丸めるセルレベル
const FineLevel = 20

// MaxLevel S2の最大セルレベル
const MaxLevel = s2.MaxLevel

func toPointArray(p s2.Point) model.PointArray {
	ll := s2.LatLngFromPoint(p)
	return model.PointArray{ll.Lat.Degrees(), ll.Lng.Degrees()}
}

// CellCenter セル中心の [緯度, 経度]
func CellCenter(id s2.CellID) model.PointArray {
	return toPointArray(id.Point())
}

// CellVertices セルの4頂点（S2の頂点順 = 反時計回り）
func CellVertices(id s2.CellID) [4]model.PointArray {
	cell := s2.CellFromCellID(id)
	var vertices [4]model.PointArray
	for k := range vertices {
		vertices[k] = toPointArray(cell.Vertex(k))
	}
	return vertices
}

// CellPolygon セルを閉じたorb.Polygonに変換する（orbの座標順は [経度, 緯度]）
func CellPolygon(id s2.CellID) orb.Polygon {
	vertices := CellVertices(id)
	ring := make(orb.Ring, 0, len(vertices)+1)
	for _, v := range vertices {
		ring = append(ring, orb.Point{v.Lng(), v.Lat()})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// CellLoop セル境界をs2.Loopとして返す（球面上の交差判定用）
func CellLoop(id s2.CellID) *s2.Loop {
	return s2.LoopFromCell(s2.CellFromCellID(id))
}

// CellFromPoint ポイントを含む指定レベルのセル
func CellFromPoint(p model.PointArray, level int) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lng())).Parent(level)
}

// CellIDToPointArray セル中心をPointArrayで返す（CellCenterの別名、バケット処理側の呼び名）
func CellIDToPointArray(id s2.CellID) model.PointArray {
	return CellCenter(id)
}

// FormatCellID セルIDの10進文字列表現
func FormatCellID(id s2.CellID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseCellID 10進文字列のセルIDを解析する
func ParseCellID(raw string) (s2.CellID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse cell id")
	}
	id := s2.CellID(v)
	if !id.IsValid() {
		return 0, errors.Wrapf(ErrInvalidCell, "%d", v)
	}
	return id, nil
}

// ToResponse APIレスポンス用のレコードに変換
func ToResponse(id s2.CellID) model.S2Response {
	return model.S2Response{
		ID:     FormatCellID(id),
		Coords: CellVertices(id),
	}
}

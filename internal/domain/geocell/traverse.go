package geocell

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/pkg/errors"
)

// Direction 方位（東西南北）
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return "Unknown"
	}
}

// LongitudeBand 経度を45度ごとの帯に丸める
// -3未満は切り上げ、それ以外は切り捨て（-180〜-90度が-3、135〜180度が3になる）
func LongitudeBand(lng float64) int {
	ratio := lng / 45
	if ratio < -3 {
		return int(math.Ceil(ratio))
	}
	return int(math.Floor(ratio))
}

// northSlot 北にあたるEdgeNeighborsのスロット番号を返す
//
// EdgeNeighborsは面座標で 下(0), 右(1), 上(2), 左(3) の順。
// どの面でも北から時計回りに東・南・西と進むとスロットは1つずつ減るので、
// 北のスロットだけ分かれば残りの方位は決まる。
// 面2（北極）と面5（南極）は経度によって局所軸の向きが回るため経度帯で引き分ける。
func northSlot(id s2.CellID, face int) (int, error) {
	switch face {
	case 0, 1:
		return 2, nil
	case 3, 4:
		return 3, nil
	case 2:
		switch band := LongitudeBand(CellCenter(id).Lng()); band {
		case -1, 0:
			return 1, nil
		case 1, 2:
			return 2, nil
		case -2:
			return 0, nil
		case -3, 3:
			return 3, nil
		default:
			return 0, errors.Wrapf(ErrInvalidBand, "face 2: band %d", band)
		}
	case 5:
		switch band := LongitudeBand(CellCenter(id).Lng()); band {
		case -1, 0:
			return 2, nil
		case 1, 2:
			return 1, nil
		case -2:
			return 3, nil
		case -3, 3:
			return 0, nil
		default:
			return 0, errors.Wrapf(ErrInvalidBand, "face 5: band %d", band)
		}
	default:
		return 0, errors.Wrapf(ErrInvalidFace, "face %d", face)
	}
}

// NeighborSlot 方位に対応するEdgeNeighborsのスロット番号
func NeighborSlot(id s2.CellID, dir Direction) (int, error) {
	if dir < North || dir > West {
		return 0, errors.Errorf("unknown direction %d", int(dir))
	}
	face := id.Face()
	if face < 0 || face > 5 {
		return 0, errors.Wrapf(ErrInvalidFace, "face %d", face)
	}
	if !id.IsValid() {
		return 0, errors.Wrapf(ErrInvalidCell, "%d", uint64(id))
	}
	north, err := northSlot(id, face)
	if err != nil {
		return 0, err
	}
	return (north - int(dir) + 4) % 4, nil
}

// Step 指定方位の隣接セルへ1つ移動する
func Step(id s2.CellID, dir Direction) (s2.CellID, error) {
	slot, err := NeighborSlot(id, dir)
	if err != nil {
		return 0, err
	}
	return id.EdgeNeighbors()[slot], nil
}

// StepMany Stepをcount回繰り返す（面をまたぐたびに方位を引き直すため一括計算はしない）
func StepMany(id s2.CellID, dir Direction, count int) (s2.CellID, error) {
	cur := id
	for i := 0; i < count; i++ {
		next, err := Step(cur, dir)
		if err != nil {
			return 0, errors.Wrapf(err, "step %d of %d %s", i+1, count, dir)
		}
		cur = next
	}
	return cur, nil
}

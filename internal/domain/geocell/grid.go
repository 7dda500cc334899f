package geocell

import (
	"github.com/golang/geo/s2"
	"github.com/pkg/errors"
)

// BuildGrid anchorを中心にsize×sizeのセルを行優先（南西から北東へ）で返す
// 重複排除はしない。size<=0 の場合は空
func BuildGrid(anchor s2.CellID, size int) ([]s2.CellID, error) {
	if size <= 0 {
		return []s2.CellID{}, nil
	}

	half := size / 2
	start, err := StepMany(anchor, West, half)
	if err != nil {
		return nil, errors.Wrap(err, "grid start")
	}
	start, err = StepMany(start, South, half)
	if err != nil {
		return nil, errors.Wrap(err, "grid start")
	}

	cells := make([]s2.CellID, 0, size*size)
	row := start
	for r := 0; r < size; r++ {
		if r > 0 {
			if row, err = Step(row, North); err != nil {
				return nil, errors.Wrapf(err, "grid row %d", r)
			}
		}
		cell := row
		cells = append(cells, cell)
		for c := 1; c < size; c++ {
			if cell, err = Step(cell, East); err != nil {
				return nil, errors.Wrapf(err, "grid row %d col %d", r, c)
			}
			cells = append(cells, cell)
		}
	}
	return cells, nil
}

package geocell

import (
	"context"

	"github.com/golang/geo/s2"
)

// ctxCheckInterval 何セルごとにコンテキストを確認するか
const ctxCheckInterval = 4096

// FixedLevelCells regionと交わるlevelのセルをID順に先頭limit件まで列挙する
//
// 面セルから子を深さ優先にたどり、交わらない枝は打ち切る。
// s2.RegionCovererでMinLevel = MaxLevelとしたカバーの先頭limit件と同じ結果になるが、
// limit件を超えた時点で止まるので範囲の広さに関係なく計算量はlimitで抑えられる。
// truncatedはlimit件を超えるセルがあったことを示す
func FixedLevelCells(ctx context.Context, region s2.Region, level, limit int) (cells s2.CellUnion, truncated bool, err error) {
	w := &levelWalker{
		ctx:    ctx,
		region: region,
		level:  level,
		limit:  limit,
		out:    s2.CellUnion{},
	}
	for face := 0; face < 6; face++ {
		stop, err := w.walk(s2.CellIDFromFace(face))
		if err != nil {
			return nil, false, err
		}
		if stop {
			break
		}
	}
	return w.out, w.truncated, nil
}

type levelWalker struct {
	ctx       context.Context
	region    s2.Region
	level     int
	limit     int
	out       s2.CellUnion
	truncated bool
	steps     int
}

func (w *levelWalker) tick() error {
	w.steps++
	if w.steps%ctxCheckInterval == 0 {
		return w.ctx.Err()
	}
	return nil
}

// emit 上限に達していたらtrue
func (w *levelWalker) emit(id s2.CellID) bool {
	if len(w.out) >= w.limit {
		w.truncated = true
		return true
	}
	w.out = append(w.out, id)
	return false
}

// walk idの子孫を列挙する。trueなら列挙を打ち切る
func (w *levelWalker) walk(id s2.CellID) (bool, error) {
	if err := w.tick(); err != nil {
		return true, err
	}
	cell := s2.CellFromCellID(id)
	if !w.region.IntersectsCell(cell) {
		return false, nil
	}
	if id.Level() == w.level {
		return w.emit(id), nil
	}

	// 丸ごと含まれるセルは子孫を判定せずに並べる
	if w.region.ContainsCell(cell) {
		end := id.ChildEndAtLevel(w.level)
		for c := id.ChildBeginAtLevel(w.level); c != end; c = c.Next() {
			if err := w.tick(); err != nil {
				return true, err
			}
			if w.emit(c) {
				return true, nil
			}
		}
		return false, nil
	}

	end := id.ChildEnd()
	for c := id.ChildBegin(); c != end; c = c.Next() {
		if stop, err := w.walk(c); stop || err != nil {
			return true, err
		}
	}
	return false, nil
}

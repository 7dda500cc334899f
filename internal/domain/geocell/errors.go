package geocell

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvariantViolation 閉じたセルID空間では起こり得ない状態（面番号・経度帯の範囲外）
	ErrInvariantViolation = errors.New("s2 invariant violation")

	// ErrInvalidFace 面番号が0〜5の範囲外
	ErrInvalidFace = errors.Wrap(ErrInvariantViolation, "invalid face")

	// ErrInvalidBand 面2/5で経度帯が対応表にない
	ErrInvalidBand = errors.Wrap(ErrInvariantViolation, "invalid longitude band")

	// ErrInvalidCell 数値としては読めるがセルIDとして不正
	ErrInvalidCell = errors.New("invalid cell id")

	// ErrCellBudgetExceeded 円カバレッジがセル数の上限を超えた
	ErrCellBudgetExceeded = errors.New("cell budget exceeded")
)

// ParseError GetPolygonsでスキップされた入力
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cell id %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

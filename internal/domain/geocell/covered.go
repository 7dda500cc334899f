package geocell

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/golang/geo/s2"
)

// CoveredSet 並行ワーカー間で共有するセルIDの集合
// 判定と追加はAddの中で1回のロックにまとめる
type CoveredSet struct {
	mu  sync.RWMutex
	ids map[s2.CellID]struct{}
}

// NewCoveredSet 空の集合を作成
func NewCoveredSet() *CoveredSet {
	return &CoveredSet{ids: make(map[s2.CellID]struct{})}
}

// Add 未登録なら追加してtrueを返す
func (s *CoveredSet) Add(id s2.CellID) bool {
	added, _ := s.add(id)
	return added
}

// add 追加結果と追加後の件数を同じロック内で返す
func (s *CoveredSet) add(id s2.CellID) (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false, len(s.ids)
	}
	s.ids[id] = struct{}{}
	return true, len(s.ids)
}

// Contains 登録済みかどうか
func (s *CoveredSet) Contains(id s2.CellID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Len 件数
func (s *CoveredSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// CellIDs 昇順に並べたセルID
func (s *CoveredSet) CellIDs() []s2.CellID {
	s.mu.RLock()
	ids := make([]s2.CellID, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Strings 昇順の10進文字列
func (s *CoveredSet) Strings() []string {
	ids := s.CellIDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = FormatCellID(id)
	}
	return out
}

// MarshalJSON 10進文字列の配列としてエンコード
func (s *CoveredSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

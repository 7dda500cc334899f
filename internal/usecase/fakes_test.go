package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"S2Grid-App/internal/domain/model"
	"S2Grid-App/internal/domain/repository"
)

// memGeofenceRepository テスト用のインメモリ実装
type memGeofenceRepository struct {
	mu     sync.Mutex
	fences map[string]model.Geofence
	// failName この名前を保存しようとするとエラーにする
	failName string
}

func newMemGeofenceRepository() *memGeofenceRepository {
	return &memGeofenceRepository{fences: map[string]model.Geofence{}}
}

// UpsertAll コピーに書いてから差し替えるので、失敗時は何も変わらない
func (m *memGeofenceRepository) UpsertAll(_ context.Context, fences []*model.Geofence) (*model.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := make(map[string]model.Geofence, len(m.fences)+len(fences))
	for id, f := range m.fences {
		next[id] = f
	}

	result := &model.UpsertResult{}
	for _, g := range fences {
		if g.Name == m.failName {
			return nil, fmt.Errorf("ジオフェンス %q の保存失敗", g.Name)
		}
		inserted := true
		for id, f := range next {
			if f.Name == g.Name {
				g.ID = id
				inserted = false
				break
			}
		}
		next[g.ID] = *g
		if inserted {
			result.Inserts++
		} else {
			result.Updates++
		}
	}
	m.fences = next
	return result, nil
}

func (m *memGeofenceRepository) GetByID(_ context.Context, id string) (*model.Geofence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.fences[id]; ok {
		return &g, nil
	}
	return nil, fmt.Errorf("%s: %w", id, repository.ErrGeofenceNotFound)
}

func (m *memGeofenceRepository) GetByName(_ context.Context, name string) (*model.Geofence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.fences {
		if g.Name == name {
			return &g, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, repository.ErrGeofenceNotFound)
}

func (m *memGeofenceRepository) List(context.Context) ([]model.Geofence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Geofence, 0, len(m.fences))
	for _, g := range m.fences {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memGeofenceRepository) Reference(ctx context.Context) ([]model.GeofenceReference, error) {
	fences, _ := m.List(ctx)
	refs := make([]model.GeofenceReference, 0, len(fences))
	for _, g := range fences {
		refs = append(refs, model.GeofenceReference{ID: g.ID, Name: g.Name, Mode: g.Mode})
	}
	return refs, nil
}

func (m *memGeofenceRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fences[id]; !ok {
		return fmt.Errorf("%s: %w", id, repository.ErrGeofenceNotFound)
	}
	delete(m.fences, id)
	return nil
}

// memCoverageCache テスト用のカバレッジキャッシュ
type memCoverageCache struct {
	mu      sync.Mutex
	entries map[string][]string
	gets    int
	sets    int
	fail    bool
}

func newMemCoverageCache() *memCoverageCache {
	return &memCoverageCache{entries: map[string][]string{}}
}

var errCacheDown = errors.New("cache down")

func (m *memCoverageCache) Get(_ context.Context, key string) ([]string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.fail {
		return nil, false, errCacheDown
	}
	cells, ok := m.entries[key]
	return cells, ok, nil
}

func (m *memCoverageCache) Set(_ context.Context, key string, cells []string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.fail {
		return errCacheDown
	}
	m.entries[key] = cells
	return nil
}

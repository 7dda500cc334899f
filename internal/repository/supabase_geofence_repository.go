package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"S2Grid-App/internal/domain/model"
	"S2Grid-App/internal/domain/repository"
	"S2Grid-App/internal/infrastructure/supabase"
)

const geofencesTable = "geofences"

type SupabaseGeofenceRepository struct {
	client *supabase.Client
}

func NewSupabaseGeofenceRepository(client *supabase.Client) *SupabaseGeofenceRepository {
	return &SupabaseGeofenceRepository{
		client: client,
	}
}

var _ repository.GeofenceRepository = (*SupabaseGeofenceRepository)(nil)

// UpsertAll 1件ずつ登録・更新する
// PostgRESTにはトランザクションがないため、途中で失敗するとそれまでの分は残る
func (r *SupabaseGeofenceRepository) UpsertAll(ctx context.Context, fences []*model.Geofence) (*model.UpsertResult, error) {
	result := &model.UpsertResult{}
	for _, g := range fences {
		inserted, err := r.upsert(ctx, g)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.Inserts++
		} else {
			result.Updates++
		}
	}
	return result, nil
}

// upsert PostgRESTは更新か挿入かを返さないので、先に名前で検索する
func (r *SupabaseGeofenceRepository) upsert(ctx context.Context, g *model.Geofence) (bool, error) {
	row, err := ToRow(g)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()

	existing, err := r.GetByName(ctx, g.Name)
	switch {
	case err == nil:
		g.ID = existing.ID
		update := map[string]any{
			"mode":       row.Mode,
			"geometry":   row.Geometry,
			"updated_at": now,
		}
		if _, _, err := r.client.GetClient().From(geofencesTable).Update(update, "", "").Eq("id", existing.ID).Execute(); err != nil {
			return false, fmt.Errorf("ジオフェンス %q の更新失敗: %w", g.Name, err)
		}
		return false, nil
	case errors.Is(err, repository.ErrGeofenceNotFound):
		row.CreatedAt, row.UpdatedAt = now, now
		if _, _, err := r.client.GetClient().From(geofencesTable).Insert(row, false, "", "", "").Execute(); err != nil {
			return false, fmt.Errorf("ジオフェンス %q の作成失敗: %w", g.Name, err)
		}
		return true, nil
	default:
		return false, err
	}
}

func (r *SupabaseGeofenceRepository) GetByID(ctx context.Context, id string) (*model.Geofence, error) {
	return r.getOne("id", id)
}

func (r *SupabaseGeofenceRepository) GetByName(ctx context.Context, name string) (*model.Geofence, error) {
	return r.getOne("name", name)
}

func (r *SupabaseGeofenceRepository) getOne(column, value string) (*model.Geofence, error) {
	data, _, err := r.client.GetClient().From(geofencesTable).Select("*", "", false).Eq(column, value).Execute()
	if err != nil {
		return nil, fmt.Errorf("ジオフェンスデータの取得失敗: %w", err)
	}

	var rows []GeofenceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("ジオフェンスデータのJSONアンマーシャル失敗: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ジオフェンス %s: %w", value, repository.ErrGeofenceNotFound)
	}
	return rows[0].ToGeofence()
}

func (r *SupabaseGeofenceRepository) List(ctx context.Context) ([]model.Geofence, error) {
	data, _, err := r.client.GetClient().From(geofencesTable).Select("*", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("ジオフェンス一覧の取得失敗: %w", err)
	}

	var rows []GeofenceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("ジオフェンスデータのJSONアンマーシャル失敗: %w", err)
	}

	fences := make([]model.Geofence, 0, len(rows))
	for i := range rows {
		g, err := rows[i].ToGeofence()
		if err != nil {
			return nil, err
		}
		fences = append(fences, *g)
	}
	sort.Slice(fences, func(i, j int) bool { return fences[i].Name < fences[j].Name })
	return fences, nil
}

func (r *SupabaseGeofenceRepository) Reference(ctx context.Context) ([]model.GeofenceReference, error) {
	data, _, err := r.client.GetClient().From(geofencesTable).Select("id,name,mode", "", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("ジオフェンス参照一覧の取得失敗: %w", err)
	}

	refs := []model.GeofenceReference{}
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("ジオフェンスデータのJSONアンマーシャル失敗: %w", err)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (r *SupabaseGeofenceRepository) Delete(ctx context.Context, id string) error {
	data, _, err := r.client.GetClient().From(geofencesTable).Delete("representation", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("ジオフェンスの削除失敗: %w", err)
	}

	var deleted []GeofenceRow
	if err := json.Unmarshal(data, &deleted); err == nil && len(deleted) == 0 {
		return fmt.Errorf("ジオフェンス %s: %w", id, repository.ErrGeofenceNotFound)
	}
	return nil
}

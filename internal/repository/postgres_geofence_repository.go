package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"S2Grid-App/internal/domain/model"
	"S2Grid-App/internal/domain/repository"
	"S2Grid-App/internal/infrastructure/database"
)

// geofencesSchema geofencesテーブルの定義
const geofencesSchema = `
CREATE TABLE IF NOT EXISTS geofences (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	mode       TEXT NOT NULL DEFAULT 'unset',
	geometry   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const geofenceColumns = `id, name, mode, geometry, created_at, updated_at`

type PostgresGeofenceRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresGeofenceRepository(client *database.PostgreSQLClient) *PostgresGeofenceRepository {
	return &PostgresGeofenceRepository{
		client: client,
	}
}

var _ repository.GeofenceRepository = (*PostgresGeofenceRepository)(nil)

// EnsureSchema テーブルがなければ作成する
func (r *PostgresGeofenceRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.client.DB.ExecContext(ctx, geofencesSchema); err != nil {
		return fmt.Errorf("geofencesテーブルの作成失敗: %w", err)
	}
	return nil
}

// UpsertAll 1トランザクションでまとめて登録・更新する。途中で失敗したら何も残さない
func (r *PostgresGeofenceRepository) UpsertAll(ctx context.Context, fences []*model.Geofence) (*model.UpsertResult, error) {
	tx, err := r.client.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始失敗: %w", err)
	}
	defer tx.Rollback()

	result := &model.UpsertResult{}
	for _, g := range fences {
		inserted, err := upsertGeofence(ctx, tx, g)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.Inserts++
		} else {
			result.Updates++
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ジオフェンス保存のコミット失敗: %w", err)
	}
	return result, nil
}

// upsertGeofence 同名のジオフェンスがあれば形状とmodeを更新する
// xmax = 0 はその行が今回のINSERTで作られたことを示す
func upsertGeofence(ctx context.Context, tx *sql.Tx, g *model.Geofence) (bool, error) {
	row, err := ToRow(g)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO geofences (id, name, mode, geometry)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (name) DO UPDATE
		SET mode = EXCLUDED.mode, geometry = EXCLUDED.geometry, updated_at = now()
		RETURNING id, (xmax = 0) AS inserted`

	var inserted bool
	if err := tx.QueryRowContext(ctx, query, row.ID, row.Name, row.Mode, string(row.Geometry)).
		Scan(&g.ID, &inserted); err != nil {
		return false, fmt.Errorf("ジオフェンス %q の保存失敗: %w", g.Name, err)
	}
	return inserted, nil
}

func (r *PostgresGeofenceRepository) GetByID(ctx context.Context, id string) (*model.Geofence, error) {
	query := `SELECT ` + geofenceColumns + ` FROM geofences WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresGeofenceRepository) GetByName(ctx context.Context, name string) (*model.Geofence, error) {
	query := `SELECT ` + geofenceColumns + ` FROM geofences WHERE name = $1`
	return r.getOne(ctx, query, name)
}

func (r *PostgresGeofenceRepository) getOne(ctx context.Context, query, arg string) (*model.Geofence, error) {
	row, err := scanGeofenceRow(r.client.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ジオフェンス %s: %w", arg, repository.ErrGeofenceNotFound)
		}
		return nil, fmt.Errorf("ジオフェンスデータの取得失敗: %w", err)
	}
	return row.ToGeofence()
}

func (r *PostgresGeofenceRepository) List(ctx context.Context) ([]model.Geofence, error) {
	query := `SELECT ` + geofenceColumns + ` FROM geofences ORDER BY name`

	rows, err := r.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ジオフェンス一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	var fences []model.Geofence
	for rows.Next() {
		row, err := scanGeofenceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("ジオフェンスデータスキャンエラー: %w", err)
		}
		g, err := row.ToGeofence()
		if err != nil {
			return nil, err
		}
		fences = append(fences, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ジオフェンス一覧の取得失敗: %w", err)
	}
	return fences, nil
}

func (r *PostgresGeofenceRepository) Reference(ctx context.Context) ([]model.GeofenceReference, error) {
	rows, err := r.client.DB.QueryContext(ctx, `SELECT id, name, mode FROM geofences ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("ジオフェンス参照一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	refs := []model.GeofenceReference{}
	for rows.Next() {
		var ref model.GeofenceReference
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Mode); err != nil {
			return nil, fmt.Errorf("ジオフェンスデータスキャンエラー: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *PostgresGeofenceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.client.DB.ExecContext(ctx, `DELETE FROM geofences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ジオフェンスの削除失敗: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("ジオフェンス %s: %w", id, repository.ErrGeofenceNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeofenceRow(s rowScanner) (*GeofenceRow, error) {
	var row GeofenceRow
	var geometry []byte
	if err := s.Scan(&row.ID, &row.Name, &row.Mode, &geometry, &row.CreatedAt, &row.UpdatedAt); err != nil {
		return nil, err
	}
	row.Geometry = geometry
	return &row, nil
}

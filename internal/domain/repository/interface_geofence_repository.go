package repository

import (
	"context"
	"errors"

	"S2Grid-App/internal/domain/model"
)

// ErrGeofenceNotFound 指定したジオフェンスが存在しない
var ErrGeofenceNotFound = errors.New("geofence not found")

// GeofenceRepository ジオフェンスの永続化
type GeofenceRepository interface {
	// UpsertAll 名前をキーにまとめて登録または更新する。各gのIDは保存後のIDになる
	UpsertAll(ctx context.Context, fences []*model.Geofence) (*model.UpsertResult, error)
	GetByID(ctx context.Context, id string) (*model.Geofence, error)
	GetByName(ctx context.Context, name string) (*model.Geofence, error)
	List(ctx context.Context) ([]model.Geofence, error)
	Reference(ctx context.Context) ([]model.GeofenceReference, error)
	Delete(ctx context.Context, id string) error
}

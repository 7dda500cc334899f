package handler

import (
	"S2Grid-App/internal/domain/geocell"
	"S2Grid-App/internal/domain/model"
)

// MaxGridSize セルカバレッジの一辺の上限
const MaxGridSize = 255

func validateLat(field string, v float64) error {
	if v < -90 || v > 90 {
		return &ValidationError{Field: field, Message: "緯度は-90から90の範囲で指定してください"}
	}
	return nil
}

func validateLon(field string, v float64) error {
	if v < -180 || v > 180 {
		return &ValidationError{Field: field, Message: "経度は-180から180の範囲で指定してください"}
	}
	return nil
}

func validateLevel(field string, v int) error {
	if v < 0 || v > geocell.MaxLevel {
		return &ValidationError{Field: field, Message: "レベルは0から30の範囲で指定してください"}
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ValidateCircleCoverageRequest 中心座標・レベル・半径を確認する
func ValidateCircleCoverageRequest(req *model.CircleCoverageRequest) error {
	if err := firstError(
		validateLat("lat", req.Lat),
		validateLon("lon", req.Lon),
		validateLevel("level", req.Level),
	); err != nil {
		return err
	}
	if req.Radius <= 0 {
		return &ValidationError{Field: "radius", Message: "半径は正の値（メートル）で指定してください"}
	}
	return nil
}

// ValidateCellCoverageRequest 中心座標・レベル・グリッドの大きさを確認する
func ValidateCellCoverageRequest(req *model.CellCoverageRequest) error {
	if err := firstError(
		validateLat("lat", req.Lat),
		validateLon("lon", req.Lon),
		validateLevel("level", req.Level),
	); err != nil {
		return err
	}
	if req.Size < 1 || req.Size > MaxGridSize {
		return &ValidationError{Field: "size", Message: "sizeは1から255の範囲で指定してください"}
	}
	return nil
}

// ValidateCellsRequest 境界ボックスの範囲と向きを確認する
func ValidateCellsRequest(req *model.CellsRequest) error {
	if err := firstError(
		validateLevel("level", req.Level),
		validateLat("min_lat", req.MinLat),
		validateLat("max_lat", req.MaxLat),
		validateLon("min_lon", req.MinLon),
		validateLon("max_lon", req.MaxLon),
	); err != nil {
		return err
	}
	if req.MinLat > req.MaxLat {
		return &ValidationError{Field: "min_lat", Message: "min_latはmax_lat以下で指定してください"}
	}
	if req.MinLon > req.MaxLon {
		return &ValidationError{Field: "min_lon", Message: "min_lonはmax_lon以下で指定してください"}
	}
	return nil
}

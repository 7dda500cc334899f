package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"S2Grid-App/internal/domain/model"
	"S2Grid-App/internal/handler"
	"S2Grid-App/internal/usecase"
)

// offlineUseCase キャッシュを使わないローカル計算用
func (a *app) offlineUseCase() usecase.S2UseCase {
	return usecase.NewS2UseCase(a.log, usecase.S2Options{
		Workers:  a.cfg.CoverageWorkers,
		MaxCells: a.cfg.CoverageMaxCells,
		Timeout:  a.cfg.CoverageTimeout,
	}, nil, nil)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newCellsCmd(a *app) *cobra.Command {
	var req model.CellsRequest
	cmd := &cobra.Command{
		Use:   "cells",
		Short: "Print the cells covering a bounding box with their vertices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := handler.ValidateCellsRequest(&req); err != nil {
				return err
			}
			cells, err := a.offlineUseCase().GetCells(cmd.Context(), &req)
			if err != nil {
				return err
			}
			a.log.Debug("cells", zap.Int("count", len(cells)))
			return writeJSON(cmd.OutOrStdout(), cells)
		},
	}
	f := cmd.Flags()
	f.IntVar(&req.Level, "level", 13, "cell level (0-30)")
	f.Float64Var(&req.MinLat, "min-lat", 0, "minimum latitude")
	f.Float64Var(&req.MinLon, "min-lon", 0, "minimum longitude")
	f.Float64Var(&req.MaxLat, "max-lat", 0, "maximum latitude")
	f.Float64Var(&req.MaxLon, "max-lon", 0, "maximum longitude")
	return cmd
}

func newCircleCmd(a *app) *cobra.Command {
	var req model.CircleCoverageRequest
	cmd := &cobra.Command{
		Use:   "circle",
		Short: "Print the ids of the cells intersecting a circle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := handler.ValidateCircleCoverageRequest(&req); err != nil {
				return err
			}
			resp, err := a.offlineUseCase().CircleCoverage(cmd.Context(), &req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&req.Lat, "lat", 0, "center latitude")
	f.Float64Var(&req.Lon, "lon", 0, "center longitude")
	f.Float64Var(&req.Radius, "radius", 1000, "radius in meters")
	f.IntVar(&req.Level, "level", 15, "cell level (0-30)")
	return cmd
}

func newGridCmd(a *app) *cobra.Command {
	var req model.CellCoverageRequest
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the ids of a size x size grid of cells around a point",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := handler.ValidateCellCoverageRequest(&req); err != nil {
				return err
			}
			resp, err := a.offlineUseCase().CellCoverage(cmd.Context(), &req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&req.Lat, "lat", 0, "center latitude")
	f.Float64Var(&req.Lon, "lon", 0, "center longitude")
	f.IntVar(&req.Size, "size", 3, "grid side length in cells")
	f.IntVar(&req.Level, "level", 15, "cell level (0-30)")
	return cmd
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"S2Grid-App/internal/config"
	domainRepo "S2Grid-App/internal/domain/repository"
	"S2Grid-App/internal/handler"
	"S2Grid-App/internal/infrastructure/cache"
	"S2Grid-App/internal/infrastructure/database"
	"S2Grid-App/internal/infrastructure/firestore"
	"S2Grid-App/internal/infrastructure/supabase"
	"S2Grid-App/internal/repository"
	"S2Grid-App/internal/usecase"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("port", "", "listen port")
	bindFlag(a.v, "PORT", cmd.Flags().Lookup("port"))
	return cmd
}

// closers 終了時に逆順で閉じるリソース
type closers []func()

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, log := a.cfg, a.log
	var cleanup closers
	defer cleanup.close()

	polygons, err := cache.NewPolygonCache(cfg.PolygonCacheSize)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, polygons.Close)

	health := map[string]handler.HealthChecker{}

	coverage, err := a.openCoverageCache(ctx, &cleanup, health)
	if err != nil {
		return err
	}
	geofences, err := a.openGeofenceStore(ctx, &cleanup, health)
	if err != nil {
		return err
	}

	s2UseCase := usecase.NewS2UseCase(log, usecase.S2Options{
		Workers:  cfg.CoverageWorkers,
		MaxCells: cfg.CoverageMaxCells,
		Timeout:  cfg.CoverageTimeout,
		CacheTTL: cfg.CoverageCacheTTL,
	}, polygons, coverage)

	deps := handler.RouterDeps{
		Log:    log,
		S2:     handler.NewS2Handler(s2UseCase),
		Health: health,
	}
	if geofences != nil {
		deps.Geofence = handler.NewGeofenceHandler(usecase.NewGeofenceUseCase(log, geofences, cfg.CoverageTimeout))
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 server starting",
			zap.String("addr", srv.Addr),
			zap.String("coverage_cache", cfg.CoverageCache),
			zap.String("geofence_store", cfg.GeofenceStore),
			zap.Int("workers", cfg.CoverageWorkers))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) openCoverageCache(ctx context.Context, cleanup *closers, health map[string]handler.HealthChecker) (domainRepo.CoverageCacheRepository, error) {
	cfg := a.cfg
	switch cfg.CoverageCache {
	case config.CacheRedis:
		rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		*cleanup = append(*cleanup, func() { rdb.Close() })
		health["redis"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return rdb.Ping(pingCtx).Err()
		}
		a.log.Info("✅ redis coverage cache enabled", zap.String("addr", cfg.RedisAddr))
		return repository.NewRedisCoverageRepository(rdb), nil
	case config.CacheFirestore:
		fc, err := firestore.NewFirestoreClient(ctx, cfg.FirestoreProjectID, a.log)
		if err != nil {
			return nil, err
		}
		*cleanup = append(*cleanup, func() { fc.Close() })
		a.log.Info("✅ firestore coverage cache enabled", zap.String("project", cfg.FirestoreProjectID))
		return repository.NewFirestoreCoverageRepository(fc.GetClient()), nil
	default:
		return nil, nil
	}
}

func (a *app) openGeofenceStore(ctx context.Context, cleanup *closers, health map[string]handler.HealthChecker) (domainRepo.GeofenceRepository, error) {
	cfg := a.cfg
	switch cfg.GeofenceStore {
	case config.StorePostgres:
		pg, err := database.NewPostgreSQLClient(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		*cleanup = append(*cleanup, func() { pg.Close() })
		health["postgres"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return pg.HealthCheck(pingCtx)
		}
		repo := repository.NewPostgresGeofenceRepository(pg)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.log.Info("✅ postgres geofence store enabled")
		return repo, nil
	case config.StoreSupabase:
		sb, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if err != nil {
			return nil, err
		}
		health["supabase"] = sb.HealthCheck
		a.log.Info("✅ supabase geofence store enabled")
		return repository.NewSupabaseGeofenceRepository(sb), nil
	default:
		return nil, nil
	}
}

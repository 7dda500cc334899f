package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 保存先・キャッシュの種類
const (
	StoreNone      = "none"
	StorePostgres  = "postgres"
	StoreSupabase  = "supabase"
	CacheNone      = "none"
	CacheRedis     = "redis"
	CacheFirestore = "firestore"
)

// Config アプリケーション設定
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	// カバレッジ計算
	CoverageWorkers  int
	CoverageMaxCells int
	CoverageTimeout  time.Duration
	PolygonCacheSize int64

	// カバレッジ結果のキャッシュ
	CoverageCache      string
	CoverageCacheTTL   time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	FirestoreProjectID string

	// ジオフェンスの保存先
	GeofenceStore   string
	DatabaseURL     string
	SupabaseURL     string
	SupabaseAnonKey string

	// EnvFileLoaded .envを読み込めたかどうか
	EnvFileLoaded bool
}

// SetDefaults 既定値を設定する
func SetDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("COVERAGE_WORKERS", runtime.GOMAXPROCS(0))
	v.SetDefault("COVERAGE_MAX_CELLS", 500000)
	v.SetDefault("COVERAGE_TIMEOUT", 30*time.Second)
	v.SetDefault("POLYGON_CACHE_SIZE", 100000)
	v.SetDefault("COVERAGE_CACHE", CacheNone)
	v.SetDefault("COVERAGE_CACHE_TTL", time.Hour)
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("GEOFENCE_STORE", StoreNone)
}

// Load .env と環境変数から設定を読み込む
// .envがなくても環境変数だけで動作する
func Load(v *viper.Viper) (*Config, error) {
	envLoaded := godotenv.Load() == nil

	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:               v.GetString("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		CoverageWorkers:    v.GetInt("COVERAGE_WORKERS"),
		CoverageMaxCells:   v.GetInt("COVERAGE_MAX_CELLS"),
		CoverageTimeout:    v.GetDuration("COVERAGE_TIMEOUT"),
		PolygonCacheSize:   v.GetInt64("POLYGON_CACHE_SIZE"),
		CoverageCache:      strings.ToLower(v.GetString("COVERAGE_CACHE")),
		CoverageCacheTTL:   v.GetDuration("COVERAGE_CACHE_TTL"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		FirestoreProjectID: v.GetString("FIRESTORE_PROJECT_ID"),
		GeofenceStore:      strings.ToLower(v.GetString("GEOFENCE_STORE")),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		SupabaseURL:        v.GetString("SUPABASE_URL"),
		SupabaseAnonKey:    v.GetString("SUPABASE_ANON_KEY"),
		EnvFileLoaded:      envLoaded,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 設定値の整合性を確認する
func (c *Config) Validate() error {
	if c.CoverageWorkers < 0 {
		return fmt.Errorf("COVERAGE_WORKERS must not be negative: %d", c.CoverageWorkers)
	}
	if c.CoverageMaxCells < 0 {
		return fmt.Errorf("COVERAGE_MAX_CELLS must not be negative: %d", c.CoverageMaxCells)
	}
	if c.CoverageTimeout < 0 {
		return fmt.Errorf("COVERAGE_TIMEOUT must not be negative: %s", c.CoverageTimeout)
	}
	switch c.CoverageCache {
	case CacheNone, CacheRedis:
	case CacheFirestore:
		if c.FirestoreProjectID == "" {
			return errors.New("FIRESTORE_PROJECT_ID is required when COVERAGE_CACHE=firestore")
		}
	default:
		return fmt.Errorf("unknown COVERAGE_CACHE %q", c.CoverageCache)
	}
	switch c.GeofenceStore {
	case StoreNone:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when GEOFENCE_STORE=postgres")
		}
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required when GEOFENCE_STORE=supabase")
		}
	default:
		return fmt.Errorf("unknown GEOFENCE_STORE %q", c.GeofenceStore)
	}
	return nil
}

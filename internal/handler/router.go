package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"S2Grid-App/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// HealthChecker 外部接続の疎通確認
type HealthChecker func() error

// RouterDeps ルーター構築に必要なハンドラー
// Geofenceがnilならジオフェンスのルートは登録しない
type RouterDeps struct {
	Log      *zap.Logger
	S2       *S2Handler
	Geofence *GeofenceHandler
	Health   map[string]HealthChecker
}

// NewRouter APIのルーティングを構築する
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(deps.Log))

	r.GET("/api/health", healthHandler(deps.Health))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	deps.S2.Register(v1.Group("/s2"))
	if deps.Geofence != nil {
		deps.Geofence.Register(v1.Group("/geofence"))
	}
	return r
}

// RequestLogger リクエストごとにIDを振ってアクセスログを出す
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("❌ request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("⚠️ request rejected", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func healthHandler(checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps := gin.H{}
		healthy := true
		for name, check := range checks {
			if err := check(); err != nil {
				deps[name] = err.Error()
				healthy = false
				continue
			}
			deps[name] = "ok"
		}
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "service": "S2Grid-App", "dependencies": deps})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "S2Grid-App", "dependencies": deps})
	}
}

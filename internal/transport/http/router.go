package httptransport

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nboxie/backend/internal/auth"
	"nboxie/backend/internal/auth/jwt"
	"nboxie/backend/internal/config"
	"nboxie/backend/internal/health"
	"nboxie/backend/internal/middleware"
	"nboxie/backend/internal/monitoring"
	"nboxie/backend/internal/service"
)

// 请求体大小上限
const maxBodyBytes = 10 << 20 // 10MB

// RouterDeps 路由依赖集合
type RouterDeps struct {
	Config      *config.Config
	AuthService *auth.Service
	JWTManager  *jwt.Manager
	ScanService *service.ScanService
	DealService *service.DealService
	NewSource   SourceFactory
	Health      *health.HealthChecker
	Metrics     *monitoring.Metrics
	Log         *zap.Logger
}

// NewRouter 组装 HTTP 路由
func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	router.Use(middleware.RecoveryHandler(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(maxBodyBytes))
	router.Use(cors.New(corsConfig(deps.Config.CORS)))
	if deps.Metrics != nil {
		router.Use(middleware.NewMonitoringMiddleware(deps.Metrics).HTTPMetrics())
	}

	// 运维端点
	if deps.Health != nil {
		router.GET("/health", gin.WrapF(deps.Health.LiveHandler()))
		router.GET("/ready", gin.WrapF(deps.Health.ReadyHandler()))
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := NewAuthHandler(deps.AuthService, deps.JWTManager, log)
	dealHandler := NewDealHandler(deps.DealService, log)
	scanHandler := NewScanHandler(deps.ScanService, deps.AuthService, deps.NewSource, log)
	jwtAuth := middleware.NewJWTAuth(deps.JWTManager, log)

	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)

			authed := authGroup.Group("")
			authed.Use(jwtAuth.RequireAuth())
			{
				authed.GET("/me", authHandler.Me)
				authed.PUT("/gmail-token", authHandler.SaveGmailToken)
			}
		}

		protected := v1.Group("")
		protected.Use(jwtAuth.RequireAuth())
		{
			protected.POST("/scan", scanHandler.Scan)

			protected.GET("/deals", dealHandler.List)
			protected.PUT("/deals/:dealID", dealHandler.UpdateStatus)
			protected.DELETE("/deals/:dealID", dealHandler.Delete)
		}
	}

	return router
}

// corsConfig 构造 CORS 配置，通配符来源时禁用凭证传递
func corsConfig(cfg config.CORSConfig) cors.Config {
	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			corsCfg.AllowAllOrigins = true
			corsCfg.AllowOrigins = nil
			corsCfg.AllowCredentials = false
			break
		}
	}

	return corsCfg
}

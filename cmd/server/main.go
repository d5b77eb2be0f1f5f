package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nboxie/backend/internal/auth"
	"nboxie/backend/internal/auth/jwt"
	"nboxie/backend/internal/classifier"
	"nboxie/backend/internal/config"
	"nboxie/backend/internal/domain"
	"nboxie/backend/internal/health"
	"nboxie/backend/internal/inbox"
	"nboxie/backend/internal/logger"
	"nboxie/backend/internal/monitoring"
	"nboxie/backend/internal/service"
	"nboxie/backend/internal/storage/memory"
	"nboxie/backend/internal/storage/postgres"
	"nboxie/backend/internal/storage/redis"
	httptransport "nboxie/backend/internal/transport/http"
)

func main() {
	// 加载配置，凭据缺失视为致命错误，绝不带着残缺配置启动
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Log.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// 存储层：配置了 DSN 用 PostgreSQL，否则退回内存存储（开发用）
	var store domain.Store
	if cfg.Database.DSN != "" {
		pgStore, err := postgres.NewStore(&cfg.Database)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		store = pgStore
		log.Info("using postgres storage")
	} else {
		store = memory.NewStore()
		log.Warn("database.dsn not set, using in-memory storage (data will not persist)")
	}
	defer store.Close()

	// Redis 扫描标记缓存，可选
	var markerCache *redis.MarkerCache
	if cfg.Redis.Address != "" {
		markerCache, err = redis.NewMarkerCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer markerCache.Close()
		log.Info("scan marker cache enabled", zap.String("address", cfg.Redis.Address))
	}

	metrics := monitoring.NewMetrics()
	healthChecker := health.NewHealthChecker(store, log)

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	authService := auth.NewService(store)

	// 分类器：heuristic 纯本地正则，llm 调用 OpenAI。
	// 两者实现同一接口，扫描编排对选择无感知。
	var clf classifier.Classifier
	switch cfg.Scan.Classifier {
	case config.ClassifierLLM:
		llm := classifier.NewLLM(openai.NewClient(cfg.OpenAI.APIKey), cfg.OpenAI.Model, log)
		llm.SetMetrics(metrics)
		clf = llm
		log.Info("using llm classifier", zap.String("model", cfg.OpenAI.Model))
	default:
		clf = classifier.NewHeuristic(log)
		log.Info("using heuristic classifier")
	}

	extractor := inbox.NewExtractor(cfg.Scan.BodyLimit, log)
	creds := inbox.GmailCredentials{
		ClientID:     cfg.Gmail.ClientID,
		ClientSecret: cfg.Gmail.ClientSecret,
		RedirectURL:  cfg.Gmail.RedirectURL,
	}
	newSource := func(ctx context.Context, accessToken, refreshToken string) (inbox.Source, error) {
		return inbox.NewGmailSource(ctx, creds, accessToken, refreshToken, extractor, log)
	}

	var scanService *service.ScanService
	if markerCache != nil {
		scanService = service.NewScanService(store, markerCache, clf, cfg.Scan, metrics, log)
	} else {
		scanService = service.NewScanService(store, nil, clf, cfg.Scan, metrics, log)
	}
	defer scanService.Close()

	dealService := service.NewDealService(store, log)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Config:      cfg,
		AuthService: authService,
		JWTManager:  jwtManager,
		ScanService: scanService,
		DealService: dealService,
		NewSource:   newSource,
		Health:      healthChecker,
		Metrics:     metrics,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("server stopped")
}

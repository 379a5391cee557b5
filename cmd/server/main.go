package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mundo-dos-mangues/mangues-backend/api"
	"github.com/mundo-dos-mangues/mangues-backend/internal/game"
	"github.com/mundo-dos-mangues/mangues-backend/internal/gamification"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/config"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/database"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/health"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/logger"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/metrics"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/middleware"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/shutdown"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/startup"
	"github.com/mundo-dos-mangues/mangues-backend/internal/species"
	"github.com/mundo-dos-mangues/mangues-backend/internal/threat"
	"github.com/mundo-dos-mangues/mangues-backend/internal/user"
	"github.com/mundo-dos-mangues/mangues-backend/pkg/lifecycle"
	"github.com/mundo-dos-mangues/mangues-backend/pkg/token"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sweepInterval = time.Minute

func main() {
	// 1. 配置与日志
	cfg, err := config.Load()
	if err != nil {
		panic("无法加载配置: " + err.Error())
	}
	log := logger.New(cfg.Log.Level, cfg.IsProduction())
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. 数据库与Redis
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("无法连接PostgreSQL", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			// Redis只用于限流，启动时不可用则退回进程内限流器
			log.Warn("Redis连接失败，改用进程内限流", zap.Error(err))
		}
	}

	// 3. 启动SQL脚本与首次健康检查
	status := database.NewStatus(rdb != nil)
	checker := health.NewChecker(db, rdb, status, log)
	if err := startup.InitializeApplication(context.Background(), db, cfg.Database.BootstrapScript, checker, status, log); err != nil {
		log.Fatal("应用初始化失败，无法启动", zap.Error(err))
	}

	// 4. 后台服务
	manager := lifecycle.NewManager(log)
	healthHandle, err := manager.NewServiceHandle("health-checker")
	if err != nil {
		log.Fatal("无法注册健康检查器", zap.Error(err))
	}
	go checker.Run(healthHandle)

	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled {
		if rdb != nil {
			limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window, status.IsRedisHealthy)
		} else {
			memory := middleware.NewMemoryLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
			sweepHandle, err := manager.NewServiceHandle("rate-limit-sweeper")
			if err != nil {
				log.Fatal("无法注册限流清理器", zap.Error(err))
			}
			go memory.Run(sweepHandle, sweepInterval)
			limiter = memory
		}
		log.Info("限流已启用",
			zap.String("backend", limiter.Backend()),
			zap.Int("max", cfg.RateLimit.Max),
			zap.Duration("window", cfg.RateLimit.Window))
	}

	// 5. 领域服务
	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal("无法创建令牌签发器", zap.Error(err))
	}
	if issuer.Generated() {
		log.Warn("未配置JWT_SECRET，已随机生成密钥，重启后所有令牌失效")
	}

	userSvc, err := user.NewService(user.NewRepository(db), issuer, cfg.Auth.BcryptCost, log)
	if err != nil {
		log.Fatal("无法创建用户服务", zap.Error(err))
	}
	gamificationSvc := gamification.NewService(gamification.NewRepository(db), userSvc, cfg.Gamification, log)
	userSvc.SetLoginObserver(gamificationSvc)

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	gameSvc := game.NewService(game.NewRepository(db), rng, log)

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("无法获取底层连接池", zap.Error(err))
	}
	if err := metrics.RegisterDBStats(sqlDB, cfg.Database.Name); err != nil {
		log.Warn("无法注册连接池指标", zap.Error(err))
	}

	// 6. HTTP
	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		log.Fatal("无法配置可信代理", zap.Error(err))
	}
	router.Use(
		middleware.Recovery(cfg.IsProduction(), log),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.ErrorRenderer(cfg.IsProduction(), log),
	)

	var apiMiddleware []gin.HandlerFunc
	if limiter != nil {
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(limiter, log))
	}
	api.SetupRoutes(router, api.Handlers{
		Species:      species.NewHandler(species.NewRepository(db)),
		Threat:       threat.NewHandler(threat.NewRepository(db)),
		Game:         game.NewHandler(gameSvc, cfg.Game),
		User:         user.NewHandler(userSvc),
		Gamification: gamification.NewHandler(gamificationSvc),
		Health:       health.Handler(status, cfg.Server.Environment),
	}, issuer, apiMiddleware...)

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("服务器已准备就绪",
			zap.String("address", cfg.Server.Address),
			zap.String("environment", cfg.Server.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 7. 优雅停机：HTTP -> 后台服务 -> Redis -> PostgreSQL
	resources := []shutdown.Resource{{Name: "postgres", Close: func() error { return database.Close(db) }}}
	if rdb != nil {
		resources = append(resources, shutdown.Resource{Name: "redis", Close: rdb.Close})
	}
	shutdown.NewCoordinator(manager, log, resources...).ListenForSignalsAndShutdown(server, serverErr)
}

package app

import (
	"context"
	"ielts_exam_backend/internal/config"
	"ielts_exam_backend/internal/controller"
	"ielts_exam_backend/internal/repository"
	"ielts_exam_backend/internal/service"
	"ielts_exam_backend/pkg/cache"
	"ielts_exam_backend/pkg/configwatcher"
	"ielts_exam_backend/pkg/database"
	"ielts_exam_backend/pkg/locker"
	"ielts_exam_backend/pkg/logger"
	"ielts_exam_backend/pkg/monitoring"
	"ielts_exam_backend/pkg/security"
	"ielts_exam_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	stop            context.CancelFunc
	bgCtx           context.Context
	configCallbacks []func(*config.Config)
}

type repositories struct {
	test    *repository.TestRepository
	session *repository.SessionRepository
	result  *repository.ResultRepository
}

type services struct {
	session *service.SessionService
	result  *service.ResultService
}

type controllers struct {
	session *controller.SessionController
	grade   *controller.GradeController
	result  *controller.ResultController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		test:    repository.NewTestRepository(db),
		session: repository.NewSessionRepository(db),
		result:  repository.NewResultRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}
	clock := service.SystemClock
	newID := service.UUIDGenerator

	// 多实例部署时用 redis 锁，否则进程内锁即可；session 与 result 共用
	var lk locker.Locker
	var resultCache cache.ResultCache
	if rdb != nil {
		lk = locker.NewRedisLocker(rdb, cfg.Scoring.LockTTL(), cfg.Scoring.LockWait())
		resultCache = cache.NewResultCache(rdb, cfg.Scoring.ResultCacheTTL())
	} else {
		lk = locker.NewLocalLocker()
	}

	s.result = service.NewResultService(repos.session, repos.result, resultCache, lk, clock, newID, cfg.Scoring.RematerializeWorkers)
	s.session = service.NewSessionService(
		repos.session,
		repos.test,
		s.result,
		lk,
		clock,
		newID,
		cfg.Scoring.DefaultTotalItems,
	)
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		session: controller.NewSessionController(s.session),
		grade:   controller.NewGradeController(s.session),
		result:  controller.NewResultController(s.result, s.session),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	if cfg.RateLimit.MaxRequests > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	interval := time.Duration(a.Config.Scoring.RematerializeIntervalMinutes) * time.Minute
	if interval > 0 {
		logger.Log.Info("Result rematerializer started", zap.Duration("interval", interval))
		go s.result.RunRematerializer(a.bgCtx, interval)
	}

	if a.Config.ConfigFile != "" {
		go func() {
			err := configwatcher.Watch(a.bgCtx, a.Config.ConfigFile, func(newCfg *config.Config) {
				for _, cb := range a.configCallbacks {
					cb(newCfg)
				}
			})
			if err != nil {
				logger.Log.Error("配置监听启动失败", zap.Error(err))
			}
		}()
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb
	app.bgCtx, app.stop = context.WithCancel(context.Background())

	gin.SetMode(cfg.Server.Mode)

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetMode(newCfg.Server.Mode)
	})
	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 停止后台重算与配置监听
	if a.stop != nil {
		a.stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}

package app

import (
	"context"
	"learn_with_me_client/internal/api"
	"learn_with_me_client/internal/config"
	"learn_with_me_client/internal/controller"
	"learn_with_me_client/internal/middleware"
	"learn_with_me_client/internal/repository"
	"learn_with_me_client/internal/service"
	"learn_with_me_client/internal/store"
	"learn_with_me_client/pkg/configwatcher"
	"learn_with_me_client/pkg/database"
	"learn_with_me_client/pkg/logger"
	"learn_with_me_client/pkg/monitoring"
	"learn_with_me_client/pkg/security"
	"learn_with_me_client/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	session *repository.SessionRepository
}

type services struct {
	sessionStore *store.SessionStore
	courseStore  *store.CourseStore

	auth     *service.AuthService
	course   *service.CourseService
	progress *service.ProgressService
	playback *service.PlaybackService
	media    *service.MediaService
}

type controllers struct {
	auth     *controller.AuthController
	course   *controller.CourseController
	progress *controller.ProgressController
	playback *controller.PlaybackController
	media    *controller.MediaController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		session: repository.NewSessionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{
		sessionStore: store.NewSessionStore(),
		courseStore:  store.NewCourseStore(),
	}

	client := api.NewClient(&cfg.API, s.sessionStore)

	media, err := service.NewMediaService(&cfg.Storage)
	if err != nil {
		logger.Log.Fatal("Failed to initialize media storage", zap.Error(err))
	}
	s.media = media

	s.auth = service.NewAuthService(client, s.sessionStore, repos.session)
	s.course = service.NewCourseService(client, s.courseStore, service.NewTimerScheduler(), cfg.Retry)
	s.progress = service.NewProgressService(client, s.courseStore, s.auth, cfg.Playback.CompletionThreshold)
	s.playback = service.NewPlaybackService(s.progress, s.media, cfg.Playback.ReportInterval(), cfg.Playback.CompletionThreshold)

	// 重启后恢复上次的登录状态
	s.auth.RestoreSession()

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		course:   controller.NewCourseController(s.course),
		progress: controller.NewProgressController(s.progress),
		playback: controller.NewPlaybackController(s.playback),
		media:    controller.NewMediaController(s.media),
		health:   controller.NewHealthController(db, a.Config.API.GraphQLURL),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
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

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db)

	// 存储配置热更新
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		if err := services.media.Reload(&newCfg.Storage); err != nil {
			logger.Log.Error("Failed to reload media storage", zap.Error(err))
		}
	})

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("learn-with-me-client", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, services)

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	if a.Config.ConfigPath == "" {
		return
	}
	go func() {
		err := configwatcher.WatchConfig(ctx, a.Config.ConfigPath, func(newCfg *config.Config) {
			for _, callback := range a.configCallbacks {
				callback(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	a.watchConfig(watchCtx)

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

	// 关闭播放会话，补报最后的观看位置
	if a.services != nil && a.services.playback != nil {
		a.services.playback.CloseAll()
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

	log.Println("Server exiting")
}

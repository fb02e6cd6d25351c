package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flashdecks_backend/internal/config"
	"flashdecks_backend/internal/controller"
	"flashdecks_backend/internal/repository"
	"flashdecks_backend/internal/service"
	"flashdecks_backend/pkg/configwatcher"
	"flashdecks_backend/pkg/database"
	"flashdecks_backend/pkg/logger"
	"flashdecks_backend/pkg/monitoring"
	"flashdecks_backend/pkg/security"
	"flashdecks_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	deck       *repository.DeckRepository
	card       *repository.CardRepository
	study      *repository.StudyRepository
	flagged    *repository.FlaggedCardRepository
	examBuffer *repository.ExamBufferRepository
}

type services struct {
	storage service.StorageProvider
	llm     *service.LLMService
	grader  *service.GraderService
	study   *service.StudyService
	exam    *service.ExamService
	auth    *service.AuthService
	user    *service.UserService
	deck    *service.DeckService
	card    *service.CardService
	flagged *service.FlaggedCardService
	aiDeck  *service.AIDeckService
}

type controllers struct {
	auth    *controller.AuthController
	user    *controller.UserController
	deck    *controller.DeckController
	card    *controller.CardController
	study   *controller.StudyController
	flagged *controller.FlaggedCardController
	aiDeck  *controller.AIDeckController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	bufferTTL := time.Duration(cfg.Study.ExamBufferTTLHours) * time.Hour
	return &repositories{
		user:       repository.NewUserRepository(db),
		deck:       repository.NewDeckRepository(db),
		card:       repository.NewCardRepository(db),
		study:      repository.NewStudyRepository(db),
		flagged:    repository.NewFlaggedCardRepository(db),
		examBuffer: repository.NewExamBufferRepository(rdb, bufferTTL),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	storage, err := service.NewStorageProvider(&cfg.Storage)
	if err != nil {
		logger.Log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	s.storage = storage

	s.llm = service.NewLLMService(cfg.AI)
	s.grader = service.NewGraderService(s.llm)

	s.study = service.NewStudyService(repos.card, repos.study, repos.flagged, repos.user, s.grader, repos.examBuffer)
	s.study.MaxCards = cfg.Study.MaxSessionCards
	s.exam = service.NewExamService(s.study, s.grader, repos.examBuffer)

	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.deck = service.NewDeckService(repos.deck, repos.card)
	s.card = service.NewCardService(repos.card, repos.deck)
	s.flagged = service.NewFlaggedCardService(repos.flagged, repos.card, repos.deck)
	s.aiDeck = service.NewAIDeckService(s.llm, repos.deck, repos.card, s.storage)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		user:    controller.NewUserController(s.user),
		deck:    controller.NewDeckController(s.deck),
		card:    controller.NewCardController(s.card),
		study:   controller.NewStudyController(s.study, s.exam),
		flagged: controller.NewFlaggedCardController(s.flagged),
		aiDeck:  controller.NewAIDeckController(s.aiDeck),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Log.Info("Database migration completed")
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		_, err := tracing.InitTracer("flashdecks-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		logger.Log.Info("Config reloaded")
		a.Config = newCfg
		for _, callback := range a.configCallbacks {
			callback(newCfg)
		}
	})

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}

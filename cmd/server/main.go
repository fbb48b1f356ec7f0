package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"rapex.backend/internal/config"
	"rapex.backend/internal/infrastructure/email"
	"rapex.backend/internal/infrastructure/jobs"
	"rapex.backend/internal/infrastructure/repositories"
	"rapex.backend/internal/infrastructure/storage"
	"rapex.backend/internal/interfaces/http/handlers"
	"rapex.backend/internal/interfaces/http/middleware"
	"rapex.backend/internal/usecases"
	"rapex.backend/pkg/jwt"
	"rapex.backend/pkg/logger"
	"rapex.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := loadCfg()

	// Initialize Logger
	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis
	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	// Initialize repositories
	merchantRepo := repositories.NewMerchantRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize infrastructure services
	otpStore := redis.NewOTPStore(cfg.OTP.CodeTTL, cfg.OTP.VerifiedTTL)
	documentStorage := storage.NewLocalStorage(cfg.Storage.Root)
	emailSender := email.NewSMTPSender(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.From,
	)

	// Initialize usecases
	registrationUsecase := usecases.NewRegistrationUsecase(merchantRepo, uow, documentStorage, emailSender)
	authUsecase := usecases.NewAuthUsecase(merchantRepo, jwtService)
	passwordResetUsecase := usecases.NewPasswordResetUsecase(merchantRepo, otpStore, emailSender)

	// Initialize handlers
	registrationHandler := handlers.NewRegistrationHandler(registrationUsecase)
	authHandler := handlers.NewAuthHandler(authUsecase)
	passwordResetHandler := handlers.NewPasswordResetHandler(passwordResetUsecase)

	authMiddleware := middleware.AuthMiddleware(jwtService)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cleanupJob *jobs.RegistrationCleanupJob
	if cfg.Cleanup.Enabled {
		cleanupJob = jobs.NewRegistrationCleanupJob(merchantRepo, cfg.Cleanup.Interval, cfg.Cleanup.MaxAge)
		go cleanupJob.Start(ctx)
	}

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		registrationHandler:  registrationHandler,
		authHandler:          authHandler,
		passwordResetHandler: passwordResetHandler,
		authMiddleware:       authMiddleware,
	})

	// Print all registered routes for debugging
	log.Println("📋 Registered Routes:")
	for _, route := range r.Routes() {
		log.Printf("   %s %s", route.Method, route.Path)
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		if cleanupJob != nil {
			cleanupJob.Stop()
		}
		cancel()
	}()

	// Start server
	log.Printf("🚀 Rapex Merchant Backend starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

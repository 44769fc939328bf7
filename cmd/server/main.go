package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shareit-rental/service-shareit/internal/application"
	"github.com/shareit-rental/service-shareit/internal/common/database"
	"github.com/shareit-rental/service-shareit/internal/common/health"
	"github.com/shareit-rental/service-shareit/internal/common/kafka"
	"github.com/shareit-rental/service-shareit/internal/common/logger"
	"github.com/shareit-rental/service-shareit/internal/common/metrics"
	"github.com/shareit-rental/service-shareit/internal/common/middleware"
	"github.com/shareit-rental/service-shareit/internal/config"
	bookingDomain "github.com/shareit-rental/service-shareit/internal/domain/booking"
	itemDomain "github.com/shareit-rental/service-shareit/internal/domain/item"
	requestDomain "github.com/shareit-rental/service-shareit/internal/domain/request"
	userDomain "github.com/shareit-rental/service-shareit/internal/domain/user"
	"github.com/shareit-rental/service-shareit/internal/events"
	"github.com/shareit-rental/service-shareit/internal/handler"
	"github.com/shareit-rental/service-shareit/internal/repository"
	"github.com/shareit-rental/service-shareit/internal/repository/memory"
)

// stores groups the repositories behind one storage driver.
type stores struct {
	users    userDomain.UserRepository
	items    itemDomain.ItemRepository
	comments itemDomain.CommentRepository
	bookings bookingDomain.BookingRepository
	requests requestDomain.ItemRequestRepository
	tx       application.TxManager
	pinger   health.Pinger
	close    func()
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-shareit")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-shareit",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageDriver),
	)

	var st *stores
	if cfg.StorageDriver == config.StorageMemory {
		st = memoryStores()
	} else {
		st = postgresStores(cfg, log)
	}
	defer st.close()

	// Cache item reads in Redis when configured
	if cfg.RedisConfig.Enabled() {
		redisClient := repository.NewRedisClient(cfg.RedisConfig)
		defer func() { _ = redisClient.Close() }()
		st.users = repository.NewItemEvictingUserRepository(st.users, st.items, st.requests, redisClient, log)
		st.items = repository.NewCachedItemRepository(st.items, redisClient, cfg.RedisConfig.TTL, log)
		log.Info("item cache enabled", zap.String("addr", cfg.RedisConfig.Addr))
	}

	// Initialize event publisher
	var publisher application.EventPublisher = events.NopPublisher{}
	if cfg.KafkaConfig.Enabled() {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = events.NewKafkaPublisher(kafkaProducer, cfg.KafkaConfig.Topic, log)
	} else {
		log.Warn("no kafka brokers configured, booking events are dropped")
	}

	// Initialize application services
	bookingService := application.NewBookingService(st.bookings, st.items, st.users, st.tx, publisher, log)
	itemService := application.NewItemService(st.items, st.comments, st.bookings, st.users, st.requests, st.tx, log)
	userService := application.NewUserService(st.users, st.tx, log)
	requestService := application.NewItemRequestService(st.requests, st.items, st.users, st.tx, log)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	metrics.Register()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(metrics.GinMiddleware())

	// Register health check and metrics routes
	health.NewHandler(st.pinger, "service-shareit").RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Register routes
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup)
	handler.NewItemHandler(itemService).RegisterRoutes(&router.RouterGroup)
	handler.NewUserHandler(userService).RegisterRoutes(&router.RouterGroup)
	handler.NewItemRequestHandler(requestService).RegisterRoutes(&router.RouterGroup)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-shareit...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-shareit stopped")
}

func memoryStores() *stores {
	store := memory.NewStore()
	return &stores{
		users:    memory.NewUserRepository(store),
		items:    memory.NewItemRepository(store),
		comments: memory.NewCommentRepository(store),
		bookings: memory.NewBookingRepository(store),
		requests: memory.NewItemRequestRepository(store),
		tx:       memory.NewTxManager(store),
		pinger:   store,
		close:    func() {},
	}
}

func postgresStores(cfg *config.ServiceConfig, log *zap.Logger) *stores {
	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := repository.AutoMigrate(db); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", zap.Error(err))
	}

	return &stores{
		users:    repository.NewGormUserRepository(db),
		items:    repository.NewGormItemRepository(db),
		comments: repository.NewGormCommentRepository(db),
		bookings: repository.NewGormBookingRepository(db),
		requests: repository.NewGormItemRequestRepository(db),
		tx:       repository.NewTxManager(db, log),
		pinger:   sqlDB,
		close:    func() { _ = sqlDB.Close() },
	}
}

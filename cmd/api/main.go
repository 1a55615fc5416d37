package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/vertiljivenson9/Project-prey/internal/assembler"
	"github.com/vertiljivenson9/Project-prey/internal/auth"
	"github.com/vertiljivenson9/Project-prey/internal/config"
	v1 "github.com/vertiljivenson9/Project-prey/internal/controller/http/v1"
	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
	"github.com/vertiljivenson9/Project-prey/internal/domain/usecase"
	psqlRepo "github.com/vertiljivenson9/Project-prey/internal/repository/psql"
	rabbitRepo "github.com/vertiljivenson9/Project-prey/internal/repository/rabbitmq"
	redisRepo "github.com/vertiljivenson9/Project-prey/internal/repository/redis"
	s3Repo "github.com/vertiljivenson9/Project-prey/internal/repository/s3"
	psqlClient "github.com/vertiljivenson9/Project-prey/pkg/client/psql"
	redisClient "github.com/vertiljivenson9/Project-prey/pkg/client/redis"
	s3Client "github.com/vertiljivenson9/Project-prey/pkg/client/s3"
	"github.com/vertiljivenson9/Project-prey/pkg/middleware"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisClient.NewRedisClient(ctx, redisClient.Config{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}

	db, err := psqlClient.NewPostgresDB(psqlClient.Config{
		Host:     cfg.PSQLHost,
		Port:     cfg.PSQLPort,
		User:     cfg.PSQLUser,
		Password: cfg.PSQLPassword,
		DBName:   cfg.PSQLDBName,
		SslMode:  cfg.PSQLSSLMode,
	})
	if err != nil {
		log.Fatal("postgres connection failed", zap.Error(err))
	}
	if err := db.AutoMigrate(&entity.ProjectHistory{}); err != nil {
		log.Fatal("postgres migration failed", zap.Error(err))
	}

	storage, err := s3Client.NewS3Client(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		log.Fatal("s3 client failed", zap.Error(err))
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal("rabbitmq connection failed", zap.Error(err))
	}
	defer conn.Close()

	publisher, err := rabbitRepo.NewProjectPublisher(conn, "projects.exchange", "projects.generate")
	if err != nil {
		log.Fatal("publisher init failed", zap.Error(err))
	}

	projects := redisRepo.NewProjectRepo(rdb, cfg.ProjectTTL)
	tokens := redisRepo.NewTokenRepo(rdb, auth.TokenTTL)
	history := psqlRepo.NewGormHistoryRepo(db)
	archives := s3Repo.NewS3Repo(storage)
	asm := assembler.New(cfg.StorageRoot)

	uc := usecase.NewProjectUseCase(projects, history, publisher, log)

	projectHandler := v1.NewProjectHandler(uc, archives)
	previewHandler := v1.NewPreviewHandler(uc, asm)
	authHandler := v1.NewAuthHandler(cfg.JWTSecret, tokens)

	r := gin.Default()
	r.Use(middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RedisClient: rdb,
		Limit:       cfg.RateLimit,
		Window:      cfg.RateLimitWindow,
	}))

	r.GET("/health", func(c *gin.Context) {
		status := "connected"
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			status = "disconnected"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"redis":     status,
		})
	})

	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/verify", authHandler.Verify)
		authGroup.POST("/logout", middleware.JWTAuthMiddleware(cfg.JWTSecret, tokens), authHandler.Logout)
	}

	authorized := r.Group("/api/v1", middleware.JWTAuthMiddleware(cfg.JWTSecret, tokens))
	{
		authorized.POST("/projects", projectHandler.CreateProject)
		authorized.GET("/projects/:project_id/status", projectHandler.GetStatus)
		authorized.GET("/projects/:project_id/download", projectHandler.Download)
		authorized.GET("/preview/:project_id", previewHandler.GetPreview)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("api server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down api server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}

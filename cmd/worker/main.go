package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/vertiljivenson9/Project-prey/internal/assembler"
	"github.com/vertiljivenson9/Project-prey/internal/config"
	"github.com/vertiljivenson9/Project-prey/internal/domain/usecase"
	"github.com/vertiljivenson9/Project-prey/internal/generator"
	psqlRepo "github.com/vertiljivenson9/Project-prey/internal/repository/psql"
	rabbitRepo "github.com/vertiljivenson9/Project-prey/internal/repository/rabbitmq"
	redisRepo "github.com/vertiljivenson9/Project-prey/internal/repository/redis"
	s3Repo "github.com/vertiljivenson9/Project-prey/internal/repository/s3"
	psqlClient "github.com/vertiljivenson9/Project-prey/pkg/client/psql"
	redisClient "github.com/vertiljivenson9/Project-prey/pkg/client/redis"
	s3Client "github.com/vertiljivenson9/Project-prey/pkg/client/s3"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

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

	storage, err := s3Client.NewS3Client(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		log.Fatal("s3 client failed", zap.Error(err))
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal("rabbitmq connection failed", zap.Error(err))
	}
	defer conn.Close()

	projects := redisRepo.NewProjectRepo(rdb, cfg.ProjectTTL)
	history := psqlRepo.NewGormHistoryRepo(db)
	archives := s3Repo.NewS3Repo(storage)
	records := redisRepo.NewQueueRecords(rdb, cfg.QueueKeepCount)
	asm := assembler.New(cfg.StorageRoot)

	pipeline := usecase.NewPipelineUseCase(projects, history, generator.StaticSiteGenerator{}, asm, archives, log)

	consumer, err := rabbitRepo.NewPipelineConsumer(conn, "projects.exchange", "projects.generate", "projects.generate.q", pipeline, records, log)
	if err != nil {
		log.Fatal("consumer init failed", zap.Error(err))
	}

	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Fatal("consumer stopped with error", zap.Error(err))
		}
	}()

	log.Info("pipeline worker started")
	<-sigCh
	log.Info("shutting down pipeline worker")
	cancel()
	time.Sleep(time.Second)
}

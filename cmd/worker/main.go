package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"memoir-server/internal/config"
	"memoir-server/internal/messaging"
	"memoir-server/internal/repository"
	"memoir-server/internal/service"
	"memoir-server/internal/worker"
	"memoir-server/pkg/ai"
	"memoir-server/pkg/database"
	"memoir-server/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Воркер полной генерации: читает задачи из очереди, генерирует 10 глав,
// заменяет содержимое истории и публикует клиентское обновление.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogFormat})
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer log.Sync()
	log = log.Named("MemoirWorker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPool(ctx, cfg.GetDSN(), cfg.DBMaxConns, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	amqpConn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer amqpConn.Close()

	aiClient, err := ai.New(ai.Config{
		APIKey:     cfg.AIAPIKey,
		BaseURL:    cfg.AIBaseURL,
		ModelName:  cfg.AIModelName,
		Timeout:    cfg.AITimeout,
		MaxRetries: cfg.AIMaxRetries,
	})
	if err != nil {
		log.Fatal("Failed to init AI client", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(dbPool, log)
	storyRepo, err := repository.NewPgStoryRepository(dbPool, userRepo, repository.ShareURLConfig{
		BaseURL:     cfg.ShareBaseURL,
		HashidsSalt: cfg.ShareHashidsSalt,
	}, log)
	if err != nil {
		log.Fatal("Failed to init story repository", zap.Error(err))
	}

	updatesPublisher, err := messaging.NewRabbitMQPublisher(amqpConn, cfg.ClientUpdatesQueue, log)
	if err != nil {
		log.Fatal("Failed to create updates publisher", zap.Error(err))
	}
	defer updatesPublisher.Close()

	// Полная генерация не кеширует результаты.
	generationService := service.NewGenerationService(aiClient, nil, log)
	taskHandler := worker.NewTaskHandler(generationService, storyRepo, updatesPublisher, log)

	consumer, err := messaging.NewConsumer(amqpConn, cfg.GenerationTaskQueue, taskHandler.Handle, log)
	if err != nil {
		log.Fatal("Failed to create task consumer", zap.Error(err))
	}
	defer consumer.Close()

	// Метрики воркера.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		addr := ":" + cfg.ServerPort
		log.Info("Worker metrics listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", zap.Error(err))
		}
	}()

	log.Info("Worker started", zap.String("queue", cfg.GenerationTaskQueue))
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Consumer failed", zap.Error(err))
	}
	log.Info("Worker stopped")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	memoirserver "memoir-server"
	"memoir-server/internal/auth"
	"memoir-server/internal/config"
	"memoir-server/internal/handler"
	"memoir-server/internal/messaging"
	"memoir-server/internal/repository"
	"memoir-server/internal/service"
	"memoir-server/internal/ws"
	"memoir-server/pkg/ai"
	"memoir-server/pkg/database"
	"memoir-server/pkg/logger"
	"memoir-server/pkg/migration"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Логгер еще не создан.
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogFormat})
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer log.Sync()
	log = log.Named("MemoirServer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL + миграции
	dbPool, err := database.NewPool(ctx, cfg.GetDSN(), cfg.DBMaxConns, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	migrator := migration.NewMigrator(memoirserver.MigrationsFS, memoirserver.MigrationsPath, dbPool, log)
	if err := migrator.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Redis (кеш превью)
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// Кеш не критичен для работы сервера.
		log.Warn("Redis unavailable, preview cache disabled", zap.Error(err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			redisClient.Close()
		}
	}()

	// RabbitMQ (задачи полной генерации + клиентские обновления)
	var (
		taskPublisher messaging.TaskPublisher
		amqpConn      *amqp.Connection
	)
	amqpConn, err = amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Warn("RabbitMQ unavailable, full generation disabled", zap.Error(err))
	} else {
		defer amqpConn.Close()
		publisher, err := messaging.NewRabbitMQPublisher(amqpConn, cfg.GenerationTaskQueue, log)
		if err != nil {
			log.Fatal("Failed to create task publisher", zap.Error(err))
		}
		defer publisher.Close()
		taskPublisher = publisher
	}

	// Firebase
	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseCredentialsFile, log)
	if err != nil {
		log.Fatal("Failed to init firebase verifier", zap.Error(err))
	}

	// AI клиент
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

	// Репозитории
	userRepo := repository.NewPgUserRepository(dbPool, log)
	storyRepo, err := repository.NewPgStoryRepository(dbPool, userRepo, repository.ShareURLConfig{
		BaseURL:     cfg.ShareBaseURL,
		HashidsSalt: cfg.ShareHashidsSalt,
	}, log)
	if err != nil {
		log.Fatal("Failed to init story repository", zap.Error(err))
	}

	var previewCache repository.PreviewCache
	if redisClient != nil {
		previewCache = repository.NewRedisPreviewCache(redisClient, cfg.PreviewCacheTTL, log)
	}

	reclaimIssuer, err := auth.NewReclaimTokenIssuer(cfg.ReclaimTokenSecret, cfg.ReclaimTokenTTL)
	if err != nil {
		log.Fatal("Failed to init reclaim token issuer", zap.Error(err))
	}

	// Сервисы и HTTP
	generationService := service.NewGenerationService(aiClient, previewCache, log)
	storyService := service.NewStoryService(storyRepo, userRepo, taskPublisher, reclaimIssuer, log)
	wsManager := ws.NewManager(log)

	apiHandler := handler.NewAPIHandler(generationService, storyService, verifier, wsManager, log)
	router := handler.NewRouter(apiHandler, cfg.GetAllowedOrigins(), log)

	// Консьюмер клиентских обновлений: доставляет уведомления воркера
	// подключенным websocket-клиентам.
	if amqpConn != nil {
		updatesConsumer, err := messaging.NewConsumer(amqpConn, cfg.ClientUpdatesQueue, func(ctx context.Context, body []byte) error {
			update, err := messaging.ParseClientUpdate(body)
			if err != nil {
				return err
			}
			if !wsManager.SendToUser(update.UserID, body) {
				log.Debug("Client offline, update dropped", zap.String("userID", update.UserID))
			}
			return nil
		}, log)
		if err != nil {
			log.Fatal("Failed to create updates consumer", zap.Error(err))
		}
		defer updatesConsumer.Close()
		go func() {
			if err := updatesConsumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Updates consumer stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}

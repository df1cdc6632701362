package handler

import (
	"net/http"
	"time"

	"memoir-server/internal/auth"
	"memoir-server/internal/service"
	"memoir-server/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// APIHandler обрабатывает HTTP-запросы memoir-сервера.
type APIHandler struct {
	generation *service.GenerationService
	stories    *service.StoryService
	verifier   auth.TokenVerifier
	wsManager  *ws.Manager
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewAPIHandler создает APIHandler.
func NewAPIHandler(
	generation *service.GenerationService,
	stories *service.StoryService,
	verifier auth.TokenVerifier,
	wsManager *ws.Manager,
	logger *zap.Logger,
) *APIHandler {
	return &APIHandler{
		generation: generation,
		stories:    stories,
		verifier:   verifier,
		wsManager:  wsManager,
		httpClient: resty.New().SetTimeout(150 * time.Second),
		logger:     logger.Named("APIHandler"),
	}
}

// NewRouter собирает gin-движок со всеми middleware и маршрутами.
func NewRouter(h *APIHandler, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	// Необработанная паника сводится к 500 с фиксированным сообщением.
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered in handler", zap.Any("panic", recovered))
		respondError(c, http.StatusInternalServerError, msgInternalError)
	}))
	router.Use(ZapLoggingMiddleware(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	prom := ginprometheus.NewPrometheus("memoir")
	prom.Use(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/questions", h.getQuestions)
		api.POST("/generate", h.generate)
		api.POST("/generate-preview", h.generatePreview)
		api.POST("/save-story", h.saveStory)
		api.GET("/stories/:id", h.getStory)

		authed := api.Group("")
		authed.Use(FirebaseAuthMiddleware(h.verifier, true, logger))
		{
			authed.GET("/stories", h.listStories)
			authed.POST("/stories/:id/generate-full", h.requestFullGeneration)
		}
	}

	router.GET("/ws", h.serveWS)

	return router
}

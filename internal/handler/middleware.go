package handler

import (
	"net/http"
	"strings"
	"time"

	"memoir-server/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FirebaseAuthMiddleware проверяет Bearer ID-токен и кладет Session в
// контекст запроса. required=false пропускает запросы без токена дальше
// с пустой сессией.
func FirebaseAuthMiddleware(verifier auth.TokenVerifier, required bool, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				respondError(c, http.StatusUnauthorized, msgLoginRequired)
				return
			}
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			respondError(c, http.StatusUnauthorized, msgLoginRequired)
			return
		}

		session, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			log.Debug("Token verification failed", zap.Error(err))
			respondError(c, http.StatusUnauthorized, msgLoginRequired)
			return
		}

		c.Set(auth.ContextKey, session)
		c.Next()
	}
}

// SessionFromContext достает Session, положенную auth middleware.
func SessionFromContext(c *gin.Context) *auth.Session {
	value, ok := c.Get(auth.ContextKey)
	if !ok {
		return nil
	}
	session, _ := value.(*auth.Session)
	return session
}

// ZapLoggingMiddleware логирует запросы; /health и /metrics пропускаются.
func ZapLoggingMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		c.Next()

		latency := time.Since(start)
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		requestID := c.Writer.Header().Get("X-Request-ID")
		if requestID == "" {
			requestID = c.GetHeader("X-Request-ID")
		}
		if requestID == "" {
			requestID = uuid.NewString()
			c.Header("X-Request-ID", requestID)
		}

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.String("request_id", requestID),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("HTTP request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

package handler

import (
	"net/http"

	"memoir-server/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Происхождение запросов фильтрует CORS-слой; сюда уже доходят
	// только разрешенные origin'ы.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveWS апгрейдит соединение и регистрирует клиента в менеджере.
// Идентичность берется из Firebase ID-токена в query-параметре token:
// браузерный WebSocket API не умеет ставить Authorization-заголовок.
func (h *APIHandler) serveWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, http.StatusUnauthorized, msgLoginRequired)
		return
	}

	session, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		respondError(c, http.StatusUnauthorized, msgLoginRequired)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	userID := session.UID
	h.wsManager.Register(ws.NewClient(userID, conn))
}

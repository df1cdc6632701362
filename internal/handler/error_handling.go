package handler

import (
	"errors"
	"net/http"

	"memoir-server/internal/models"

	"github.com/gin-gonic/gin"
)

// Пользовательские сообщения фиксированы и локализованы под язык
// интерфейса приложения.
const (
	msgInvalidAnswers   = "유효한 답변이 필요합니다"
	msgGenerationFailed = "자서전 생성 중 오류가 발생했습니다"
	msgInvalidContent   = "유효한 자서전 내용이 필요합니다"
	msgSaveFailed       = "자서전 저장에 실패했습니다"
	msgStoryNotFound    = "자서전을 찾을 수 없습니다"
	msgLoginRequired    = "로그인이 필요합니다"
	msgAccessDenied     = "접근 권한이 없습니다"
	msgPaymentRequired  = "결제 후 이용할 수 있습니다"
	msgInternalError    = "요청 처리 중 오류가 발생했습니다"
)

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: message})
}

// mapStoryError переводит ошибки сервисного слоя в HTTP-статусы.
func mapStoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrStoryNotFound):
		respondError(c, http.StatusNotFound, msgStoryNotFound)
	case errors.Is(err, models.ErrUserNotFound):
		respondError(c, http.StatusNotFound, msgStoryNotFound)
	case errors.Is(err, models.ErrStoryAccessDenied):
		respondError(c, http.StatusForbidden, msgAccessDenied)
	case errors.Is(err, models.ErrStoryNotPaid):
		respondError(c, http.StatusPaymentRequired, msgPaymentRequired)
	default:
		respondError(c, http.StatusInternalServerError, msgInternalError)
	}
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"memoir-server/internal/catalog"
	"memoir-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getQuestions возвращает каталог вопросов: превью-подмножество и
// дополнительные вопросы полной анкеты.
func (h *APIHandler) getQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, questionsResponse{
		Preview: catalog.Preview(),
		Full:    catalog.Full(),
	})
}

// generate - внутренняя точка генерации: принимает режим и ответы,
// строит промпт и спрашивает нейросеть. Отказ генерации по историческому
// контракту отдается как 200 с фиксированным fallback-текстом.
func (h *APIHandler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidAnswers)
		return
	}
	if !req.Type.Valid() {
		respondError(c, http.StatusBadRequest, msgInvalidAnswers)
		return
	}
	answers, ok := decodeAnswers(req.Answers)
	if !ok {
		respondError(c, http.StatusBadRequest, msgInvalidAnswers)
		return
	}

	content, err := h.generation.Generate(c.Request.Context(), req.Type, answers)
	if err != nil {
		// Вид отказа уже залогирован сервисом; клиент получает fallback.
		content = msgGenerationFailed
	}
	c.JSON(http.StatusOK, generateResponse{Content: content})
}

// generatePreview валидирует ответы и пересылает их на сиблинговую точку
// /api/generate, разрешенную относительно origin входящего запроса.
func (h *APIHandler) generatePreview(c *gin.Context) {
	var req generatePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidAnswers)
		return
	}
	answers, ok := decodeAnswers(req.Answers)
	if !ok {
		respondError(c, http.StatusBadRequest, msgInvalidAnswers)
		return
	}

	url := h.generateURL(c)
	h.logger.Debug("Forwarding preview generation",
		zap.String("url", url),
		zap.Int("answers", len(answers)))

	resp, err := h.httpClient.R().
		SetContext(c.Request.Context()).
		SetHeader("Content-Type", "application/json").
		SetBody(generateForwardRequest{Type: models.ModePreview, Answers: answers}).
		Post(url)
	if err != nil {
		h.logger.Error("Downstream generate call failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgGenerationFailed)
		return
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		// Перекидываем вниз полученную ошибку с тем же статусом.
		message := msgGenerationFailed
		var downstream models.ErrorResponse
		if jsonErr := json.Unmarshal(resp.Body(), &downstream); jsonErr == nil && downstream.Error != "" {
			message = downstream.Error
		}
		h.logger.Warn("Downstream generate returned error",
			zap.Int("status", resp.StatusCode()),
			zap.String("message", message))
		respondError(c, resp.StatusCode(), message)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", resp.Body())
}

// generateURL строит адрес сиблинговой точки генерации от origin
// входящего запроса: сервис не знает своего внешнего адреса заранее.
func (h *APIHandler) generateURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s/api/generate", scheme, c.Request.Host)
}

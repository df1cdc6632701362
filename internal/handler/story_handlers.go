package handler

import (
	"errors"
	"net/http"

	"memoir-server/internal/models"
	"memoir-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// saveStory сохраняет сгенерированный контент. Ветка выбирается по
// authInfo из тела запроса: аутентифицированный принципал против
// анонимного пути с синтетическим владельцем.
func (h *APIHandler) saveStory(c *gin.Context) {
	var req saveStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidContent)
		return
	}
	content, ok := decodeContent(req.Content)
	if !ok {
		respondError(c, http.StatusBadRequest, msgInvalidContent)
		return
	}

	result, err := h.stories.SaveStory(c.Request.Context(), content, req.AuthInfo)
	if err != nil {
		if errors.Is(err, service.ErrSaveFailed) {
			respondError(c, http.StatusInternalServerError, msgSaveFailed)
			return
		}
		// Сообщение внутренней ошибки сохраняется в ответе: прежнее
		// поведение затирало его фиксированной строкой, что признано
		// дефектом, а не контрактом.
		h.logger.Error("Story save failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, saveStoryResponse{
		StoryID:      result.StoryID.String(),
		ShareURL:     result.ShareURL,
		Success:      true,
		ReclaimToken: result.ReclaimToken,
	})
}

// getStory отдает сохраненную историю для страницы просмотра/шеринга.
func (h *APIHandler) getStory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, msgStoryNotFound)
		return
	}

	story, err := h.stories.GetStory(c.Request.Context(), id)
	if err != nil {
		mapStoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// listStories возвращает истории аутентифицированного пользователя.
func (h *APIHandler) listStories(c *gin.Context) {
	session := SessionFromContext(c)
	if !session.Authenticated() {
		respondError(c, http.StatusUnauthorized, msgLoginRequired)
		return
	}

	stories, err := h.stories.ListStories(c.Request.Context(), session.UID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Пользователь еще ничего не сохранял.
			c.JSON(http.StatusOK, []models.Story{})
			return
		}
		mapStoryError(c, err)
		return
	}
	if stories == nil {
		stories = []models.Story{}
	}
	c.JSON(http.StatusOK, stories)
}

// requestFullGeneration ставит задачу полной генерации для оплаченной
// истории владельца.
func (h *APIHandler) requestFullGeneration(c *gin.Context) {
	session := SessionFromContext(c)
	if !session.Authenticated() {
		respondError(c, http.StatusUnauthorized, msgLoginRequired)
		return
	}

	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, msgStoryNotFound)
		return
	}

	var req fullGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidAnswers)
		return
	}
	answers, ok := decodeAnswers(req.Answers)
	if !ok {
		respondError(c, http.StatusBadRequest, msgInvalidAnswers)
		return
	}

	taskID, err := h.stories.RequestFullGeneration(c.Request.Context(), session.UID, storyID, answers)
	if err != nil {
		mapStoryError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, fullGenerationResponse{TaskID: taskID})
}

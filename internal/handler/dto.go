package handler

import (
	"encoding/json"

	"memoir-server/internal/models"
)

// generateRequest - тело POST /api/generate.
// Answers принимается как RawMessage: контракт требует отличать
// "объект" от null/массива/числа до дальнейшего разбора.
type generateRequest struct {
	Type    models.GenerationMode `json:"type"`
	Answers json.RawMessage       `json:"answers"`
}

// generatePreviewRequest - тело POST /api/generate-preview.
type generatePreviewRequest struct {
	Answers json.RawMessage `json:"answers"`
}

// generateForwardRequest - тело, уходящее на сиблинг /api/generate.
type generateForwardRequest struct {
	Type    models.GenerationMode `json:"type"`
	Answers models.AnswerSet      `json:"answers"`
}

// generateResponse - успешный ответ генерации.
type generateResponse struct {
	Content string `json:"content"`
}

// saveStoryRequest - тело POST /api/save-story. Content как RawMessage:
// число, null или массив должны отклоняться как невалидный контент.
type saveStoryRequest struct {
	Content  json.RawMessage  `json:"content"`
	AuthInfo *models.AuthInfo `json:"authInfo"`
}

// saveStoryResponse - успешный ответ сохранения.
type saveStoryResponse struct {
	StoryID      string  `json:"storyId"`
	ShareURL     *string `json:"shareUrl"`
	Success      bool    `json:"success"`
	ReclaimToken string  `json:"reclaimToken,omitempty"`
}

// questionsResponse - ответ GET /api/questions.
type questionsResponse struct {
	Preview []models.Question `json:"preview"`
	Full    []models.Question `json:"full"`
}

// fullGenerationRequest - тело POST /api/stories/:id/generate-full.
type fullGenerationRequest struct {
	Answers json.RawMessage `json:"answers"`
}

// fullGenerationResponse - подтверждение постановки задачи.
type fullGenerationResponse struct {
	TaskID string `json:"taskId"`
}

// decodeAnswers проверяет, что raw - непустой JSON-объект со строковыми
// значениями, и возвращает его как AnswerSet. Возвращает false, если
// значение отсутствует, равно null или не является объектом.
func decodeAnswers(raw json.RawMessage) (models.AnswerSet, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	var answers models.AnswerSet
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, false
	}
	if answers == nil {
		return nil, false
	}
	return answers, true
}

// decodeContent проверяет, что raw - JSON-строка.
func decodeContent(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var content string
	if err := json.Unmarshal(raw, &content); err != nil {
		return "", false
	}
	return content, true
}

package messaging

import (
	"encoding/json"
	"fmt"

	"memoir-server/internal/models"

	"github.com/google/uuid"
)

// Имена очередей по умолчанию; конкретные значения приходят из конфигурации.
const (
	DefaultGenerationTaskQueue = "memoir_generation_tasks"
	DefaultClientUpdatesQueue  = "memoir_client_updates"
)

// FullGenerationTaskPayload - задача воркеру на полную (10 глав) генерацию.
type FullGenerationTaskPayload struct {
	TaskID  string    `json:"task_id"`
	StoryID uuid.UUID `json:"story_id"`
	UserID  uuid.UUID `json:"user_id"`
	// FirebaseUID нужен для адресации клиентского уведомления: websocket
	// регистрирует соединения по внешнему UID, а не по внутреннему ID.
	FirebaseUID string           `json:"firebase_uid"`
	Answers     models.AnswerSet `json:"answers"`
}

// Статусы клиентских обновлений.
const (
	UpdateStatusCompleted = "completed"
	UpdateStatusFailed    = "failed"
)

// ClientUpdatePayload - уведомление клиенту о судьбе его истории.
// Доставляется менеджером websocket-соединений по UserID.
type ClientUpdatePayload struct {
	TaskID  string `json:"task_id"`
	UserID  string `json:"user_id"`
	StoryID string `json:"story_id"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// ParseClientUpdate разбирает тело сообщения очереди клиентских обновлений.
func ParseClientUpdate(body []byte) (ClientUpdatePayload, error) {
	var update ClientUpdatePayload
	if err := json.Unmarshal(body, &update); err != nil {
		return ClientUpdatePayload{}, fmt.Errorf("failed to unmarshal client update: %w", err)
	}
	if update.UserID == "" {
		return ClientUpdatePayload{}, fmt.Errorf("client update without user_id")
	}
	return update, nil
}

package repository

import (
	"context"
	"errors"

	"memoir-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX - минимальный контракт исполнителя запросов, который реализуют и
// pgxpool.Pool, и pgx.Tx. Позволяет переиспользовать репозитории внутри
// транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StoryRepository - слой хранения автобиографий. Имена операций повторяют
// контракт слоя персистентности из интеграционного API приложения.
type StoryRepository interface {
	// SavePreviewStory сохраняет превью под аутентифицированным Firebase UID.
	SavePreviewStory(ctx context.Context, firebaseUID, content string) (uuid.UUID, error)
	// SavePreviewStoryWithoutLogin сохраняет превью, самостоятельно выделяя
	// синтетического анонимного владельца. Возвращает ID истории и ID владельца.
	SavePreviewStoryWithoutLogin(ctx context.Context, content string) (storyID, ownerID uuid.UUID, err error)
	// GetStory возвращает сохраненную историю по ID.
	GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error)
	// ListByUser возвращает истории пользователя, новые первыми.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Story, error)
	// ReplaceContent заменяет содержимое истории (результат полной генерации).
	ReplaceContent(ctx context.Context, id uuid.UUID, content string, isPreview bool) error
}

// UserRepository - слой хранения владельцев историй.
type UserRepository interface {
	// GetUserData возвращает профиль по Firebase UID.
	GetUserData(ctx context.Context, firebaseUID string) (*models.User, error)
	// GetOrCreateByFirebaseUID возвращает профиль, создавая его при первом обращении.
	GetOrCreateByFirebaseUID(ctx context.Context, firebaseUID, displayName string) (*models.User, error)
	// CreateAnonymous создает синтетического анонимного владельца.
	CreateAnonymous(ctx context.Context) (*models.User, error)
	// GetByID возвращает пользователя по внутреннему ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ErrCacheMiss возвращается кешем превью при отсутствии записи.
var ErrCacheMiss = errors.New("preview cache miss")

// PreviewCache кеширует результаты генерации превью по хешу набора ответов.
type PreviewCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, content string) error
}

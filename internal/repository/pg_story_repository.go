package repository

import (
	"context"
	"errors"
	"fmt"

	"memoir-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	hashids "github.com/speps/go-hashids/v2"
	"go.uber.org/zap"
)

// defaultStoryTitle присваивается каждой сохраненной автобиографии;
// переименование - операция редактора, не слоя сохранения.
const defaultStoryTitle = "나의 자서전"

var _ StoryRepository = (*pgStoryRepository)(nil)

// ShareURLConfig определяет, как репозиторий строит shareable URL.
// Слаг - hashids от монотонного seq истории, чтобы URL был коротким и
// не перечислимым подряд.
type ShareURLConfig struct {
	BaseURL     string
	HashidsSalt string
	MinLength   int
}

type pgStoryRepository struct {
	db      DBTX
	users   UserRepository
	hasher  *hashids.HashID
	baseURL string
	logger  *zap.Logger
}

// NewPgStoryRepository creates a new PostgreSQL-backed StoryRepository.
func NewPgStoryRepository(db DBTX, users UserRepository, cfg ShareURLConfig, logger *zap.Logger) (StoryRepository, error) {
	hd := hashids.NewData()
	hd.Salt = cfg.HashidsSalt
	if cfg.MinLength > 0 {
		hd.MinLength = cfg.MinLength
	} else {
		hd.MinLength = 8
	}
	hasher, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("failed to init hashids: %w", err)
	}

	return &pgStoryRepository{
		db:      db,
		users:   users,
		hasher:  hasher,
		baseURL: cfg.BaseURL,
		logger:  logger.Named("PgStoryRepo"),
	}, nil
}

const storyColumns = `id, seq, user_id, title, content, is_preview, is_paid, share_url, created_at`

func (r *pgStoryRepository) SavePreviewStory(ctx context.Context, firebaseUID, content string) (uuid.UUID, error) {
	if content == "" {
		return uuid.Nil, errors.New("story content must not be empty")
	}

	owner, err := r.users.GetOrCreateByFirebaseUID(ctx, firebaseUID, "")
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve story owner: %w", err)
	}

	storyID, err := r.insertStory(ctx, owner.ID, content)
	if err != nil {
		return uuid.Nil, err
	}
	r.logger.Info("Preview story saved",
		zap.String("storyID", storyID.String()),
		zap.String("firebaseUID", firebaseUID))
	return storyID, nil
}

func (r *pgStoryRepository) SavePreviewStoryWithoutLogin(ctx context.Context, content string) (uuid.UUID, uuid.UUID, error) {
	if content == "" {
		return uuid.Nil, uuid.Nil, errors.New("story content must not be empty")
	}

	owner, err := r.users.CreateAnonymous(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to allocate anonymous owner: %w", err)
	}

	storyID, err := r.insertStory(ctx, owner.ID, content)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	r.logger.Info("Preview story saved anonymously",
		zap.String("storyID", storyID.String()),
		zap.String("ownerID", owner.ID.String()))
	return storyID, owner.ID, nil
}

// insertStory вставляет строку, получает seq и сразу прописывает share_url.
// Наружу история никогда не отдается без share_url.
func (r *pgStoryRepository) insertStory(ctx context.Context, ownerID uuid.UUID, content string) (uuid.UUID, error) {
	id := uuid.New()
	var seq int64
	query := `
		INSERT INTO stories (id, user_id, title, content, is_preview, is_paid)
		VALUES ($1, $2, $3, $4, TRUE, FALSE)
		RETURNING seq`
	if err := r.db.QueryRow(ctx, query, id, ownerID, defaultStoryTitle, content).Scan(&seq); err != nil {
		r.logger.Error("Failed to insert story", zap.Error(err), zap.String("ownerID", ownerID.String()))
		return uuid.Nil, fmt.Errorf("failed to insert story: %w", err)
	}

	shareURL, err := r.buildShareURL(seq)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := r.db.Exec(ctx, `UPDATE stories SET share_url = $1 WHERE id = $2`, shareURL, id); err != nil {
		r.logger.Error("Failed to set share url", zap.Error(err), zap.String("storyID", id.String()))
		return uuid.Nil, fmt.Errorf("failed to set share url: %w", err)
	}
	return id, nil
}

func (r *pgStoryRepository) buildShareURL(seq int64) (string, error) {
	slug, err := r.hasher.EncodeInt64([]int64{seq})
	if err != nil {
		return "", fmt.Errorf("failed to encode share slug: %w", err)
	}
	return fmt.Sprintf("%s/story/%s", r.baseURL, slug), nil
}

func (r *pgStoryRepository) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	story := &models.Story{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&story.ID, &story.Seq, &story.UserID, &story.Title, &story.Content,
		&story.IsPreview, &story.IsPaid, &story.ShareURL, &story.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", zap.Error(err), zap.String("storyID", id.String()))
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return story, nil
}

func (r *pgStoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE user_id = $1 ORDER BY created_at DESC`
	var stories []models.Story
	if err := pgxscan.Select(ctx, r.db, &stories, query, userID); err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

func (r *pgStoryRepository) ReplaceContent(ctx context.Context, id uuid.UUID, content string, isPreview bool) error {
	if content == "" {
		return errors.New("story content must not be empty")
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE stories SET content = $1, is_preview = $2 WHERE id = $3`,
		content, isPreview, id)
	if err != nil {
		r.logger.Error("Failed to replace story content", zap.Error(err), zap.String("storyID", id.String()))
		return fmt.Errorf("failed to replace story content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

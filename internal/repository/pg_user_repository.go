package repository

import (
	"context"
	"errors"
	"fmt"

	"memoir-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db DBTX, logger *zap.Logger) UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

const userColumns = `id, firebase_uid, is_anonymous, display_name, created_at`

func (r *pgUserRepository) GetUserData(ctx context.Context, firebaseUID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE firebase_uid = $1`
	user := &models.User{}
	err := r.db.QueryRow(ctx, query, firebaseUID).
		Scan(&user.ID, &user.FirebaseUID, &user.IsAnonymous, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found by firebase uid", zap.String("firebaseUID", firebaseUID))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by firebase uid", zap.Error(err), zap.String("firebaseUID", firebaseUID))
		return nil, fmt.Errorf("failed to get user by firebase uid: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) GetOrCreateByFirebaseUID(ctx context.Context, firebaseUID, displayName string) (*models.User, error) {
	// Upsert: при конфликте по firebase_uid возвращаем существующую строку.
	query := `
		INSERT INTO users (id, firebase_uid, is_anonymous, display_name)
		VALUES ($1, $2, FALSE, $3)
		ON CONFLICT (firebase_uid) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING ` + userColumns
	user := &models.User{}
	err := r.db.QueryRow(ctx, query, uuid.New(), firebaseUID, displayName).
		Scan(&user.ID, &user.FirebaseUID, &user.IsAnonymous, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to get or create user", zap.Error(err), zap.String("firebaseUID", firebaseUID))
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) CreateAnonymous(ctx context.Context) (*models.User, error) {
	query := `
		INSERT INTO users (id, firebase_uid, is_anonymous, display_name)
		VALUES ($1, NULL, TRUE, '')
		RETURNING ` + userColumns
	user := &models.User{}
	err := r.db.QueryRow(ctx, query, uuid.New()).
		Scan(&user.ID, &user.FirebaseUID, &user.IsAnonymous, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create anonymous user", zap.Error(err))
		return nil, fmt.Errorf("failed to create anonymous user: %w", err)
	}
	r.logger.Info("Anonymous owner allocated", zap.String("userID", user.ID.String()))
	return user, nil
}

func (r *pgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user := &models.User{}
	err := r.db.QueryRow(ctx, query, id).
		Scan(&user.ID, &user.FirebaseUID, &user.IsAnonymous, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by id", zap.Error(err), zap.String("userID", id.String()))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

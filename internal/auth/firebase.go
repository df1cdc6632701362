package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// TokenVerifier проверяет ID-токены и превращает их в Session.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Session, error)
}

// FirebaseVerifier - реализация TokenVerifier поверх Firebase Auth.
type FirebaseVerifier struct {
	client *firebaseauth.Client
	logger *zap.Logger
}

// NewFirebaseVerifier инициализирует Firebase App и Auth-клиент.
// credentialsFile может быть пустым: тогда используется Application
// Default Credentials.
func NewFirebaseVerifier(ctx context.Context, credentialsFile string, logger *zap.Logger) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase auth client: %w", err)
	}

	return &FirebaseVerifier{
		client: client,
		logger: logger.Named("FirebaseVerifier"),
	}, nil
}

// Verify проверяет ID-токен и возвращает Session принципала.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Session, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		v.logger.Debug("ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("invalid firebase id token: %w", err)
	}

	session := &Session{UID: token.UID}
	// Firebase помечает анонимные аккаунты провайдером "anonymous".
	if token.Firebase.SignInProvider == "anonymous" {
		session.IsAnonymous = true
	}
	if name, ok := token.Claims["name"].(string); ok {
		session.DisplayName = name
	}
	return session, nil
}

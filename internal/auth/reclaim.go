package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Анонимное сохранение выделяет синтетического владельца. Чтобы
// пользователь мог позже вернуться к своей истории (или привязать ее к
// аккаунту после регистрации), ему выдается reclaim-токен с ID владельца.

// ReclaimClaims - клеймы reclaim-токена анонимного владельца.
type ReclaimClaims struct {
	OwnerID string `json:"owner_id"`
	jwt.RegisteredClaims
}

// ReclaimTokenIssuer выпускает и проверяет reclaim-токены.
type ReclaimTokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewReclaimTokenIssuer создает issuer с указанным секретом и временем жизни.
func NewReclaimTokenIssuer(secret string, ttl time.Duration) (*ReclaimTokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("reclaim token secret is empty")
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &ReclaimTokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue выпускает токен для синтетического владельца.
func (i *ReclaimTokenIssuer) Issue(ownerID uuid.UUID) (string, error) {
	now := time.Now()
	claims := ReclaimClaims{
		OwnerID: ownerID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign reclaim token: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись и срок действия токена и возвращает ID владельца.
func (i *ReclaimTokenIssuer) Parse(tokenString string) (uuid.UUID, error) {
	claims := &ReclaimClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid reclaim token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, errors.New("invalid reclaim token")
	}

	ownerID, err := uuid.Parse(claims.OwnerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid owner id in reclaim token: %w", err)
	}
	return ownerID, nil
}

package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Question описывает один пункт анкеты. Каталог вопросов статичен и
// определяется на старте процесса, идентичность задается полем ID.
type Question struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Placeholder string `json:"placeholder"`
}

// AnswerSet - ответы пользователя, ключ - ID вопроса.
// Сервер проверяет только то, что это непустой JSON-объект.
type AnswerSet map[string]string

// GenerationMode определяет объем генерации.
type GenerationMode string

const (
	// ModePreview - бесплатное превью из 2 глав.
	ModePreview GenerationMode = "preview"
	// ModeFull - полная автобиография из 10 глав.
	ModeFull GenerationMode = "full"
)

// Valid reports whether the mode is one of the known values.
func (m GenerationMode) Valid() bool {
	return m == ModePreview || m == ModeFull
}

// Story - сохраненная автобиография.
type Story struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Seq       int64     `json:"-" db:"seq"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	IsPreview bool      `json:"isPreview" db:"is_preview"`
	IsPaid    bool      `json:"isPaid" db:"is_paid"`
	ShareURL  *string   `json:"shareUrl,omitempty" db:"share_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// User - владелец историй. Для анонимных сохранений создается
// синтетический владелец с IsAnonymous=true и пустым FirebaseUID.
type User struct {
	ID          uuid.UUID `json:"id" db:"id"`
	FirebaseUID *string   `json:"firebaseUid,omitempty" db:"firebase_uid"`
	IsAnonymous bool      `json:"isAnonymous" db:"is_anonymous"`
	DisplayName string    `json:"displayName" db:"display_name"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// AuthInfo - сведения о принципале, присланные клиентом вместе с запросом
// на сохранение. UID и IsAnonymous определяют ветку сохранения.
type AuthInfo struct {
	UID         string `json:"uid"`
	IsAnonymous bool   `json:"isAnonymous"`
	DisplayName string `json:"displayName,omitempty"`
}

// Authenticated reports whether the info identifies a signed-in,
// non-anonymous principal.
func (a *AuthInfo) Authenticated() bool {
	return a != nil && a.UID != "" && !a.IsAnonymous
}

// ErrorResponse - стандартная структура ответа об ошибке.
type ErrorResponse struct {
	Error string `json:"error"`
}

var (
	// ErrStoryNotFound возвращается репозиторием, если история не найдена.
	ErrStoryNotFound = errors.New("story not found")
	// ErrUserNotFound возвращается репозиторием, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrStoryAccessDenied возвращается, когда история принадлежит другому пользователю.
	ErrStoryAccessDenied = errors.New("story access denied")
	// ErrStoryNotPaid возвращается при попытке запустить полную генерацию без оплаты.
	ErrStoryNotPaid = errors.New("story is not paid")
)

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"memoir-server/internal/auth"
	msgmocks "memoir-server/internal/messaging/mocks"
	"memoir-server/internal/models"
	repomocks "memoir-server/internal/repository/mocks"
	"memoir-server/internal/service"
	aimocks "memoir-server/internal/service/mocks"
	"memoir-server/internal/ws"
	"memoir-server/pkg/ai"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// verifierMock - мок auth.TokenVerifier.
type verifierMock struct {
	mock.Mock
}

func (m *verifierMock) Verify(ctx context.Context, idToken string) (*auth.Session, error) {
	args := m.Called(ctx, idToken)
	session, _ := args.Get(0).(*auth.Session)
	return session, args.Error(1)
}

// testEnv - полный стек обработчиков поверх моков нижних слоев.
type testEnv struct {
	router    *gin.Engine
	aiClient  *aimocks.AIClient
	stories   *repomocks.StoryRepository
	users     *repomocks.UserRepository
	publisher *msgmocks.TaskPublisher
	verifier  *verifierMock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	env := &testEnv{
		aiClient:  new(aimocks.AIClient),
		stories:   new(repomocks.StoryRepository),
		users:     new(repomocks.UserRepository),
		publisher: new(msgmocks.TaskPublisher),
		verifier:  new(verifierMock),
	}

	generation := service.NewGenerationService(env.aiClient, nil, logger)
	stories := service.NewStoryService(env.stories, env.users, env.publisher, nil, logger)
	h := NewAPIHandler(generation, stories, env.verifier, ws.NewManager(logger), logger)
	env.router = NewRouter(h, []string{"*"}, logger)
	return env
}

func (env *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestGetQuestions(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/questions", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp questionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Preview, 2)
	assert.Len(t, resp.Full, 8)
}

func TestGenerate_Success(t *testing.T) {
	env := newTestEnv(t)

	env.aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, 1500).
		Return("생성된 자서전", ai.Usage{}, nil).Once()

	rec := env.do(t, http.MethodPost, "/api/generate",
		`{"type":"preview","answers":{"childhood_memory":"여름 방학"}}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "생성된 자서전", resp.Content)
}

func TestGenerate_FullModeUsesFullBudget(t *testing.T) {
	env := newTestEnv(t)

	env.aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, 4000).
		Return("완성본", ai.Usage{}, nil).Once()

	rec := env.do(t, http.MethodPost, "/api/generate",
		`{"type":"full","answers":{"family_story":"3남매"}}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env.aiClient.AssertExpectations(t)
}

func TestGenerate_FailureReturnsFallbackContent(t *testing.T) {
	env := newTestEnv(t)

	env.aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, 1500).
		Return("", ai.Usage{}, ai.ErrRequestFailed).Once()

	rec := env.do(t, http.MethodPost, "/api/generate",
		`{"type":"preview","answers":{"q":"a"}}`, nil)

	// Исторический контракт: отказ генерации - это 200 с fallback-текстом.
	require.Equal(t, http.StatusOK, rec.Code)
	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, msgGenerationFailed, resp.Content)
}

func TestGenerate_InvalidRequests(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]string{
		"unknown mode":    `{"type":"draft","answers":{"q":"a"}}`,
		"missing answers": `{"type":"preview"}`,
		"null answers":    `{"type":"preview","answers":null}`,
		"array answers":   `{"type":"preview","answers":["a","b"]}`,
		"number answers":  `{"type":"preview","answers":42}`,
		"broken json":     `{"type":`,
	}
	for name, body := range cases {
		rec := env.do(t, http.MethodPost, "/api/generate", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Equal(t, msgInvalidAnswers, errorMessage(t, rec), name)
	}
	env.aiClient.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerate_EmptyAnswersObjectAllowed(t *testing.T) {
	env := newTestEnv(t)

	env.aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, 1500).
		Return("내용", ai.Usage{}, nil).Once()

	rec := env.do(t, http.MethodPost, "/api/generate",
		`{"type":"preview","answers":{}}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGeneratePreview_InvalidAnswersRejectedBeforeForwarding(t *testing.T) {
	env := newTestEnv(t)

	for name, body := range map[string]string{
		"missing": `{}`,
		"null":    `{"answers":null}`,
		"string":  `{"answers":"text"}`,
	} {
		rec := env.do(t, http.MethodPost, "/api/generate-preview", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
	env.aiClient.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGeneratePreview_ForwardsToGenerate(t *testing.T) {
	env := newTestEnv(t)

	// Пересылка идет на host входящего запроса, поэтому роутер поднимается
	// как настоящий сервер и принимает оба запроса сам.
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	env.aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, 1500).
		Return("미리보기 본문", ai.Usage{}, nil).Once()

	resp, err := http.Post(srv.URL+"/api/generate-preview", "application/json",
		bytes.NewReader([]byte(`{"answers":{"childhood_memory":"여름 방학"}}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var parsed generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "미리보기 본문", parsed.Content)
	env.aiClient.AssertExpectations(t)
}

func TestGeneratePreview_RelaysDownstreamFailure(t *testing.T) {
	env := newTestEnv(t)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	env.aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, 1500).
		Return("", ai.Usage{}, ai.ErrEmptyResponse).Once()

	resp, err := http.Post(srv.URL+"/api/generate-preview", "application/json",
		bytes.NewReader([]byte(`{"answers":{"q":"a"}}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Нижняя точка отвечает 200 с fallback-текстом, прокси отдает его как есть.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var parsed generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, msgGenerationFailed, parsed.Content)
}

func TestSaveStory_InvalidContent(t *testing.T) {
	env := newTestEnv(t)

	for name, body := range map[string]string{
		"missing": `{}`,
		"null":    `{"content":null}`,
		"number":  `{"content":123}`,
		"array":   `{"content":["a"]}`,
		"object":  `{"content":{"text":"a"}}`,
	} {
		rec := env.do(t, http.MethodPost, "/api/save-story", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Equal(t, msgInvalidContent, errorMessage(t, rec), name)
	}
	env.stories.AssertNotCalled(t, "SavePreviewStory", mock.Anything, mock.Anything, mock.Anything)
	env.stories.AssertNotCalled(t, "SavePreviewStoryWithoutLogin", mock.Anything, mock.Anything)
}

func TestSaveStory_AnonymousSuccess(t *testing.T) {
	env := newTestEnv(t)

	storyID := uuid.New()
	shareURL := "https://example.com/story/AbCdEf12"
	env.stories.On("SavePreviewStoryWithoutLogin", mock.Anything, "익명 자서전").
		Return(storyID, uuid.New(), nil).Once()
	env.stories.On("GetStory", mock.Anything, storyID).
		Return(&models.Story{ID: storyID, ShareURL: &shareURL}, nil).Once()

	rec := env.do(t, http.MethodPost, "/api/save-story", `{"content":"익명 자서전"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp saveStoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, storyID.String(), resp.StoryID)
	require.NotNil(t, resp.ShareURL)
	assert.Equal(t, shareURL, *resp.ShareURL)
}

func TestSaveStory_AuthenticatedBranchByAuthInfo(t *testing.T) {
	env := newTestEnv(t)

	storyID := uuid.New()
	env.users.On("GetUserData", mock.Anything, "fb-uid").
		Return(&models.User{ID: uuid.New()}, nil).Once()
	env.stories.On("SavePreviewStory", mock.Anything, "fb-uid", "내 자서전").
		Return(storyID, nil).Once()
	env.stories.On("GetStory", mock.Anything, storyID).
		Return(&models.Story{ID: storyID}, nil).Once()

	body := `{"content":"내 자서전","authInfo":{"uid":"fb-uid","isAnonymous":false}}`
	rec := env.do(t, http.MethodPost, "/api/save-story", body, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env.stories.AssertNotCalled(t, "SavePreviewStoryWithoutLogin", mock.Anything, mock.Anything)
}

func TestSaveStory_RepositoryErrorSurfaced(t *testing.T) {
	env := newTestEnv(t)

	env.stories.On("SavePreviewStoryWithoutLogin", mock.Anything, mock.Anything).
		Return(uuid.Nil, uuid.Nil, errors.New("connection refused")).Once()

	rec := env.do(t, http.MethodPost, "/api/save-story", `{"content":"내용"}`, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "connection refused")
}

func TestSaveStory_NilStoryID(t *testing.T) {
	env := newTestEnv(t)

	env.stories.On("SavePreviewStoryWithoutLogin", mock.Anything, mock.Anything).
		Return(uuid.Nil, uuid.Nil, nil).Once()

	rec := env.do(t, http.MethodPost, "/api/save-story", `{"content":"내용"}`, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgSaveFailed, errorMessage(t, rec))
}

func TestGetStory_Found(t *testing.T) {
	env := newTestEnv(t)

	storyID := uuid.New()
	env.stories.On("GetStory", mock.Anything, storyID).
		Return(&models.Story{ID: storyID, Title: "나의 자서전", Content: "본문"}, nil).Once()

	rec := env.do(t, http.MethodGet, "/api/stories/"+storyID.String(), "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var story models.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &story))
	assert.Equal(t, storyID, story.ID)
	assert.Equal(t, "본문", story.Content)
}

func TestGetStory_BadID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/stories/not-a-uuid", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env.stories.AssertNotCalled(t, "GetStory", mock.Anything, mock.Anything)
}

func TestGetStory_NotFound(t *testing.T) {
	env := newTestEnv(t)

	storyID := uuid.New()
	env.stories.On("GetStory", mock.Anything, storyID).
		Return(nil, models.ErrStoryNotFound).Once()

	rec := env.do(t, http.MethodGet, "/api/stories/"+storyID.String(), "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgStoryNotFound, errorMessage(t, rec))
}

func TestListStories_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/stories", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgLoginRequired, errorMessage(t, rec))
}

func TestListStories_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	env.verifier.On("Verify", mock.Anything, "bad-token").
		Return(nil, errors.New("token expired")).Once()

	rec := env.do(t, http.MethodGet, "/api/stories", "",
		map[string]string{"Authorization": "Bearer bad-token"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListStories_Success(t *testing.T) {
	env := newTestEnv(t)

	userID := uuid.New()
	env.verifier.On("Verify", mock.Anything, "good-token").
		Return(&auth.Session{UID: "fb-uid"}, nil).Once()
	env.users.On("GetUserData", mock.Anything, "fb-uid").
		Return(&models.User{ID: userID}, nil).Once()
	env.stories.On("ListByUser", mock.Anything, userID).
		Return([]models.Story{{ID: uuid.New(), UserID: userID}}, nil).Once()

	rec := env.do(t, http.MethodGet, "/api/stories", "",
		map[string]string{"Authorization": "Bearer good-token"})

	require.Equal(t, http.StatusOK, rec.Code)
	var stories []models.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stories))
	assert.Len(t, stories, 1)
}

func TestListStories_UnknownUserIsEmptyList(t *testing.T) {
	env := newTestEnv(t)

	env.verifier.On("Verify", mock.Anything, "good-token").
		Return(&auth.Session{UID: "fb-uid"}, nil).Once()
	env.users.On("GetUserData", mock.Anything, "fb-uid").
		Return(nil, models.ErrUserNotFound).Once()

	rec := env.do(t, http.MethodGet, "/api/stories", "",
		map[string]string{"Authorization": "Bearer good-token"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRequestFullGeneration_Accepted(t *testing.T) {
	env := newTestEnv(t)

	userID := uuid.New()
	storyID := uuid.New()
	env.verifier.On("Verify", mock.Anything, "good-token").
		Return(&auth.Session{UID: "fb-uid"}, nil).Once()
	env.users.On("GetUserData", mock.Anything, "fb-uid").
		Return(&models.User{ID: userID}, nil).Once()
	env.stories.On("GetStory", mock.Anything, storyID).
		Return(&models.Story{ID: storyID, UserID: userID, IsPaid: true}, nil).Once()
	env.publisher.On("PublishFullGenerationTask", mock.Anything, mock.Anything).
		Return(nil).Once()

	rec := env.do(t, http.MethodPost, "/api/stories/"+storyID.String()+"/generate-full",
		`{"answers":{"family_story":"답변"}}`,
		map[string]string{"Authorization": "Bearer good-token"})

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp fullGenerationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TaskID)
}

func TestRequestFullGeneration_PaymentRequired(t *testing.T) {
	env := newTestEnv(t)

	userID := uuid.New()
	storyID := uuid.New()
	env.verifier.On("Verify", mock.Anything, "good-token").
		Return(&auth.Session{UID: "fb-uid"}, nil).Once()
	env.users.On("GetUserData", mock.Anything, "fb-uid").
		Return(&models.User{ID: userID}, nil).Once()
	env.stories.On("GetStory", mock.Anything, storyID).
		Return(&models.Story{ID: storyID, UserID: userID, IsPaid: false}, nil).Once()

	rec := env.do(t, http.MethodPost, "/api/stories/"+storyID.String()+"/generate-full",
		`{"answers":{"q":"a"}}`,
		map[string]string{"Authorization": "Bearer good-token"})

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, msgPaymentRequired, errorMessage(t, rec))
	env.publisher.AssertNotCalled(t, "PublishFullGenerationTask", mock.Anything, mock.Anything)
}

func TestRequestFullGeneration_ForeignStory(t *testing.T) {
	env := newTestEnv(t)

	storyID := uuid.New()
	env.verifier.On("Verify", mock.Anything, "good-token").
		Return(&auth.Session{UID: "fb-uid"}, nil).Once()
	env.users.On("GetUserData", mock.Anything, "fb-uid").
		Return(&models.User{ID: uuid.New()}, nil).Once()
	env.stories.On("GetStory", mock.Anything, storyID).
		Return(&models.Story{ID: storyID, UserID: uuid.New(), IsPaid: true}, nil).Once()

	rec := env.do(t, http.MethodPost, "/api/stories/"+storyID.String()+"/generate-full",
		`{"answers":{"q":"a"}}`,
		map[string]string{"Authorization": "Bearer good-token"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"storyweave/internal/ai"
	"storyweave/internal/handler"
	"storyweave/internal/messaging"
	"storyweave/internal/mocks"
	"storyweave/internal/models"
	"storyweave/internal/prompt"
	"storyweave/internal/repository"
	"storyweave/internal/service"
	"storyweave/internal/tts"
)

const testStory = "Once upon a time, a little owl named Hoot watched the stars.\n\nHoot yawned.\n\nGood night, Hoot."

type HandlerTestSuite struct {
	suite.Suite
	router *gin.Engine
	store  *repository.MemoryStore
	gen    *mocks.MockTextGenerator
	synth  *mocks.MockSynthesizer
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	builder, err := prompt.NewBuilder()
	s.Require().NoError(err)

	s.store = repository.NewMemoryStore(logger)
	s.gen = mocks.NewMockTextGenerator(s.T())
	s.synth = mocks.NewMockSynthesizer(s.T())

	noWait := func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	retry := service.NewRetryController(s.gen, ai.GenerationParams{Model: "story-model"}, 2, time.Millisecond, logger, service.WithWaitFunc(noWait))
	stories := service.NewStoryService(builder, retry, nil, nil, s.store, s.store, messaging.NoopPublisher{},
		service.StoryServiceConfig{CacheEnabled: true, CacheTTL: time.Hour}, logger)

	h := handler.NewHandler(
		stories,
		service.NewProfileService(s.store, logger),
		service.NewAudioService(s.synth, logger),
		service.NewAuthService(s.store, "handler-secret", "pepper", time.Hour, logger),
		logger,
	)
	s.router = gin.New()
	h.RegisterRoutes(s.router, nil)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), dst))
}

func (s *HandlerTestSuite) errorMessage(w *httptest.ResponseRecorder) string {
	var resp models.ErrorResponse
	s.decode(w, &resp)
	return resp.Error
}

func (s *HandlerTestSuite) TestHealth() {
	for _, path := range []string{"/health", "/api/health"} {
		w := s.do(http.MethodGet, path, nil)
		s.Equal(http.StatusOK, w.Code)

		var resp models.HealthResponse
		s.decode(w, &resp)
		s.Equal("healthy", resp.Status)
		s.Equal("StoryWeave API", resp.Service)
		s.Equal("1.0.0", resp.Version)
	}

	w := s.do(http.MethodHead, "/health", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestGenerateStory() {
	s.gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(ai.Completion{Text: testStory}, nil).Once()

	w := s.do(http.MethodPost, "/api/generate-story", map[string]any{
		"profile_type": "ADHD",
		"age":          6,
		"theme":        "space",
		"story_length": 5,
		"child_id":     "child-1",
		"interests":    []string{"rockets"},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp models.StoryResponse
	s.decode(w, &resp)
	s.NotEmpty(resp.StoryID)
	s.Equal(testStory, resp.StoryText)
	s.Equal(models.ProfileADHD, resp.ProfileUsed)
	s.True(resp.StorySaved)
	s.False(resp.Fallback)
	s.NotNil(resp.Images)

	w = s.do(http.MethodGet, "/get-history?child_id=child-1&limit=5", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var history struct {
		ChildID string               `json:"child_id"`
		Stories []models.StoryRecord `json:"stories"`
		Count   int                  `json:"count"`
	}
	s.decode(w, &history)
	s.Equal("child-1", history.ChildID)
	s.Equal(1, history.Count)
	s.Equal(resp.StoryID, history.Stories[0].StoryID)
}

func (s *HandlerTestSuite) TestGenerateStoryFallbackIsOK() {
	s.gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(ai.Completion{}, &ai.GenerationError{Code: ai.CodeTimeout, Err: context.DeadlineExceeded}).Twice()

	w := s.do(http.MethodPost, "/generate-story", map[string]any{
		"profile_type": "autism", "age": 8, "theme": "ocean", "story_length": 10,
	})
	s.Require().Equal(http.StatusOK, w.Code)

	var resp models.StoryResponse
	s.decode(w, &resp)
	s.True(resp.Fallback)
	s.Equal(prompt.FallbackStory(models.ProfileAutism), resp.StoryText)
	s.NotEmpty(resp.Warning)
}

func (s *HandlerTestSuite) TestGenerateStoryValidation() {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"empty body", "", "No data provided"},
		{"missing fields", map[string]any{"profile_type": "adhd", "age": 6}, "Missing required fields: theme, story_length"},
		{"bad profile", map[string]any{"profile_type": "pirate", "age": 6, "theme": "x", "story_length": 5}, "Invalid profile_type. Must be 'adhd', 'autism', 'anxiety', or 'general'"},
		{"bad age", map[string]any{"profile_type": "adhd", "age": 13, "theme": "x", "story_length": 5}, "Invalid age. Must be between 3 and 12"},
		{"bad length", map[string]any{"profile_type": "adhd", "age": 6, "theme": "x", "story_length": 20}, "Invalid story_length. Must be 5, 10, or 15"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, "/api/generate-story", tt.body)
			s.Equal(http.StatusBadRequest, w.Code)
			s.Equal(tt.want, s.errorMessage(w))
		})
	}

	for _, body := range []string{`{"age":`, `{"profile_type":"adhd","age":"six","theme":"x","story_length":5}`} {
		w := s.do(http.MethodPost, "/api/generate-story", body)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("Invalid request body", s.errorMessage(w))
		s.NotContains(w.Body.String(), "generateStoryRequest")
	}
	s.gen.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestGenerateStoryUnknownParent() {
	w := s.do(http.MethodPost, "/generate-story", map[string]any{
		"profile_type": "general", "age": 5, "theme": "farm", "story_length": 5, "parent_story_id": "missing",
	})
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Story not found", s.errorMessage(w))
}

func (s *HandlerTestSuite) TestGetHistoryValidation() {
	w := s.do(http.MethodGet, "/get-history", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("child_id query parameter is required", s.errorMessage(w))

	w = s.do(http.MethodGet, "/get-history?child_id=c1&limit=abc", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("limit must be a number", s.errorMessage(w))

	w = s.do(http.MethodGet, "/get-history?child_id=c1&limit=500", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestProfiles() {
	w := s.do(http.MethodPost, "/api/save-profile", map[string]any{
		"age":               7,
		"cognitive_profile": []string{"anxiety"},
		"interests":         []string{"horses"},
		"user_email":        "parent@example.com",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ChildID        string `json:"child_id"`
		ProfileCreated string `json:"profile_created"`
		Success        bool   `json:"success"`
	}
	s.decode(w, &created)
	s.NotEmpty(created.ChildID)
	s.NotEmpty(created.ProfileCreated)
	s.True(created.Success)

	w = s.do(http.MethodGet, "/api/get-profile?child_id="+created.ChildID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var profile models.ChildProfile
	s.decode(w, &profile)
	s.Equal(7, profile.Age)
	s.Equal([]models.ProfileType{models.ProfileAnxiety}, profile.CognitiveProfile)

	w = s.do(http.MethodGet, "/api/get-profiles?user_email=parent@example.com", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Profiles []models.ChildProfile `json:"profiles"`
		Count    int                   `json:"count"`
	}
	s.decode(w, &list)
	s.Equal(1, list.Count)

	w = s.do(http.MethodGet, "/get-profile?child_id=missing", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Profile not found", s.errorMessage(w))

	w = s.do(http.MethodGet, "/get-profile", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestSaveProfileValidation() {
	w := s.do(http.MethodPost, "/save-profile", map[string]any{"cognitive_profile": []string{"adhd"}})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Missing required field: age", s.errorMessage(w))

	w = s.do(http.MethodPost, "/save-profile", map[string]any{"age": 5})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Missing required field: cognitive_profile", s.errorMessage(w))

	w = s.do(http.MethodPost, "/save-profile", map[string]any{"age": 5, "cognitive_profile": []string{}})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("cognitive_profile must be a non-empty list", s.errorMessage(w))

	w = s.do(http.MethodPost, "/save-profile", map[string]any{"age": 5, "cognitive_profile": []string{"adhd", "wizard"}})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Invalid profile type: wizard", s.errorMessage(w))
}

func (s *HandlerTestSuite) TestGenerateAudio() {
	s.synth.On("Synthesize", mock.Anything, "Sleep tight.", "voice-1").Return([]byte("mp3-bytes"), nil).Once()

	w := s.do(http.MethodPost, "/generate-audio", map[string]any{"text": "Sleep tight.", "voice_id": "voice-1", "mood": "sleepy"})
	s.Require().Equal(http.StatusOK, w.Code)

	var resp service.AudioResult
	s.decode(w, &resp)
	s.Equal(tts.AudioContentType, resp.ContentType)
	s.Equal(12, resp.TextLength)
	s.Equal("sleepy", resp.Mood)
	s.Equal("voice-1", resp.VoiceID)
	s.True(resp.Success)
	s.NotEmpty(resp.AudioData)
}

func (s *HandlerTestSuite) TestGenerateAudioErrors() {
	w := s.do(http.MethodPost, "/generate-audio", map[string]any{"voice_id": "v"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Missing required field: text", s.errorMessage(w))

	w = s.do(http.MethodPost, "/generate-audio", map[string]any{"text": "  "})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Text cannot be empty", s.errorMessage(w))

	s.synth.On("Synthesize", mock.Anything, "Hi", "v").Return(nil, errors.New("upstream 500")).Once()
	w = s.do(http.MethodPost, "/generate-audio", map[string]any{"text": "Hi", "voice_id": "v"})
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("Failed to generate audio", s.errorMessage(w))

	s.synth.On("Synthesize", mock.Anything, "Hi", "n").Return(nil, tts.ErrNotConfigured).Once()
	w = s.do(http.MethodPost, "/generate-audio", map[string]any{"text": "Hi", "voice_id": "n"})
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *HandlerTestSuite) TestAuthFlow() {
	w := s.do(http.MethodPost, "/api/auth/signup", map[string]any{"email": "mom@example.com", "password": "pw123", "name": "Mom"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var signup models.AuthResult
	s.decode(w, &signup)
	s.NotEmpty(signup.AccessToken)
	s.NotContains(w.Body.String(), "password_hash")

	w = s.do(http.MethodPost, "/api/auth/signup", map[string]any{"email": "mom@example.com", "password": "other"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/auth/signup", map[string]any{"email": "not-email", "password": "pw"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/auth/login", map[string]any{"email": "mom@example.com", "password": "pw123"})
	s.Require().Equal(http.StatusOK, w.Code)
	var login models.AuthResult
	s.decode(w, &login)

	w = s.do(http.MethodPost, "/auth/login", map[string]any{"email": "mom@example.com", "password": "wrong"})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid email or password", s.errorMessage(w))

	w = s.do(http.MethodGet, "/auth/user/mom@example.com", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "password")

	w = s.do(http.MethodGet, "/auth/user/nobody@example.com", nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/auth/me", nil, "Authorization", "Bearer "+login.AccessToken)
	s.Require().Equal(http.StatusOK, w.Code)
	var me struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	s.decode(w, &me)
	s.Equal("mom@example.com", me.Email)
	s.Equal("Mom", me.Name)

	w = s.do(http.MethodGet, "/auth/me", nil, "Authorization", "Bearer garbage")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func TestRegisterRoutesAppliesAuthLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	store := repository.NewMemoryStore(logger)

	limited := 0
	limiter := func(c *gin.Context) {
		limited++
		c.AbortWithStatus(http.StatusTooManyRequests)
	}

	router := gin.New()
	handler.NewHandler(nil, nil, nil, service.NewAuthService(store, "s", "", time.Hour, logger), logger).
		RegisterRoutes(router, limiter)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(`{}`))))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, limited)
}

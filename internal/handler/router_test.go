package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/gated-shortener/internal/config"
	"github.com/SergeiKhy/gated-shortener/internal/handler"
	"github.com/SergeiKhy/gated-shortener/internal/repository"
	"github.com/SergeiKhy/gated-shortener/internal/service"
	"github.com/SergeiKhy/gated-shortener/internal/service/mocks"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEnv окружение для сквозных тестов HTTP-слоя на хранилище в памяти
type TestEnv struct {
	router   *gin.Engine
	repo     repository.LinkRepository
	clock    *mocks.Clock
	verifier *mocks.MockHumanVerifier
	auth     *service.AdminAuth
}

func setupTestEnv(t *testing.T, baseURL string) *TestEnv {
	t.Helper()

	logger := zap.NewNop()
	repo := repository.NewMemoryRepository()
	clock := mocks.NewClock(time.Now())
	verifier := mocks.NewMockHumanVerifier(false)
	cfg := service.LinkServiceConfig{RequestTimeout: time.Second, Clock: clock}

	auth, err := service.NewAdminAuth(config.AdminConfig{
		Username:    "admin",
		Password:    "yourStrongPassword",
		TokenSecret: "router-test-secret",
	}, clock)
	require.NoError(t, err)

	router := handler.NewRouter(
		service.NewLinkService(repo, verifier, cfg, logger),
		service.NewAccessGate(repo, verifier, cfg, logger),
		auth,
		handler.RouterConfig{BaseURL: baseURL, TurnstileSiteKey: "site-key-123"},
		logger,
	)

	return &TestEnv{
		router:   router,
		repo:     repo,
		clock:    clock,
		verifier: verifier,
		auth:     auth,
	}
}

func (e *TestEnv) do(method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *TestEnv) shorten(t *testing.T, body map[string]any) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/shorten", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp handler.ShortenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Shortened
}

func (e *TestEnv) login(t *testing.T) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/admin/login", map[string]string{
		"username": "admin",
		"password": "yourStrongPassword",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// TestShortenAndRedirect проверяет создание ссылки и переход по ней
func TestShortenAndRedirect(t *testing.T) {
	env := setupTestEnv(t, "")

	shortened := env.shorten(t, map[string]any{"url": "https://example.com/a", "slug": "abc"})
	assert.Equal(t, "http://example.com/abc", shortened)

	for i := 0; i < 3; i++ {
		w := env.do(http.MethodGet, "/abc", nil, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://example.com/a", w.Header().Get("Location"))
	}
}

func TestShorten_Origin(t *testing.T) {
	t.Run("base url", func(t *testing.T) {
		env := setupTestEnv(t, "https://sho.rt")
		assert.Equal(t, "https://sho.rt/abc", env.shorten(t, map[string]any{"url": "https://example.com", "slug": "abc"}))
	})

	t.Run("forwarded proto", func(t *testing.T) {
		env := setupTestEnv(t, "")
		w := env.do(http.MethodPost, "/api/shorten",
			map[string]any{"url": "https://example.com", "slug": "abc"},
			map[string]string{"X-Forwarded-Proto": "https"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"shortened":"https://example.com/abc"}`, w.Body.String())
	})
}

func TestShorten_GeneratedSlug(t *testing.T) {
	env := setupTestEnv(t, "https://sho.rt")

	shortened := env.shorten(t, map[string]any{"url": "https://example.com"})

	assert.Regexp(t, `^https://sho\.rt/[A-Za-z0-9]{6}$`, shortened)
}

func TestShorten_Errors(t *testing.T) {
	env := setupTestEnv(t, "")
	env.shorten(t, map[string]any{"url": "https://example.com", "slug": "taken"})

	past := env.clock.Now().Add(-time.Hour).UnixMilli()

	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{"malformed json", `{"url":`, "invalid_request"},
		{"missing url", map[string]any{}, "invalid_url"},
		{"relative url", map[string]any{"url": "example.com"}, "invalid_url"},
		{"zero visits", map[string]any{"url": "https://example.com", "maxVisits": 0}, "invalid_max_visits"},
		{"fractional visits", map[string]any{"url": "https://example.com", "maxVisits": 1.5}, "invalid_max_visits"},
		{"text visits", map[string]any{"url": "https://example.com", "maxVisits": "many"}, "invalid_max_visits"},
		{"past expiry", map[string]any{"url": "https://example.com", "expiry": past}, "invalid_expiry"},
		{"unparseable expiry", map[string]any{"url": "https://example.com", "expiry": "tomorrow"}, "invalid_expiry"},
		{"short slug", map[string]any{"url": "https://example.com", "slug": "ab"}, "invalid_slug"},
		{"slug in use", map[string]any{"url": "https://example.com/other", "slug": "taken"}, "slug_in_use"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/shorten", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestShorten_FormValues(t *testing.T) {
	env := setupTestEnv(t, "")

	// Форма присылает строки, пустые значения означают отсутствие
	env.shorten(t, map[string]any{
		"url":       "https://example.com",
		"slug":      "formlink",
		"expiry":    "",
		"password":  "",
		"maxVisits": "2",
	})

	w := env.do(http.MethodGet, "/formlink", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	w = env.do(http.MethodGet, "/formlink", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	w = env.do(http.MethodGet, "/formlink", nil, nil)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestShorten_HumanVerification(t *testing.T) {
	env := setupTestEnv(t, "")
	env.verifier.On = true

	w := env.do(http.MethodPost, "/api/shorten", map[string]any{"url": "https://example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "verification_required", decodeError(t, w).Code)

	env.shorten(t, map[string]any{"url": "https://example.com", "token": "ok"})
}

// TestRedirect_SingleVisit проверяет сценарий ссылки на один переход
func TestRedirect_SingleVisit(t *testing.T) {
	env := setupTestEnv(t, "")
	env.shorten(t, map[string]any{"url": "https://example.com", "slug": "once", "maxVisits": 1})

	w := env.do(http.MethodGet, "/once", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)

	w = env.do(http.MethodGet, "/once", nil, nil)
	assert.Equal(t, http.StatusGone, w.Code)

	w = env.do(http.MethodGet, "/once", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedirect_Expired(t *testing.T) {
	env := setupTestEnv(t, "")
	expiry := env.clock.Now().Add(time.Minute).UnixMilli()
	env.shorten(t, map[string]any{"url": "https://example.com", "slug": "brief", "expiry": expiry})

	w := env.do(http.MethodGet, "/brief", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)

	env.clock.Advance(2 * time.Minute)
	w = env.do(http.MethodGet, "/brief", nil, nil)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "Link has expired", w.Body.String())
}

func TestRedirect_NotFound(t *testing.T) {
	env := setupTestEnv(t, "")

	w := env.do(http.MethodGet, "/nothing", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Link not found", w.Body.String())
}

// TestPasswordFlow проверяет сценарий ссылки с паролем и лимитом переходов
func TestPasswordFlow(t *testing.T) {
	env := setupTestEnv(t, "")
	env.shorten(t, map[string]any{
		"url":       "https://example.com/private",
		"slug":      "locked",
		"password":  "s3cret",
		"maxVisits": 1,
	})

	w := env.do(http.MethodGet, "/locked", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "site-key-123")
	assert.NotContains(t, w.Body.String(), "example.com/private")

	w = env.do(http.MethodPost, "/api/verify/locked", map[string]string{"password": "wrong"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Wrong password"}`, w.Body.String())

	w = env.do(http.MethodPost, "/api/verify/locked", map[string]string{"password": "s3cret"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"url":"https://example.com/private"}`, w.Body.String())

	w = env.do(http.MethodPost, "/api/verify/locked", map[string]string{"password": "s3cret"}, nil)
	assert.Equal(t, http.StatusGone, w.Code)

	w = env.do(http.MethodPost, "/api/verify/locked", map[string]string{"password": "s3cret"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerify_Errors(t *testing.T) {
	env := setupTestEnv(t, "")
	env.shorten(t, map[string]any{"url": "https://example.com", "slug": "locked", "password": "pw"})

	w := env.do(http.MethodPost, "/api/verify/missing", map[string]string{"password": "pw"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Code)

	w = env.do(http.MethodPost, "/api/verify/locked", "not json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.verifier.On = true
	w = env.do(http.MethodPost, "/api/verify/locked", map[string]string{"password": "pw"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "verification_required", decodeError(t, w).Code)
}

// TestAdminFlow проверяет вход администратора, список и удаление ссылок
func TestAdminFlow(t *testing.T) {
	env := setupTestEnv(t, "")
	env.shorten(t, map[string]any{"url": "https://example.com/1", "slug": "first", "maxVisits": "5"})
	env.shorten(t, map[string]any{"url": "https://example.com/2", "slug": "second", "password": "pw"})

	token := env.login(t)
	auth := map[string]string{"Authorization": "Bearer " + token}

	w := env.do(http.MethodGet, "/api/links", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Links []map[string]any `json:"links"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Links, 2)

	bySlug := make(map[string]map[string]any)
	for _, l := range list.Links {
		bySlug[l["slug"].(string)] = l
	}
	require.Contains(t, bySlug, "first")
	assert.Equal(t, "https://example.com/1", bySlug["first"]["url"])
	assert.EqualValues(t, 5, bySlug["first"]["maxVisits"])
	assert.EqualValues(t, 0, bySlug["first"]["visits"])
	assert.Nil(t, bySlug["first"]["expiry"])
	assert.Equal(t, "pw", bySlug["second"]["password"])

	w = env.do(http.MethodDelete, "/api/links/first", nil, auth)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Link deleted successfully"}`, w.Body.String())

	w = env.do(http.MethodGet, "/first", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodDelete, "/api/links/first", nil, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_Unauthorized(t *testing.T) {
	env := setupTestEnv(t, "")
	env.shorten(t, map[string]any{"url": "https://example.com", "slug": "keep"})

	tests := []struct {
		name   string
		header map[string]string
	}{
		{"no token", nil},
		{"garbage token", map[string]string{"Authorization": "Bearer garbage"}},
		{"not bearer", map[string]string{"Authorization": "Basic YWRtaW46cGFzcw=="}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/links", nil, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = env.do(http.MethodDelete, "/api/links/keep", nil, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	_, err := env.repo.Get(context.Background(), "keep")
	assert.NoError(t, err)
}

func TestAdmin_TokenExpires(t *testing.T) {
	env := setupTestEnv(t, "")
	auth := map[string]string{"Authorization": "Bearer " + env.login(t)}

	w := env.do(http.MethodGet, "/api/links", nil, auth)
	assert.Equal(t, http.StatusOK, w.Code)

	env.clock.Advance(service.AdminSessionTTL + time.Second)
	w = env.do(http.MethodGet, "/api/links", nil, auth)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLogin_Rejected(t *testing.T) {
	env := setupTestEnv(t, "")

	w := env.do(http.MethodPost, "/api/admin/login", map[string]string{
		"username": "admin",
		"password": "guess",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp handler.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Empty(t, resp.Token)
	assert.NotEmpty(t, resp.Error)
}

func TestRouter_Misc(t *testing.T) {
	env := setupTestEnv(t, "")

	w := env.do(http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(http.MethodGet, "/favicon.ico", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, "/api/shorten", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = env.do(http.MethodGet, "/api/unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Code)
}

func TestHealthCheck_Unavailable(t *testing.T) {
	repo := mocks.NewMockLinkRepository()
	repo.PingErr = assert.AnError

	router := gin.New()
	router.GET("/health", handler.HealthCheck(repo))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRedirect_CountsVisits(t *testing.T) {
	env := setupTestEnv(t, "")
	env.shorten(t, map[string]any{"url": "https://example.com", "slug": "counted", "maxVisits": 10})

	for i := 1; i <= 4; i++ {
		w := env.do(http.MethodGet, "/counted", nil, nil)
		require.Equal(t, http.StatusFound, w.Code)
	}

	link, err := env.repo.Get(context.Background(), "counted")
	require.NoError(t, err)
	assert.Equal(t, 4, link.Visits)
}

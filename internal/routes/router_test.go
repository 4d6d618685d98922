package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon-tracker/internal/config"
	"beacon-tracker/internal/infrastructure/database/memory"
	"beacon-tracker/internal/logger"
	"beacon-tracker/internal/realtime"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := logger.Init("development"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "development"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type", "Authorization"},
		},
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	deviceRepo := realtime.NewNotifyingRepository(memory.NewDeviceRepository(), hub)
	userRepo := memory.NewUserRepository()

	return SetupRoutes(testConfig(), nil, deviceRepo, userRepo, hub)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    email,
		"password": "Str0ng-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestDeviceEndpointsRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/devices/me"},
		{http.MethodPut, "/api/v1/devices/me"},
		{http.MethodPost, "/api/v1/devices/me/position"},
		{http.MethodPost, "/api/v1/devices/me/deactivate"},
	} {
		w := doJSON(t, router, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestIconsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/devices/icons", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fox")
}

func TestDeviceLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "lifecycle@example.com")

	// No device yet.
	w := doJSON(t, router, http.MethodGet, "/api/v1/devices/me", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Publishing before registering is a configuration error.
	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/me/position", token, gin.H{
		"lat": 41.90, "lng": 12.49, "accuracy": 15,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Register the device.
	w = doJSON(t, router, http.MethodPut, "/api/v1/devices/me", token, gin.H{
		"name":       "Alpha",
		"identifier": "dev-001",
		"icon":       "fox",
		"lat":        41.90,
		"lng":        12.49,
		"accuracy":   15,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"glyph":"🦊"`)

	// It now appears in the public active list.
	w = doJSON(t, router, http.MethodGet, "/api/v1/devices/active", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alpha")

	// A position update moves the marker.
	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/me/position", token, gin.H{
		"lat": 45.46, "lng": 9.19, "accuracy": 8,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "45.46")

	// Deactivation removes it from the active list.
	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/me/deactivate", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/devices/active", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Alpha")
}

func TestSaveDeviceValidationOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "validation@example.com")

	// Missing identifier.
	w := doJSON(t, router, http.MethodPut, "/api/v1/devices/me", token, gin.H{
		"name": "Alpha", "lat": 1.0, "lng": 2.0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// First save without a position.
	w = doJSON(t, router, http.MethodPut, "/api/v1/devices/me", token, gin.H{
		"name": "Alpha", "identifier": "dev-001",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLoginOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	registerAndLogin(t, router, "login@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "login@example.com",
		"password": "Str0ng-pass",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "login@example.com",
		"password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

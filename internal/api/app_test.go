package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/campus-connect/internal/config"
	"github.com/campusconnect/campus-connect/internal/database"
	"github.com/campusconnect/campus-connect/internal/notify"
	"github.com/campusconnect/campus-connect/internal/realtime"
	"github.com/campusconnect/campus-connect/internal/testutil"
)

const (
	userOne      = "0190f3a1-7c2e-7a10-8b00-000000000001"
	userTwo      = "0190f3a1-7c2e-7a10-8b00-000000000002"
	conversation = "0190f3a1-7c2e-7a10-8b00-0000000000c1"
	notification = "0190f3a1-7c2e-7a10-8b00-0000000000a1"
)

var testConfig = &config.Config{
	ServerAddr:     "localhost:8000",
	DatabaseDSN:    "dsn",
	SigningKey:     []byte("test-signing-key"),
	AllowedOrigins: []string{"http://localhost:5173"},
}

func newTestApp(t *testing.T, repo database.Repository, hub *realtime.Hub) *App {
	logger := testutil.TestLogger(t)
	notifier := notify.NewService(repo, notify.NewEmitter(logger, hub))
	return NewApp(http.NewServeMux(), logger, hub, repo, notifier, testConfig)
}

// serve sends the request through the full handler chain authenticated as
// userId, or anonymously when userId is empty.
func serve(t *testing.T, app *App, method, target string, body io.Reader, userId string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if userId != "" {
		token, err := app.createJwtForSession(userId)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	app.Handler().ServeHTTP(rr, req)
	return rr
}

func TestNewApp(t *testing.T) {
	mux := http.NewServeMux()
	logger := testutil.TestLogger(t)
	repo := &database.MockRepository{}
	hub := &realtime.Hub{}

	app := NewApp(mux, logger, hub, repo, nil, testConfig)

	assert.NotNil(t, app.srv, "expected server to be initialized")
	assert.Equal(t, logger, app.log)
	assert.Equal(t, repo, app.db)
	assert.Equal(t, hub, app.hub)
	assert.NotNil(t, app.validate)
	assert.Equal(t, testConfig.SigningKey, app.signingKey)
	assert.Equal(t, config.DefaultTokenExpiration, app.tokenTTL, "expected default token lifetime")
	assert.Equal(t, testConfig.ServerAddr, app.srv.Addr)
}

func TestCORS(t *testing.T) {
	app := newTestApp(t, &database.MockRepository{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/notifications", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	app.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

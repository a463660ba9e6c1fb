package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"socialnet/activity"
	apirest "socialnet/api/rest"
	"socialnet/audit"
	"socialnet/cache"
	"socialnet/config"
	"socialnet/friends"
	mw "socialnet/middleware"
	"socialnet/testutil"
)

// TestServer wraps a real HTTP server with the full service wired together.
type TestServer struct {
	DB      *gorm.DB
	Cache   cache.Cache
	Friends *friends.Service
	Server  *httptest.Server
	URL     string
	Sec     config.SecurityConfig
}

// NewTestServer creates a fully wired server for integration testing.
// It mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTL:         72 * time.Hour,
		BcryptCost:     4,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}

	recorder := activity.NewRecorder(db)
	friendsSvc := friends.New(db, c, recorder, friends.Config{}, logger)

	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(nil) })

	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))
	r.Use(auditSvc.Middleware())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes (mirrors main.go) ----
	authH := apirest.NewAuthHandler(db, c, sec)
	friendsH := apirest.NewFriendsHandler(friendsSvc)
	usersH := apirest.NewUsersHandler(db, friendsSvc)
	activityH := apirest.NewActivityHandler(recorder)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/signup", authH.Signup)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(sec, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(sec, c), authH.Refresh)

		usersG := api.Group("/users")
		usersG.Use(mw.Auth(sec, c))
		usersG.GET("/search", usersH.Search)
		usersG.POST("/:id/block", mw.RequireWrite(), usersH.Block)
		usersG.DELETE("/:id/block", mw.RequireWrite(), usersH.Unblock)

		friendsG := api.Group("/friends")
		friendsG.Use(mw.Auth(sec, c))
		friendsG.POST("/request", mw.RequireWrite(), friendsH.Send)
		friendsG.PUT("/request/:id", mw.RequireWrite(), friendsH.Respond)
		friendsG.GET("/list", friendsH.List)
		friendsG.GET("/pending", friendsH.Pending)

		userG := api.Group("/user")
		userG.Use(mw.Auth(sec, c))
		userG.GET("/activity", activityH.List)
	}

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &TestServer{
		DB:      db,
		Cache:   c,
		Friends: friendsSvc,
		Server:  server,
		URL:     server.URL,
		Sec:     sec,
	}
}

// --- HTTP helpers ---

// PostJSON sends a POST request with JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodPost, path, body, token)
}

// PutJSON sends a PUT request with JSON body and optional Bearer token.
func (ts *TestServer) PutJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodPut, path, body, token)
}

// Get sends a GET request with optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodGet, path, nil, token)
}

// Delete sends a DELETE request with optional Bearer token.
func (ts *TestServer) Delete(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodDelete, path, nil, token)
}

func (ts *TestServer) do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ReadJSON decodes a response body into a map and closes it.
func ReadJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

// Signup registers a user and returns their id.
func (ts *TestServer) Signup(t *testing.T, email, password, name string) int64 {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/signup", map[string]string{
		"email": email, "password": password, "name": name,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	m := ReadJSON(t, resp)
	return int64(m["user_id"].(float64))
}

// Login authenticates and returns the bearer token.
func (ts *TestServer) Login(t *testing.T, email, password string) string {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := ReadJSON(t, resp)
	return m["token"].(string)
}

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/BradenHooton/acctlock/internal/app"
	"github.com/BradenHooton/acctlock/internal/config"
	"github.com/BradenHooton/acctlock/internal/database"
	"github.com/BradenHooton/acctlock/internal/models"
)

// TestServer wraps httptest.Server with the full service graph over a real
// database and an in-process redis
type TestServer struct {
	Server *httptest.Server
	App    *app.App
	Redis  *miniredis.Miniredis
	Config *config.Config
}

// NewTestServer initializes a complete HTTP server with real database + miniredis
func NewTestServer(ctx context.Context, db *database.DB) (*TestServer, error) {
	logger := discardLogger()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: "0",
			Env:  "test",
		},
		Auth: config.AuthConfig{
			JWTSecret:              "test-secret-32-characters-long-for-testing",
			AccessTokenExpiry:      15 * time.Minute,
			RefreshTokenExpiry:     7 * 24 * time.Hour,
			SessionCleanupInterval: time.Hour,
			LoginRequestsPerMinute: 100,
		},
		Lock: config.LockConfig{
			DefaultMessage:   models.DefaultDenialMessage,
			ActivityTimezone: time.UTC,
			ActivityPageSize: models.DefaultActivityPageSize,
		},
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start miniredis: %w", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	reg := prometheus.NewRegistry()
	a := app.NewWithClients(db, rdb, cfg, reg, logger)
	if err := a.Settings.EnsureDefaults(ctx); err != nil {
		mr.Close()
		return nil, err
	}

	router := a.Router(cfg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logger)

	return &TestServer{
		Server: httptest.NewServer(router),
		App:    a,
		Redis:  mr,
		Config: cfg,
	}, nil
}

// Close shuts down the test server. The database pool belongs to TestDB.
func (ts *TestServer) Close() {
	ts.Server.Close()
	_ = ts.App.Redis.Close()
	ts.Redis.Close()
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
}

// Login posts credentials and returns the token pair
func (ts *TestServer) Login(email, password string) (*http.Response, string, string, error) {
	resp, err := ts.Request(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return nil, "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, "", "", nil
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := ParseJSONResponse(resp, &tokens); err != nil {
		return resp, "", "", err
	}
	return resp, tokens.AccessToken, tokens.RefreshToken, nil
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

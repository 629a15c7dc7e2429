package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/config"
	"github.com/phrazzld/skillswap-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "error", ShutdownTimeoutSeconds: 1},
		Database: config.DatabaseConfig{
			Driver: config.DriverMemory,
		},
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret-that-is-at-least-32-characters",
			TokenLifetimeMinutes: 60,
		},
		Matching: config.MatchingConfig{MaxLimit: 50},
		Sessions: config.SessionsConfig{
			DefaultLeadTimeHours:   24,
			DefaultDurationMinutes: 60,
			DefaultLocation:        "To be arranged",
		},
		Sweep:     config.SweepConfig{Enabled: true, IntervalSeconds: 60, BatchSize: 10},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 600, Burst: 100},
	}
}

func useConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	original := loadConfig
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = original })
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewApplication_MemoryDriver(t *testing.T) {
	cfg := testConfig()
	app, err := newApplication(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(app.cleanup)

	require.NotNil(t, app.sweeper, "sweep is enabled")
	assert.Nil(t, app.db)

	srv := httptest.NewServer(app.handler)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "skillswap_match_queries_total")
	assert.Contains(t, string(body), `skillswap_http_responses_total{status_code="200"} 1`)

	resp, err = http.Get(srv.URL + "/api/users/me")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNewApplication_SweepDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Sweep.Enabled = false

	app, err := newApplication(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(app.cleanup)

	assert.Nil(t, app.sweeper)
	assert.Nil(t, app.workerPool)
	app.startBackground(context.Background())
}

func TestNewApplication_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown driver",
			mutate: func(c *config.Config) { c.Database.Driver = "sqlite" },
			want:   "unsupported database driver",
		},
		{
			name:   "short jwt secret",
			mutate: func(c *config.Config) { c.Auth.JWTSecret = "short" },
			want:   "failed to create JWT service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			app, err := newApplication(context.Background(), cfg, discardLogger())
			require.Error(t, err)
			assert.Nil(t, app)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0

	app, err := newApplication(context.Background(), cfg, discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, app.run(ctx))
}

func TestTokenCommand(t *testing.T) {
	cfg := testConfig()
	useConfig(t, cfg)
	userID := uuid.New()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--user", userID.String()})
	require.NoError(t, cmd.Execute())

	jwtService, err := auth.NewJWTService(cfg.Auth)
	require.NoError(t, err)
	claims, err := jwtService.ValidateToken(context.Background(), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestTokenCommand_InvalidUser(t *testing.T) {
	useConfig(t, testConfig())

	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"token", "--user", "not-a-uuid"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --user")
}

func TestMigrateCommand_RequiresPostgres(t *testing.T) {
	useConfig(t, testConfig())

	for _, sub := range []string{"up", "down", "status", "version"} {
		t.Run(sub, func(t *testing.T) {
			cmd := newRootCommand()
			cmd.SetOut(io.Discard)
			cmd.SetArgs([]string{"migrate", sub})
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "postgres")
		})
	}
}

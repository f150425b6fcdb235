package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftledger/backend/internal/cache"
	"shiftledger/backend/internal/config"
	"shiftledger/backend/internal/logger"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: "short"}))
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: strongSecret, SeedClearSalePIN: "1234"}))
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: strongSecret, SeedClearSalePIN: "0000"}))
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: strongSecret, SeedClearSalePIN: "12a4"}))
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: strongSecret, SeedClearSalePIN: "73"}))
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: strongSecret, SeedAdminPassword: "admin"}))
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	assert.NoError(t, validateSecurityConfig(config.Config{AuthSecret: strongSecret}))
	assert.NoError(t, validateSecurityConfig(config.Config{
		AuthSecret:        strongSecret,
		SeedClearSalePIN:  "739154",
		SeedAdminPassword: "long-enough-password",
	}))
}

func TestNewAppInMemory(t *testing.T) {
	cfg := config.Config{
		AllowedOrigin:          "*",
		AuthSecret:             strongSecret,
		AccessTokenTTLMinutes:  60,
		DefaultTenantID:        "main",
		FiscalYearStartMonth:   1,
		SummaryCacheTTLSeconds: 30,
		SeedAdminPassword:      "admin-password",
	}
	application, err := newApp(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, application.Close()) })

	res := httptest.NewRecorder()
	application.handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, res.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewBufferString(`{"username":"admin","password":"admin-password"}`))
	req.Header.Set("Content-Type", "application/json")
	res = httptest.NewRecorder()
	application.handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = httptest.NewRecorder()
	application.handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "go_goroutines")
	assert.Contains(t, res.Body.String(), "shiftledger_operations_total")
}

func TestSummaryCacheFallsBackToInProcess(t *testing.T) {
	summaries, closeFn := newSummaryCache(context.Background(), config.Config{}, logger.Nop())
	assert.IsType(t, &cache.MemorySummaryCache{}, summaries)
	assert.Nil(t, closeFn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summaries, closeFn = newSummaryCache(ctx, config.Config{RedisAddr: "127.0.0.1:1"}, logger.Nop())
	assert.IsType(t, &cache.MemorySummaryCache{}, summaries, "unreachable redis")
	assert.Nil(t, closeFn)
}

func TestAppCloseCombinesErrors(t *testing.T) {
	calls := 0
	a := &app{closers: []func() error{
		func() error { calls++; return assert.AnError },
		func() error { calls++; return nil },
	}}
	err := a.Close()
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, calls)
}

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/ledger"
	"shiftledger/backend/internal/service"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	assert.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, res.Header().Get("Referrer-Policy"))
}

func TestPreflightShortCircuits(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sales", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Equal(t, "*", res.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoginRateLimitReturns429(t *testing.T) {
	e := newTestEnv(t)

	for i := 0; i < 6; i++ {
		res := e.do(t, call{
			method: http.MethodPost,
			path:   "/api/v1/auth/login",
			body:   domain.LoginRequest{Username: "admin", Password: "wrong-pass"},
			remote: "127.0.0.1:5000",
		})
		if i < 5 {
			require.Equal(t, http.StatusUnauthorized, res.Code, "attempt %d before limit", i+1)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, res.Code)
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"username":"%s","password":"x"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "seller", "seller123")

	res := e.do(t, call{
		method: http.MethodPost, path: "/api/v1/shifts/open", token: token,
		body: map[string]any{"date": "2024-03-05", "segment": "morning"},
	})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = e.do(t, call{
		method: http.MethodPost, path: "/api/v1/shifts/open", token: token, csrf: "forged",
		body: map[string]any{"date": "2024-03-05", "segment": "morning"},
	})
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestCSRFTokenAcceptsPreviousHour(t *testing.T) {
	api := newTestAPI(t)
	assert.True(t, api.validateCSRFToken(api.generateCSRFToken()))

	current := api.csrfTokenForHour(0)
	assert.NotEqual(t, current, api.csrfTokenForHour(3600))
	assert.False(t, api.validateCSRFToken(""))
}

func TestClearPINRateLimitReturns429(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "seller", "seller123")
	csrf := fetchCSRFToken(t, e.api)
	openSellerShift(t, e, token, csrf, 0)

	res := e.do(t, call{
		method: http.MethodPost, path: "/api/v1/cart/items", token: token, csrf: csrf,
		body: map[string]any{"product_id": "prd-coffee", "quantity": 1},
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	for i := 0; i < 9; i++ {
		res := e.do(t, call{
			method: http.MethodPost, path: "/api/v1/cart/clear", token: token, csrf: csrf,
			body:   map[string]any{"pin": "000000"},
			remote: "127.0.0.1:5001",
		})
		if i < 8 {
			require.Equal(t, http.StatusForbidden, res.Code, "attempt %d before pin limit", i+1)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, res.Code)
	}
}

func TestAttemptLimiterWindow(t *testing.T) {
	limiter := newAttemptLimiter(2, 0)
	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"), "keys are limited independently")

	var nilLimiter *attemptLimiter
	assert.True(t, nilLimiter.Allow("a"))
}

func TestClientKeyStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:4123"
	assert.Equal(t, "10.0.0.7", clientKey(req))

	req.RemoteAddr = "[::1]:80"
	assert.Equal(t, "::1", clientKey(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown", clientKey(req))
}

func TestParsePositiveLimitCaps(t *testing.T) {
	assert.Equal(t, 200, parsePositiveLimit("9999", 50, 200))
	assert.Equal(t, 50, parsePositiveLimit("", 50, 200))
	assert.Equal(t, 50, parsePositiveLimit("invalid", 50, 200))
	assert.Equal(t, 50, parsePositiveLimit("-3", 50, 200))
}

func TestStatusForErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{ledger.ErrWrongPin, http.StatusForbidden},
		{ledger.ErrShiftNotFound, http.StatusNotFound},
		{ledger.ErrNotFound, http.StatusNotFound},
		{ledger.ErrValidation, http.StatusBadRequest},
		{&requestError{message: "bad"}, http.StatusBadRequest},
		{ledger.ErrShiftAlreadyOpen, http.StatusConflict},
		{ledger.ErrAlreadyReconciled, http.StatusConflict},
		{ledger.ErrInsufficientStock, http.StatusUnprocessableEntity},
		{ledger.ErrZeroSalesConfirmationRequired, http.StatusUnprocessableEntity},
		{ledger.ErrExceedsDrawerCash, http.StatusUnprocessableEntity},
		{ledger.PersistenceError(errors.New("db down")), http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", ledger.ErrNegativeCashCounted), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestInternalErrorsHideDetails(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()

	api.writeServiceError(res, req, errors.New("pq: relation tenant_collections does not exist"))

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.NotContains(t, res.Body.String(), "tenant_collections")
}

// fetchCSRFToken calls the CSRF token endpoint and returns the token string.
func fetchCSRFToken(t *testing.T, api *API) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/csrf-token", nil)
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	tok := payload["csrf_token"]
	require.NotEmpty(t, strings.TrimSpace(tok))
	return tok
}

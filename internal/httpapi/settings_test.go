package httpapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetClearSalePINRejectsWeakPIN(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "admin", "admin123")
	csrf := fetchCSRFToken(t, e.api)

	res := e.do(t, call{
		method: http.MethodPut, path: "/api/v1/settings/clear-sale-pin", token: token, csrf: csrf,
		body: map[string]any{"pin": "1234"},
	})
	require.Equal(t, http.StatusBadRequest, res.Code, res.Body.String())
	body := decodeBody(t, res)
	assert.Equal(t, "validation", body["code"])
	assert.Contains(t, body["error"], "sequential")

	res = e.do(t, call{
		method: http.MethodPut, path: "/api/v1/settings/clear-sale-pin", token: token, csrf: csrf,
		body: map[string]any{"pin": "739154"},
	})
	assert.Equal(t, http.StatusOK, res.Code, res.Body.String())
}

func TestFiscalYearSettingsRoutes(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin", "admin123")
	seller := e.login(t, "seller", "seller123")
	csrf := fetchCSRFToken(t, e.api)

	res := e.do(t, call{method: http.MethodGet, path: "/api/v1/settings", token: admin})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	body := decodeBody(t, res)
	assert.Equal(t, float64(1), body["fiscal_year_start_month"])
	assert.Equal(t, true, body["clear_sale_pin_set"])
	assert.NotContains(t, body, "clear_sale_pin_hash")

	res = e.do(t, call{
		method: http.MethodPut, path: "/api/v1/settings/fiscal-year", token: admin, csrf: csrf,
		body: map[string]any{"start_month": 7},
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, float64(7), decodeBody(t, res)["fiscal_year_start_month"])

	res = e.do(t, call{
		method: http.MethodPut, path: "/api/v1/settings/fiscal-year", token: admin, csrf: csrf,
		body: map[string]any{"start_month": 13},
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = e.do(t, call{
		method: http.MethodPut, path: "/api/v1/settings/fiscal-year", token: seller, csrf: csrf,
		body: map[string]any{"start_month": 4},
	})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = e.do(t, call{method: http.MethodGet, path: "/api/v1/settings", token: admin})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(7), decodeBody(t, res)["fiscal_year_start_month"])
}

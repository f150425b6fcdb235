package httpapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/ledger"
	"shiftledger/backend/internal/logger"
	"shiftledger/backend/internal/service"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
	pinLimiter    *attemptLimiter
	csrfSecret    []byte
	log           *logger.Logger
	metrics       http.Handler
}

type Option func(*API)

func WithLogger(l *logger.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.log = l
		}
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *API) {
		a.metrics = h
	}
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string, opts ...Option) *API {
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		csrfSecret = []byte("csrf-fallback-secret-change-me!!")
	}
	a := &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		pinLimiter:    newAttemptLimiter(8, time.Minute),
		csrfSecret:    csrfSecret,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// csrfTokenForHour computes a hex HMAC-SHA256 token for an hour bucket given
// as Unix seconds truncated to the hour.
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

func (a *API) generateCSRFToken() string {
	bucket := time.Now().UTC().Truncate(time.Hour).Unix()
	return a.csrfTokenForHour(bucket)
}

// validateCSRFToken accepts tokens from the current or previous hour bucket.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	currentBucket := time.Now().UTC().Truncate(time.Hour).Unix()
	prevBucket := currentBucket - 3600

	return hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(currentBucket))) ||
		hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(prevBucket)))
}

var csrfExemptPaths = []string{
	"/api/v1/auth/login",
}

// checkCSRF enforces the X-CSRF-Token header on POST, PUT and PATCH. It writes
// the error response itself and reports whether the request may continue.
func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	method := r.Method
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
		return true
	}
	for _, exempt := range csrfExemptPaths {
		if r.URL.Path == exempt {
			return true
		}
	}
	token := strings.TrimSpace(r.Header.Get("X-CSRF-Token"))
	if !a.validateCSRFToken(token) {
		a.writeError(w, r, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(a.recoverer, a.requestID, a.withMiddleware)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		a.writeError(w, r, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowed(a.writeMethodNotAllowed)

	r.Get("/healthz", a.handleHealth)
	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)
		r.Get("/auth/csrf-token", a.handleCSRFToken)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth(domain.RoleSeller, domain.RoleAdmin))

			r.Get("/products", a.handleListProducts)
			r.Get("/deals", a.handleListDeals)
			r.Get("/recipes", a.handleListRecipes)

			r.Post("/shifts/open", a.handleShiftOpen)
			r.Get("/shifts/active", a.handleShiftActive)
			r.Get("/shifts", a.handleListShifts)
			r.Patch("/shifts/{shiftID}/initial-cash", a.handleEditInitialCash)
			r.Get("/shifts/{shiftID}/summary", a.handleShiftSummary)
			r.Post("/shifts/{shiftID}/reconcile", a.handleReconcile)

			r.Post("/sales", a.handleRecordSale)
			r.Get("/sales", a.handleListSales)
			r.Post("/petty-cash", a.handleRecordPettyCash)
			r.Get("/petty-cash", a.handleListPettyCash)

			r.Get("/cart", a.handleCart)
			r.Post("/cart/items", a.handleAddToCart)
			r.Patch("/cart/items/{lineID}", a.handleUpdateCartLine)
			r.Post("/cart/items/{lineID}/clear", a.handleClearCartItem)
			r.Post("/cart/clear", a.handleClearCart)
			r.Post("/cart/checkout", a.handleCheckoutCart)
			r.Get("/cleared-sales", a.handleListClearedSales)

			r.Get("/production-orders", a.handleListProductionOrders)
			r.Get("/dashboard", a.handleDashboard)
		})

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth(domain.RoleAdmin))

			r.Put("/products/{productID}", a.handleUpsertProduct)
			r.Post("/products/{productID}/stock", a.handleAdjustStock)
			r.Put("/deals/{dealID}", a.handleUpsertDeal)
			r.Put("/recipes/{recipeID}", a.handleUpsertRecipe)

			r.Post("/production-orders", a.handleCreateProductionOrder)
			r.Post("/production-orders/{orderID}/complete", a.handleCompleteProductionOrder)
			r.Post("/production-orders/{orderID}/cancel", a.handleCancelProductionOrder)

			r.Get("/settings", a.handleGetSettings)
			r.Put("/settings/clear-sale-pin", a.handleSetClearSalePIN)
			r.Put("/settings/fiscal-year", a.handleSetFiscalYear)
			r.Get("/users", a.handleListUsers)
			r.Post("/users", a.handleCreateUser)
		})
	})

	return r
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// ledgerFilter reads the shared list query parameters.
func ledgerFilter(r *http.Request) domain.LedgerFilter {
	q := r.URL.Query()
	return domain.LedgerFilter{
		SellerID: strings.TrimSpace(q.Get("seller_id")),
		ShiftID:  strings.TrimSpace(q.Get("shift_id")),
		Date:     strings.TrimSpace(q.Get("date")),
		Limit:    parsePositiveLimit(q.Get("limit"), 100, 500),
	}
}

func (a *API) writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// writeError writes {"error": msg}. 5xx responses carry a generic message and
// the cause goes to the log.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		a.log.Error(a.log.WithField(r.Context(), "status", status), "internal error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

type errorBody struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// writeServiceError maps a service or ledger failure to its HTTP status.
func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		body := errorBody{Error: reqErr.Error(), Code: string(ledger.KindValidation)}
		if len(reqErr.fields) > 0 {
			body.Details = make(map[string]any, len(reqErr.fields))
			for k, v := range reqErr.fields {
				body.Details[k] = v
			}
		}
		writeJSON(w, status, body)
		return
	}
	var le *ledger.Error
	if errors.As(err, &le) {
		if le.Kind == ledger.KindPersistence {
			a.log.Error(r.Context(), "ledger persistence failed", err)
		}
		writeJSON(w, status, errorBody{
			Error:     le.Error(),
			Code:      string(le.Kind),
			Details:   le.Detail,
			Retryable: le.Retryable(),
		})
		return
	}
	a.writeError(w, r, status, err)
}

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInactiveAccount):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	}

	switch ledger.KindOf(err) {
	case ledger.KindValidation:
		return http.StatusBadRequest
	case ledger.KindNotFound, ledger.KindShiftNotFound:
		return http.StatusNotFound
	case ledger.KindWrongPin:
		return http.StatusForbidden
	case ledger.KindShiftAlreadyOpen, ledger.KindAlreadyReconciled:
		return http.StatusConflict
	case ledger.KindInsufficientStock,
		ledger.KindInsufficientPayment,
		ledger.KindShiftNotActive,
		ledger.KindZeroSalesConfirmationRequired,
		ledger.KindNegativeCashCounted,
		ledger.KindInvalidOrderState,
		ledger.KindNoActiveShift,
		ledger.KindExceedsDrawerCash:
		return http.StatusUnprocessableEntity
	case ledger.KindPersistence:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

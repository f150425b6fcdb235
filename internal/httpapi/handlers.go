package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"shiftledger/backend/internal/domain"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Ping(r.Context()); err != nil {
		a.log.Error(r.Context(), "health check failed", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ok": false,
			"at": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		a.writeError(w, r, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCSRFToken returns a token for the X-CSRF-Token header of mutating
// requests. It stays valid through the next hour bucket.
func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleUpsertProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	product, err := a.service.UpsertProduct(r.Context(), chi.URLParam(r, "productID"), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req domain.StockAdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	product, err := a.service.AdjustStock(r.Context(), strings.TrimSpace(chi.URLParam(r, "productID")), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := a.service.ListDeals(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deals": deals})
}

func (a *API) handleUpsertDeal(w http.ResponseWriter, r *http.Request) {
	var req domain.DealUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	deal, err := a.service.UpsertDeal(r.Context(), chi.URLParam(r, "dealID"), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

func (a *API) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := a.service.ListRecipes(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

func (a *API) handleUpsertRecipe(w http.ResponseWriter, r *http.Request) {
	var req domain.RecipeUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	recipe, err := a.service.UpsertRecipe(r.Context(), chi.URLParam(r, "recipeID"), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (a *API) handleShiftOpen(w http.ResponseWriter, r *http.Request) {
	var req domain.ShiftOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	shift, err := a.service.OpenShift(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, shift)
}

func (a *API) handleShiftActive(w http.ResponseWriter, r *http.Request) {
	shift, err := a.service.ActiveShift(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (a *API) handleListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := a.service.ListShifts(r.Context(), ledgerFilter(r))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shifts": shifts})
}

func (a *API) handleEditInitialCash(w http.ResponseWriter, r *http.Request) {
	var req domain.InitialCashEditRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	shift, err := a.service.EditInitialCash(r.Context(), chi.URLParam(r, "shiftID"), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (a *API) handleShiftSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.ShiftSummary(r.Context(), chi.URLParam(r, "shiftID"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req domain.ReconcileRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	shift, err := a.service.Reconcile(r.Context(), chi.URLParam(r, "shiftID"), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (a *API) handleRecordSale(w http.ResponseWriter, r *http.Request) {
	var req domain.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	resp, err := a.service.RecordSale(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := a.service.ListSales(r.Context(), ledgerFilter(r))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleRecordPettyCash(w http.ResponseWriter, r *http.Request) {
	var req domain.PettyCashRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	entry, err := a.service.RecordPettyCash(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (a *API) handleListPettyCash(w http.ResponseWriter, r *http.Request) {
	entries, err := a.service.ListPettyCash(r.Context(), ledgerFilter(r))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"petty_cash": entries})
}

func (a *API) handleCart(w http.ResponseWriter, r *http.Request) {
	cart, err := a.service.Cart(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(cart))
}

func (a *API) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req domain.CartAddRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	cart, err := a.service.AddToCart(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(cart))
}

func (a *API) handleUpdateCartLine(w http.ResponseWriter, r *http.Request) {
	var req domain.CartLineUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	cart, err := a.service.UpdateCartLine(r.Context(), chi.URLParam(r, "lineID"), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(cart))
}

func (a *API) handleClearCartItem(w http.ResponseWriter, r *http.Request) {
	if !a.pinLimiter.Allow(clientKey(r)) {
		a.writeError(w, r, http.StatusTooManyRequests, errors.New("too many pin attempts"))
		return
	}
	var req domain.CartClearRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	entry, err := a.service.ClearCartItem(r.Context(), chi.URLParam(r, "lineID"), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if !a.pinLimiter.Allow(clientKey(r)) {
		a.writeError(w, r, http.StatusTooManyRequests, errors.New("too many pin attempts"))
		return
	}
	var req domain.CartClearRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	entry, err := a.service.ClearCart(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) handleCheckoutCart(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutCartRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	resp, err := a.service.CheckoutCart(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleListClearedSales(w http.ResponseWriter, r *http.Request) {
	entries, err := a.service.ListClearedSales(r.Context(), ledgerFilter(r))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared_sales": entries})
}

func (a *API) handleCreateProductionOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductionOrderCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	order, err := a.service.CreateProductionOrder(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (a *API) handleListProductionOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	orders, err := a.service.ListProductionOrders(r.Context(), status)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"production_orders": orders})
}

func (a *API) handleCompleteProductionOrder(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.CompleteProductionOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleCancelProductionOrder(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.CancelProductionOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := a.service.Dashboard(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (a *API) handleSetClearSalePIN(w http.ResponseWriter, r *http.Request) {
	var req domain.ClearPINRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if err := a.service.SetClearSalePIN(r.Context(), req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.service.Settings(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handleSetFiscalYear(w http.ResponseWriter, r *http.Request) {
	var req domain.FiscalYearRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	settings, err := a.service.SetFiscalYearStart(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.service.ListUsers(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	user, err := a.service.CreateUser(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func cartResponse(cart domain.Cart) map[string]any {
	return map[string]any{
		"cart":        cart,
		"total_cents": cart.TotalCents(),
	}
}

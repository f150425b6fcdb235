package domain

import (
	"github.com/shopspring/decimal"
)

// LoginRequest falls back to the server's default tenant when TenantID is empty.
type LoginRequest struct {
	TenantID string `json:"tenant_id"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	TenantID    string `json:"tenant_id"`
	ExpiresAt   string `json:"expires_at"`
}

type UserCreateRequest struct {
	Username    string `json:"username" validate:"required,min=4,max=64"`
	DisplayName string `json:"display_name" validate:"max=120"`
	Password    string `json:"password" validate:"required,min=6"`
	Role        string `json:"role" validate:"required,oneof=admin seller"`
}

type UserView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
}

type ProductUpsertRequest struct {
	Code           string          `json:"code" validate:"required,max=64"`
	Name           string          `json:"name" validate:"required,max=200"`
	UnitPriceCents int64           `json:"unit_price_cents" validate:"gte=0"`
	Stock          decimal.Decimal `json:"stock"`
	Unit           string          `json:"unit" validate:"max=16"`
	CategoryID     string          `json:"category_id"`
	ItemTypeID     string          `json:"item_type_id"`
	Active         *bool           `json:"active"`
}

type StockAdjustRequest struct {
	Stock decimal.Decimal `json:"stock"`
}

type DealUpsertRequest struct {
	Name       string          `json:"name" validate:"required,max=200"`
	PriceCents int64           `json:"price_cents" validate:"gte=0"`
	Active     *bool           `json:"active"`
	Components []DealComponent `json:"components" validate:"required,min=1,dive"`
}

type RecipeUpsertRequest struct {
	Name           string             `json:"name" validate:"required,max=200"`
	FinalProductID string             `json:"final_product_id" validate:"required"`
	RoutingID      string             `json:"routing_id"`
	Ingredients    []RecipeIngredient `json:"ingredients" validate:"required,min=1,dive"`
}

type ShiftOpenRequest struct {
	Date             string  `json:"date" validate:"required,datetime=2006-01-02"`
	Segment          Segment `json:"segment" validate:"required,oneof=morning afternoon"`
	InitialCashCents int64   `json:"initial_cash_cents" validate:"gte=0"`
	SellerID         string  `json:"seller_id"`
	SellerName       string  `json:"seller_name"`
}

type InitialCashEditRequest struct {
	InitialCashCents int64 `json:"initial_cash_cents" validate:"gte=0"`
}

type ReconcileRequest struct {
	ActualCashCountedCents int64 `json:"actual_cash_counted_cents"`
	ConfirmZeroSales       bool  `json:"confirm_zero_sales"`
}

// SaleLineRequest names exactly one of ProductID or DealID.
type SaleLineRequest struct {
	ProductID string          `json:"product_id"`
	DealID    string          `json:"deal_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type SaleRequest struct {
	Lines               []SaleLineRequest `json:"lines" validate:"required,min=1"`
	AmountReceivedCents int64             `json:"amount_received_cents" validate:"gte=0"`
	CustomerID          string            `json:"customer_id"`
}

type SaleResponse struct {
	Sale             SaleRecord `json:"sale"`
	ChangeGivenCents int64      `json:"change_given_cents"`
}

type CheckoutCartRequest struct {
	AmountReceivedCents int64  `json:"amount_received_cents" validate:"gte=0"`
	CustomerID          string `json:"customer_id"`
}

type PettyCashRequest struct {
	Description string `json:"description" validate:"required,max=300"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
}

type CartAddRequest struct {
	ProductID string          `json:"product_id"`
	DealID    string          `json:"deal_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type CartLineUpdateRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type CartClearRequest struct {
	PIN string `json:"pin" validate:"required"`
}

type ClearPINRequest struct {
	PIN string `json:"pin" validate:"required,min=4,max=12,numeric"`
}

type FiscalYearRequest struct {
	StartMonth int `json:"start_month" validate:"required,min=1,max=12"`
}

type ProductionOrderCreateRequest struct {
	RecipeID          string          `json:"recipe_id" validate:"required"`
	QuantityToProduce decimal.Decimal `json:"quantity_to_produce"`
	LostQuantity      decimal.Decimal `json:"lost_quantity"`
}

type ShiftSummary struct {
	Shift             DailyCashEntry `json:"shift"`
	SalesCount        int            `json:"sales_count"`
	SalesTotalCents   int64          `json:"sales_total_cents"`
	PettyCashCount    int            `json:"petty_cash_count"`
	PettyCashCents    int64          `json:"petty_cash_cents"`
	ExpectedCashCents int64          `json:"expected_cash_cents"`
}

type Dashboard struct {
	Date               string `json:"date"`
	OpenShiftsCount    int    `json:"open_shifts_count"`
	TodaysSalesCents   int64  `json:"todays_sales_cents"`
	CurrentDrawerCents *int64 `json:"current_drawer_cents,omitempty"`
	ActiveShiftID      string `json:"active_shift_id,omitempty"`
}

type LedgerFilter struct {
	SellerID string
	ShiftID  string
	Date     string
	Limit    int
}

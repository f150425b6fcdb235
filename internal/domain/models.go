package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin  = "admin"
	RoleSeller = "seller"
)

// Collection keys used for whole-collection snapshots of a tenant's data.
const (
	CollectionProducts         = "products"
	CollectionDeals            = "deals"
	CollectionRecipes          = "recipes"
	CollectionProductionOrders = "production_orders"
	CollectionDailyCash        = "daily_cash_entries"
	CollectionSales            = "sales"
	CollectionPettyCash        = "petty_cash"
	CollectionClearedSales     = "cleared_sales"
	CollectionInvoiceCounters  = "invoice_counters"
	CollectionSettings         = "settings"
	CollectionUsers            = "users"
)

var Collections = []string{
	CollectionProducts,
	CollectionDeals,
	CollectionRecipes,
	CollectionProductionOrders,
	CollectionDailyCash,
	CollectionSales,
	CollectionPettyCash,
	CollectionClearedSales,
	CollectionInvoiceCounters,
	CollectionSettings,
	CollectionUsers,
}

type Actor struct {
	UserID   string
	Username string
	TenantID string
	Role     string
}

type Product struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	Stock          decimal.Decimal `json:"stock"`
	Unit           string          `json:"unit,omitempty"`
	CategoryID     string          `json:"category_id,omitempty"`
	ItemTypeID     string          `json:"item_type_id,omitempty"`
	Active         bool            `json:"active"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type DealComponent struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type Deal struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PriceCents int64           `json:"price_cents"`
	Active     bool            `json:"active"`
	Components []DealComponent `json:"components"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type RecipeIngredient struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit,omitempty"`
}

type Recipe struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	FinalProductID string             `json:"final_product_id"`
	RoutingID      string             `json:"routing_id,omitempty"`
	Ingredients    []RecipeIngredient `json:"ingredients"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range validOrderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type ProductionOrder struct {
	ID                string          `json:"id"`
	RecipeID          string          `json:"recipe_id"`
	QuantityToProduce decimal.Decimal `json:"quantity_to_produce"`
	LostQuantity      decimal.Decimal `json:"lost_quantity"`
	YieldQuantity     decimal.Decimal `json:"yield_quantity"`
	Status            OrderStatus     `json:"status"`
	CreatedBy         string          `json:"created_by"`
	CreatedAt         time.Time       `json:"created_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	CancelledAt       *time.Time      `json:"cancelled_at,omitempty"`
}

type Segment string

const (
	SegmentMorning   Segment = "morning"
	SegmentAfternoon Segment = "afternoon"
)

func (s Segment) Valid() bool {
	return s == SegmentMorning || s == SegmentAfternoon
}

type ShiftState string

const (
	ShiftStateOpen       ShiftState = "open"
	ShiftStateReconciled ShiftState = "reconciled"
)

type ReconciliationInfo struct {
	ReconciledBy           string    `json:"reconciled_by"`
	ExpectedCashCents      int64     `json:"expected_cash_cents"`
	ActualCashCountedCents int64     `json:"actual_cash_counted_cents"`
	DifferenceCents        int64     `json:"difference_cents"`
	ReconciledAt           time.Time `json:"reconciled_at"`
}

// DailyCashEntry is one seller's cash drawer for a date and shift segment.
type DailyCashEntry struct {
	ID               string              `json:"id"`
	SellerID         string              `json:"seller_id"`
	SellerName       string              `json:"seller_name"`
	Date             string              `json:"date"`
	Segment          Segment             `json:"segment"`
	InitialCashCents int64               `json:"initial_cash_cents"`
	OpenedBy         string              `json:"opened_by"`
	OpenedAt         time.Time           `json:"opened_at"`
	State            ShiftState          `json:"state"`
	Reconciliation   *ReconciliationInfo `json:"reconciliation,omitempty"`
}

func (e DailyCashEntry) IsReconciled() bool {
	return e.State == ShiftStateReconciled
}

// MarshalJSON adds the derived is_reconciled flag for report consumers.
func (e DailyCashEntry) MarshalJSON() ([]byte, error) {
	type entry DailyCashEntry
	return json.Marshal(struct {
		entry
		IsReconciled bool `json:"is_reconciled"`
	}{entry: entry(e), IsReconciled: e.IsReconciled()})
}

// ShiftLink ties ledger rows back to the drawer they were recorded against.
type ShiftLink struct {
	ShiftID            string  `json:"shift_id"`
	DailyCashEntryDate string  `json:"daily_cash_entry_date"`
	Segment            Segment `json:"segment"`
}

func LinkOf(e DailyCashEntry) ShiftLink {
	return ShiftLink{ShiftID: e.ID, DailyCashEntryDate: e.Date, Segment: e.Segment}
}

type SaleDealComponent struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// SaleItem is a by-value copy of what was sold, independent of later catalog edits.
type SaleItem struct {
	ProductID      string              `json:"product_id,omitempty"`
	DealID         string              `json:"deal_id,omitempty"`
	IsDeal         bool                `json:"is_deal"`
	Name           string              `json:"name"`
	UnitPriceCents int64               `json:"unit_price_cents"`
	Quantity       decimal.Decimal     `json:"quantity"`
	LineTotalCents int64               `json:"line_total_cents"`
	DealComponents []SaleDealComponent `json:"deal_components,omitempty"`
}

type SaleRecord struct {
	ID            string `json:"id"`
	InvoiceNumber int64  `json:"invoice_number"`
	InvoiceCode   string `json:"invoice_code"`
	FiscalYear    int    `json:"fiscal_year"`
	SellerID      string `json:"seller_id"`
	SellerName    string `json:"seller_name"`
	ShiftLink

	Items               []SaleItem `json:"items"`
	SubtotalCents       int64      `json:"subtotal_cents"`
	GrandTotalCents     int64      `json:"grand_total_cents"`
	AmountReceivedCents int64      `json:"amount_received_cents"`
	ChangeGivenCents    int64      `json:"change_given_cents"`
	CustomerID          string     `json:"customer_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type PettyCashEntry struct {
	ID       string `json:"id"`
	SellerID string `json:"seller_id"`
	ShiftLink

	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
}

type ClearScope string

const (
	ClearScopeItem ClearScope = "item"
	ClearScopeCart ClearScope = "cart"
)

type ClearedSaleLogEntry struct {
	ID       string `json:"id"`
	SellerID string `json:"seller_id"`
	ShiftLink

	Scope             ClearScope `json:"scope"`
	Items             []CartLine `json:"items"`
	TotalClearedCents int64      `json:"total_cleared_cents"`
	ClearedAt         time.Time  `json:"cleared_at"`
}

// CartLine is an unpaid line in a seller's in-progress sale.
type CartLine struct {
	LineID         string          `json:"line_id"`
	ProductID      string          `json:"product_id,omitempty"`
	DealID         string          `json:"deal_id,omitempty"`
	IsDeal         bool            `json:"is_deal"`
	Name           string          `json:"name"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	Quantity       decimal.Decimal `json:"quantity"`
}

func (l CartLine) TotalCents() int64 {
	return LineTotal(l.UnitPriceCents, l.Quantity)
}

type Cart struct {
	SellerID string     `json:"seller_id"`
	ShiftID  string     `json:"shift_id"`
	Lines    []CartLine `json:"lines"`
}

func (c Cart) TotalCents() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.TotalCents()
	}
	return total
}

// LineTotal prices a quantity in minor units, rounding half away from zero.
func LineTotal(unitPriceCents int64, qty decimal.Decimal) int64 {
	return decimal.NewFromInt(unitPriceCents).Mul(qty).Round(0).IntPart()
}

type InvoiceCounter struct {
	FiscalYear int   `json:"fiscal_year"`
	LastNumber int64 `json:"last_number"`
}

type TenantSettings struct {
	ClearSalePINHash     string    `json:"clear_sale_pin_hash,omitempty"`
	FiscalYearStartMonth int       `json:"fiscal_year_start_month,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// SettingsView is what admins see of the tenant settings. The PIN hash is
// never exposed.
type SettingsView struct {
	FiscalYearStartMonth int       `json:"fiscal_year_start_month"`
	ClearSalePINSet      bool      `json:"clear_sale_pin_set"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type UserAccount struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

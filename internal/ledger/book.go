package ledger

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"time"

	"shiftledger/backend/internal/domain"
)

// SecretComparer verifies a plain secret against a stored hash.
type SecretComparer interface {
	CompareSecret(plain, storedHash string) bool
}

// Book is one tenant's complete ledger state. Operations mutate the Book in
// place and mark the collections they touched as dirty; callers that need
// all-or-nothing semantics across persistence work on a Clone.
type Book struct {
	tenantID string

	products         []domain.Product
	deals            []domain.Deal
	recipes          []domain.Recipe
	productionOrders []domain.ProductionOrder
	shifts           []domain.DailyCashEntry
	sales            []domain.SaleRecord
	pettyCash        []domain.PettyCashEntry
	clearedSales     []domain.ClearedSaleLogEntry
	invoiceCounters  []domain.InvoiceCounter
	settings         domain.TenantSettings
	users            []domain.UserAccount

	// carts are session state and are never persisted.
	carts map[string]*domain.Cart

	dirty   map[string]struct{}
	now     func() time.Time
	secrets SecretComparer
	fyStart time.Month
}

type Option func(*Book)

func WithClock(now func() time.Time) Option {
	return func(b *Book) {
		if now != nil {
			b.now = now
		}
	}
}

func WithSecretComparer(c SecretComparer) Option {
	return func(b *Book) {
		b.secrets = c
	}
}

// WithFiscalYearStart sets the default first month of the fiscal year. A value
// stored in the tenant settings takes precedence.
func WithFiscalYearStart(month time.Month) Option {
	return func(b *Book) {
		if month >= time.January && month <= time.December {
			b.fyStart = month
		}
	}
}

func NewBook(tenantID string, opts ...Option) *Book {
	b := &Book{
		tenantID: tenantID,
		carts:    make(map[string]*domain.Cart),
		dirty:    make(map[string]struct{}),
		now:      func() time.Time { return time.Now().UTC() },
		fyStart:  time.January,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Book) TenantID() string {
	return b.tenantID
}

// Clone returns a copy that can be mutated without affecting b. Append-only
// ledgers share their backing arrays with capacity clipped, so appends on the
// clone never write into b's storage.
func (b *Book) Clone() *Book {
	c := &Book{
		tenantID:         b.tenantID,
		products:         slices.Clone(b.products),
		deals:            slices.Clone(b.deals),
		recipes:          slices.Clone(b.recipes),
		productionOrders: slices.Clone(b.productionOrders),
		shifts:           slices.Clone(b.shifts),
		sales:            slices.Clip(b.sales),
		pettyCash:        slices.Clip(b.pettyCash),
		clearedSales:     slices.Clip(b.clearedSales),
		invoiceCounters:  slices.Clone(b.invoiceCounters),
		settings:         b.settings,
		users:            slices.Clone(b.users),
		carts:            make(map[string]*domain.Cart, len(b.carts)),
		dirty:            make(map[string]struct{}),
		now:              b.now,
		secrets:          b.secrets,
		fyStart:          b.fyStart,
	}
	for seller, cart := range b.carts {
		cp := *cart
		cp.Lines = slices.Clone(cart.Lines)
		c.carts[seller] = &cp
	}
	return c
}

func (b *Book) touch(key string) {
	b.dirty[key] = struct{}{}
}

// Dirty lists the collections changed since the last ClearDirty, sorted.
func (b *Book) Dirty() []string {
	keys := make([]string, 0, len(b.dirty))
	for key := range b.dirty {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (b *Book) ClearDirty() {
	clear(b.dirty)
}

// Encode returns the JSON snapshot of one collection.
func (b *Book) Encode(key string) ([]byte, error) {
	var v any
	switch key {
	case domain.CollectionProducts:
		v = nonNil(b.products)
	case domain.CollectionDeals:
		v = nonNil(b.deals)
	case domain.CollectionRecipes:
		v = nonNil(b.recipes)
	case domain.CollectionProductionOrders:
		v = nonNil(b.productionOrders)
	case domain.CollectionDailyCash:
		v = nonNil(b.shifts)
	case domain.CollectionSales:
		v = nonNil(b.sales)
	case domain.CollectionPettyCash:
		v = nonNil(b.pettyCash)
	case domain.CollectionClearedSales:
		v = nonNil(b.clearedSales)
	case domain.CollectionInvoiceCounters:
		v = nonNil(b.invoiceCounters)
	case domain.CollectionSettings:
		v = b.settings
	case domain.CollectionUsers:
		v = nonNil(b.users)
	default:
		return nil, fmt.Errorf("unknown collection %q", key)
	}
	return json.Marshal(v)
}

// Decode replaces one collection with the given JSON snapshot.
func (b *Book) Decode(key string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var target any
	switch key {
	case domain.CollectionProducts:
		target = &b.products
	case domain.CollectionDeals:
		target = &b.deals
	case domain.CollectionRecipes:
		target = &b.recipes
	case domain.CollectionProductionOrders:
		target = &b.productionOrders
	case domain.CollectionDailyCash:
		target = &b.shifts
	case domain.CollectionSales:
		target = &b.sales
	case domain.CollectionPettyCash:
		target = &b.pettyCash
	case domain.CollectionClearedSales:
		target = &b.clearedSales
	case domain.CollectionInvoiceCounters:
		target = &b.invoiceCounters
	case domain.CollectionSettings:
		target = &b.settings
	case domain.CollectionUsers:
		target = &b.users
	default:
		return fmt.Errorf("unknown collection %q", key)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// FiscalYearStart is the month fiscal years begin in for this tenant.
func (b *Book) FiscalYearStart() time.Month {
	if m := time.Month(b.settings.FiscalYearStartMonth); m >= time.January && m <= time.December {
		return m
	}
	return b.fyStart
}

// FiscalYear labels a timestamp with the calendar year its fiscal year starts in.
func (b *Book) FiscalYear(t time.Time) int {
	if t.Month() >= b.FiscalYearStart() {
		return t.Year()
	}
	return t.Year() - 1
}

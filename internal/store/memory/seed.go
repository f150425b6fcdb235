package memory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/ledger"
	"shiftledger/backend/internal/secret"
	"shiftledger/backend/internal/store"
)

type SeedOptions struct {
	AdminPassword  string
	SellerPassword string
	ClearSalePIN   string
}

// NewSeeded returns a store holding a small demo catalog, an admin and a
// seller account, and a clear-sale PIN for tenantID.
func NewSeeded(tenantID string, opts SeedOptions) (*Store, error) {
	book := ledger.NewBook(tenantID)

	for _, u := range []struct {
		username string
		name     string
		password string
		role     string
	}{
		{"admin", "Administrator", opts.AdminPassword, domain.RoleAdmin},
		{"seller", "Front Counter", opts.SellerPassword, domain.RoleSeller},
	} {
		if u.password == "" {
			continue
		}
		hash, err := secret.Hash(u.password)
		if err != nil {
			return nil, fmt.Errorf("hash seed password for %s: %w", u.username, err)
		}
		if _, err := book.AddUser(domain.UserAccount{
			Username:     u.username,
			DisplayName:  u.name,
			PasswordHash: hash,
			Role:         u.role,
			Active:       true,
		}); err != nil {
			return nil, err
		}
	}

	products := []struct {
		id    string
		code  string
		name  string
		price int64
		stock string
		unit  string
	}{
		{"prd-coffee", "COF-01", "Hot Coffee", 1500, "120", "cup"},
		{"prd-tea", "TEA-01", "Iced Tea", 1200, "80", "cup"},
		{"prd-croissant", "BAK-01", "Butter Croissant", 2200, "24", "pcs"},
		{"prd-bread", "BAK-02", "Sourdough Loaf", 4500, "0", "pcs"},
		{"prd-flour", "RAW-01", "Bread Flour", 0, "25", "kg"},
		{"prd-yeast", "RAW-02", "Dry Yeast", 0, "1.5", "kg"},
	}
	for _, p := range products {
		if _, err := book.UpsertProduct(p.id, domain.ProductUpsertRequest{
			Code:           p.code,
			Name:           p.name,
			UnitPriceCents: p.price,
			Stock:          decimal.RequireFromString(p.stock),
			Unit:           p.unit,
		}); err != nil {
			return nil, err
		}
	}

	if _, err := book.UpsertDeal("deal-breakfast", domain.DealUpsertRequest{
		Name:       "Breakfast Combo",
		PriceCents: 3200,
		Components: []domain.DealComponent{
			{ProductID: "prd-coffee", Quantity: decimal.NewFromInt(1)},
			{ProductID: "prd-croissant", Quantity: decimal.NewFromInt(1)},
		},
	}); err != nil {
		return nil, err
	}
	if _, err := book.UpsertRecipe("rcp-sourdough", domain.RecipeUpsertRequest{
		Name:           "Sourdough",
		FinalProductID: "prd-bread",
		Ingredients: []domain.RecipeIngredient{
			{ProductID: "prd-flour", Quantity: decimal.RequireFromString("0.5"), Unit: "kg"},
			{ProductID: "prd-yeast", Quantity: decimal.RequireFromString("0.01"), Unit: "kg"},
		},
	}); err != nil {
		return nil, err
	}

	if opts.ClearSalePIN != "" {
		hash, err := secret.Hash(opts.ClearSalePIN)
		if err != nil {
			return nil, fmt.Errorf("hash clear-sale pin: %w", err)
		}
		book.SetClearSalePINHash(hash)
	}

	snapshots := make([]store.Snapshot, 0, len(domain.Collections))
	for _, key := range book.Dirty() {
		data, err := book.Encode(key)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, store.Snapshot{Key: key, Data: data})
	}
	s := New()
	if err := s.SaveCollections(context.Background(), tenantID, snapshots); err != nil {
		return nil, err
	}
	return s, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/ledger"
	"shiftledger/backend/internal/secret"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	err = s.view(ctx, actor.TenantID, "list_products", func(b *ledger.Book) error {
		out = b.Products()
		return nil
	})
	return out, err
}

func (s *Service) UpsertProduct(ctx context.Context, id string, req domain.ProductUpsertRequest) (domain.Product, error) {
	actor, err := adminFrom(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	var out domain.Product
	err = s.mutate(ctx, actor.TenantID, "upsert_product", func(b *ledger.Book) error {
		out, err = b.UpsertProduct(strings.TrimSpace(id), req)
		return err
	})
	return out, err
}

// AdjustStock sets a product's on-hand level after a stock count.
func (s *Service) AdjustStock(ctx context.Context, id string, req domain.StockAdjustRequest) (domain.Product, error) {
	actor, err := adminFrom(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	var out domain.Product
	err = s.mutate(ctx, actor.TenantID, "adjust_stock", func(b *ledger.Book) error {
		out, err = b.AdjustStock(id, req.Stock)
		return err
	})
	return out, err
}

func (s *Service) ListDeals(ctx context.Context) ([]domain.Deal, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Deal
	err = s.view(ctx, actor.TenantID, "list_deals", func(b *ledger.Book) error {
		out = b.Deals()
		return nil
	})
	return out, err
}

func (s *Service) UpsertDeal(ctx context.Context, id string, req domain.DealUpsertRequest) (domain.Deal, error) {
	actor, err := adminFrom(ctx)
	if err != nil {
		return domain.Deal{}, err
	}
	var out domain.Deal
	err = s.mutate(ctx, actor.TenantID, "upsert_deal", func(b *ledger.Book) error {
		out, err = b.UpsertDeal(strings.TrimSpace(id), req)
		return err
	})
	return out, err
}

func (s *Service) ListRecipes(ctx context.Context) ([]domain.Recipe, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Recipe
	err = s.view(ctx, actor.TenantID, "list_recipes", func(b *ledger.Book) error {
		out = b.Recipes()
		return nil
	})
	return out, err
}

func (s *Service) UpsertRecipe(ctx context.Context, id string, req domain.RecipeUpsertRequest) (domain.Recipe, error) {
	actor, err := adminFrom(ctx)
	if err != nil {
		return domain.Recipe{}, err
	}
	var out domain.Recipe
	err = s.mutate(ctx, actor.TenantID, "upsert_recipe", func(b *ledger.Book) error {
		out, err = b.UpsertRecipe(strings.TrimSpace(id), req)
		return err
	})
	return out, err
}

// SetClearSalePIN stores a bcrypt hash of the PIN that authorizes clearing
// unpaid carts.
func (s *Service) SetClearSalePIN(ctx context.Context, req domain.ClearPINRequest) error {
	actor, err := adminFrom(ctx)
	if err != nil {
		return err
	}
	pin := strings.TrimSpace(req.PIN)
	if err := secret.CheckPINStrength(pin); err != nil {
		return ledger.ValidationError(err)
	}
	hash, err := secret.Hash(pin)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	return s.mutate(ctx, actor.TenantID, "set_clear_sale_pin", func(b *ledger.Book) error {
		b.SetClearSalePINHash(hash)
		return nil
	})
}

// Settings returns the tenant settings with the effective fiscal-year start.
func (s *Service) Settings(ctx context.Context) (domain.SettingsView, error) {
	actor, err := adminFrom(ctx)
	if err != nil {
		return domain.SettingsView{}, err
	}
	var out domain.SettingsView
	err = s.view(ctx, actor.TenantID, "get_settings", func(b *ledger.Book) error {
		out = settingsView(b)
		return nil
	})
	return out, err
}

// SetFiscalYearStart changes the month new invoices roll their fiscal year in.
func (s *Service) SetFiscalYearStart(ctx context.Context, req domain.FiscalYearRequest) (domain.SettingsView, error) {
	actor, err := adminFrom(ctx)
	if err != nil {
		return domain.SettingsView{}, err
	}
	var out domain.SettingsView
	err = s.mutate(ctx, actor.TenantID, "set_fiscal_year_start", func(b *ledger.Book) error {
		if err := b.SetFiscalYearStartMonth(req.StartMonth); err != nil {
			return err
		}
		out = settingsView(b)
		return nil
	})
	return out, err
}

func settingsView(b *ledger.Book) domain.SettingsView {
	settings := b.Settings()
	return domain.SettingsView{
		FiscalYearStartMonth: int(b.FiscalYearStart()),
		ClearSalePINSet:      settings.ClearSalePINHash != "",
		UpdatedAt:            settings.UpdatedAt,
	}
}

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (domain.UserView, error) {
	actor, err := adminFrom(ctx)
	if err != nil {
		return domain.UserView{}, err
	}
	if len(strings.TrimSpace(req.Password)) < 6 {
		return domain.UserView{}, ledger.ErrValidation
	}
	hash, err := secret.Hash(req.Password)
	if err != nil {
		return domain.UserView{}, fmt.Errorf("hash password: %w", err)
	}
	var out domain.UserAccount
	err = s.mutate(ctx, actor.TenantID, "create_user", func(b *ledger.Book) error {
		out, err = b.AddUser(domain.UserAccount{
			Username:     req.Username,
			DisplayName:  strings.TrimSpace(req.DisplayName),
			PasswordHash: hash,
			Role:         req.Role,
			Active:       true,
		})
		return err
	})
	if err != nil {
		return domain.UserView{}, err
	}
	return toUserView(out), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserView, error) {
	actor, err := adminFrom(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserView, 0)
	err = s.view(ctx, actor.TenantID, "list_users", func(b *ledger.Book) error {
		for _, u := range b.Users() {
			out = append(out, toUserView(u))
		}
		return nil
	})
	return out, err
}

// Authenticate checks a username and password against the tenant's accounts.
func (s *Service) Authenticate(ctx context.Context, tenantID, username, password string) (domain.Actor, error) {
	var account domain.UserAccount
	err := s.view(ctx, strings.TrimSpace(tenantID), "authenticate", func(b *ledger.Book) error {
		u, ok := b.User(username)
		if !ok || !secret.Verify(u.PasswordHash, password) {
			return ErrInvalidCredentials
		}
		if !u.Active {
			return ErrInactiveAccount
		}
		account = u
		return nil
	})
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{
		UserID:   account.ID,
		Username: account.Username,
		TenantID: strings.TrimSpace(tenantID),
		Role:     account.Role,
	}, nil
}

// EnsureAdmin creates an admin account for a tenant that has no users yet.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, tenantID, username, password string) (bool, error) {
	if strings.TrimSpace(password) == "" {
		return false, nil
	}
	hash, err := secret.Hash(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	created := false
	err = s.mutate(ctx, tenantID, "ensure_admin", func(b *ledger.Book) error {
		if len(b.Users()) > 0 {
			return nil
		}
		_, err := b.AddUser(domain.UserAccount{
			Username:     username,
			DisplayName:  "Administrator",
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
			Active:       true,
		})
		created = err == nil
		return err
	})
	return created, err
}

func toUserView(u domain.UserAccount) domain.UserView {
	return domain.UserView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Active:      u.Active,
	}
}

package ledger

import (
	"strings"
	"time"

	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/xid"
)

// UpsertProduct creates a product when id is empty or unknown, otherwise it
// updates the catalog fields. Stock on an existing product only changes
// through sales, production and AdjustStock.
func (b *Book) UpsertProduct(id string, req domain.ProductUpsertRequest) (domain.Product, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	name := strings.TrimSpace(req.Name)
	if code == "" || name == "" {
		return domain.Product{}, invalid("code and name are required")
	}
	if req.UnitPriceCents < 0 {
		return domain.Product{}, invalid("unit price cannot be negative")
	}
	for _, p := range b.products {
		if p.Code == code && p.ID != id {
			return domain.Product{}, invalid("product code %q already exists", code)
		}
	}

	i := -1
	if id != "" {
		i = b.productIndex(id)
	}
	if i < 0 {
		if req.Stock.IsNegative() {
			return domain.Product{}, invalid("stock cannot be negative")
		}
		if id == "" {
			id = xid.New("prd")
		}
		b.products = append(b.products, domain.Product{ID: id, Stock: req.Stock, Active: true})
		i = len(b.products) - 1
	}

	p := &b.products[i]
	p.Code = code
	p.Name = name
	p.UnitPriceCents = req.UnitPriceCents
	p.Unit = strings.TrimSpace(req.Unit)
	p.CategoryID = strings.TrimSpace(req.CategoryID)
	p.ItemTypeID = strings.TrimSpace(req.ItemTypeID)
	if req.Active != nil {
		p.Active = *req.Active
	}
	p.UpdatedAt = b.now()
	b.touch(domain.CollectionProducts)
	return *p, nil
}

func (b *Book) dealIndex(id string) int {
	for i := range b.deals {
		if b.deals[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Book) Deal(id string) (domain.Deal, error) {
	i := b.dealIndex(id)
	if i < 0 {
		return domain.Deal{}, notFound("deal", id)
	}
	return b.deals[i], nil
}

func (b *Book) Deals() []domain.Deal {
	return append([]domain.Deal(nil), b.deals...)
}

// UpsertDeal creates or edits a deal. Once a deal has been sold only its
// active flag may change.
func (b *Book) UpsertDeal(id string, req domain.DealUpsertRequest) (domain.Deal, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Deal{}, invalid("deal name is required")
	}
	if req.PriceCents < 0 {
		return domain.Deal{}, invalid("deal price cannot be negative")
	}
	if len(req.Components) == 0 {
		return domain.Deal{}, invalid("deal needs at least one component")
	}
	components := make([]domain.DealComponent, 0, len(req.Components))
	for _, c := range req.Components {
		if b.productIndex(c.ProductID) < 0 {
			return domain.Deal{}, notFound("product", c.ProductID)
		}
		if !c.Quantity.IsPositive() {
			return domain.Deal{}, invalid("component quantity must be positive")
		}
		components = append(components, c)
	}

	i := -1
	if id != "" {
		i = b.dealIndex(id)
	}
	if i >= 0 && b.dealReferenced(id) && !sameDealTerms(b.deals[i], name, req.PriceCents, components) {
		return domain.Deal{}, invalid("deal %q has been sold; only its active flag can change", b.deals[i].Name)
	}
	if i < 0 {
		if id == "" {
			id = xid.New("deal")
		}
		b.deals = append(b.deals, domain.Deal{ID: id, Active: true})
		i = len(b.deals) - 1
	}

	d := &b.deals[i]
	d.Name = name
	d.PriceCents = req.PriceCents
	d.Components = components
	if req.Active != nil {
		d.Active = *req.Active
	}
	d.UpdatedAt = b.now()
	b.touch(domain.CollectionDeals)
	return *d, nil
}

func sameDealTerms(d domain.Deal, name string, price int64, components []domain.DealComponent) bool {
	if d.Name != name || d.PriceCents != price || len(d.Components) != len(components) {
		return false
	}
	for i := range components {
		if d.Components[i].ProductID != components[i].ProductID || !d.Components[i].Quantity.Equal(components[i].Quantity) {
			return false
		}
	}
	return true
}

func (b *Book) recipeIndex(id string) int {
	for i := range b.recipes {
		if b.recipes[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Book) Recipe(id string) (domain.Recipe, error) {
	i := b.recipeIndex(id)
	if i < 0 {
		return domain.Recipe{}, notFound("recipe", id)
	}
	return b.recipes[i], nil
}

func (b *Book) Recipes() []domain.Recipe {
	return append([]domain.Recipe(nil), b.recipes...)
}

func (b *Book) UpsertRecipe(id string, req domain.RecipeUpsertRequest) (domain.Recipe, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Recipe{}, invalid("recipe name is required")
	}
	if b.productIndex(req.FinalProductID) < 0 {
		return domain.Recipe{}, notFound("product", req.FinalProductID)
	}
	if len(req.Ingredients) == 0 {
		return domain.Recipe{}, invalid("recipe needs at least one ingredient")
	}
	for _, ing := range req.Ingredients {
		if ing.ProductID == req.FinalProductID {
			return domain.Recipe{}, invalid("a recipe cannot consume its own final product")
		}
		if b.productIndex(ing.ProductID) < 0 {
			return domain.Recipe{}, notFound("product", ing.ProductID)
		}
		if !ing.Quantity.IsPositive() {
			return domain.Recipe{}, invalid("ingredient quantity must be positive")
		}
	}

	i := -1
	if id != "" {
		i = b.recipeIndex(id)
	}
	if i < 0 {
		if id == "" {
			id = xid.New("rcp")
		}
		b.recipes = append(b.recipes, domain.Recipe{ID: id})
		i = len(b.recipes) - 1
	}
	r := &b.recipes[i]
	r.Name = name
	r.FinalProductID = req.FinalProductID
	r.RoutingID = strings.TrimSpace(req.RoutingID)
	r.Ingredients = append([]domain.RecipeIngredient(nil), req.Ingredients...)
	r.UpdatedAt = b.now()
	b.touch(domain.CollectionRecipes)
	return *r, nil
}

func (b *Book) Settings() domain.TenantSettings {
	return b.settings
}

// SetClearSalePINHash stores the hash used to authorize clearing unpaid carts.
func (b *Book) SetClearSalePINHash(hash string) {
	b.settings.ClearSalePINHash = hash
	b.settings.UpdatedAt = b.now()
	b.touch(domain.CollectionSettings)
}

// SetFiscalYearStartMonth overrides the configured fiscal-year start. Invoices
// already issued keep their labels and counters.
func (b *Book) SetFiscalYearStartMonth(month int) error {
	if month < int(time.January) || month > int(time.December) {
		return invalid("fiscal year start month must be between 1 and 12")
	}
	b.settings.FiscalYearStartMonth = month
	b.settings.UpdatedAt = b.now()
	b.touch(domain.CollectionSettings)
	return nil
}

func (b *Book) User(username string) (domain.UserAccount, bool) {
	username = strings.ToLower(strings.TrimSpace(username))
	for _, u := range b.users {
		if u.Username == username {
			return u, true
		}
	}
	return domain.UserAccount{}, false
}

func (b *Book) Users() []domain.UserAccount {
	return append([]domain.UserAccount(nil), b.users...)
}

// AddUser stores a new account. PasswordHash must already be hashed.
func (b *Book) AddUser(account domain.UserAccount) (domain.UserAccount, error) {
	account.Username = strings.ToLower(strings.TrimSpace(account.Username))
	if account.Username == "" || strings.ContainsAny(account.Username, " \t\r\n") {
		return domain.UserAccount{}, invalid("username must not be empty or contain spaces")
	}
	if _, exists := b.User(account.Username); exists {
		return domain.UserAccount{}, invalid("username already exists")
	}
	if account.Role != domain.RoleAdmin && account.Role != domain.RoleSeller {
		return domain.UserAccount{}, invalid("role must be admin or seller")
	}
	if account.ID == "" {
		account.ID = xid.New("usr")
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = b.now()
	}
	b.users = append(b.users, account)
	b.touch(domain.CollectionUsers)
	return account, nil
}

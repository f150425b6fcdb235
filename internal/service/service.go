package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"shiftledger/backend/internal/cache"
	"shiftledger/backend/internal/domain"
	"shiftledger/backend/internal/ledger"
	"shiftledger/backend/internal/logger"
	"shiftledger/backend/internal/metrics"
	"shiftledger/backend/internal/secret"
	"shiftledger/backend/internal/store"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("admin role required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// tenant holds one tenant's loaded Book. mu serializes every operation on it.
type tenant struct {
	mu     sync.Mutex
	book   *ledger.Book
	loaded bool
}

type Service struct {
	repo       store.Repository
	summaries  cache.SummaryCache
	summaryTTL time.Duration
	metrics    *metrics.Ledger
	log        *logger.Logger
	now        func() time.Time
	fyStart    time.Month

	mu      sync.Mutex
	tenants map[string]*tenant
}

type Option func(*Service)

func WithSummaryCache(c cache.SummaryCache, ttl time.Duration) Option {
	return func(s *Service) {
		if c != nil {
			s.summaries = c
		}
		if ttl > 0 {
			s.summaryTTL = ttl
		}
	}
}

func WithMetrics(m *metrics.Ledger) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithFiscalYearStart(month time.Month) Option {
	return func(s *Service) {
		s.fyStart = month
	}
}

func New(repo store.Repository, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		summaries:  cache.NoopSummaryCache{},
		summaryTTL: 30 * time.Second,
		log:        logger.Nop(),
		now:        func() time.Time { return time.Now().UTC() },
		fyStart:    time.January,
		tenants:    make(map[string]*tenant),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) tenantFor(tenantID string) *tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		t = &tenant{}
		s.tenants[tenantID] = t
	}
	return t
}

// load must be called with t.mu held.
func (s *Service) load(ctx context.Context, tenantID string, t *tenant) error {
	if t.loaded {
		return nil
	}
	collections, err := s.repo.LoadCollections(ctx, tenantID)
	if err != nil {
		return ledger.PersistenceError(fmt.Errorf("load tenant %s: %w", tenantID, err))
	}
	book := ledger.NewBook(tenantID,
		ledger.WithClock(s.now),
		ledger.WithSecretComparer(secret.Bcrypt{}),
		ledger.WithFiscalYearStart(s.fyStart),
	)
	for key, data := range collections {
		if err := book.Decode(key, data); err != nil {
			return ledger.PersistenceError(err)
		}
	}
	t.book = book
	t.loaded = true
	return nil
}

// withTenant runs fn with the tenant's Book loaded and locked.
func (s *Service) withTenant(ctx context.Context, tenantID string, fn func(t *tenant) error) error {
	if strings.TrimSpace(tenantID) == "" {
		return ErrUnauthenticated
	}
	t := s.tenantFor(tenantID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := s.load(ctx, tenantID, t); err != nil {
		return err
	}
	return fn(t)
}

// mutate runs fn against a copy of the tenant's Book, persists the collections
// it touched in one batch and only then publishes the copy. When fn or the
// save fails the published Book is left as it was.
func (s *Service) mutate(ctx context.Context, tenantID, op string, fn func(b *ledger.Book) error) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe(op, outcome(err), time.Since(started))
	}()

	return s.withTenant(ctx, tenantID, func(t *tenant) error {
		next := t.book.Clone()
		if err := fn(next); err != nil {
			return err
		}

		dirty := next.Dirty()
		if len(dirty) > 0 {
			snapshots := make([]store.Snapshot, 0, len(dirty))
			for _, key := range dirty {
				data, err := next.Encode(key)
				if err != nil {
					return ledger.PersistenceError(err)
				}
				snapshots = append(snapshots, store.Snapshot{Key: key, Data: data})
			}
			if err := s.repo.SaveCollections(ctx, tenantID, snapshots); err != nil {
				s.metrics.IncPersistFailure()
				logCtx := s.log.WithTenantID(ctx, tenantID)
				s.log.Error(s.log.WithField(logCtx, "op", op), "persist collections failed, rolled back", err)
				return ledger.PersistenceError(err)
			}
			next.ClearDirty()
		}
		t.book = next

		if len(dirty) > 0 {
			if err := s.summaries.Invalidate(ctx, tenantID); err != nil {
				s.log.Error(s.log.WithTenantID(ctx, tenantID), "invalidate summary cache failed", err)
			}
		}
		return nil
	})
}

// view runs fn against the tenant's published Book. fn must not mutate it.
func (s *Service) view(ctx context.Context, tenantID, op string, fn func(b *ledger.Book) error) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe(op, outcome(err), time.Since(started))
	}()
	return s.withTenant(ctx, tenantID, func(t *tenant) error {
		return fn(t.book)
	})
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := ledger.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

func actorFrom(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.TenantID == "" || actor.UserID == "" {
		return domain.Actor{}, ErrUnauthenticated
	}
	return actor, nil
}

func adminFrom(ctx context.Context) (domain.Actor, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	if actor.Role != domain.RoleAdmin {
		return domain.Actor{}, ErrForbidden
	}
	return actor, nil
}

// canActOnShift lets admins act on any shift and sellers only on their own.
func canActOnShift(actor domain.Actor, shift domain.DailyCashEntry) error {
	if actor.Role == domain.RoleAdmin || shift.SellerID == actor.UserID {
		return nil
	}
	return ErrForbidden
}

// sellerFilter restricts non-admin readers to their own entries.
func sellerFilter(actor domain.Actor, filter domain.LedgerFilter) domain.LedgerFilter {
	if actor.Role != domain.RoleAdmin {
		filter.SellerID = actor.UserID
	}
	return filter
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

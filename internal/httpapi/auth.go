package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"shiftledger/backend/internal/domain"
)

const tokenIssuer = "shiftledger"

// Authenticator checks credentials against a tenant's user accounts.
type Authenticator interface {
	Authenticate(ctx context.Context, tenantID, username, password string) (domain.Actor, error)
}

type AuthManager struct {
	secret        []byte
	tokenTTL      time.Duration
	defaultTenant string
	authenticator Authenticator
	now           func() time.Time
}

type ledgerClaims struct {
	jwtlib.RegisteredClaims
	Username string `json:"username"`
	Tenant   string `json:"tenant"`
	Role     string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, defaultTenant string, authenticator Authenticator) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &AuthManager{
		secret:        []byte(secret),
		tokenTTL:      tokenTTL,
		defaultTenant: strings.TrimSpace(defaultTenant),
		authenticator: authenticator,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	tenantID := strings.TrimSpace(req.TenantID)
	if tenantID == "" {
		tenantID = a.defaultTenant
	}
	actor, err := a.authenticator.Authenticate(ctx, tenantID, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	expiresAt := a.now().Add(a.tokenTTL)
	token, err := a.sign(actor, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        actor.Role,
		TenantID:    actor.TenantID,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &ledgerClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	},
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithIssuer(tokenIssuer),
		jwtlib.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	if claims.Tenant == "" {
		return domain.Actor{}, errors.New("invalid token tenant")
	}
	return domain.Actor{
		UserID:   sub,
		Username: claims.Username,
		TenantID: claims.Tenant,
		Role:     claims.Role,
	}, nil
}

func (a *AuthManager) sign(actor domain.Actor, expiresAt time.Time) (string, error) {
	claims := ledgerClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwtlib.NewNumericDate(a.now()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
		},
		Username: actor.Username,
		Tenant:   actor.TenantID,
		Role:     actor.Role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

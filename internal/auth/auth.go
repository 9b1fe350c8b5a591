// internal/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"

	"kitchenops/internal/data"
	"kitchenops/internal/logger"
	"kitchenops/internal/middleware"
)

const issuer = "kitchenops"

var (
	ErrUnauthenticated = errors.New("Unauthorized")
	ErrForbidden       = errors.New("Forbidden: requires admin or chef role")
)

// Claims defines the structure of the JWT payload.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.StandardClaims
}

// GenerateToken signs an HS256 token for a profile id.
func GenerateToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature, algorithm and expiry and returns the claims.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// =============================================================================
// GUARD
// =============================================================================

type contextKey struct{}

// ProfileFromContext returns the caller resolved by the guard.
func ProfileFromContext(ctx context.Context) (*data.Profile, bool) {
	p, ok := ctx.Value(contextKey{}).(*data.Profile)
	return p, ok
}

func WithProfile(ctx context.Context, p *data.Profile) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// ProfileStore resolves token subjects. *data.Store implements it.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*data.Profile, error)
}

// Guard authenticates bearer tokens and enforces the admin/chef allow-list.
type Guard struct {
	secret   []byte
	profiles ProfileStore
	allowed  map[string]bool
}

func NewGuard(secret []byte, profiles ProfileStore) *Guard {
	return &Guard{
		secret:   secret,
		profiles: profiles,
		allowed:  map[string]bool{data.RoleAdmin: true, data.RoleChef: true},
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authorize resolves the caller and checks the role. It returns
// ErrUnauthenticated or ErrForbidden on rejection.
func (g *Guard) Authorize(r *http.Request) (*data.Profile, error) {
	raw := bearerToken(r)
	if raw == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := ParseToken(raw, g.secret)
	if err != nil {
		logger.LogWarn("Rejected bearer token from %s: %v", logger.GetClientIP(r), err)
		return nil, ErrUnauthenticated
	}

	profile, err := g.profiles.GetProfile(r.Context(), claims.UserID)
	if errors.Is(err, data.ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if !g.allowed[profile.Role] {
		return nil, ErrForbidden
	}
	return profile, nil
}

// RequireAdminOrChef rejects requests that are not from an admin or chef and
// stores the caller's profile in the request context.
func (g *Guard) RequireAdminOrChef(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile, err := g.Authorize(r)
		switch {
		case errors.Is(err, ErrUnauthenticated):
			middleware.WriteError(w, r, http.StatusUnauthorized, ErrUnauthenticated.Error(), nil)
			return
		case errors.Is(err, ErrForbidden):
			middleware.WriteError(w, r, http.StatusForbidden, ErrForbidden.Error(), nil)
			return
		case err != nil:
			middleware.WriteError(w, r, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), profile)))
	})
}

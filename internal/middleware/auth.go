package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/toosila/toosila-api/internal/auth"
	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/pkg/utils"
)

type identityKey struct{}

// Identity is the authenticated caller attached to the request context
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// MustIdentity returns apperrors.ErrNoIdentity when the request was not
// authenticated
func MustIdentity(ctx context.Context) (Identity, error) {
	id, ok := IdentityFrom(ctx)
	if !ok || id.UserID == "" {
		return Identity{}, apperrors.ErrNoIdentity
	}
	return id, nil
}

// Auth requires a valid "Authorization: Bearer <token>" header
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				utils.Error(w, apperrors.Unauthorized("missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				utils.Error(w, apperrors.Unauthorized("invalid or expired token"))
				return
			}

			id := Identity{UserID: claims.UserID, Role: claims.Role}
			tagTransaction(r, id)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

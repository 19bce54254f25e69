package auth

import (
	"context"

	"github.com/dukerupert/despensa/internal/apperr"
)

type contextKey struct{}

type AuthContext struct {
	UserID    string
	SessionID string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}

// CurrentUser returns the account every read and write is scoped to.
func CurrentUser(ctx context.Context) (string, error) {
	id := UserID(ctx)
	if id == "" {
		return "", apperr.Unauthenticated()
	}
	return id, nil
}

// UserFunc resolves the current account. Services take one so tests can
// substitute a fixed account.
type UserFunc func(ctx context.Context) (string, error)

// Fixed returns a UserFunc that always resolves to id.
func Fixed(id string) UserFunc {
	return func(context.Context) (string, error) {
		if id == "" {
			return "", apperr.Unauthenticated()
		}
		return id, nil
	}
}

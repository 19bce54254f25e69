package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/model"
)

const SessionCookieName = "despensa_session"

type SessionLookup interface {
	GetByToken(ctx context.Context, token string) (*model.Session, error)
}

// RequireAuth resolves the session token into an AuthContext. Requests
// without a live session get a 401 envelope.
func RequireAuth(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "user is not authenticated")
				return
			}

			sess, err := sessions.GetByToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "user is not authenticated")
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				UserID:    sess.UserID,
				SessionID: sess.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionToken reads a bearer token, falling back to the session cookie.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": msg, "data": nil})
}

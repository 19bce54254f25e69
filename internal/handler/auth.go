package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/despensa/internal/apperr"
	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/middleware"
	"github.com/dukerupert/despensa/internal/model"
)

const minPasswordLength = 8

type UserStore interface {
	Create(ctx context.Context, email, name, passwordHash string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

type SessionStore interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

// AuthHandler is the email and password identity provider.
type AuthHandler struct {
	users      UserStore
	sessions   SessionStore
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewAuthHandler(us UserStore, ss SessionStore, sessionTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, sessions: ss, sessionTTL: sessionTTL, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, r, h.logger, apperr.Validation("a valid email is required"))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, h.logger, apperr.Validation("name is required"))
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, r, h.logger, apperr.Validation("password must have at least %d characters", minPasswordLength))
		return
	}

	existing, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		writeError(w, r, h.logger, apperr.Remote(err))
		return
	}
	if existing != nil {
		writeError(w, r, h.logger, apperr.Validation("email is already registered"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.Create(r.Context(), email, name, string(hash))
	if err != nil {
		writeError(w, r, h.logger, apperr.Remote(err))
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	h.startSession(w, r, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		writeError(w, r, h.logger, apperr.Remote(err))
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.startSession(w, r, user, http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User, status int) {
	sess, err := h.sessions.Create(r.Context(), user.ID, h.sessionTTL)
	if err != nil {
		writeError(w, r, h.logger, apperr.Remote(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	writeJSON(w, status, sessionResponse{User: user, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperr.Unauthenticated())
		return
	}
	if err := h.sessions.Delete(r.Context(), ac.SessionID); err != nil {
		writeError(w, r, h.logger, apperr.Remote(err))
		return
	}

	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, nil)
}

// DeleteAccount removes the user and everything the account owns.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.users.Delete(r.Context(), userID); err != nil {
		writeError(w, r, h.logger, apperr.Remote(err))
		return
	}

	h.logger.Info("account deleted", "user_id", userID)
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, nil)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

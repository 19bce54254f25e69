package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/category"
	"github.com/dukerupert/despensa/internal/dashboard"
	"github.com/dukerupert/despensa/internal/events"
	"github.com/dukerupert/despensa/internal/handler"
	"github.com/dukerupert/despensa/internal/inventory"
	"github.com/dukerupert/despensa/internal/metrics"
	"github.com/dukerupert/despensa/internal/middleware"
	"github.com/dukerupert/despensa/internal/shopping"
	"github.com/dukerupert/despensa/internal/store"
	ws "github.com/dukerupert/despensa/internal/websocket"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type Config struct {
	SessionTTL          time.Duration
	DefaultLowThreshold float64
	Location            *time.Location
	Publisher           events.Publisher
	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Metrics
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	categoryH    *handler.CategoryHandler
	shoppingH    *handler.ShoppingHandler
	inventoryH   *handler.InventoryHandler
	dashboardH   *handler.DashboardHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	busyGuard    *middleware.BusyGuard
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	categoryStore := store.NewCategoryStore(db)
	inventoryStore := store.NewInventoryStore(db)
	shoppingStore := store.NewShoppingStore(db)

	registry := category.NewRegistry(categoryStore, auth.CurrentUser)
	ledger := inventory.NewLedger(inventoryStore, registry, auth.CurrentUser)
	engine := shopping.NewEngine(shoppingStore, registry, auth.CurrentUser,
		shopping.WithLowThreshold(cfg.DefaultLowThreshold))
	aggregator := dashboard.NewAggregator(shoppingStore, inventoryStore, auth.CurrentUser, cfg.Location)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, cfg.SessionTTL, logger.With("component", "auth")),
		categoryH:    handler.NewCategoryHandler(registry, hub, logger.With("component", "category")),
		shoppingH:    handler.NewShoppingHandler(engine, hub, cfg.Publisher, cfg.Metrics, logger.With("component", "shopping")),
		inventoryH:   handler.NewInventoryHandler(ledger, hub, logger.With("component", "inventory")),
		dashboardH:   handler.NewDashboardHandler(aggregator, logger.With("component", "dashboard")),
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(authRateLimit, authRateWindow),
		busyGuard:    middleware.NewBusyGuard(),
		metrics:      cfg.Metrics,
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Router registers every route on one mux so r.Pattern stays visible to the
// metrics middleware.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.Handle("POST /api/register", s.rateLimiter.Limit(http.HandlerFunc(s.authH.Register)))
	mux.Handle("POST /api/login", s.rateLimiter.Limit(http.HandlerFunc(s.authH.Login)))
	mux.HandleFunc("GET /health", s.healthHandler)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.registerProtectedRoutes(mux)

	var h http.Handler = mux
	if s.metrics != nil {
		h = s.metrics.Middleware(h)
	}
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(s.sessionStore)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireAuth(s.busyGuard.Guard(h)))
	}

	// Account
	handle("POST /api/logout", s.authH.Logout)
	handle("DELETE /api/account", s.authH.DeleteAccount)

	// Categories
	handle("GET /api/categories", s.categoryH.List)
	handle("PUT /api/categories", s.categoryH.Replace)
	handle("GET /api/categories/suggest", s.categoryH.Suggest)

	// Shopping lists
	handle("GET /api/lists", s.shoppingH.ListLists)
	handle("POST /api/lists", s.shoppingH.CreateList)
	handle("GET /api/lists/{id}", s.shoppingH.GetList)
	handle("GET /api/lists/{id}/view", s.shoppingH.ViewList)
	handle("POST /api/lists/{id}/copy", s.shoppingH.CopyList)
	handle("POST /api/lists/{id}/start", s.shoppingH.StartList)
	handle("POST /api/lists/{id}/finalize", s.shoppingH.FinalizeList)
	handle("POST /api/lists/{id}/items", s.shoppingH.AddItem)

	// Shopping list items
	handle("DELETE /api/items/{id}", s.shoppingH.RemoveItem)
	handle("PUT /api/items/{id}/urgent", s.shoppingH.ToggleUrgent)
	handle("POST /api/items/{id}/purchase", s.shoppingH.MarkPurchased)
	handle("POST /api/items/{id}/return", s.shoppingH.ReturnToPending)

	// Inventory
	handle("GET /api/inventory", s.inventoryH.List)
	handle("POST /api/inventory/{id}/decrement", s.inventoryH.Decrement)

	handle("GET /api/dashboard", s.dashboardH.Stats)

	handle("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}

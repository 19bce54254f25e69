package middleware

import (
	"net/http"
	"sync"

	"github.com/dukerupert/despensa/internal/auth"
)

// BusyGuard rejects a mutating request while an identical one from the same
// session (same method and path) is still being served. It must run inside
// RequireAuth.
type BusyGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewBusyGuard() *BusyGuard {
	return &BusyGuard{inFlight: make(map[string]struct{})}
}

func (g *BusyGuard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[key]; busy {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

func (g *BusyGuard) release(key string) {
	g.mu.Lock()
	delete(g.inFlight, key)
	g.mu.Unlock()
}

func (g *BusyGuard) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := ac.SessionID + " " + r.Method + " " + r.URL.Path
		if !g.acquire(key) {
			writeError(w, http.StatusConflict, "a previous request is still being processed")
			return
		}
		defer g.release(key)

		next.ServeHTTP(w, r)
	})
}

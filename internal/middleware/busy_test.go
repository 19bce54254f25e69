package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dukerupert/despensa/internal/auth"
)

func authed(r *http.Request, session string) *http.Request {
	return r.WithContext(auth.WithAuth(r.Context(), auth.AuthContext{UserID: "u1", SessionID: session}))
}

func TestBusyGuardRejectsDuplicateInFlight(t *testing.T) {
	g := NewBusyGuard()
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := g.Guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/lists/1/finalize" {
			entered <- struct{}{}
			<-release
		}
		w.WriteHeader(http.StatusOK)
	}))

	var wg sync.WaitGroup
	first := httptest.NewRecorder()
	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.ServeHTTP(first, authed(httptest.NewRequest("POST", "/api/lists/1/finalize", nil), "s1"))
	}()
	<-entered

	dup := httptest.NewRecorder()
	handler.ServeHTTP(dup, authed(httptest.NewRequest("POST", "/api/lists/1/finalize", nil), "s1"))
	if dup.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want %d", dup.Code, http.StatusConflict)
	}

	otherPath := httptest.NewRecorder()
	handler.ServeHTTP(otherPath, authed(httptest.NewRequest("POST", "/api/lists/2/start", nil), "s1"))
	if otherPath.Code != http.StatusOK {
		t.Errorf("different path status = %d, want %d", otherPath.Code, http.StatusOK)
	}

	close(release)
	wg.Wait()
	if first.Code != http.StatusOK {
		t.Errorf("first status = %d, want %d", first.Code, http.StatusOK)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.inFlight) != 0 {
		t.Errorf("in-flight keys not released: %v", g.inFlight)
	}
}

func TestBusyGuardIgnoresReads(t *testing.T) {
	g := NewBusyGuard()
	g.inFlight["s1 GET /api/lists"] = struct{}{}

	rec := httptest.NewRecorder()
	g.Guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, authed(httptest.NewRequest("GET", "/api/lists", nil), "s1"))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

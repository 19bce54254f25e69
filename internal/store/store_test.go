package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/despensa/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) string {
	t.Helper()
	u, err := NewUserStore(db).Create(context.Background(), email, "Ana", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func TestTimeRoundTripKeepsOrder(t *testing.T) {
	a := time.Date(2024, 3, 9, 23, 59, 59, 5, time.FixedZone("BRT", -3*3600))
	b := a.Add(time.Nanosecond)

	if formatTime(a) >= formatTime(b) {
		t.Errorf("formatted times do not sort: %q >= %q", formatTime(a), formatTime(b))
	}
	got, err := parseTime(formatTime(a))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(a) {
		t.Errorf("round trip = %v, want %v", got, a)
	}
}

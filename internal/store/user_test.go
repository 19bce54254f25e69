package store

import (
	"context"
	"testing"
	"time"
)

func TestUserCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ctx := context.Background()

	u, err := us.Create(ctx, "ana@example.com", "Ana", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" {
		t.Error("expected generated id")
	}
	if u.CategoriesSeededAt != nil {
		t.Error("new user should not be seeded")
	}

	byEmail, err := us.GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != u.ID {
		t.Fatalf("GetByEmail = %+v, want id %s", byEmail, u.ID)
	}

	missing, err := us.GetByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ctx := context.Background()

	if _, err := us.Create(ctx, "ana@example.com", "Ana", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create(ctx, "ana@example.com", "Outra", "hash"); err == nil {
		t.Error("expected unique constraint error")
	}
}

func TestUserDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "ana@example.com")

	if _, err := NewSessionStore(db).Create(ctx, user, time.Hour); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := NewCategoryStore(db).SeedDefaults(ctx, user, testCategories); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := NewShoppingStore(db).CreateList(ctx, user, "Semana", time.Now()); err != nil {
		t.Fatalf("create list: %v", err)
	}

	if err := NewUserStore(db).Delete(ctx, user); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	for _, table := range []string{"sessions", "categories", "shopping_lists"} {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s has %d rows after account deletion", table, n)
		}
	}
}

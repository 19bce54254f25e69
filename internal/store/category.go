package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/despensa/internal/model"
)

// ErrCategoryNotOwned is returned by ReplaceCategories when a draft carries the
// id of a category that belongs to another account.
var ErrCategoryNotOwned = errors.New("category belongs to another account")

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func scanCategory(s scanner) (*model.Category, error) {
	var c model.Category
	var active int
	var createdAt string
	err := s.Scan(&c.ID, &c.Name, &c.Emoji, &c.Position, &active, &createdAt)
	if err != nil {
		return nil, err
	}
	c.IsActive = active != 0
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const categoryCols = `id, name, emoji, position, is_active, created_at`

// List returns the account's categories by position, ties by creation order.
func (s *CategoryStore) List(ctx context.Context, userID string) ([]model.Category, error) {
	return listCategories(ctx, s.db, userID)
}

func listCategories(ctx context.Context, q execer, userID string) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE user_id = ? ORDER BY position ASC, created_at ASC, rowid ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *CategoryStore) Count(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return count, nil
}

// SeedDefaults inserts defaults for an account in a single transaction. The
// account's seeded marker is claimed first so seeding happens at most once;
// it reports whether this call did the seeding.
func (s *CategoryStore) SeedDefaults(ctx context.Context, userID string, defaults []model.Category) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`UPDATE users SET categories_seeded_at = ? WHERE id = ? AND categories_seeded_at IS NULL`,
		formatTime(now), userID,
	)
	if err != nil {
		return false, fmt.Errorf("claim seed: %w", err)
	}
	claimed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if claimed == 0 {
		return false, nil
	}

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = ?`, userID).Scan(&existing); err != nil {
		return false, fmt.Errorf("count categories: %w", err)
	}
	if existing == 0 {
		for _, c := range defaults {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO categories (id, user_id, name, emoji, position, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				newID(), userID, c.Name, c.Emoji, c.Position, boolInt(c.IsActive), formatTime(now),
			); err != nil {
				return false, fmt.Errorf("seed category %q: %w", c.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return existing == 0, nil
}

// ReplaceCategories makes drafts the account's complete category set. Draft
// order becomes position; drafts with an id are upserted, the rest inserted,
// and categories missing from drafts are deleted.
func (s *CategoryStore) ReplaceCategories(ctx context.Context, userID string, drafts []model.CategoryDraft) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	keep := make(map[string]bool, len(drafts))
	for _, d := range drafts {
		if d.ID != "" {
			keep[d.ID] = true
		}
	}

	existing, err := listCategories(ctx, tx, userID)
	if err != nil {
		return err
	}
	for _, c := range existing {
		if keep[c.ID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, c.ID, userID); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
	}

	// Park kept rows on their unique id so renames and swaps never collide.
	if _, err := tx.ExecContext(ctx, `UPDATE categories SET name = id WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("park category names: %w", err)
	}

	now := formatTime(time.Now())
	for i, d := range drafts {
		id := d.ID
		if id == "" {
			id = newID()
		}
		result, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, user_id, name, emoji, position, is_active, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   name = excluded.name, emoji = excluded.emoji,
			   position = excluded.position, is_active = excluded.is_active
			 WHERE categories.user_id = excluded.user_id`,
			id, userID, d.Name, d.Emoji, i, boolInt(d.IsActive), now,
		)
		if err != nil {
			return fmt.Errorf("upsert category %q: %w", d.Name, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return ErrCategoryNotOwned
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit categories: %w", err)
	}
	return nil
}

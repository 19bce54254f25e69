package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/despensa/internal/model"
	"github.com/dukerupert/despensa/internal/reconcile"
)

type InventoryStore struct {
	db *sql.DB
}

func NewInventoryStore(db *sql.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

func scanInventoryItem(s scanner) (*model.InventoryItem, error) {
	var i model.InventoryItem
	var updatedAt string
	err := s.Scan(&i.ID, &i.Name, &i.Category, &i.Unit, &i.Quantity, &i.LowThreshold, &updatedAt)
	if err != nil {
		return nil, err
	}
	if i.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}

const inventoryCols = `id, name, category, unit, quantity, low_threshold, updated_at`

func (s *InventoryStore) queryItems(ctx context.Context, query string, args ...any) ([]model.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// List returns every inventory item, most recently updated first.
func (s *InventoryStore) List(ctx context.Context, userID string) ([]model.InventoryItem, error) {
	return s.queryItems(ctx,
		`SELECT `+inventoryCols+` FROM inventory_items WHERE user_id = ? ORDER BY updated_at DESC, name ASC`,
		userID,
	)
}

// ListLowStock returns up to limit items at or below their threshold, lowest quantity first.
func (s *InventoryStore) ListLowStock(ctx context.Context, userID string, limit int) ([]model.InventoryItem, error) {
	return s.queryItems(ctx,
		`SELECT `+inventoryCols+` FROM inventory_items
		 WHERE user_id = ? AND quantity <= low_threshold
		 ORDER BY quantity ASC, name ASC LIMIT ?`,
		userID, limit,
	)
}

func (s *InventoryStore) GetByID(ctx context.Context, userID, id string) (*model.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+inventoryCols+` FROM inventory_items WHERE id = ? AND user_id = ?`, id, userID)
	item, err := scanInventoryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return item, nil
}

func (s *InventoryStore) GetByName(ctx context.Context, userID, name string) (*model.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+inventoryCols+` FROM inventory_items WHERE user_id = ? AND name = ?`, userID, name)
	item, err := scanInventoryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item by name: %w", err)
	}
	return item, nil
}

// Decrement lowers the item's quantity by amount, never below zero. It
// returns nil when the item does not exist.
func (s *InventoryStore) Decrement(ctx context.Context, userID, id string, amount float64) (*model.InventoryItem, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE inventory_items SET quantity = MAX(quantity - ?, 0), updated_at = ? WHERE id = ? AND user_id = ?`,
		amount, formatTime(time.Now()), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("decrement inventory item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, userID, id)
}

// applyDelta adds d.Quantity to the inventory item named d.Name, creating it
// with lowThreshold when absent. Existing category, unit and threshold stay.
func applyDelta(ctx context.Context, q execer, userID string, d reconcile.Delta, lowThreshold float64, now time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO inventory_items (id, user_id, name, category, unit, quantity, low_threshold, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, name) DO UPDATE SET
		   quantity = inventory_items.quantity + excluded.quantity,
		   updated_at = excluded.updated_at`,
		newID(), userID, d.Name, d.Category, d.Unit, d.Quantity, lowThreshold, formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("apply inventory delta %q: %w", d.Name, err)
	}
	return nil
}

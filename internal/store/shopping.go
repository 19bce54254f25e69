package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/despensa/internal/model"
	"github.com/dukerupert/despensa/internal/reconcile"
)

// ErrNothingPurchased is returned by FinalizeList when the list has no purchased item.
var ErrNothingPurchased = errors.New("list has no purchased items")

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

// --- List methods ---

func scanList(s scanner) (*model.ShoppingList, error) {
	var l model.ShoppingList
	var status, createdAt string
	var sourceListID, startedAt, completedAt sql.NullString
	err := s.Scan(&l.ID, &l.Name, &status, &sourceListID, &createdAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	l.Status = model.ListStatus(status)
	if sourceListID.Valid {
		l.SourceListID = &sourceListID.String
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.StartedAt, err = parseNullTime(startedAt); err != nil {
		return nil, err
	}
	if l.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

const listCols = `id, name, status, source_list_id, created_at, started_at, completed_at`

func (s *ShoppingStore) queryLists(ctx context.Context, q execer, query string, args ...any) ([]model.ShoppingList, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}
	defer rows.Close()

	var lists []model.ShoppingList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping list: %w", err)
		}
		lists = append(lists, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := s.attachItems(ctx, q, lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// attachItems loads the items of every list in one query and assigns them in stored order.
func (s *ShoppingStore) attachItems(ctx context.Context, q execer, lists []model.ShoppingList) error {
	if len(lists) == 0 {
		return nil
	}
	ids := make([]any, len(lists))
	index := make(map[string]int, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
		index[l.ID] = i
		lists[i].Items = []model.ShoppingListItem{}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	rows, err := q.QueryContext(ctx,
		`SELECT `+itemCols+` FROM shopping_list_items WHERE list_id IN (`+placeholders+`)
		 ORDER BY position ASC, created_at ASC, rowid ASC`,
		ids...,
	)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return fmt.Errorf("scan item: %w", err)
		}
		i := index[item.ListID]
		lists[i].Items = append(lists[i].Items, *item)
	}
	return rows.Err()
}

func (s *ShoppingStore) CreateList(ctx context.Context, userID, name string, at time.Time) (*model.ShoppingList, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (id, user_id, name, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, name, string(model.ListDraft), formatTime(at),
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping list: %w", err)
	}
	return s.GetList(ctx, userID, id)
}

// CopyList creates a draft named name holding fresh copies of source's items.
func (s *ShoppingStore) CopyList(ctx context.Context, userID string, source *model.ShoppingList, name string, at time.Time) (*model.ShoppingList, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := newID()
	created := formatTime(at)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO shopping_lists (id, user_id, name, status, source_list_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, name, string(model.ListDraft), source.ID, created,
	); err != nil {
		return nil, fmt.Errorf("insert shopping list copy: %w", err)
	}

	for i, item := range source.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO shopping_list_items (id, list_id, user_id, name, category, unit, planned_quantity, is_urgent, position, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			newID(), id, userID, item.Name, item.Category, item.Unit, item.PlannedQuantity, boolInt(item.IsUrgent), i, created,
		); err != nil {
			return nil, fmt.Errorf("copy item %q: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit copy: %w", err)
	}
	return s.GetList(ctx, userID, id)
}

// GetList returns the list with its items, or nil when it does not exist.
func (s *ShoppingStore) GetList(ctx context.Context, userID, id string) (*model.ShoppingList, error) {
	return s.getList(ctx, s.db, userID, id)
}

func (s *ShoppingStore) getList(ctx context.Context, q execer, userID, id string) (*model.ShoppingList, error) {
	lists, err := s.queryLists(ctx, q,
		`SELECT `+listCols+` FROM shopping_lists WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}
	if len(lists) == 0 {
		return nil, nil
	}
	return &lists[0], nil
}

// ListLists returns every list of the account, newest first.
func (s *ShoppingStore) ListLists(ctx context.Context, userID string) ([]model.ShoppingList, error) {
	return s.queryLists(ctx, s.db,
		`SELECT `+listCols+` FROM shopping_lists WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`,
		userID,
	)
}

// NextOpenList returns the most recently created draft or shopping list.
func (s *ShoppingStore) NextOpenList(ctx context.Context, userID string) (*model.ShoppingList, error) {
	lists, err := s.queryLists(ctx, s.db,
		`SELECT `+listCols+` FROM shopping_lists WHERE user_id = ? AND status IN (?, ?)
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		userID, string(model.ListDraft), string(model.ListShopping),
	)
	if err != nil {
		return nil, fmt.Errorf("next open list: %w", err)
	}
	if len(lists) == 0 {
		return nil, nil
	}
	return &lists[0], nil
}

// CompletedTotals returns the spend of every list completed in [from, to).
func (s *ShoppingStore) CompletedTotals(ctx context.Context, userID string, from, to time.Time) ([]model.CompletedListTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.completed_at,
		        COALESCE(SUM(CASE WHEN i.is_purchased = 1 THEN i.purchased_quantity * i.unit_price END), 0)
		 FROM shopping_lists l
		 LEFT JOIN shopping_list_items i ON i.list_id = l.id
		 WHERE l.user_id = ? AND l.status = ? AND l.completed_at >= ? AND l.completed_at < ?
		 GROUP BY l.id, l.completed_at
		 ORDER BY l.completed_at ASC`,
		userID, string(model.ListCompleted), formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("completed totals: %w", err)
	}
	defer rows.Close()

	var totals []model.CompletedListTotal
	for rows.Next() {
		var t model.CompletedListTotal
		var completedAt string
		if err := rows.Scan(&t.ListID, &completedAt, &t.Total); err != nil {
			return nil, fmt.Errorf("scan completed total: %w", err)
		}
		if t.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// StartList moves a non-empty draft to shopping. ErrStateChanged means the
// list was not a non-empty draft at write time.
func (s *ShoppingStore) StartList(ctx context.Context, userID, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE shopping_lists SET status = ?, started_at = ?
		 WHERE id = ? AND user_id = ? AND status = ?
		   AND EXISTS (SELECT 1 FROM shopping_list_items WHERE list_id = shopping_lists.id)`,
		string(model.ListShopping), formatTime(at), id, userID, string(model.ListDraft),
	)
	if err != nil {
		return fmt.Errorf("start list: %w", err)
	}
	return expectOneRow(result)
}

// FinalizeList completes a shopping list and folds its purchases into the
// inventory in one transaction. Nothing is written unless every step succeeds.
func (s *ShoppingStore) FinalizeList(ctx context.Context, userID, id string, completedAt time.Time, lowThreshold float64) (*reconcile.Summary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	list, err := s.getList(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}
	if list == nil || list.Status != model.ListShopping {
		return nil, ErrStateChanged
	}
	if list.PurchasedCount() == 0 {
		return nil, ErrNothingPurchased
	}

	summary := reconcile.Summarize(*list, completedAt)
	for _, d := range summary.Deltas {
		if err := applyDelta(ctx, tx, userID, d, lowThreshold, completedAt); err != nil {
			return nil, err
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE shopping_lists SET status = ?, completed_at = ? WHERE id = ? AND user_id = ? AND status = ?`,
		string(model.ListCompleted), formatTime(completedAt), id, userID, string(model.ListShopping),
	)
	if err != nil {
		return nil, fmt.Errorf("complete list: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit finalize: %w", err)
	}
	return &summary, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrStateChanged
	}
	return nil
}

// --- Item methods ---

func scanItem(s scanner) (*model.ShoppingListItem, error) {
	var item model.ShoppingListItem
	var purchasedQty, unitPrice sql.NullFloat64
	var purchased, urgent int
	var createdAt string

	err := s.Scan(
		&item.ID, &item.ListID, &item.Name, &item.Category, &item.Unit,
		&item.PlannedQuantity, &purchasedQty, &unitPrice, &purchased, &urgent,
		&item.Position, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	item.IsPurchased = purchased != 0
	item.IsUrgent = urgent != 0
	if purchasedQty.Valid {
		item.PurchasedQuantity = &purchasedQty.Float64
	}
	if unitPrice.Valid {
		item.UnitPrice = &unitPrice.Float64
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &item, nil
}

const itemCols = `id, list_id, name, category, unit, planned_quantity, purchased_quantity, unit_price, is_purchased, is_urgent, position, created_at`

// NewItem holds the validated fields of an item being added.
type NewItem struct {
	Name            string
	Category        string
	Unit            string
	PlannedQuantity float64
}

// CreateItem appends an item after the list's last position. The list must
// still be open; otherwise ErrStateChanged.
func (s *ShoppingStore) CreateItem(ctx context.Context, userID, listID string, in NewItem) (*model.ShoppingListItem, error) {
	id := newID()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO shopping_list_items (id, list_id, user_id, name, category, unit, planned_quantity, position, created_at)
		 SELECT ?, l.id, l.user_id, ?, ?, ?, ?,
		        COALESCE((SELECT MAX(position) + 1 FROM shopping_list_items WHERE list_id = l.id), 0), ?
		 FROM shopping_lists l
		 WHERE l.id = ? AND l.user_id = ? AND l.status IN (?, ?)`,
		id, in.Name, in.Category, in.Unit, in.PlannedQuantity, formatTime(time.Now()),
		listID, userID, string(model.ListDraft), string(model.ListShopping),
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, userID, id)
}

func (s *ShoppingStore) GetItem(ctx context.Context, userID, id string) (*model.ShoppingListItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemCols+` FROM shopping_list_items WHERE id = ? AND user_id = ?`, id, userID)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// listInStatus restricts an item statement to items whose list is in one of statuses.
func listInStatus(statuses ...model.ListStatus) (string, []any) {
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	return ` AND list_id IN (SELECT id FROM shopping_lists WHERE status IN (` + placeholders + `))`, args
}

func (s *ShoppingStore) guardedItemExec(ctx context.Context, stmt string, args []any, statuses ...model.ListStatus) error {
	guard, guardArgs := listInStatus(statuses...)
	result, err := s.db.ExecContext(ctx, stmt+guard, append(args, guardArgs...)...)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// DeleteItem hard-deletes an item of a draft or shopping list.
func (s *ShoppingStore) DeleteItem(ctx context.Context, userID, id string) error {
	err := s.guardedItemExec(ctx,
		`DELETE FROM shopping_list_items WHERE id = ? AND user_id = ?`,
		[]any{id, userID}, model.ListDraft, model.ListShopping)
	if err != nil && err != ErrStateChanged {
		return fmt.Errorf("delete item: %w", err)
	}
	return err
}

func (s *ShoppingStore) SetUrgent(ctx context.Context, userID, id string, urgent bool) error {
	err := s.guardedItemExec(ctx,
		`UPDATE shopping_list_items SET is_urgent = ? WHERE id = ? AND user_id = ?`,
		[]any{boolInt(urgent), id, userID}, model.ListDraft, model.ListShopping)
	if err != nil && err != ErrStateChanged {
		return fmt.Errorf("set urgent: %w", err)
	}
	return err
}

// MarkPurchased records quantity and price on an item of a shopping list.
func (s *ShoppingStore) MarkPurchased(ctx context.Context, userID, id string, quantity, unitPrice float64) error {
	err := s.guardedItemExec(ctx,
		`UPDATE shopping_list_items SET is_purchased = 1, purchased_quantity = ?, unit_price = ? WHERE id = ? AND user_id = ?`,
		[]any{quantity, unitPrice, id, userID}, model.ListShopping)
	if err != nil && err != ErrStateChanged {
		return fmt.Errorf("mark purchased: %w", err)
	}
	return err
}

// ReturnToPending clears the purchase record of an item of a shopping list.
func (s *ShoppingStore) ReturnToPending(ctx context.Context, userID, id string) error {
	err := s.guardedItemExec(ctx,
		`UPDATE shopping_list_items SET is_purchased = 0, purchased_quantity = NULL, unit_price = NULL WHERE id = ? AND user_id = ?`,
		[]any{id, userID}, model.ListShopping)
	if err != nil && err != ErrStateChanged {
		return fmt.Errorf("return to pending: %w", err)
	}
	return err
}

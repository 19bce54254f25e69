// Package shopping implements the shopping list lifecycle
// (draft -> shopping -> completed) and the item rules of each state.
package shopping

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dukerupert/despensa/internal/apperr"
	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/category"
	"github.com/dukerupert/despensa/internal/model"
	"github.com/dukerupert/despensa/internal/reconcile"
	"github.com/dukerupert/despensa/internal/store"
)

// Store is the persistence the Engine needs.
type Store interface {
	CreateList(ctx context.Context, userID, name string, at time.Time) (*model.ShoppingList, error)
	CopyList(ctx context.Context, userID string, source *model.ShoppingList, name string, at time.Time) (*model.ShoppingList, error)
	GetList(ctx context.Context, userID, id string) (*model.ShoppingList, error)
	ListLists(ctx context.Context, userID string) ([]model.ShoppingList, error)
	GetItem(ctx context.Context, userID, id string) (*model.ShoppingListItem, error)
	CreateItem(ctx context.Context, userID, listID string, in store.NewItem) (*model.ShoppingListItem, error)
	DeleteItem(ctx context.Context, userID, id string) error
	SetUrgent(ctx context.Context, userID, id string, urgent bool) error
	MarkPurchased(ctx context.Context, userID, id string, quantity, unitPrice float64) error
	ReturnToPending(ctx context.Context, userID, id string) error
	StartList(ctx context.Context, userID, id string, at time.Time) error
	FinalizeList(ctx context.Context, userID, id string, completedAt time.Time, lowThreshold float64) (*reconcile.Summary, error)
}

type CategoryLister interface {
	List(ctx context.Context) ([]model.Category, error)
}

type Engine struct {
	store        Store
	categories   CategoryLister
	user         auth.UserFunc
	now          func() time.Time
	lowThreshold float64
}

type Option func(*Engine)

// WithClock replaces time.Now for created, started and completed timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLowThreshold sets the threshold given to inventory items created on finalize.
func WithLowThreshold(v float64) Option {
	return func(e *Engine) { e.lowThreshold = v }
}

func NewEngine(s Store, categories CategoryLister, user auth.UserFunc, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		categories:   categories,
		user:         user,
		now:          time.Now,
		lowThreshold: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewItemInput is what the user typed when adding an item.
type NewItemInput struct {
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Unit            string  `json:"unit"`
	PlannedQuantity Numeric `json:"planned_quantity"`
}

// Card is a list with the counters shown on list cards.
type Card struct {
	model.ShoppingList
	Total          float64 `json:"total"`
	PlannedCount   int     `json:"planned_count"`
	PurchasedCount int     `json:"purchased_count"`
}

func newCard(l model.ShoppingList) Card {
	return Card{
		ShoppingList:   l,
		Total:          l.Total(),
		PlannedCount:   len(l.Items),
		PurchasedCount: l.PurchasedCount(),
	}
}

// View is a list prepared for rendering.
type View struct {
	Card
	Pending    []model.ShoppingListItem `json:"pending"`
	Purchased  []model.ShoppingListItem `json:"purchased"`
	Categories []model.Category         `json:"categories"`
}

// Completion is the outcome of a successful finalize.
type Completion struct {
	List    *model.ShoppingList `json:"list"`
	Summary reconcile.Summary   `json:"summary"`
}

// CreateList creates an empty draft list.
func (e *Engine) CreateList(ctx context.Context, name string) (*model.ShoppingList, error) {
	userID, err := e.user(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("list name is required")
	}
	list, err := e.store.CreateList(ctx, userID, name, e.now())
	if err != nil {
		return nil, apperr.Remote(err)
	}
	return list, nil
}

// Lists returns every list of the account, newest first.
func (e *Engine) Lists(ctx context.Context) ([]Card, error) {
	userID, err := e.user(ctx)
	if err != nil {
		return nil, err
	}
	lists, err := e.store.ListLists(ctx, userID)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	cards := make([]Card, 0, len(lists))
	for _, l := range lists {
		cards = append(cards, newCard(l))
	}
	return cards, nil
}

func (e *Engine) Get(ctx context.Context, listID string) (*model.ShoppingList, error) {
	userID, err := e.user(ctx)
	if err != nil {
		return nil, err
	}
	return e.load(ctx, userID, listID)
}

func (e *Engine) load(ctx context.Context, userID, listID string) (*model.ShoppingList, error) {
	list, err := e.store.GetList(ctx, userID, listID)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	if list == nil {
		return nil, apperr.NotFound("list")
	}
	return list, nil
}

// View returns the list partitioned into pending and purchased items with
// the active categories for the filter chips.
func (e *Engine) View(ctx context.Context, listID string, f Filter) (*View, error) {
	list, err := e.Get(ctx, listID)
	if err != nil {
		return nil, err
	}
	categories, err := e.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	pending, purchased := Partition(list, category.NewOrder(categories), f)
	return &View{
		Card:       newCard(*list),
		Pending:    pending,
		Purchased:  purchased,
		Categories: category.Active(categories),
	}, nil
}

// Start moves a non-empty draft to shopping.
func (e *Engine) Start(ctx context.Context, listID string) (*model.ShoppingList, error) {
	userID, err := e.user(ctx)
	if err != nil {
		return nil, err
	}
	list, err := e.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if _, err := Next(list, CommandStart); err != nil {
		return nil, err
	}
	if err := e.store.StartList(ctx, userID, listID, e.now()); err != nil {
		if errors.Is(err, store.ErrStateChanged) {
			return nil, e.staleTransition(ctx, userID, listID, CommandStart)
		}
		return nil, apperr.Remote(err)
	}
	return e.load(ctx, userID, listID)
}

// Finalize completes a shopping list and reconciles its purchases into the
// inventory. Either both happen or neither does.
func (e *Engine) Finalize(ctx context.Context, listID string) (*Completion, error) {
	userID, err := e.user(ctx)
	if err != nil {
		return nil, err
	}
	list, err := e.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if _, err := Next(list, CommandFinalize); err != nil {
		return nil, err
	}
	summary, err := e.store.FinalizeList(ctx, userID, listID, e.now(), e.lowThreshold)
	if err != nil {
		if errors.Is(err, store.ErrStateChanged) || errors.Is(err, store.ErrNothingPurchased) {
			return nil, e.staleTransition(ctx, userID, listID, CommandFinalize)
		}
		return nil, apperr.Remote(err)
	}
	list, err = e.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	return &Completion{List: list, Summary: *summary}, nil
}

// staleTransition explains a guarded write that lost a race by re-checking
// the transition against the current list.
func (e *Engine) staleTransition(ctx context.Context, userID, listID string, cmd Command) error {
	list, err := e.load(ctx, userID, listID)
	if err != nil {
		return err
	}
	if _, err := Next(list, cmd); err != nil {
		return err
	}
	return apperr.InvalidTransition("list changed while trying to %s it", cmd)
}

// AddItem appends an item to a draft or shopping list.
func (e *Engine) AddItem(ctx context.Context, listID string, in NewItemInput) (*model.ShoppingList, error) {
	userID, err := e.user(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("item name is required")
	}
	list, err := e.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if !Editable(list.Status) {
		return nil, completedList()
	}

	item := store.NewItem{
		Name:            name,
		Category:        orDefault(in.Category, model.FallbackCategory),
		Unit:            orDefault(in.Unit, model.DefaultUnit),
		PlannedQuantity: plannedQuantity(in.PlannedQuantity),
	}
	if _, err := e.store.CreateItem(ctx, userID, listID, item); err != nil {
		if errors.Is(err, store.ErrStateChanged) {
			return nil, completedList()
		}
		return nil, apperr.Remote(err)
	}
	return e.load(ctx, userID, listID)
}

// RemoveItem deletes an item from a draft or shopping list.
func (e *Engine) RemoveItem(ctx context.Context, itemID string) (*model.ShoppingList, error) {
	return e.mutateItem(ctx, itemID, Editable, completedList, func(ctx context.Context, userID string) error {
		return e.store.DeleteItem(ctx, userID, itemID)
	})
}

// ToggleUrgent sets the urgency flag of an item of a draft or shopping list.
func (e *Engine) ToggleUrgent(ctx context.Context, itemID string, urgent bool) (*model.ShoppingList, error) {
	return e.mutateItem(ctx, itemID, Editable, completedList, func(ctx context.Context, userID string) error {
		return e.store.SetUrgent(ctx, userID, itemID, urgent)
	})
}

// MarkPurchased records the bought quantity and unit price of an item.
func (e *Engine) MarkPurchased(ctx context.Context, itemID string, quantity, unitPrice Numeric) (*model.ShoppingList, error) {
	return e.mutateItem(ctx, itemID, isShopping, notShopping, func(ctx context.Context, userID string) error {
		q, okQ := nonNegative(quantity)
		p, okP := nonNegative(unitPrice)
		if !okQ || !okP {
			return apperr.Validation("quantity and unit price must be numbers greater than or equal to zero")
		}
		return e.store.MarkPurchased(ctx, userID, itemID, q, p)
	})
}

// ReturnToPending clears the purchase record of an item of a shopping list.
func (e *Engine) ReturnToPending(ctx context.Context, itemID string) (*model.ShoppingList, error) {
	return e.mutateItem(ctx, itemID, isShopping, notReturnable, func(ctx context.Context, userID string) error {
		return e.store.ReturnToPending(ctx, userID, itemID)
	})
}

// mutateItem loads the item and its list, checks the list status with
// allowed and runs write. A guarded write that matched nothing reports the
// same error as a failed status check.
func (e *Engine) mutateItem(
	ctx context.Context,
	itemID string,
	allowed func(model.ListStatus) bool,
	rejected func() error,
	write func(ctx context.Context, userID string) error,
) (*model.ShoppingList, error) {
	userID, err := e.user(ctx)
	if err != nil {
		return nil, err
	}
	item, err := e.store.GetItem(ctx, userID, itemID)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	if item == nil {
		return nil, apperr.NotFound("item")
	}
	list, err := e.load(ctx, userID, item.ListID)
	if err != nil {
		return nil, err
	}
	if !allowed(list.Status) {
		if list.Status == model.ListCompleted {
			return nil, completedList()
		}
		return nil, rejected()
	}
	if err := write(ctx, userID); err != nil {
		if errors.Is(err, store.ErrStateChanged) {
			if current, lerr := e.load(ctx, userID, item.ListID); lerr == nil && current.Status == model.ListCompleted {
				return nil, completedList()
			}
			return nil, rejected()
		}
		return nil, apperr.Remote(err)
	}
	return e.load(ctx, userID, item.ListID)
}

// Copy creates a new draft holding the items of sourceID, purchase data reset.
func (e *Engine) Copy(ctx context.Context, sourceID, newName string) (*model.ShoppingList, error) {
	userID, err := e.user(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(newName)
	source, err := e.store.GetList(ctx, userID, sourceID)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	if source == nil {
		return nil, apperr.NotFound("source list")
	}
	if name == "" {
		return nil, apperr.Validation("list name is required")
	}
	list, err := e.store.CopyList(ctx, userID, source, name, e.now())
	if err != nil {
		return nil, apperr.Remote(err)
	}
	return list, nil
}

func isShopping(s model.ListStatus) bool {
	return s == model.ListShopping
}

func completedList() error {
	return apperr.InvalidState("list is completed")
}

func notShopping() error {
	return apperr.InvalidState("start the list before marking purchases")
}

func notReturnable() error {
	return apperr.InvalidState("only items of a list being shopped can return to pending")
}

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

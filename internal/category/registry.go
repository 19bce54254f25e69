// Package category keeps the ordered set of categories that classify list and
// inventory items and drive item ordering while shopping.
package category

import (
	"context"
	"errors"
	"strings"

	"github.com/dukerupert/despensa/internal/apperr"
	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/model"
	"github.com/dukerupert/despensa/internal/store"
)

// Store is the persistence the Registry needs.
type Store interface {
	List(ctx context.Context, userID string) ([]model.Category, error)
	SeedDefaults(ctx context.Context, userID string, defaults []model.Category) (bool, error)
	ReplaceCategories(ctx context.Context, userID string, drafts []model.CategoryDraft) error
}

type Registry struct {
	store Store
	user  auth.UserFunc
}

func NewRegistry(s Store, user auth.UserFunc) *Registry {
	return &Registry{store: s, user: user}
}

// List returns the account's categories ordered by position.
func (r *Registry) List(ctx context.Context) ([]model.Category, error) {
	userID, err := r.user(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := r.store.List(ctx, userID)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	return categories, nil
}

// EnsureSeeded inserts the default set for an account that has never had
// categories and returns the current list.
func (r *Registry) EnsureSeeded(ctx context.Context) ([]model.Category, error) {
	userID, err := r.user(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := r.store.List(ctx, userID)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	if len(categories) > 0 {
		return categories, nil
	}
	seeded, err := r.store.SeedDefaults(ctx, userID, Defaults)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	if !seeded {
		return categories, nil
	}
	categories, err = r.store.List(ctx, userID)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	return categories, nil
}

// ReplaceAll makes drafts the complete, ordered category set of the account.
func (r *Registry) ReplaceAll(ctx context.Context, drafts []model.CategoryDraft) ([]model.Category, error) {
	userID, err := r.user(ctx)
	if err != nil {
		return nil, err
	}
	cleaned, err := CleanDrafts(drafts)
	if err != nil {
		return nil, err
	}
	if err := r.store.ReplaceCategories(ctx, userID, cleaned); err != nil {
		if errors.Is(err, store.ErrCategoryNotOwned) {
			return nil, apperr.NotFound("category")
		}
		return nil, apperr.Remote(err)
	}
	categories, err := r.store.List(ctx, userID)
	if err != nil {
		return nil, apperr.Remote(err)
	}
	return categories, nil
}

// CleanDrafts trims names and glyphs, drops blank names, fills the default
// glyph and rejects empty or duplicated sets.
func CleanDrafts(drafts []model.CategoryDraft) ([]model.CategoryDraft, error) {
	cleaned := make([]model.CategoryDraft, 0, len(drafts))
	seen := make(map[string]bool, len(drafts))
	for _, d := range drafts {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, apperr.Validation("duplicate category %q", name)
		}
		seen[name] = true

		emoji := strings.TrimSpace(d.Emoji)
		if emoji == "" {
			emoji = model.DefaultEmoji
		}
		cleaned = append(cleaned, model.CategoryDraft{
			ID:       strings.TrimSpace(d.ID),
			Name:     name,
			Emoji:    emoji,
			IsActive: d.IsActive,
		})
	}
	if len(cleaned) == 0 {
		return nil, apperr.Validation("at least one category is required")
	}
	return cleaned, nil
}

// Suggest maps an item name to one of the account's active categories, or
// "Outros" when the keyword match is not among them.
func (r *Registry) Suggest(ctx context.Context, itemName string) (string, error) {
	categories, err := r.List(ctx)
	if err != nil {
		return "", err
	}
	suggested := Suggest(itemName)
	for _, c := range categories {
		if c.IsActive && c.Name == suggested {
			return suggested, nil
		}
	}
	return model.FallbackCategory, nil
}

// Order ranks category names by registry position.
type Order map[string]int

func NewOrder(categories []model.Category) Order {
	o := make(Order, len(categories))
	for _, c := range categories {
		if _, ok := o[c.Name]; !ok {
			o[c.Name] = c.Position
		}
	}
	return o
}

// Rank returns the position of name and whether it is a known category.
func (o Order) Rank(name string) (int, bool) {
	pos, ok := o[name]
	return pos, ok
}

// Active returns only the active categories, order preserved.
func Active(categories []model.Category) []model.Category {
	active := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active
}

// DisplayName is the category to show for an item: its own when known,
// "Outros" otherwise.
func DisplayName(o Order, name string) string {
	if _, ok := o[name]; ok {
		return name
	}
	return model.FallbackCategory
}

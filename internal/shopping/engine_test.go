package shopping

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/despensa/internal/apperr"
	"github.com/dukerupert/despensa/internal/auth"
	"github.com/dukerupert/despensa/internal/category"
	"github.com/dukerupert/despensa/internal/database"
	"github.com/dukerupert/despensa/internal/model"
	"github.com/dukerupert/despensa/internal/store"
)

type fixture struct {
	engine    *Engine
	inventory *store.InventoryStore
	registry  *category.Registry
	userID    string
	ctx       context.Context
	now       time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	u, err := store.NewUserStore(db).Create(context.Background(), "ana@example.com", "Ana", "hash")
	require.NoError(t, err)
	user := auth.Fixed(u.ID)

	f := &fixture{
		inventory: store.NewInventoryStore(db),
		registry:  category.NewRegistry(store.NewCategoryStore(db), user),
		userID:    u.ID,
		ctx:       context.Background(),
		now:       time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	f.engine = NewEngine(store.NewShoppingStore(db), f.registry, user,
		WithClock(func() time.Time { return f.now }),
		WithLowThreshold(2),
	)
	_, err = f.registry.EnsureSeeded(f.ctx)
	require.NoError(t, err)
	return f
}

func (f *fixture) draft(t *testing.T, items ...string) *model.ShoppingList {
	t.Helper()
	list, err := f.engine.CreateList(f.ctx, "Semana")
	require.NoError(t, err)
	for _, name := range items {
		list, err = f.engine.AddItem(f.ctx, list.ID, NewItemInput{Name: name, Category: category.Suggest(name)})
		require.NoError(t, err)
	}
	return list
}

func (f *fixture) shopping(t *testing.T, items ...string) *model.ShoppingList {
	t.Helper()
	list := f.draft(t, items...)
	list, err := f.engine.Start(f.ctx, list.ID)
	require.NoError(t, err)
	return list
}

func TestCreateListValidation(t *testing.T) {
	f := setup(t)
	_, err := f.engine.CreateList(f.ctx, "   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	list, err := f.engine.CreateList(f.ctx, "  Feira  ")
	require.NoError(t, err)
	assert.Equal(t, "Feira", list.Name)
	assert.Equal(t, model.ListDraft, list.Status)
	assert.Empty(t, list.Items)
}

func TestAddItemDefaults(t *testing.T) {
	f := setup(t)
	list, err := f.engine.CreateList(f.ctx, "Semana")
	require.NoError(t, err)

	cases := []struct {
		in       NewItemInput
		quantity float64
	}{
		{NewItemInput{Name: "Arroz"}, 1},
		{NewItemInput{Name: "Leite", PlannedQuantity: "1,5"}, 1.5},
		{NewItemInput{Name: "Ovos", PlannedQuantity: "12"}, 12},
		{NewItemInput{Name: "Sal", PlannedQuantity: "-3"}, 1},
		{NewItemInput{Name: "Café", PlannedQuantity: "muito"}, 1},
		{NewItemInput{Name: "Açúcar", PlannedQuantity: "0"}, 1},
	}
	for _, c := range cases {
		list, err = f.engine.AddItem(f.ctx, list.ID, c.in)
		require.NoError(t, err)
		got := list.Items[len(list.Items)-1]
		assert.Equal(t, c.in.Name, got.Name)
		assert.Equal(t, c.quantity, got.PlannedQuantity, c.in.Name)
		assert.Equal(t, "Outros", got.Category)
		assert.Equal(t, "un", got.Unit)
	}

	_, err = f.engine.AddItem(f.ctx, list.ID, NewItemInput{Name: "  "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.engine.AddItem(f.ctx, "missing", NewItemInput{Name: "Pão"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestStartTransition(t *testing.T) {
	f := setup(t)

	empty := f.draft(t)
	_, err := f.engine.Start(f.ctx, empty.ID)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
	still, err := f.engine.Get(f.ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ListDraft, still.Status)

	list := f.draft(t, "Pão")
	started, err := f.engine.Start(f.ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ListShopping, started.Status)
	require.NotNil(t, started.StartedAt)
	assert.True(t, started.StartedAt.Equal(f.now))

	_, err = f.engine.Start(f.ctx, list.ID)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	_, err = f.engine.Start(f.ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestMarkPurchasedRules(t *testing.T) {
	f := setup(t)

	draft := f.draft(t, "Pão")
	_, err := f.engine.MarkPurchased(f.ctx, draft.Items[0].ID, "1", "5")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	assert.Equal(t, "start the list before marking purchases", err.Error())

	list := f.shopping(t, "Leite")
	id := list.Items[0].ID
	for _, bad := range [][2]Numeric{{"-1", "2"}, {"1", "-0.5"}, {"x", "2"}, {"1", ""}} {
		_, err := f.engine.MarkPurchased(f.ctx, id, bad[0], bad[1])
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "inputs %v", bad)
	}

	list, err = f.engine.MarkPurchased(f.ctx, id, "6", "4,59")
	require.NoError(t, err)
	it := list.Items[0]
	assert.True(t, it.IsPurchased)
	require.NotNil(t, it.PurchasedQuantity)
	require.NotNil(t, it.UnitPrice)
	assert.Equal(t, 6.0, *it.PurchasedQuantity)
	assert.Equal(t, 4.59, *it.UnitPrice)

	list, err = f.engine.ReturnToPending(f.ctx, id)
	require.NoError(t, err)
	it = list.Items[0]
	assert.False(t, it.IsPurchased)
	assert.Nil(t, it.PurchasedQuantity)
	assert.Nil(t, it.UnitPrice)

	_, err = f.engine.MarkPurchased(f.ctx, "missing", "1", "1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestFinalizeReconcilesInventory(t *testing.T) {
	f := setup(t)
	list := f.shopping(t, "Arroz", "Feijão")

	_, err := f.engine.Finalize(f.ctx, list.ID)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	_, err = f.engine.MarkPurchased(f.ctx, list.Items[0].ID, "3", "2.50")
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	done, err := f.engine.Finalize(f.ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ListCompleted, done.List.Status)
	require.NotNil(t, done.List.CompletedAt)
	assert.True(t, done.List.CompletedAt.Equal(f.now))
	assert.Equal(t, 7.5, done.Summary.Total)
	assert.Equal(t, 1, done.Summary.PurchasedItems)

	arroz, err := f.inventory.GetByName(f.ctx, f.userID, "Arroz")
	require.NoError(t, err)
	require.NotNil(t, arroz)
	assert.Equal(t, 3.0, arroz.Quantity)
	assert.Equal(t, 2.0, arroz.LowThreshold)
	assert.Equal(t, "Mercearia", arroz.Category)

	feijao, err := f.inventory.GetByName(f.ctx, f.userID, "Feijão")
	require.NoError(t, err)
	assert.Nil(t, feijao)
}

func TestCompletedListIsImmutable(t *testing.T) {
	f := setup(t)
	list := f.shopping(t, "Arroz", "Feijão")
	_, err := f.engine.MarkPurchased(f.ctx, list.Items[0].ID, "1", "10")
	require.NoError(t, err)
	_, err = f.engine.Finalize(f.ctx, list.ID)
	require.NoError(t, err)

	purchased, pending := list.Items[0].ID, list.Items[1].ID

	checks := []struct {
		name string
		run  func() error
		kind apperr.Kind
	}{
		{"start", func() error { _, err := f.engine.Start(f.ctx, list.ID); return err }, apperr.KindInvalidTransition},
		{"finalize", func() error { _, err := f.engine.Finalize(f.ctx, list.ID); return err }, apperr.KindInvalidTransition},
		{"add", func() error {
			_, err := f.engine.AddItem(f.ctx, list.ID, NewItemInput{Name: "Sal"})
			return err
		}, apperr.KindInvalidState},
		{"remove", func() error { _, err := f.engine.RemoveItem(f.ctx, pending); return err }, apperr.KindInvalidState},
		{"urgent", func() error { _, err := f.engine.ToggleUrgent(f.ctx, pending, true); return err }, apperr.KindInvalidState},
		{"purchase", func() error { _, err := f.engine.MarkPurchased(f.ctx, pending, "1", "1"); return err }, apperr.KindInvalidState},
		{"return", func() error { _, err := f.engine.ReturnToPending(f.ctx, purchased); return err }, apperr.KindInvalidState},
	}
	for _, c := range checks {
		assert.Equal(t, c.kind, apperr.KindOf(c.run()), c.name)
	}

	got, err := f.engine.Get(f.ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ListCompleted, got.Status)
	assert.Len(t, got.Items, 2)
	assert.True(t, got.Items[0].IsPurchased)
}

func TestRemoveAndToggleUrgent(t *testing.T) {
	f := setup(t)
	list := f.draft(t, "Pão", "Leite")

	list, err := f.engine.ToggleUrgent(f.ctx, list.Items[1].ID, true)
	require.NoError(t, err)
	assert.True(t, list.Items[1].IsUrgent)

	list, err = f.engine.RemoveItem(f.ctx, list.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Leite", list.Items[0].Name)

	_, err = f.engine.RemoveItem(f.ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCopy(t *testing.T) {
	f := setup(t)
	src := f.shopping(t, "Pão", "Leite")
	_, err := f.engine.MarkPurchased(f.ctx, src.Items[0].ID, "2", "1")
	require.NoError(t, err)

	_, err = f.engine.Copy(f.ctx, src.ID, " ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = f.engine.Copy(f.ctx, "missing", "Nova")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	cp, err := f.engine.Copy(f.ctx, src.ID, "Nova")
	require.NoError(t, err)
	assert.Equal(t, model.ListDraft, cp.Status)
	require.NotNil(t, cp.SourceListID)
	assert.Equal(t, src.ID, *cp.SourceListID)
	require.Len(t, cp.Items, 2)
	for i, it := range cp.Items {
		assert.Equal(t, i, it.Position)
		assert.False(t, it.IsPurchased)
		assert.Nil(t, it.PurchasedQuantity)
	}
}

func TestViewSortsWhileShopping(t *testing.T) {
	f := setup(t)
	list := f.draft(t, "Pão", "Alface", "Detergente", "Coisa estranha", "Banana")

	view, err := f.engine.View(f.ctx, list.ID, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pão", "Alface", "Detergente", "Coisa estranha", "Banana"}, names(view.Pending))

	_, err = f.engine.Start(f.ctx, list.ID)
	require.NoError(t, err)
	view, err = f.engine.View(f.ctx, list.ID, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alface", "Banana", "Pão", "Detergente", "Coisa estranha"}, names(view.Pending))
	assert.Empty(t, view.Purchased)
	assert.Len(t, view.Categories, 18)
	assert.Equal(t, 5, view.PlannedCount)

	view, err = f.engine.View(f.ctx, list.ID, Filter{Query: "AL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alface"}, names(view.Pending))

	view, err = f.engine.View(f.ctx, list.ID, Filter{Category: "Padaria"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pão"}, names(view.Pending))

	view, err = f.engine.View(f.ctx, list.ID, Filter{Category: category.All})
	require.NoError(t, err)
	assert.Len(t, view.Pending, 5)
}

func TestListsCards(t *testing.T) {
	f := setup(t)
	list := f.shopping(t, "Pão", "Leite")
	_, err := f.engine.MarkPurchased(f.ctx, list.Items[0].ID, "2", "3.5")
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	f.draft(t)

	cards, err := f.engine.Lists(f.ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, list.ID, cards[1].ID)
	assert.Equal(t, 7.0, cards[1].Total)
	assert.Equal(t, 2, cards[1].PlannedCount)
	assert.Equal(t, 1, cards[1].PurchasedCount)
}

func TestUnauthenticated(t *testing.T) {
	f := setup(t)
	anon := NewEngine(nil, f.registry, auth.CurrentUser)

	_, err := anon.CreateList(f.ctx, "Semana")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	_, err = anon.Finalize(f.ctx, "x")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	_, err = anon.MarkPurchased(f.ctx, "x", "1", "1")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func names(items []model.ShoppingListItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

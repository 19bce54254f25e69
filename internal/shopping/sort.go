package shopping

import (
	"math"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dukerupert/despensa/internal/category"
	"github.com/dukerupert/despensa/internal/model"
)

// Filter narrows the items of a list view.
type Filter struct {
	Query    string
	Category string
}

// SortByCategory orders items by category position, unknown categories
// last, then by name in pt-BR collation. The input is not modified.
func SortByCategory(items []model.ShoppingListItem, order category.Order) []model.ShoppingListItem {
	sorted := make([]model.ShoppingListItem, len(items))
	copy(sorted, items)

	c := collate.New(language.BrazilianPortuguese)
	rank := func(name string) int {
		if pos, ok := order.Rank(name); ok {
			return pos
		}
		return math.MaxInt
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rank(sorted[i].Category), rank(sorted[j].Category)
		if ri != rj {
			return ri < rj
		}
		return c.CompareString(sorted[i].Name, sorted[j].Name) < 0
	})
	return sorted
}

// Partition splits the filtered items of list into pending and purchased.
// While shopping each side is sorted by category; otherwise stored order stays.
func Partition(list *model.ShoppingList, order category.Order, f Filter) (pending, purchased []model.ShoppingListItem) {
	pending = []model.ShoppingListItem{}
	purchased = []model.ShoppingListItem{}
	for _, item := range list.Items {
		if !category.MatchesFilter(item.Category, f.Category) || !category.MatchesText(item.Name, f.Query) {
			continue
		}
		if item.IsPurchased {
			purchased = append(purchased, item)
		} else {
			pending = append(pending, item)
		}
	}
	if list.Status == model.ListShopping {
		pending = SortByCategory(pending, order)
		purchased = SortByCategory(purchased, order)
	}
	return pending, purchased
}

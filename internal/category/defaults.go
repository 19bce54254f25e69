package category

import "github.com/dukerupert/despensa/internal/model"

// Defaults is the set every new account starts with.
var Defaults = []model.Category{
	{Name: "Hortifruti", Emoji: "🥬", Position: 0, IsActive: true},
	{Name: "Padaria", Emoji: "🥖", Position: 1, IsActive: true},
	{Name: "Açougue", Emoji: "🥩", Position: 2, IsActive: true},
	{Name: "Peixaria", Emoji: "🐟", Position: 3, IsActive: true},
	{Name: "Laticínios", Emoji: "🧀", Position: 4, IsActive: true},
	{Name: "Frios", Emoji: "🥓", Position: 5, IsActive: true},
	{Name: "Ovos", Emoji: "🥚", Position: 6, IsActive: true},
	{Name: "Congelados", Emoji: "🧊", Position: 7, IsActive: true},
	{Name: "Mercearia", Emoji: "🧺", Position: 8, IsActive: true},
	{Name: "Enlatados e Conservas", Emoji: "🥫", Position: 9, IsActive: true},
	{Name: "Temperos e Condimentos", Emoji: "🧂", Position: 10, IsActive: true},
	{Name: "Bebidas", Emoji: "🥤", Position: 11, IsActive: true},
	{Name: "Snacks", Emoji: "🍫", Position: 12, IsActive: true},
	{Name: "Produtos Naturais / Saudáveis", Emoji: "🌿", Position: 13, IsActive: true},
	{Name: "Limpeza", Emoji: "🧼", Position: 14, IsActive: true},
	{Name: "Higiene Pessoal", Emoji: "🧴", Position: 15, IsActive: true},
	{Name: "Papelaria / Utilidades", Emoji: "🧻", Position: 16, IsActive: true},
	{Name: "Pet Shop", Emoji: "🐾", Position: 17, IsActive: true},
}

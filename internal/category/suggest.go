package category

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dukerupert/despensa/internal/model"
)

// Normalize folds case and strips accents so "Pão" and "pao" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return cases.Fold().String(out)
}

// Suggest returns the default category for the given item name.
// Exact match first, then substring match. Falls back to "Outros".
func Suggest(itemName string) string {
	name := Normalize(itemName)
	if name == "" {
		return model.FallbackCategory
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return model.FallbackCategory
}

var exactMatch = map[string]string{
	// Hortifruti
	"alface":   "Hortifruti",
	"tomate":   "Hortifruti",
	"cebola":   "Hortifruti",
	"alho":     "Hortifruti",
	"batata":   "Hortifruti",
	"cenoura":  "Hortifruti",
	"banana":   "Hortifruti",
	"maca":     "Hortifruti",
	"laranja":  "Hortifruti",
	"limao":    "Hortifruti",
	"mamao":    "Hortifruti",
	"abacate":  "Hortifruti",
	"couve":    "Hortifruti",
	"brocolis": "Hortifruti",
	"pepino":   "Hortifruti",
	"uva":      "Hortifruti",

	// Padaria
	"pao":       "Padaria",
	"paes":      "Padaria",
	"bisnaga":   "Padaria",
	"baguete":   "Padaria",
	"croissant": "Padaria",

	// Açougue
	"frango":   "Açougue",
	"carne":    "Açougue",
	"picanha":  "Açougue",
	"linguica": "Açougue",
	"costela":  "Açougue",
	"patinho":  "Açougue",

	// Peixaria
	"peixe":   "Peixaria",
	"salmao":  "Peixaria",
	"tilapia": "Peixaria",
	"camarao": "Peixaria",

	// Laticínios
	"leite":          "Laticínios",
	"manteiga":       "Laticínios",
	"iogurte":        "Laticínios",
	"requeijao":      "Laticínios",
	"creme de leite": "Laticínios",

	// Frios
	"presunto":      "Frios",
	"mortadela":     "Frios",
	"salame":        "Frios",
	"peito de peru": "Frios",

	// Ovos
	"ovo":  "Ovos",
	"ovos": "Ovos",

	// Mercearia
	"arroz":    "Mercearia",
	"feijao":   "Mercearia",
	"acucar":   "Mercearia",
	"farinha":  "Mercearia",
	"macarrao": "Mercearia",
	"cafe":     "Mercearia",
	"oleo":     "Mercearia",

	// Temperos e Condimentos
	"sal": "Temperos e Condimentos",

	// Bebidas
	"agua":         "Bebidas",
	"suco":         "Bebidas",
	"refrigerante": "Bebidas",
	"cerveja":      "Bebidas",
	"vinho":        "Bebidas",

	// Limpeza
	"detergente":     "Limpeza",
	"sabao em po":    "Limpeza",
	"desinfetante":   "Limpeza",
	"agua sanitaria": "Limpeza",
	"esponja":        "Limpeza",

	// Higiene Pessoal
	"sabonete":       "Higiene Pessoal",
	"shampoo":        "Higiene Pessoal",
	"xampu":          "Higiene Pessoal",
	"condicionador":  "Higiene Pessoal",
	"desodorante":    "Higiene Pessoal",
	"pasta de dente": "Higiene Pessoal",

	// Papelaria / Utilidades
	"papel higienico": "Papelaria / Utilidades",
	"papel toalha":    "Papelaria / Utilidades",
	"guardanapo":      "Papelaria / Utilidades",
	"pilha":           "Papelaria / Utilidades",
}

// substringMatches is ordered longer/more-specific first.
var substringMatches = []struct {
	keyword  string
	category string
}{
	{"agua sanitaria", "Limpeza"},
	{"papel higienico", "Papelaria / Utilidades"},
	{"creme de leite", "Laticínios"},
	{"leite condensado", "Enlatados e Conservas"},
	{"peito de peru", "Frios"},
	{"pao de queijo", "Congelados"},
	{"extrato de tomate", "Enlatados e Conservas"},
	{"molho de tomate", "Enlatados e Conservas"},
	{"salmao", "Peixaria"},
	{"racao", "Pet Shop"},
	{"areia para gato", "Pet Shop"},
	{"congelad", "Congelados"},
	{"sorvete", "Congelados"},
	{"lasanha", "Congelados"},
	{"enlatad", "Enlatados e Conservas"},
	{"sardinha", "Enlatados e Conservas"},
	{"atum", "Enlatados e Conservas"},
	{"milho", "Enlatados e Conservas"},
	{"ervilha", "Enlatados e Conservas"},
	{"salgadinho", "Snacks"},
	{"tempero", "Temperos e Condimentos"},
	{"sal grosso", "Temperos e Condimentos"},
	{"sal refinado", "Temperos e Condimentos"},
	{"pimenta", "Temperos e Condimentos"},
	{"oregano", "Temperos e Condimentos"},
	{"ketchup", "Temperos e Condimentos"},
	{"mostarda", "Temperos e Condimentos"},
	{"maionese", "Temperos e Condimentos"},
	{"granola", "Produtos Naturais / Saudáveis"},
	{"integral", "Produtos Naturais / Saudáveis"},
	{"chia", "Produtos Naturais / Saudáveis"},
	{"aveia", "Produtos Naturais / Saudáveis"},
	{"chocolate", "Snacks"},
	{"biscoito", "Snacks"},
	{"bolacha", "Snacks"},
	{"pipoca", "Snacks"},
	{"refrigerante", "Bebidas"},
	{"cerveja", "Bebidas"},
	{"suco", "Bebidas"},
	{"agua", "Bebidas"},
	{"detergente", "Limpeza"},
	{"sabao", "Limpeza"},
	{"amaciante", "Limpeza"},
	{"limpador", "Limpeza"},
	{"sabonete", "Higiene Pessoal"},
	{"shampoo", "Higiene Pessoal"},
	{"escova de dente", "Higiene Pessoal"},
	{"absorvente", "Higiene Pessoal"},
	{"papel", "Papelaria / Utilidades"},
	{"queijo", "Laticínios"},
	{"iogurte", "Laticínios"},
	{"leite", "Laticínios"},
	{"presunto", "Frios"},
	{"frango", "Açougue"},
	{"carne", "Açougue"},
	{"bife", "Açougue"},
	{"peixe", "Peixaria"},
	{"ovo", "Ovos"},
	{"pao", "Padaria"},
	{"bolo", "Padaria"},
	{"arroz", "Mercearia"},
	{"feijao", "Mercearia"},
	{"macarrao", "Mercearia"},
	{"cafe", "Mercearia"},
	{"fruta", "Hortifruti"},
	{"verdura", "Hortifruti"},
	{"legume", "Hortifruti"},
}

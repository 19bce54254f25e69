package model

import "time"

// DefaultEmoji is shown for categories saved without a glyph.
const DefaultEmoji = "🛒"

// FallbackCategory is used for items whose category is blank or unknown.
const FallbackCategory = "Outros"

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Emoji     string    `json:"emoji"`
	Position  int       `json:"position"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryDraft is one entry of a bulk replace. An empty ID means insert.
type CategoryDraft struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	IsActive bool   `json:"is_active"`
}

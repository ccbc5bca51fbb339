package models

import "time"

// Wishlist is a named, owned collection of desired items. Lists flagged as
// templates appear in the public gallery instead of the owner's personal
// listing; the owner never changes after creation.
type Wishlist struct {
	ID         int64     `json:"id" db:"id"`
	OwnerID    int64     `json:"owner_id" db:"owner_id"`
	Title      string    `json:"title" db:"title"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	IsTemplate bool      `json:"is_template" db:"is_template"`
	Background *string   `json:"background" db:"background"`
	Items      []Item    `json:"items,omitempty"`
}

// Item is a single desired product entry within a wishlist. Ordinal is the
// display order and carries no uniqueness guarantee; listings sort by it
// ascending. Taken marks the item as reserved by someone else.
type Item struct {
	ID           int64   `json:"id" db:"id"`
	WishlistID   int64   `json:"wishlist_id" db:"wishlist_id"`
	Ordinal      int     `json:"ordinal" db:"ordinal"`
	Name         string  `json:"name" db:"name"`
	DesiredLevel int     `json:"desired_level" db:"desired_level"`
	Comment      *string `json:"comment" db:"comment"`
	Price        float64 `json:"price" db:"price"`
	URL          *string `json:"url" db:"url"`
	Taken        bool    `json:"taken" db:"taken"`
}

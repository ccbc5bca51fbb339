package models

// TemplateRating is a single user's rating of a template wishlist. At most
// one row exists per (template, user) pair; the pair is kept unique by the
// upsert in the repository rather than a schema constraint.
type TemplateRating struct {
	ID         int64 `json:"id" db:"id"`
	TemplateID int64 `json:"template_id" db:"template_id"`
	UserID     int64 `json:"user_id" db:"user_id"`
	Rating     int   `json:"rating" db:"rating"`
}

// TemplateSummary is one row of the public template gallery.
type TemplateSummary struct {
	ID         int64   `json:"id" db:"id"`
	Title      string  `json:"title" db:"title"`
	Background *string `json:"background" db:"background"`
	ItemsCount int     `json:"items_count" db:"items_count"`
	AvgRating  float64 `json:"avg_rating" db:"avg_rating"`
}

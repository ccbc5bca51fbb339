package repository

import (
	"context"

	"github.com/wishlistme/miniapp/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Upsert inserts the user or, when the telegram id is already known,
	// refreshes first name, last name and username. Used by the login flow.
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// WishlistRepository defines the interface for wishlist data operations
type WishlistRepository interface {
	Create(ctx context.Context, list *models.Wishlist) (*models.Wishlist, error)
	GetByID(ctx context.Context, id int64) (*models.Wishlist, error)
	// ListByOwner returns the owner's non-template wishlists, newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Wishlist, error)
	// UpdateMeta applies a partial update and reports the rows affected.
	UpdateMeta(ctx context.Context, id int64, update WishlistUpdate) (int64, error)
}

// ItemRepository defines the interface for wishlist item operations
type ItemRepository interface {
	// Add inserts an item. A nil ordinal appends at the end of the list
	// (max ordinal + 1, starting at 0 for an empty list).
	Add(ctx context.Context, item *models.Item, ordinal *int) (*models.Item, error)
	// ListByWishlist returns items ordered by ordinal ascending.
	ListByWishlist(ctx context.Context, wishlistID int64) ([]*models.Item, error)
	// Update applies a partial update and reports the rows affected;
	// zero rows is a valid outcome, not an error.
	Update(ctx context.Context, itemID int64, update ItemUpdate) (int64, error)
	Delete(ctx context.Context, itemID int64) (int64, error)
}

// TemplateRepository defines the interface for the template gallery
type TemplateRepository interface {
	// List aggregates every template with its item count and average
	// rating, ordered by average rating then item count, both descending.
	List(ctx context.Context) ([]*models.TemplateSummary, error)
	// GetTemplate returns the template wishlist, or nil when no wishlist
	// with that id is flagged as a template.
	GetTemplate(ctx context.Context, id int64) (*models.Wishlist, error)
	// Rate upserts the user's rating for a template in one transaction.
	Rate(ctx context.Context, templateID, userID int64, rating int) error
	// Copy clones the template into a new wishlist owned by newOwnerID and
	// returns the new wishlist id and the number of items copied. The whole
	// clone runs in one transaction.
	Copy(ctx context.Context, templateID, newOwnerID int64) (int64, int64, error)
}

// WishlistUpdate represents a partial wishlist metadata update. Nil fields
// keep their current value.
type WishlistUpdate struct {
	Title      *string
	Background *string
}

// ItemUpdate represents a partial item update. Nil fields keep their
// current value.
type ItemUpdate struct {
	Ordinal      *int
	Name         *string
	DesiredLevel *int
	Comment      *string
	Price        *float64
	URL          *string
	Taken        *bool
}

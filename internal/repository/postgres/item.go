package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wishlistme/miniapp/internal/models"
	"github.com/wishlistme/miniapp/internal/repository"
)

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new wishlist item repository
func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Add(ctx context.Context, item *models.Item, ordinal *int) (*models.Item, error) {
	// When no ordinal is supplied the item is appended at the end of the
	// list. The subquery keeps the whole insert a single statement.
	query := `
		INSERT INTO wishlist_items (wishlist_id, ordinal, name, desired_level, comment, price, url, taken)
		VALUES ($1,
		        COALESCE($2, (SELECT COALESCE(MAX(ordinal) + 1, 0) FROM wishlist_items WHERE wishlist_id = $1)),
		        $3, $4, $5, $6, $7, $8)
		RETURNING id, ordinal`

	err := r.db.QueryRowContext(ctx, query,
		item.WishlistID,
		ordinal,
		item.Name,
		item.DesiredLevel,
		item.Comment,
		item.Price,
		item.URL,
		item.Taken,
	).Scan(&item.ID, &item.Ordinal)

	if err != nil {
		return nil, fmt.Errorf("failed to add wishlist item: %w", err)
	}

	return item, nil
}

func (r *itemRepository) ListByWishlist(ctx context.Context, wishlistID int64) ([]*models.Item, error) {
	query := `
		SELECT id, wishlist_id, ordinal, name, desired_level, comment, price, url, taken
		FROM wishlist_items
		WHERE wishlist_id = $1
		ORDER BY ordinal ASC`

	rows, err := r.db.QueryContext(ctx, query, wishlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item := &models.Item{}
		if err := rows.Scan(
			&item.ID,
			&item.WishlistID,
			&item.Ordinal,
			&item.Name,
			&item.DesiredLevel,
			&item.Comment,
			&item.Price,
			&item.URL,
			&item.Taken,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *itemRepository) Update(ctx context.Context, itemID int64, update repository.ItemUpdate) (int64, error) {
	// Merge semantics: unset fields keep their current value.
	query := `
		UPDATE wishlist_items
		SET ordinal = COALESCE($2, ordinal),
		    name = COALESCE($3, name),
		    desired_level = COALESCE($4, desired_level),
		    comment = COALESCE($5, comment),
		    price = COALESCE($6, price),
		    url = COALESCE($7, url),
		    taken = COALESCE($8, taken)
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		itemID,
		update.Ordinal,
		update.Name,
		update.DesiredLevel,
		update.Comment,
		update.Price,
		update.URL,
		update.Taken,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update wishlist item: %w", err)
	}

	return rowsAffected(result)
}

func (r *itemRepository) Delete(ctx context.Context, itemID int64) (int64, error) {
	query := `DELETE FROM wishlist_items WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete wishlist item: %w", err)
	}

	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (int64, error) {
	changes, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return changes, nil
}

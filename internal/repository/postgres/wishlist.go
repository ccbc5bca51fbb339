package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wishlistme/miniapp/internal/models"
	"github.com/wishlistme/miniapp/internal/repository"
)

type wishlistRepository struct {
	db *sql.DB
}

// NewWishlistRepository creates a new wishlist repository
func NewWishlistRepository(db *sql.DB) repository.WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) Create(ctx context.Context, list *models.Wishlist) (*models.Wishlist, error) {
	query := `
		INSERT INTO wishlists (owner_id, title, created_at, is_template, background)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	list.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		list.OwnerID,
		list.Title,
		list.CreatedAt,
		list.IsTemplate,
		list.Background,
	).Scan(&list.ID, &list.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create wishlist: %w", err)
	}

	return list, nil
}

func (r *wishlistRepository) GetByID(ctx context.Context, id int64) (*models.Wishlist, error) {
	query := `
		SELECT id, owner_id, title, created_at, is_template, background
		FROM wishlists
		WHERE id = $1`

	list := &models.Wishlist{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&list.ID,
		&list.OwnerID,
		&list.Title,
		&list.CreatedAt,
		&list.IsTemplate,
		&list.Background,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wishlist by ID: %w", err)
	}

	return list, nil
}

func (r *wishlistRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Wishlist, error) {
	query := `
		SELECT id, owner_id, title, created_at, is_template, background
		FROM wishlists
		WHERE owner_id = $1 AND is_template = FALSE
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlists by owner: %w", err)
	}
	defer rows.Close()

	var lists []*models.Wishlist
	for rows.Next() {
		list := &models.Wishlist{}
		if err := rows.Scan(
			&list.ID,
			&list.OwnerID,
			&list.Title,
			&list.CreatedAt,
			&list.IsTemplate,
			&list.Background,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist: %w", err)
		}
		lists = append(lists, list)
	}

	return lists, rows.Err()
}

func (r *wishlistRepository) UpdateMeta(ctx context.Context, id int64, update repository.WishlistUpdate) (int64, error) {
	query := `
		UPDATE wishlists
		SET title = COALESCE($2, title),
		    background = COALESCE($3, background)
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, update.Title, update.Background)
	if err != nil {
		return 0, fmt.Errorf("failed to update wishlist: %w", err)
	}

	changes, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return changes, nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wishlistme/miniapp/internal/models"
	"github.com/wishlistme/miniapp/internal/repository"
)

type templateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new template gallery repository
func NewTemplateRepository(db *sql.DB) repository.TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) List(ctx context.Context) ([]*models.TemplateSummary, error) {
	query := `
		SELECT w.id, w.title, w.background,
		       COUNT(DISTINCT i.id) AS items_count,
		       COALESCE(AVG(r.rating), 0) AS avg_rating
		FROM wishlists w
		LEFT JOIN wishlist_items i ON i.wishlist_id = w.id
		LEFT JOIN template_ratings r ON r.template_id = w.id
		WHERE w.is_template = TRUE
		GROUP BY w.id, w.title, w.background
		ORDER BY avg_rating DESC, items_count DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.TemplateSummary
	for rows.Next() {
		t := &models.TemplateSummary{}
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Background,
			&t.ItemsCount,
			&t.AvgRating,
		); err != nil {
			return nil, fmt.Errorf("failed to scan template summary: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

func (r *templateRepository) GetTemplate(ctx context.Context, id int64) (*models.Wishlist, error) {
	query := `
		SELECT id, owner_id, title, created_at, is_template, background
		FROM wishlists
		WHERE id = $1 AND is_template = TRUE`

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
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return list, nil
}

func (r *templateRepository) Rate(ctx context.Context, templateID, userID int64, rating int) error {
	// Update-then-insert upsert inside one transaction keeps at most one
	// rating row per (template, user) pair without a schema constraint.
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rating transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE template_ratings
		SET rating = $3
		WHERE template_id = $1 AND user_id = $2`,
		templateID, userID, rating,
	)
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}

	changes, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if changes == 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO template_ratings (template_id, user_id, rating)
			VALUES ($1, $2, $3)`,
			templateID, userID, rating,
		); err != nil {
			return fmt.Errorf("failed to insert rating: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rating: %w", err)
	}

	return nil
}

func (r *templateRepository) Copy(ctx context.Context, templateID, newOwnerID int64) (int64, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin copy transaction: %w", err)
	}
	defer tx.Rollback()

	var title string
	var background *string
	err = tx.QueryRowContext(ctx, `
		SELECT title, background FROM wishlists
		WHERE id = $1 AND is_template = TRUE`,
		templateID,
	).Scan(&title, &background)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to read template: %w", err)
	}

	var newID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO wishlists (owner_id, title, is_template, background)
		VALUES ($1, $2, FALSE, $3)
		RETURNING id`,
		newOwnerID, title, background,
	).Scan(&newID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create wishlist copy: %w", err)
	}

	// Reservations and comments stay with the original list; the copy
	// starts with taken = FALSE and an empty comment on every item.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO wishlist_items (wishlist_id, ordinal, name, desired_level, comment, price, url, taken)
		SELECT $2, ordinal, name, desired_level, NULL, price, url, FALSE
		FROM wishlist_items
		WHERE wishlist_id = $1`,
		templateID, newID,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to copy wishlist items: %w", err)
	}

	copied, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit copy: %w", err)
	}

	return newID, copied, nil
}

package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wishlistme/miniapp/internal/models"
	"github.com/wishlistme/miniapp/internal/repository"
)

var wishlistColumns = []string{"id", "owner_id", "title", "created_at", "is_template", "background"}

func TestWishlistCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wishlists")).
		WithArgs(int64(1), "Birthday", sqlmock.AnyArg(), false, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	repo := NewWishlistRepository(db)
	list, err := repo.Create(context.Background(), &models.Wishlist{
		OwnerID: 1,
		Title:   "Birthday",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), list.ID)
	assert.False(t, list.IsTemplate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistListByOwnerExcludesTemplates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("is_template = FALSE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(wishlistColumns).
			AddRow(int64(2), int64(1), "Christmas", now, false, nil).
			AddRow(int64(1), int64(1), "Birthday", now.Add(-time.Hour), false, "bg.png"))

	repo := NewWishlistRepository(db)
	lists, err := repo.ListByOwner(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "Christmas", lists[0].Title)
	assert.Equal(t, "Birthday", lists[1].Title)
	require.NotNil(t, lists[1].Background)
	assert.Equal(t, "bg.png", *lists[1].Background)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistUpdateMetaPartial(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	title := "Renamed"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wishlists")).
		WithArgs(int64(5), "Renamed", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewWishlistRepository(db)
	changes, err := repo.UpdateMeta(context.Background(), 5, repository.WishlistUpdate{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, int64(1), changes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWishlistUpdateMetaUnknownID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE wishlists")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewWishlistRepository(db)
	changes, err := repo.UpdateMeta(context.Background(), 404, repository.WishlistUpdate{})

	require.NoError(t, err)
	assert.Zero(t, changes)
	require.NoError(t, mock.ExpectationsWereMet())
}

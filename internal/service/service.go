package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wishlistme/miniapp/internal/models"
	"github.com/wishlistme/miniapp/internal/repository"
)

// ErrTemplateNotFound is returned when an operation references a wishlist id
// that is not flagged as a template.
var ErrTemplateNotFound = errors.New("template not found")

// Service is the central business logic layer that holds all repositories
// and provides high-level methods for the application.
type Service struct {
	db        *sql.DB
	logger    *logrus.Logger
	Users     repository.UserRepository
	Wishlists repository.WishlistRepository
	Items     repository.ItemRepository
	Templates repository.TemplateRepository
}

// New creates a new Service with all required dependencies.
func New(db *sql.DB, logger *logrus.Logger,
	users repository.UserRepository,
	wishlists repository.WishlistRepository,
	items repository.ItemRepository,
	templates repository.TemplateRepository,
) *Service {
	return &Service{
		db: db, logger: logger,
		Users: users, Wishlists: wishlists, Items: items, Templates: templates,
	}
}

// EnsureUser upserts the user record for a successful login. Repeat logins
// refresh the profile fields so the stored name tracks the Telegram account.
func (s *Service) EnsureUser(ctx context.Context, telegramID, firstName, lastName, username string) (*models.User, error) {
	user := &models.User{
		TelegramID: telegramID,
		FirstName:  strings.TrimSpace(firstName),
		LastName:   strings.TrimSpace(lastName),
		Username:   strings.TrimSpace(username),
	}

	user, err := s.Users.Upsert(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user (telegram_id=%s): %w", telegramID, err)
	}

	s.logger.Infof("Logged in user %s (telegram_id=%s)", user.DisplayName(), telegramID)
	return user, nil
}

// ResolveUser maps a Telegram id referenced by an API call to the internal
// user row, creating a bare row the first time an unknown id shows up. The
// profile fields stay empty until that user logs in through the widget.
func (s *Service) ResolveUser(ctx context.Context, telegramID string) (*models.User, error) {
	user, err := s.Users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user (telegram_id=%s): %w", telegramID, err)
	}
	if user != nil {
		return user, nil
	}

	user, err = s.Users.Create(ctx, &models.User{TelegramID: telegramID})
	if err != nil {
		return nil, fmt.Errorf("failed to create user (telegram_id=%s): %w", telegramID, err)
	}

	s.logger.Infof("Created user for unseen telegram_id=%s", telegramID)
	return user, nil
}

// MyWishlists returns the caller's non-template wishlists, newest first.
func (s *Service) MyWishlists(ctx context.Context, telegramID string) ([]*models.Wishlist, error) {
	user, err := s.ResolveUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.Wishlists.ListByOwner(ctx, user.ID)
}

// CreateWishlist creates a new personal wishlist for the caller.
func (s *Service) CreateWishlist(ctx context.Context, telegramID, title string, background *string) (*models.Wishlist, error) {
	user, err := s.ResolveUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	list := &models.Wishlist{
		OwnerID:    user.ID,
		Title:      strings.TrimSpace(title),
		Background: background,
	}
	list, err = s.Wishlists.Create(ctx, list)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"wishlist_id": list.ID,
		"owner_id":    user.ID,
	}).Info("Wishlist created")
	return list, nil
}

// RateTemplate records the caller's rating for a template, replacing any
// rating they gave it before.
func (s *Service) RateTemplate(ctx context.Context, templateID int64, telegramID string, rating int) error {
	template, err := s.Templates.GetTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	if template == nil {
		return ErrTemplateNotFound
	}

	user, err := s.ResolveUser(ctx, telegramID)
	if err != nil {
		return err
	}

	if err := s.Templates.Rate(ctx, templateID, user.ID, rating); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"template_id": templateID,
		"user_id":     user.ID,
		"rating":      rating,
	}).Info("Template rated")
	return nil
}

// CopyTemplate clones a template into a new personal wishlist owned by the
// caller and reports the new id and how many items were copied.
func (s *Service) CopyTemplate(ctx context.Context, templateID int64, telegramID string) (int64, int64, error) {
	user, err := s.ResolveUser(ctx, telegramID)
	if err != nil {
		return 0, 0, err
	}

	newID, copied, err := s.Templates.Copy(ctx, templateID, user.ID)
	if err != nil {
		return 0, 0, err
	}
	if newID == 0 {
		return 0, 0, ErrTemplateNotFound
	}

	s.logger.WithFields(logrus.Fields{
		"template_id": templateID,
		"wishlist_id": newID,
		"owner_id":    user.ID,
		"items":       copied,
	}).Info("Template copied")
	return newID, copied, nil
}

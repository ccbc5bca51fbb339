package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/wishlistme/miniapp/internal/service"
)

// MyListsHandler handles the /mylists command. It shows the caller's
// wishlists with their item counts, mirroring what the mini-app's "my
// lists" screen displays.
type MyListsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewMyListsHandler creates a new MyListsHandler.
func NewMyListsHandler(svc *service.Service, logger *logrus.Logger) *MyListsHandler {
	return &MyListsHandler{svc: svc, logger: logger}
}

// Handle processes the /mylists command.
func (h *MyListsHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	telegramID := strconv.FormatInt(message.From.ID, 10)

	// Refresh the profile while we are here; the bot sees the same fields
	// the login widget would deliver.
	if _, err := h.svc.EnsureUser(ctx, telegramID, message.From.FirstName, message.From.LastName, message.From.UserName); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	lists, err := h.svc.MyWishlists(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("get wishlists: %w", err)
	}

	if len(lists) == 0 {
		msg := tgbotapi.NewMessage(message.Chat.ID,
			"🎁 You have no wishlists yet. Open the mini-app with /start to create one!")
		bot.Send(msg)
		return nil
	}

	var b strings.Builder
	b.WriteString("🎁 *Your wishlists:*\n\n")
	for _, list := range lists {
		items, err := h.svc.Items.ListByWishlist(ctx, list.ID)
		if err != nil {
			return fmt.Errorf("get items for wishlist %d: %w", list.ID, err)
		}
		fmt.Fprintf(&b, "*#%d* — %s (%d items)\n", list.ID, list.Title, len(items))
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, b.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
		"lists":   len(lists),
	}).Info("Sent wishlist overview")

	return nil
}

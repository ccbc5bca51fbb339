package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// StartHandler handles the /start command. It greets the user and offers an
// inline button that opens the wishlist mini-app inside Telegram.
type StartHandler struct {
	webAppURL string
	logger    *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(webAppURL string, logger *logrus.Logger) *StartHandler {
	return &StartHandler{
		webAppURL: webAppURL,
		logger:    logger,
	}
}

// Handle processes the /start command
func (h *StartHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	greeting := fmt.Sprintf(
		"Привет, %s! 👋\n\nЭто ваш Wishlist-MiniApp. Нажмите на кнопку ниже, чтобы открыть интерфейс вашего вишлиста.",
		message.From.FirstName,
	)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.InlineKeyboardButton{
				Text:   "📋 Открыть вишлист",
				WebApp: &tgbotapi.WebAppInfo{URL: h.webAppURL},
			},
		),
	)

	msg := tgbotapi.NewMessage(message.Chat.ID, greeting)
	msg.ReplyMarkup = keyboard

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Info("Sent start message")

	return nil
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wishlistme/miniapp/internal/api"
	"github.com/wishlistme/miniapp/internal/auth"
	"github.com/wishlistme/miniapp/internal/config"
	"github.com/wishlistme/miniapp/internal/handlers"
	"github.com/wishlistme/miniapp/internal/repository/postgres"
	"github.com/wishlistme/miniapp/internal/service"
	"github.com/wishlistme/miniapp/internal/telegram"
	"github.com/wishlistme/miniapp/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting wishlist mini-app backend...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db.DB)
	wishlistRepo := postgres.NewWishlistRepository(db.DB)
	itemRepo := postgres.NewItemRepository(db.DB)
	templateRepo := postgres.NewTemplateRepository(db.DB)

	// Service layer
	svc := service.New(db.DB, l, userRepo, wishlistRepo, itemRepo, templateRepo)

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}

	bot.RegisterCommand("start", handlers.NewStartHandler(cfg.WebAppURL, l))
	bot.RegisterCommand("help", handlers.NewHelpHandler(l))
	bot.RegisterCommand("mylists", handlers.NewMyListsHandler(svc, l))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// HTTP server for the mini-app
	apiServer := api.NewServer(svc, l, api.Options{
		LoginSecret: auth.Secret(cfg.TelegramToken),
		AuthMaxAge:  cfg.AuthMaxAge,
		PublicDir:   cfg.PublicDir,
	})
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	// Start Telegram bot polling
	go func() {
		if err := bot.Start(ctx); err != nil {
			l.Errorf("Bot error: %v", err)
		}
	}()

	l.Info("Wishlist mini-app backend started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("Wishlist mini-app backend stopped")
}

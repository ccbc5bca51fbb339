package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/wishlistme/miniapp/internal/auth"
	"github.com/wishlistme/miniapp/internal/models"
	"github.com/wishlistme/miniapp/internal/repository"
	"github.com/wishlistme/miniapp/internal/service"
)

// Options configures the HTTP server.
type Options struct {
	// LoginSecret is the HMAC key for the Telegram login handshake,
	// derived from the bot token with auth.Secret.
	LoginSecret []byte
	// AuthMaxAge rejects login payloads older than this; zero disables
	// the check.
	AuthMaxAge time.Duration
	// PublicDir is the directory the SPA shell is served from.
	PublicDir string
}

// Server provides the HTTP API and serves the web UI.
type Server struct {
	svc     *service.Service
	logger  *logrus.Logger
	mux     *http.ServeMux
	opts    Options
	metrics *metrics
	reg     *prometheus.Registry
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger, opts Options) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		svc:     svc,
		logger:  logger,
		mux:     http.NewServeMux(),
		opts:    opts,
		metrics: newMetrics(reg),
		reg:     reg,
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.metrics.instrument(s.mux)
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// Login handshake
	s.mux.HandleFunc("GET /auth/telegram", s.handleTelegramLogin)

	// API – Wishlists
	s.mux.HandleFunc("GET /api/wishlists", s.handleGetWishlists)
	s.mux.HandleFunc("POST /api/wishlists", s.handleCreateWishlist)
	s.mux.HandleFunc("PUT /api/wishlists/{wid}", s.handleUpdateWishlist)

	// API – Items
	s.mux.HandleFunc("GET /api/wishlist/{wid}/items", s.handleGetItems)
	s.mux.HandleFunc("POST /api/wishlist/{wid}/item", s.handleAddItem)
	s.mux.HandleFunc("PUT /api/wishlist/{wid}/item/{item_id}", s.handleUpdateItem)
	s.mux.HandleFunc("DELETE /api/wishlist/{wid}/item/{item_id}", s.handleDeleteItem)

	// API – Template gallery
	s.mux.HandleFunc("GET /api/templates", s.handleGetTemplates)
	s.mux.HandleFunc("POST /api/templates/{tid}/rate", s.handleRateTemplate)
	s.mux.HandleFunc("POST /api/templates/{tid}/copy", s.handleCopyTemplate)

	// Metrics
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	// Static files (login page, SPA shell, assets)
	if s.opts.PublicDir != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(s.opts.PublicDir)))
	}
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathID extracts the named path value and converts it to int64.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s in path", name)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// ---------------------------------------------------------------------------
// Telegram login
// ---------------------------------------------------------------------------

func (s *Server) handleTelegramLogin(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	if err := auth.Validate(values, s.opts.LoginSecret, s.opts.AuthMaxAge); err != nil {
		s.logger.WithError(err).Warn("rejected telegram login")
		s.respondError(w, http.StatusUnauthorized, "telegram authorization failed")
		return
	}

	telegramID := values.Get("id")
	if telegramID == "" {
		s.respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	_, err := s.svc.EnsureUser(r.Context(),
		telegramID,
		values.Get("first_name"),
		values.Get("last_name"),
		values.Get("username"),
	)
	if err != nil {
		s.logger.WithError(err).Error("failed to save user on login")
		s.respondError(w, http.StatusInternalServerError, "failed to save user")
		return
	}

	http.Redirect(w, r, "/app.html?user_id="+url.QueryEscape(telegramID), http.StatusFound)
}

// ---------------------------------------------------------------------------
// Wishlists
// ---------------------------------------------------------------------------

type createWishlistRequest struct {
	UserID     int64   `json:"user_id"`
	Title      string  `json:"title"`
	Background *string `json:"background"`
}

type updateWishlistRequest struct {
	Title      *string `json:"title"`
	Background *string `json:"background"`
}

func (s *Server) handleGetWishlists(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	lists, err := s.svc.MyWishlists(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get wishlists")
		s.respondError(w, http.StatusInternalServerError, "failed to get wishlists")
		return
	}
	if lists == nil {
		lists = []*models.Wishlist{}
	}

	s.respondJSON(w, http.StatusOK, lists)
}

func (s *Server) handleCreateWishlist(w http.ResponseWriter, r *http.Request) {
	var req createWishlistRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if req.UserID == 0 {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	list, err := s.svc.CreateWishlist(r.Context(), formatUserID(req.UserID), req.Title, req.Background)
	if err != nil {
		s.logger.WithError(err).Error("failed to create wishlist")
		s.respondError(w, http.StatusInternalServerError, "failed to create wishlist")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"wishlist_id": list.ID,
	})
}

func (s *Server) handleUpdateWishlist(w http.ResponseWriter, r *http.Request) {
	wid, err := pathID(r, "wid")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid wishlist id")
		return
	}

	var req updateWishlistRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		s.respondError(w, http.StatusBadRequest, "title must not be empty")
		return
	}

	changes, err := s.svc.Wishlists.UpdateMeta(r.Context(), wid, repository.WishlistUpdate{
		Title:      req.Title,
		Background: req.Background,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to update wishlist")
		s.respondError(w, http.StatusInternalServerError, "failed to update wishlist")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"changes": changes,
	})
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

type addItemRequest struct {
	Name         string   `json:"name"`
	Ordinal      *int     `json:"ordinal"`
	DesiredLevel *int     `json:"desired_level"`
	Comment      *string  `json:"comment"`
	Price        *float64 `json:"price"`
	URL          *string  `json:"url"`
	Taken        *bool    `json:"taken"`
}

type updateItemRequest struct {
	Ordinal      *int     `json:"ordinal"`
	Name         *string  `json:"name"`
	DesiredLevel *int     `json:"desired_level"`
	Comment      *string  `json:"comment"`
	Price        *float64 `json:"price"`
	URL          *string  `json:"url"`
	Taken        *bool    `json:"taken"`
}

func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	wid, err := pathID(r, "wid")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid wishlist id")
		return
	}

	items, err := s.svc.Items.ListByWishlist(r.Context(), wid)
	if err != nil {
		s.logger.WithError(err).Error("failed to get wishlist items")
		s.respondError(w, http.StatusInternalServerError, "failed to get wishlist items")
		return
	}
	if items == nil {
		items = []*models.Item{}
	}

	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	wid, err := pathID(r, "wid")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid wishlist id")
		return
	}

	var req addItemRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	item := &models.Item{
		WishlistID: wid,
		Name:       strings.TrimSpace(req.Name),
		Comment:    req.Comment,
		URL:        req.URL,
	}
	if req.DesiredLevel != nil {
		item.DesiredLevel = *req.DesiredLevel
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Taken != nil {
		item.Taken = *req.Taken
	}

	item, err = s.svc.Items.Add(r.Context(), item, req.Ordinal)
	if err != nil {
		s.logger.WithError(err).Error("failed to add wishlist item")
		s.respondError(w, http.StatusInternalServerError, "failed to add wishlist item")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"item_id": item.ID,
	})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "item_id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateItemRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	changes, err := s.svc.Items.Update(r.Context(), itemID, repository.ItemUpdate{
		Ordinal:      req.Ordinal,
		Name:         req.Name,
		DesiredLevel: req.DesiredLevel,
		Comment:      req.Comment,
		Price:        req.Price,
		URL:          req.URL,
		Taken:        req.Taken,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to update wishlist item")
		s.respondError(w, http.StatusInternalServerError, "failed to update wishlist item")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"changes": changes,
	})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "item_id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	changes, err := s.svc.Items.Delete(r.Context(), itemID)
	if err != nil {
		s.logger.WithError(err).Error("failed to delete wishlist item")
		s.respondError(w, http.StatusInternalServerError, "failed to delete wishlist item")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"changes": changes,
	})
}

// ---------------------------------------------------------------------------
// Template gallery
// ---------------------------------------------------------------------------

type rateTemplateRequest struct {
	UserID int64 `json:"user_id"`
	Rating int   `json:"rating"`
}

type copyTemplateRequest struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) handleGetTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.svc.Templates.List(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to get templates")
		s.respondError(w, http.StatusInternalServerError, "failed to get templates")
		return
	}
	if templates == nil {
		templates = []*models.TemplateSummary{}
	}

	s.respondJSON(w, http.StatusOK, templates)
}

func (s *Server) handleRateTemplate(w http.ResponseWriter, r *http.Request) {
	tid, err := pathID(r, "tid")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	var req rateTemplateRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if req.UserID == 0 {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		s.respondError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	if err := s.svc.RateTemplate(r.Context(), tid, formatUserID(req.UserID), req.Rating); err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			s.respondError(w, http.StatusNotFound, "template not found")
			return
		}
		s.logger.WithError(err).Error("failed to rate template")
		s.respondError(w, http.StatusInternalServerError, "failed to rate template")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleCopyTemplate(w http.ResponseWriter, r *http.Request) {
	tid, err := pathID(r, "tid")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	var req copyTemplateRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if req.UserID == 0 {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	newID, copied, err := s.svc.CopyTemplate(r.Context(), tid, formatUserID(req.UserID))
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			s.respondError(w, http.StatusNotFound, "template not found")
			return
		}
		s.logger.WithError(err).Error("failed to copy template")
		s.respondError(w, http.StatusInternalServerError, "failed to copy template")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"wishlist_id":  newID,
		"copied_items": copied,
	})
}

// formatUserID turns the numeric Telegram user id used on the wire into the
// string form the store keys users by.
func formatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}

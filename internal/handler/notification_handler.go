package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/toosila/toosila-api/internal/middleware"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/service"
	"github.com/toosila/toosila-api/pkg/utils"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *slog.Logger
}

func NewNotificationHandler(notificationService service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.List)
	r.Get("/notifications/unread-count", h.UnreadCount)
	r.Put("/notifications/read-all", h.MarkAllRead)
	r.Put("/notifications/{id}/read", h.MarkRead)
}

// GET /api/notifications?unread=true&page=&limit=
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	page := utils.ParsePage(r)
	notifications, err := h.notificationService.List(r.Context(), id.UserID, utils.QueryBool(r, "unread"), page)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, models.ListResponse{Items: notifications, Page: page.Number, Limit: page.Limit})
}

// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), id.UserID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]int64{"count": count})
}

// PUT /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	notificationID, ok := pathID(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), notificationID, id.UserID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.NoContent(w)
}

// PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	updated, err := h.notificationService.MarkAllRead(r.Context(), id.UserID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]int64{"updated": updated})
}

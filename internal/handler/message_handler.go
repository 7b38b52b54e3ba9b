package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/toosila/toosila-api/internal/middleware"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/service"
	"github.com/toosila/toosila-api/pkg/utils"
)

type MessageHandler struct {
	messageService service.MessageService
	validate       *validator.Validate
	logger         *slog.Logger
}

func NewMessageHandler(messageService service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		validate:       newValidator(),
		logger:         logger,
	}
}

func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.SendMessage)
	r.Get("/messages/inbox", h.Inbox)
	r.Get("/messages/with/{userId}", h.Conversation)
	r.Put("/messages/with/{userId}/read", h.MarkConversationRead)
}

// POST /api/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	var req models.SendMessageRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	msg, err := h.messageService.SendMessage(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Created(w, msg)
}

// GET /api/messages/inbox
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	conversations, err := h.messageService.ListInbox(r.Context(), id.UserID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, conversations)
}

// GET /api/messages/with/{userId}?page=&limit=
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	otherID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	page := utils.ParsePage(r)
	messages, err := h.messageService.ListConversation(r.Context(), id.UserID, otherID, page)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, models.ListResponse{Items: messages, Page: page.Number, Limit: page.Limit})
}

// PUT /api/messages/with/{userId}/read
func (h *MessageHandler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	otherID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	updated, err := h.messageService.MarkConversationRead(r.Context(), id.UserID, otherID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]int64{"updated": updated})
}

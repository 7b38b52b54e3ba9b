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

type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewAuthHandler(authService service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
		logger:      logger,
	}
}

func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Get("/users/{id}", h.GetUser)
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/me", h.Me)
	r.Put("/auth/me", h.UpdateProfile)
}

// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Created(w, resp)
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, resp)
}

// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	user, err := h.authService.Me(r.Context(), id.UserID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, user)
}

// PUT /api/auth/me
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	var req models.UpdateProfileRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, user)
}

// GET /api/users/{id}
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id", "user")
	if !ok {
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, user)
}

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

type RatingHandler struct {
	ratingService service.RatingService
	validate      *validator.Validate
	logger        *slog.Logger
}

func NewRatingHandler(ratingService service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
		validate:      newValidator(),
		logger:        logger,
	}
}

func (h *RatingHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/users/{id}/ratings", h.ListUserRatings)
}

func (h *RatingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/ratings", h.RateUser)
}

// POST /api/ratings
func (h *RatingHandler) RateUser(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	var req models.CreateRatingRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	rating, err := h.ratingService.RateUser(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Created(w, rating)
}

// GET /api/users/{id}/ratings?page=&limit=
func (h *RatingHandler) ListUserRatings(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id", "user")
	if !ok {
		return
	}

	page := utils.ParsePage(r)
	ratings, err := h.ratingService.ListUserRatings(r.Context(), userID, page)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, models.ListResponse{Items: ratings, Page: page.Number, Limit: page.Limit})
}

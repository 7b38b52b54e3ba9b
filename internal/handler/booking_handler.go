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

type BookingHandler struct {
	bookingService service.BookingService
	validate       *validator.Validate
	logger         *slog.Logger
}

func NewBookingHandler(bookingService service.BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		validate:       newValidator(),
		logger:         logger,
	}
}

func (h *BookingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/bookings", h.CreateBooking)
	r.Get("/bookings/mine", h.ListMyBookings)
	r.Get("/bookings/{id}", h.GetBooking)
	r.Put("/bookings/{id}/status", h.UpdateBookingStatus)
	r.Delete("/bookings/{id}", h.CancelBooking)
	r.Post("/bookings/{id}/cancel", h.CancelBooking)
}

// POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	var req models.CreateBookingRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	booking, err := h.bookingService.CreateBooking(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Created(w, booking)
}

// GET /api/bookings/mine?status=&page=&limit=
func (h *BookingHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	page := utils.ParsePage(r)
	bookings, err := h.bookingService.ListMyBookings(r.Context(), id.UserID, r.URL.Query().Get("status"), page)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, models.ListResponse{Items: bookings, Page: page.Number, Limit: page.Limit})
}

// GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	bookingID, ok := pathID(w, r, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(r.Context(), bookingID, id.UserID, id.Role)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, booking)
}

// PUT /api/bookings/{id}/status
func (h *BookingHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	bookingID, ok := pathID(w, r, "id", "booking")
	if !ok {
		return
	}

	var req models.UpdateBookingStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	booking, err := h.bookingService.UpdateBookingStatus(r.Context(), bookingID, id.UserID, id.Role, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, booking)
}

// DELETE /api/bookings/{id}, POST /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	bookingID, ok := pathID(w, r, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.bookingService.CancelBooking(r.Context(), bookingID, id.UserID, id.Role)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, booking)
}

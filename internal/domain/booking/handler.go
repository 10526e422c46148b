package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roamly/roamly-api/internal/domain/trip"
	"github.com/roamly/roamly-api/internal/domain/wallet"
	"github.com/roamly/roamly-api/internal/middleware"
	"github.com/roamly/roamly-api/internal/pkg/response"
	"github.com/roamly/roamly-api/internal/pkg/validator"
)

// Handler handles booking HTTP requests
type Handler struct {
	joins *JoinService
}

func NewHandler(joins *JoinService) *Handler {
	return &Handler{joins: joins}
}

// Join admits the caller onto a trip
// POST /trips/{id}/join
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	tripID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}

	var req JoinTripRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	if req.PaymentMethod == string(PaymentMethodExternal) && req.Confirmation == "" {
		response.ValidationError(w, map[string]string{"confirmation": "This field is required"})
		return
	}

	t, err := h.joins.Execute(r.Context(), JoinParams{
		UserID:       userID,
		TripID:       tripID,
		Method:       PaymentMethod(req.PaymentMethod),
		Confirmation: req.Confirmation,
	})
	if err != nil {
		switch {
		case errors.Is(err, trip.ErrTripNotFound):
			response.NotFound(w, "Trip not found")
		case errors.Is(err, trip.ErrNotApproved):
			response.UnprocessableEntity(w, "TRIP_NOT_APPROVED", "Trip has not been approved")
		case errors.Is(err, trip.ErrTripClosed):
			response.UnprocessableEntity(w, "TRIP_CLOSED", "Trip is already underway or finished")
		case errors.Is(err, trip.ErrAlreadyJoined):
			response.Conflict(w, "You have already joined this trip")
		case errors.Is(err, trip.ErrTripFull):
			response.Conflict(w, "Trip is full")
		case errors.Is(err, wallet.ErrInsufficientFunds):
			response.UnprocessableEntity(w, "INSUFFICIENT_FUNDS", "Insufficient wallet balance")
		case errors.Is(err, wallet.ErrAccountNotFound):
			response.UnprocessableEntity(w, "INSUFFICIENT_FUNDS", "Insufficient wallet balance")
		case errors.Is(err, ErrPaymentFailed):
			response.UnprocessableEntity(w, "PAYMENT_FAILED", "Payment was not confirmed")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, t)
}

// ListMine returns the caller's bookings
// GET /bookings/mine
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	bookings, err := h.joins.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, bookings)
}

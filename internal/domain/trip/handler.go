package trip

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roamly/roamly-api/internal/middleware"
	"github.com/roamly/roamly-api/internal/pkg/imaging"
	"github.com/roamly/roamly-api/internal/pkg/response"
	"github.com/roamly/roamly-api/internal/pkg/validator"
)

// Handler handles trip HTTP requests
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create lists a new trip
// POST /trips
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	vendorID := middleware.GetUserID(r.Context())

	var req CreateTripRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	t, err := h.service.Create(r.Context(), vendorID, &req)
	if err != nil {
		if errors.Is(err, ErrInvalidDates) {
			response.BadRequest(w, "End date must be after start date")
		} else {
			response.InternalError(w)
		}
		return
	}

	response.Created(w, t)
}

// List returns trips matching the query filters
// GET /trips
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		// Browsers only see approved listings by default.
		ApprovalStatus: ApprovalStatusApproved,
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = Status(status)
	}
	if vendor := r.URL.Query().Get("vendor_id"); vendor != "" {
		id, err := uuid.Parse(vendor)
		if err != nil {
			response.BadRequest(w, "Invalid vendor ID")
			return
		}
		filter.VendorID = &id
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	trips, err := h.service.List(r.Context(), filter)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, trips)
}

// Get returns one trip with its joined users
// GET /trips/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}

	t, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			response.NotFound(w, "Trip not found")
		} else {
			response.InternalError(w)
		}
		return
	}

	response.OK(w, t)
}

// UploadCover stores a cover image for the vendor's trip
// POST /trips/{id}/cover
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request) {
	vendorID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}

	if err := r.ParseMultipartForm(imaging.MaxFileSize); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		response.BadRequest(w, "Missing cover file")
		return
	}
	defer file.Close()

	if header.Size > imaging.MaxFileSize {
		response.BadRequest(w, "File too large")
		return
	}

	t, err := h.service.UploadCover(r.Context(), id, vendorID, file, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, ErrTripNotFound):
			response.NotFound(w, "Trip not found")
		case errors.Is(err, ErrNotTripVendor):
			response.Forbidden(w, "Trip belongs to another vendor")
		default:
			response.BadRequest(w, err.Error())
		}
		return
	}

	response.OK(w, t)
}

// Approve approves a pending trip (admin only)
// POST /admin/trips/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.service.Approve)
}

// Reject rejects a pending trip (admin only)
// POST /admin/trips/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.service.Reject)
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id uuid.UUID) error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}

	if err := action(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrTripNotFound):
			response.NotFound(w, "Trip not found")
		case errors.Is(err, ErrAlreadyModerated):
			response.Conflict(w, "Trip has already been moderated")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]string{"message": "Trip moderated successfully"})
}

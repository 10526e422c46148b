package trip

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns public and vendor trip routes
func (h *Handler) Routes(authMiddleware, vendorMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(vendorMiddleware)
		r.Post("/", h.Create)
		r.Post("/{id}/cover", h.UploadCover)
	})

	return r
}

// AdminRoutes returns admin-only moderation routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/reject", h.Reject)

	return r
}

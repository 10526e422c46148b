package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/roamly/roamly-api/internal/middleware"
	"github.com/roamly/roamly-api/internal/pkg/response"
	"github.com/roamly/roamly-api/internal/pkg/validator"
)

// Handler handles wallet HTTP requests
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ownerFromContext maps the authenticated role onto a wallet owner type.
func ownerFromContext(role string) OwnerType {
	switch role {
	case "vendor":
		return OwnerTypeVendor
	case "admin":
		return OwnerTypeAdmin
	default:
		return OwnerTypeUser
	}
}

// GetBalance returns the caller's wallet balance
// GET /wallet/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	ownerType := ownerFromContext(middleware.GetRole(r.Context()))

	balance, err := h.service.GetBalance(r.Context(), ownerID, ownerType)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, BalanceResponse{
		OwnerID:   ownerID.String(),
		OwnerType: string(ownerType),
		Balance:   balance,
	})
}

// ListTransactions returns the caller's ledger in insertion order
// GET /wallet/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	ownerType := ownerFromContext(middleware.GetRole(r.Context()))

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txns, total, err := h.service.ListTransactions(r.Context(), ownerID, ownerType, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.WithMeta(w, txns, response.Meta{
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// TopUp credits the caller's wallet
// POST /wallet/topup
func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	ownerType := ownerFromContext(middleware.GetRole(r.Context()))

	var req TopUpRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	acct, err := h.service.Credit(r.Context(), ownerID, ownerType, req.Amount, req.Description, nil)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			response.BadRequest(w, "Amount must be positive")
		} else {
			response.InternalError(w)
		}
		return
	}

	response.OK(w, acct)
}

// Withdraw debits the caller's wallet
// POST /wallet/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	ownerType := ownerFromContext(middleware.GetRole(r.Context()))

	var req WithdrawRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	acct, err := h.service.Debit(r.Context(), ownerID, ownerType, req.Amount, req.Description, nil)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "Amount must be positive")
		case errors.Is(err, ErrAccountNotFound):
			response.NotFound(w, "Wallet not found")
		case errors.Is(err, ErrInsufficientFunds):
			response.UnprocessableEntity(w, "INSUFFICIENT_FUNDS", "Insufficient wallet balance")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, acct)
}

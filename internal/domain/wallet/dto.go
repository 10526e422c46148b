package wallet

// TopUpRequest credits the caller's own wallet
type TopUpRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=255"`
}

// WithdrawRequest debits the caller's own wallet
type WithdrawRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=255"`
}

// BalanceResponse is the wallet summary returned to the owner
type BalanceResponse struct {
	OwnerID   string `json:"owner_id"`
	OwnerType string `json:"owner_type"`
	Balance   int64  `json:"balance"`
}

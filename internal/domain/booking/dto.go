package booking

// JoinTripRequest is the body of POST /trips/{id}/join
type JoinTripRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
	// Confirmation is the external processor's confirmation token; required
	// when payment_method is "external".
	Confirmation string `json:"confirmation" validate:"max=512"`
}

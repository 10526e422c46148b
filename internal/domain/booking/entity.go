package booking

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is how the joiner paid for the seat
type PaymentMethod string

const (
	PaymentMethodWallet   PaymentMethod = "wallet"
	PaymentMethodExternal PaymentMethod = "external"
)

// Booking records one user's paid seat on a trip. RefID is the booking's own
// id rendered as a string; it is the reference every ledger entry for this
// seat carries, so each joiner of a trip settles independently.
type Booking struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	TripID         uuid.UUID     `db:"trip_id" json:"trip_id"`
	UserID         uuid.UUID     `db:"user_id" json:"user_id"`
	Amount         int64         `db:"amount" json:"amount"`
	RefID          string        `db:"ref_id" json:"ref_id"`
	PaymentMethod  PaymentMethod `db:"payment_method" json:"payment_method"`
	SettlementDone bool          `db:"settlement_done" json:"settlement_done"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// DueBooking is a booking joined with the vendor owed at settlement
type DueBooking struct {
	Booking
	VendorID uuid.UUID `db:"vendor_id" json:"vendor_id"`
}

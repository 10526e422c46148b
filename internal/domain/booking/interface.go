package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/roamly/roamly-api/internal/domain/trip"
	"github.com/roamly/roamly-api/internal/domain/wallet"
)

// WalletService is the slice of the wallet the booking flows use.
// *wallet.Service satisfies it; tests substitute fakes.
type WalletService interface {
	Credit(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, amount int64, description string, refID *string) (*wallet.Account, error)
	CreditHold(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, amount int64, description string, refID string) (*wallet.Account, error)
	Debit(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, amount int64, description string, refID *string) (*wallet.Account, error)
	MarkCompleted(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, refID string) (*wallet.Account, error)
	GetTransactionByRef(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, refID string) (*wallet.Transaction, error)
}

// TripReservations is the capacity-store surface joins need.
// *trip.Repository satisfies it.
type TripReservations interface {
	AddMember(ctx context.Context, tripID, userID uuid.UUID) (*trip.Trip, error)
	RemoveMember(ctx context.Context, tripID, userID uuid.UUID) error
}

// BookingStore persists booking records. *Repository satisfies it.
type BookingStore interface {
	Create(ctx context.Context, b *Booking) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByRef(ctx context.Context, refID string) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error)
	ListUnsettledDue(ctx context.Context, limit int) ([]DueBooking, error)
	MarkSettled(ctx context.Context, id uuid.UUID) error
}

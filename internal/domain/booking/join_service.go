package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/roamly/roamly-api/internal/domain/trip"
	"github.com/roamly/roamly-api/internal/domain/wallet"
	"github.com/roamly/roamly-api/internal/pkg/payment"
)

// JoinService admits users onto buddy trips. The seat reservation itself is
// a single storage-level check-and-mutate (TripReservations.AddMember); this
// service sequences it with payment and the admin escrow hold, unwinding the
// seat whenever a later step fails so no mutation survives a failed join.
type JoinService struct {
	trips    TripReservations
	bookings BookingStore
	wallet   WalletService
	verifier payment.Verifier
	adminID  uuid.UUID
}

func NewJoinService(trips TripReservations, bookings BookingStore, walletSvc WalletService, verifier payment.Verifier, adminID uuid.UUID) *JoinService {
	return &JoinService{
		trips:    trips,
		bookings: bookings,
		wallet:   walletSvc,
		verifier: verifier,
		adminID:  adminID,
	}
}

// JoinParams describes one join attempt
type JoinParams struct {
	UserID        uuid.UUID
	TripID        uuid.UUID
	Method        PaymentMethod
	Confirmation  string // external processor confirmation token
}

// Execute admits the user, collects payment, and parks the trip price on the
// admin account as a pending hold addressed by the booking's reference.
// Eligibility failures surface as trip sentinels; a declined payment is
// ErrPaymentFailed with the seat released again.
func (s *JoinService) Execute(ctx context.Context, p JoinParams) (*trip.Trip, error) {
	t, err := s.trips.AddMember(ctx, p.TripID, p.UserID)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		ID:            uuid.New(),
		TripID:        p.TripID,
		UserID:        p.UserID,
		Amount:        t.Price,
		PaymentMethod: p.Method,
		CreatedAt:     time.Now(),
	}
	b.RefID = b.ID.String()

	if err := s.bookings.Create(ctx, b); err != nil {
		s.releaseSeat(ctx, p.TripID, p.UserID)
		return nil, err
	}

	if err := s.collectPayment(ctx, p, b); err != nil {
		s.unwind(ctx, b, false)
		return nil, err
	}

	// Funds are escrowed on the admin account until the trip completes;
	// the vendor is paid its share at settlement, not here.
	if _, err := s.wallet.CreditHold(ctx, s.adminID, wallet.OwnerTypeAdmin, b.Amount, "trip hold", b.RefID); err != nil {
		s.unwind(ctx, b, p.Method == PaymentMethodWallet)
		return nil, err
	}

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("trip_id", p.TripID.String()).
		Str("user_id", p.UserID.String()).
		Int64("amount", b.Amount).
		Str("method", string(p.Method)).
		Msg("trip joined")
	return t, nil
}

func (s *JoinService) collectPayment(ctx context.Context, p JoinParams, b *Booking) error {
	switch p.Method {
	case PaymentMethodWallet:
		_, err := s.wallet.Debit(ctx, p.UserID, wallet.OwnerTypeUser, b.Amount, "trip booking", &b.RefID)
		return err
	case PaymentMethodExternal:
		ok, err := s.verifier.VerifyConfirmation(ctx, p.Confirmation)
		if err != nil {
			return err
		}
		if !ok {
			return ErrPaymentFailed
		}
		return nil
	default:
		return ErrPaymentFailed
	}
}

// unwind releases the seat and booking row, refunding the joiner's wallet
// when it was already debited.
func (s *JoinService) unwind(ctx context.Context, b *Booking, refundWallet bool) {
	if refundWallet {
		refundRef := b.RefID + ":refund"
		if _, err := s.wallet.Credit(ctx, b.UserID, wallet.OwnerTypeUser, b.Amount, "trip booking refund", &refundRef); err != nil {
			log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("Failed to refund wallet after aborted join")
		}
	}
	if err := s.bookings.Delete(ctx, b.ID); err != nil {
		log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("Failed to delete booking after aborted join")
	}
	s.releaseSeat(ctx, b.TripID, b.UserID)
}

func (s *JoinService) releaseSeat(ctx context.Context, tripID, userID uuid.UUID) {
	if err := s.trips.RemoveMember(ctx, tripID, userID); err != nil {
		log.Error().Err(err).
			Str("trip_id", tripID.String()).
			Str("user_id", userID.String()).
			Msg("Failed to release trip seat after aborted join")
	}
}

// ListByUser returns the caller's bookings, newest first.
func (s *JoinService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookings.ListByUser(ctx, userID, limit, offset)
}

// IsRetryablePaymentError reports whether a failed join may succeed if the
// caller simply retries (infrastructure trouble rather than a business
// outcome).
func IsRetryablePaymentError(err error) bool {
	return errors.Is(err, payment.ErrVerifierUnavailable)
}

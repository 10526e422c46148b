package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/roamly/roamly-api/internal/domain/wallet"
)

// SettlementService pays out completed trips: the escrowed amount held on
// the admin account is split between the vendor and the platform commission,
// and the hold is completed exactly once.
//
// Every step is idempotent - both credits carry a reference unique to this
// booking, and completing the hold is an atomic pending->completed claim -
// so a retry after a partial failure finishes the payout rather than
// duplicating it, and of two concurrent invocations exactly one wins.
type SettlementService struct {
	wallet            WalletService
	commissionPercent int64
}

func NewSettlementService(walletSvc WalletService, commissionPercent int64) *SettlementService {
	if commissionPercent < 0 || commissionPercent > 100 {
		commissionPercent = 10
	}
	return &SettlementService{
		wallet:            walletSvc,
		commissionPercent: commissionPercent,
	}
}

// Split returns the vendor and commission shares of a booking amount. The
// commission takes the remainder so the two always sum to the total.
func (s *SettlementService) Split(total int64) (vendorShare, commission int64) {
	vendorShare = total * (100 - s.commissionPercent) / 100
	commission = total - vendorShare
	return
}

// SettleTrip performs the payout for one booking. It fails with
// wallet.ErrTransactionNotFound when no hold exists for the reference (the
// trip was never paid into escrow) and wallet.ErrAlreadySettled when the
// hold was completed before - callers treat the latter as "done", never as
// a fault.
func (s *SettlementService) SettleTrip(ctx context.Context, bookingRef string, vendorID, adminID uuid.UUID, total int64) error {
	hold, err := s.wallet.GetTransactionByRef(ctx, adminID, wallet.OwnerTypeAdmin, bookingRef)
	if err != nil {
		return err
	}
	if hold.Status == wallet.TransactionStatusCompleted {
		return wallet.ErrAlreadySettled
	}

	vendorShare, commission := s.Split(total)

	if _, err := s.wallet.Credit(ctx, vendorID, wallet.OwnerTypeVendor, vendorShare, "trip completed earning", &bookingRef); err != nil {
		return err
	}

	feeRef := bookingRef + ":fee"
	if _, err := s.wallet.Credit(ctx, adminID, wallet.OwnerTypeAdmin, commission, "platform commission", &feeRef); err != nil {
		return err
	}

	// The atomic claim: only one caller ever moves the hold out of pending.
	if _, err := s.wallet.MarkCompleted(ctx, adminID, wallet.OwnerTypeAdmin, bookingRef); err != nil {
		return err
	}

	log.Info().
		Str("booking_ref", bookingRef).
		Str("vendor_id", vendorID.String()).
		Int64("vendor_share", vendorShare).
		Int64("commission", commission).
		Msg("booking settled")
	return nil
}

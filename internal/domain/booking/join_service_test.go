package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roamly/roamly-api/internal/domain/booking"
	"github.com/roamly/roamly-api/internal/domain/trip"
	"github.com/roamly/roamly-api/internal/domain/wallet"
	"github.com/roamly/roamly-api/internal/pkg/payment"
)

// fakeWallet mirrors the wallet service contract in memory: balances per
// (owner, ownerType), per-account reference uniqueness, pending holds with a
// single pending->completed transition.
type fakeWallet struct {
	balances map[string]int64
	txns     map[string]map[string]*wallet.Transaction
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{
		balances: make(map[string]int64),
		txns:     make(map[string]map[string]*wallet.Transaction),
	}
}

func acctKey(ownerID uuid.UUID, ownerType wallet.OwnerType) string {
	return ownerID.String() + "/" + string(ownerType)
}

func (f *fakeWallet) apply(ownerID uuid.UUID, ownerType wallet.OwnerType, txType wallet.TransactionType, amount int64, refID *string, status wallet.TransactionStatus) (*wallet.Account, error) {
	key := acctKey(ownerID, ownerType)
	if f.txns[key] == nil {
		f.txns[key] = make(map[string]*wallet.Transaction)
	}
	if refID != nil {
		if existing, ok := f.txns[key][*refID]; ok {
			if existing.Type == txType && existing.Amount == amount {
				return &wallet.Account{OwnerID: ownerID, OwnerType: ownerType, Balance: f.balances[key]}, nil
			}
			return nil, wallet.ErrDuplicateReference
		}
	}

	delta := amount
	if txType == wallet.TransactionTypeDebit {
		delta = -amount
	}
	if f.balances[key]+delta < 0 {
		return nil, wallet.ErrInsufficientFunds
	}
	f.balances[key] += delta
	if refID != nil {
		f.txns[key][*refID] = &wallet.Transaction{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			OwnerType: ownerType,
			Type:      txType,
			Amount:    amount,
			Status:    status,
			RefID:     refID,
		}
	}
	return &wallet.Account{OwnerID: ownerID, OwnerType: ownerType, Balance: f.balances[key]}, nil
}

func (f *fakeWallet) Credit(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, amount int64, description string, refID *string) (*wallet.Account, error) {
	return f.apply(ownerID, ownerType, wallet.TransactionTypeCredit, amount, refID, wallet.TransactionStatusCompleted)
}

func (f *fakeWallet) CreditHold(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, amount int64, description string, refID string) (*wallet.Account, error) {
	return f.apply(ownerID, ownerType, wallet.TransactionTypeCredit, amount, &refID, wallet.TransactionStatusPending)
}

func (f *fakeWallet) Debit(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, amount int64, description string, refID *string) (*wallet.Account, error) {
	return f.apply(ownerID, ownerType, wallet.TransactionTypeDebit, amount, refID, wallet.TransactionStatusCompleted)
}

func (f *fakeWallet) MarkCompleted(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, refID string) (*wallet.Account, error) {
	key := acctKey(ownerID, ownerType)
	txn, ok := f.txns[key][refID]
	if !ok {
		return nil, wallet.ErrTransactionNotFound
	}
	if txn.Status != wallet.TransactionStatusPending {
		return nil, wallet.ErrAlreadySettled
	}
	txn.Status = wallet.TransactionStatusCompleted
	return &wallet.Account{OwnerID: ownerID, OwnerType: ownerType, Balance: f.balances[key]}, nil
}

func (f *fakeWallet) GetTransactionByRef(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, refID string) (*wallet.Transaction, error) {
	txn, ok := f.txns[acctKey(ownerID, ownerType)][refID]
	if !ok {
		return nil, wallet.ErrTransactionNotFound
	}
	return txn, nil
}

func (f *fakeWallet) balance(ownerID uuid.UUID, ownerType wallet.OwnerType) int64 {
	return f.balances[acctKey(ownerID, ownerType)]
}

// fakeTrips holds one trip with real capacity semantics.
type fakeTrips struct {
	trip    *trip.Trip
	members map[uuid.UUID]bool
}

func newFakeTrips(price int64, maxPeople int) *fakeTrips {
	return &fakeTrips{
		trip: &trip.Trip{
			ID:             uuid.New(),
			VendorID:       uuid.New(),
			Price:          price,
			MaxPeople:      maxPeople,
			ApprovalStatus: trip.ApprovalStatusApproved,
			Status:         trip.StatusUpcoming,
		},
		members: make(map[uuid.UUID]bool),
	}
}

func (f *fakeTrips) AddMember(ctx context.Context, tripID, userID uuid.UUID) (*trip.Trip, error) {
	if tripID != f.trip.ID {
		return nil, trip.ErrTripNotFound
	}
	if f.trip.ApprovalStatus != trip.ApprovalStatusApproved {
		return nil, trip.ErrNotApproved
	}
	if f.trip.Status != trip.StatusUpcoming {
		return nil, trip.ErrTripClosed
	}
	if f.members[userID] {
		return nil, trip.ErrAlreadyJoined
	}
	if len(f.members) >= f.trip.MaxPeople {
		return nil, trip.ErrTripFull
	}
	f.members[userID] = true
	return f.trip, nil
}

func (f *fakeTrips) RemoveMember(ctx context.Context, tripID, userID uuid.UUID) error {
	delete(f.members, userID)
	return nil
}

// fakeBookings is an in-memory BookingStore. vendorIDs stands in for the
// trips join the real store does when listing due bookings.
type fakeBookings struct {
	rows      map[uuid.UUID]*booking.Booking
	vendorIDs map[uuid.UUID]uuid.UUID
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{
		rows:      make(map[uuid.UUID]*booking.Booking),
		vendorIDs: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeBookings) Create(ctx context.Context, b *booking.Booking) error {
	cp := *b
	f.rows[b.ID] = &cp
	return nil
}

func (f *fakeBookings) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeBookings) GetByRef(ctx context.Context, refID string) (*booking.Booking, error) {
	for _, b := range f.rows {
		if b.RefID == refID {
			return b, nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

func (f *fakeBookings) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]booking.Booking, error) {
	var out []booking.Booking
	for _, b := range f.rows {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookings) ListUnsettledDue(ctx context.Context, limit int) ([]booking.DueBooking, error) {
	var out []booking.DueBooking
	for _, b := range f.rows {
		if !b.SettlementDone {
			out = append(out, booking.DueBooking{Booking: *b, VendorID: f.vendorIDs[b.TripID]})
		}
	}
	return out, nil
}

func (f *fakeBookings) MarkSettled(ctx context.Context, id uuid.UUID) error {
	b, ok := f.rows[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	b.SettlementDone = true
	return nil
}

type stubVerifier struct {
	ok  bool
	err error
}

func (v stubVerifier) VerifyConfirmation(ctx context.Context, confirmation string) (bool, error) {
	return v.ok, v.err
}

func TestJoinWithWallet(t *testing.T) {
	w := newFakeWallet()
	trips := newFakeTrips(1000, 5)
	store := newFakeBookings()
	adminID := uuid.New()
	userID := uuid.New()

	seed := "topup-1"
	if _, err := w.Credit(context.Background(), userID, wallet.OwnerTypeUser, 1500, "topup", &seed); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	svc := booking.NewJoinService(trips, store, w, stubVerifier{}, adminID)
	got, err := svc.Execute(context.Background(), booking.JoinParams{
		UserID: userID,
		TripID: trips.trip.ID,
		Method: booking.PaymentMethodWallet,
	})
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if got.ID != trips.trip.ID {
		t.Fatalf("unexpected trip returned")
	}
	if !trips.members[userID] {
		t.Fatal("expected user on the trip")
	}
	if w.balance(userID, wallet.OwnerTypeUser) != 500 {
		t.Fatalf("expected user balance 500 after debit, got %d", w.balance(userID, wallet.OwnerTypeUser))
	}
	if w.balance(adminID, wallet.OwnerTypeAdmin) != 1000 {
		t.Fatalf("expected admin escrow 1000, got %d", w.balance(adminID, wallet.OwnerTypeAdmin))
	}

	if len(store.rows) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(store.rows))
	}
	for _, b := range store.rows {
		hold, err := w.GetTransactionByRef(context.Background(), adminID, wallet.OwnerTypeAdmin, b.RefID)
		if err != nil {
			t.Fatalf("expected hold under booking ref: %v", err)
		}
		if hold.Status != wallet.TransactionStatusPending {
			t.Fatalf("expected pending hold, got %s", hold.Status)
		}
	}
}

func TestJoinInsufficientFundsUnwinds(t *testing.T) {
	w := newFakeWallet()
	trips := newFakeTrips(1000, 5)
	store := newFakeBookings()
	userID := uuid.New()

	svc := booking.NewJoinService(trips, store, w, stubVerifier{}, uuid.New())
	_, err := svc.Execute(context.Background(), booking.JoinParams{
		UserID: userID,
		TripID: trips.trip.ID,
		Method: booking.PaymentMethodWallet,
	})
	if !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if trips.members[userID] {
		t.Fatal("expected seat released after failed payment")
	}
	if len(store.rows) != 0 {
		t.Fatalf("expected booking removed, got %d rows", len(store.rows))
	}
}

func TestJoinDeclinedExternalPayment(t *testing.T) {
	w := newFakeWallet()
	trips := newFakeTrips(1000, 5)
	store := newFakeBookings()
	userID := uuid.New()

	svc := booking.NewJoinService(trips, store, w, stubVerifier{ok: false}, uuid.New())
	_, err := svc.Execute(context.Background(), booking.JoinParams{
		UserID:       userID,
		TripID:       trips.trip.ID,
		Method:       booking.PaymentMethodExternal,
		Confirmation: "tok_declined",
	})
	if !errors.Is(err, booking.ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got %v", err)
	}
	if trips.members[userID] {
		t.Fatal("expected seat released after declined payment")
	}
	if len(store.rows) != 0 {
		t.Fatalf("expected booking removed, got %d rows", len(store.rows))
	}
}

func TestJoinEligibilityPropagates(t *testing.T) {
	w := newFakeWallet()
	trips := newFakeTrips(1000, 1)
	store := newFakeBookings()
	adminID := uuid.New()
	svc := booking.NewJoinService(trips, store, w, stubVerifier{ok: true}, adminID)

	u1 := uuid.New()
	if _, err := svc.Execute(context.Background(), booking.JoinParams{
		UserID: u1, TripID: trips.trip.ID, Method: booking.PaymentMethodExternal, Confirmation: "tok_ok",
	}); err != nil {
		t.Fatalf("first join failed: %v", err)
	}

	_, err := svc.Execute(context.Background(), booking.JoinParams{
		UserID: u1, TripID: trips.trip.ID, Method: booking.PaymentMethodExternal, Confirmation: "tok_ok",
	})
	if !errors.Is(err, trip.ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}

	_, err = svc.Execute(context.Background(), booking.JoinParams{
		UserID: uuid.New(), TripID: trips.trip.ID, Method: booking.PaymentMethodExternal, Confirmation: "tok_ok",
	})
	if !errors.Is(err, trip.ErrTripFull) {
		t.Fatalf("expected ErrTripFull, got %v", err)
	}

	// Payment never ran for the rejected joins.
	if len(store.rows) != 1 {
		t.Fatalf("expected single booking, got %d", len(store.rows))
	}
}

func TestJoinRefundsWalletWhenHoldFails(t *testing.T) {
	w := newFakeWallet()
	trips := newFakeTrips(1000, 5)
	store := newFakeBookings()
	adminID := uuid.New()
	userID := uuid.New()

	seed := "topup-2"
	if _, err := w.Credit(context.Background(), userID, wallet.OwnerTypeUser, 1000, "topup", &seed); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	// Poison the admin account: a conflicting transaction already carries
	// every hold reference, so CreditHold fails after the debit went
	// through.
	failing := &holdFailingWallet{fakeWallet: w}

	svc := booking.NewJoinService(trips, store, failing, stubVerifier{}, adminID)
	_, err := svc.Execute(context.Background(), booking.JoinParams{
		UserID: userID,
		TripID: trips.trip.ID,
		Method: booking.PaymentMethodWallet,
	})
	if err == nil {
		t.Fatal("expected join to fail when the escrow hold fails")
	}

	if w.balance(userID, wallet.OwnerTypeUser) != 1000 {
		t.Fatalf("expected full refund, balance is %d", w.balance(userID, wallet.OwnerTypeUser))
	}
	if trips.members[userID] {
		t.Fatal("expected seat released")
	}
	if len(store.rows) != 0 {
		t.Fatalf("expected booking removed, got %d rows", len(store.rows))
	}
}

type holdFailingWallet struct {
	*fakeWallet
}

func (h *holdFailingWallet) CreditHold(ctx context.Context, ownerID uuid.UUID, ownerType wallet.OwnerType, amount int64, description string, refID string) (*wallet.Account, error) {
	return nil, wallet.ErrDuplicateReference
}

func TestIsRetryablePaymentError(t *testing.T) {
	if booking.IsRetryablePaymentError(booking.ErrPaymentFailed) {
		t.Fatal("a declined payment is not retryable")
	}
	if !booking.IsRetryablePaymentError(payment.ErrVerifierUnavailable) {
		t.Fatal("verifier outages are retryable")
	}
}

func newBooking(tripID, userID uuid.UUID, amount int64) *booking.Booking {
	b := &booking.Booking{
		ID:            uuid.New(),
		TripID:        tripID,
		UserID:        userID,
		Amount:        amount,
		PaymentMethod: booking.PaymentMethodWallet,
		CreatedAt:     time.Now(),
	}
	b.RefID = b.ID.String()
	return b
}

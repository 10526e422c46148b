package booking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/roamly/roamly-api/internal/domain/trip"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, b *Booking) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookings (id, trip_id, user_id, amount, ref_id, payment_method, settlement_done, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.ID, b.TripID, b.UserID, b.Amount, b.RefID, string(b.PaymentMethod), b.SettlementDone, b.CreatedAt)
	if err != nil {
		// The (trip_id, user_id) unique constraint backstops the member
		// insert; hitting it means this user already holds a seat.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return trip.ErrAlreadyJoined
		}
		return err
	}
	return nil
}

// Delete unwinds a booking whose payment never went through.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	return err
}

func (r *Repository) GetByRef(ctx context.Context, refID string) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, `SELECT * FROM bookings WHERE ref_id = $1`, refID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT * FROM bookings WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return bookings, err
}

// ListUnsettledDue returns bookings for trips that have ended and whose
// payout has not happened yet, with the vendor owed.
func (r *Repository) ListUnsettledDue(ctx context.Context, limit int) ([]DueBooking, error) {
	var due []DueBooking
	err := r.db.SelectContext(ctx, &due, `
		SELECT b.*, t.vendor_id
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE b.settlement_done = FALSE AND t.end_date <= now()
		ORDER BY b.created_at ASC
		LIMIT $1
	`, limit)
	return due, err
}

// MarkSettled flips settlement_done. Safe to repeat.
func (r *Repository) MarkSettled(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE bookings SET settlement_done = TRUE WHERE id = $1 AND settlement_done = FALSE
	`, id)
	return err
}

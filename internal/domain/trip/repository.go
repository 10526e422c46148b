package trip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ListFilter narrows trip listings
type ListFilter struct {
	VendorID       *uuid.UUID
	ApprovalStatus ApprovalStatus
	Status         Status
	Limit          int
	Offset         int
}

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, t *Trip) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trips (id, vendor_id, title, destination, category_id, description,
			start_date, end_date, price, max_people, approval_status, trip_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, t.ID, t.VendorID, t.Title, t.Destination, t.CategoryID, t.Description,
		t.StartDate, t.EndDate, t.Price, t.MaxPeople,
		string(t.ApprovalStatus), string(t.Status), t.CreatedAt, t.UpdatedAt)
	return err
}

// GetByID returns the trip with its joined users loaded.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Trip, error) {
	var t Trip
	err := r.db.GetContext(ctx, &t, `SELECT * FROM trips WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}

	members, err := r.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	t.JoinedUsers = members
	return &t, nil
}

// ListMembers returns the joined user ids in join order.
func (r *Repository) ListMembers(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	var members []uuid.UUID
	err := r.db.SelectContext(ctx, &members, `
		SELECT user_id FROM trip_members WHERE trip_id = $1 ORDER BY joined_at ASC
	`, tripID)
	return members, err
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Trip, error) {
	query := `SELECT * FROM trips WHERE 1=1`
	args := []interface{}{}
	i := 1

	if filter.VendorID != nil {
		query += fmt.Sprintf(" AND vendor_id = $%d", i)
		args = append(args, *filter.VendorID)
		i++
	}
	if filter.ApprovalStatus != "" {
		query += fmt.Sprintf(" AND approval_status = $%d", i)
		args = append(args, string(filter.ApprovalStatus))
		i++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND trip_status = $%d", i)
		args = append(args, string(filter.Status))
		i++
	}

	query += fmt.Sprintf(" ORDER BY start_date ASC LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, filter.Limit, filter.Offset)

	var trips []Trip
	err := r.db.SelectContext(ctx, &trips, query, args...)
	return trips, err
}

// SetApprovalStatus moves a PENDING trip to APPROVED or REJECTED. Moderation
// of an already-moderated trip fails; REJECTED is terminal.
func (r *Repository) SetApprovalStatus(ctx context.Context, id uuid.UUID, status ApprovalStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE trips SET approval_status = $1, updated_at = now()
		WHERE id = $2 AND approval_status = 'PENDING'
	`, string(status), id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM trips WHERE id = $1)`, id); err != nil {
			return err
		}
		if !exists {
			return ErrTripNotFound
		}
		return ErrAlreadyModerated
	}
	return nil
}

// SetCover stores the cover image URLs, only for the owning vendor.
func (r *Repository) SetCover(ctx context.Context, id, vendorID uuid.UUID, coverURL, thumbURL string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE trips SET cover_url = $1, cover_thumb_url = $2, updated_at = now()
		WHERE id = $3 AND vendor_id = $4
	`, coverURL, thumbURL, id, vendorID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM trips WHERE id = $1)`, id); err != nil {
			return err
		}
		if !exists {
			return ErrTripNotFound
		}
		return ErrNotTripVendor
	}
	return nil
}

// AddMember admits a user. Eligibility (approved, upcoming, not already
// joined, seats left) is checked and the member row inserted under the trip's
// row lock, so concurrent joins serialize per trip and re-validate against
// committed state - two racing joiners can never both take the last seat.
func (r *Repository) AddMember(ctx context.Context, tripID, userID uuid.UUID) (*Trip, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var t Trip
	err = tx.GetContext(ctx, &t, `SELECT * FROM trips WHERE id = $1 FOR UPDATE`, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}

	if t.ApprovalStatus != ApprovalStatusApproved {
		return nil, ErrNotApproved
	}
	if t.Status != StatusUpcoming {
		return nil, ErrTripClosed
	}

	var joined bool
	if err := tx.GetContext(ctx, &joined, `
		SELECT EXISTS(SELECT 1 FROM trip_members WHERE trip_id = $1 AND user_id = $2)
	`, tripID, userID); err != nil {
		return nil, err
	}
	if joined {
		return nil, ErrAlreadyJoined
	}

	var count int
	if err := tx.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM trip_members WHERE trip_id = $1
	`, tripID); err != nil {
		return nil, err
	}
	if count >= t.MaxPeople {
		return nil, ErrTripFull
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO trip_members (trip_id, user_id, joined_at) VALUES ($1, $2, $3)
	`, tripID, userID, time.Now()); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAlreadyJoined
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	members, err := r.ListMembers(ctx, tripID)
	if err != nil {
		return nil, err
	}
	t.JoinedUsers = members
	return &t, nil
}

// RemoveMember takes a user back off the trip. Used to unwind a join whose
// payment did not go through.
func (r *Repository) RemoveMember(ctx context.Context, tripID, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM trip_members WHERE trip_id = $1 AND user_id = $2
	`, tripID, userID)
	return err
}

// RecomputeStatuses rewrites trip_status from the clock for every trip whose
// stored status drifted. One statement, so a crashed sweep never leaves a
// half-applied batch.
func (r *Repository) RecomputeStatuses(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE trips SET trip_status = derived.status, updated_at = now()
		FROM (
			SELECT id, CASE
				WHEN $1 < start_date THEN 'UPCOMING'
				WHEN $1 >= end_date THEN 'COMPLETED'
				ELSE 'ONGOING'
			END AS status
			FROM trips
		) AS derived
		WHERE trips.id = derived.id AND trips.trip_status <> derived.status
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package trip

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the admin moderation state, independent of the trip
// lifecycle. REJECTED is terminal.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// Status is the trip lifecycle, derived from now vs [StartDate, EndDate] and
// written only by the periodic status sweep.
type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusOngoing   Status = "ONGOING"
	StatusCompleted Status = "COMPLETED"
)

// Trip is a vendor-listed buddy trip
type Trip struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	VendorID       uuid.UUID      `db:"vendor_id" json:"vendor_id"`
	Title          string         `db:"title" json:"title"`
	Destination    string         `db:"destination" json:"destination"`
	CategoryID     uuid.NullUUID  `db:"category_id" json:"category_id,omitempty"`
	Description    string         `db:"description" json:"description"`
	StartDate      time.Time      `db:"start_date" json:"start_date"`
	EndDate        time.Time      `db:"end_date" json:"end_date"`
	Price          int64          `db:"price" json:"price"`
	MaxPeople      int            `db:"max_people" json:"max_people"`
	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approval_status"`
	Status         Status         `db:"trip_status" json:"trip_status"`
	CoverURL       sql.NullString `db:"cover_url" json:"cover_url,omitempty"`
	CoverThumbURL  sql.NullString `db:"cover_thumb_url" json:"cover_thumb_url,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`

	// JoinedUsers is loaded alongside the row; it is never written through
	// this struct.
	JoinedUsers []uuid.UUID `db:"-" json:"joined_users"`
}

// StatusForDates derives the lifecycle status from the clock.
func StatusForDates(now, start, end time.Time) Status {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.Before(end):
		return StatusOngoing
	default:
		return StatusCompleted
	}
}

package trip

import "errors"

var (
	ErrTripNotFound     = errors.New("trip not found")
	ErrNotApproved      = errors.New("trip is not approved")
	ErrTripClosed       = errors.New("trip is ongoing or completed")
	ErrAlreadyJoined    = errors.New("user already joined this trip")
	ErrTripFull         = errors.New("trip is full")
	ErrNotTripVendor    = errors.New("trip belongs to another vendor")
	ErrAlreadyModerated = errors.New("trip has already been moderated")
	ErrInvalidDates     = errors.New("end date must be after start date")
)

package trip

import (
	"time"

	"github.com/google/uuid"
)

// CreateTripRequest lists a new buddy trip
type CreateTripRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Destination string     `json:"destination" validate:"required,min=2,max=200"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Description string     `json:"description" validate:"max=5000"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     time.Time  `json:"end_date" validate:"required"`
	Price       int64      `json:"price" validate:"required,gt=0"`
	MaxPeople   int        `json:"max_people" validate:"required,gte=1,lte=500"`
}

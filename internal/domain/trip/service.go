package trip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/roamly/roamly-api/internal/pkg/imaging"
	"github.com/roamly/roamly-api/internal/pkg/storage"
)

// Service handles trip business logic
type Service struct {
	repo      *Repository
	store     storage.Storage
	processor *imaging.Processor
}

// NewService creates trip service. store may be nil when object storage is
// not configured; cover uploads are rejected in that case.
func NewService(repo *Repository, store storage.Storage, processor *imaging.Processor) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		processor: processor,
	}
}

// Create lists a new trip for the vendor. Trips start PENDING and invisible
// to joiners until an admin approves them.
func (s *Service) Create(ctx context.Context, vendorID uuid.UUID, req *CreateTripRequest) (*Trip, error) {
	if !req.EndDate.After(req.StartDate) {
		return nil, ErrInvalidDates
	}

	now := time.Now()
	t := &Trip{
		ID:             uuid.New(),
		VendorID:       vendorID,
		Title:          req.Title,
		Destination:    req.Destination,
		Description:    req.Description,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Price:          req.Price,
		MaxPeople:      req.MaxPeople,
		ApprovalStatus: ApprovalStatusPending,
		Status:         StatusForDates(now, req.StartDate, req.EndDate),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.CategoryID != nil {
		t.CategoryID = uuid.NullUUID{UUID: *req.CategoryID, Valid: true}
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	log.Info().
		Str("trip_id", t.ID.String()).
		Str("vendor_id", vendorID.String()).
		Str("destination", t.Destination).
		Msg("trip created")
	return t, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Trip, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Trip, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// Approve moves a pending trip to APPROVED (admin action).
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetApprovalStatus(ctx, id, ApprovalStatusApproved); err != nil {
		return err
	}
	log.Info().Str("trip_id", id.String()).Msg("trip approved")
	return nil
}

// Reject moves a pending trip to REJECTED (admin action, terminal).
func (s *Service) Reject(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetApprovalStatus(ctx, id, ApprovalStatusRejected); err != nil {
		return err
	}
	log.Info().Str("trip_id", id.String()).Msg("trip rejected")
	return nil
}

// UploadCover processes and stores a cover image for the vendor's own trip.
func (s *Service) UploadCover(ctx context.Context, tripID, vendorID uuid.UUID, file io.Reader, filename string) (*Trip, error) {
	if s.store == nil || s.processor == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}
	if !imaging.ValidateType(filename) {
		return nil, fmt.Errorf("unsupported image type: %s", filename)
	}

	processed, err := s.processor.Process(file)
	if err != nil {
		return nil, err
	}

	coverKey, thumbKey := imaging.CoverPaths(tripID.String())
	if err := s.store.Put(ctx, coverKey, bytes.NewReader(processed.Cover), processed.ContentType); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, thumbKey, bytes.NewReader(processed.Thumbnail), processed.ContentType); err != nil {
		return nil, err
	}

	coverURL := s.store.GetURL(coverKey)
	thumbURL := s.store.GetURL(thumbKey)
	if err := s.repo.SetCover(ctx, tripID, vendorID, coverURL, thumbURL); err != nil {
		return nil, err
	}

	log.Info().Str("trip_id", tripID.String()).Str("cover_url", coverURL).Msg("trip cover updated")
	return s.repo.GetByID(ctx, tripID)
}

// RecomputeStatuses advances trip lifecycle statuses from the clock. Invoked
// by the sweep worker, never by request handling.
func (s *Service) RecomputeStatuses(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.RecomputeStatuses(ctx, now)
}

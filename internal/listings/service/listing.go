package service

import (
	"context"
	"errors"
	"staybook/internal/identity"
	listingserrors "staybook/internal/listings/errors"
	"staybook/internal/listings/repository"
	"staybook/internal/listings/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
	"time"
)

// Reconciler settles time-expired reservations. The reservation service
// implements it; the search path calls it before any availability read so
// stale ACTIVE rows never understate what is actually free.
type Reconciler interface {
	ReconcileExpired(ctx context.Context) error
}

// OccupancyCounter counts reservations that hold a room of a listing during
// a requested window. Implemented by the reservation repository.
type OccupancyCounter interface {
	CountOverlapping(ctx context.Context, listingID string, start, end *time.Time, now time.Time) (int64, error)
}

type ListingService interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	GetNewest(ctx context.Context, limit int) ([]*model.Listing, error)
	// Search applies the non-availability filters in storage, then judges
	// each candidate against the requested window: rooms promised to
	// overlapping ACTIVE or BLOCKED reservations are subtracted from the raw
	// counter, and listings with nothing left are dropped. The raw counter
	// alone cannot answer date questions, it is net of every current hold
	// regardless of when the hold ends.
	Search(ctx context.Context, filter *model.SearchFilter) ([]*model.ListingAvailability, error)
}

type listingService struct {
	repo       repository.ListingRepository
	occupancy  OccupancyCounter
	reconciler Reconciler
	users      identity.UserStore
	validator  *validator.ListingValidator
	cfg        *config.Config

	now func() time.Time
}

func NewListingService(
	repo repository.ListingRepository,
	occupancy OccupancyCounter,
	reconciler Reconciler,
	users identity.UserStore,
	validator *validator.ListingValidator,
	cfg *config.Config,
) ListingService {
	return &listingService{
		repo:       repo,
		occupancy:  occupancy,
		reconciler: reconciler,
		users:      users,
		validator:  validator,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *listingService) Create(ctx context.Context, listing *model.Listing) error {
	userID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return apperrors.AuthRequired()
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return apperrors.Internal("Failed to resolve user", err)
	}
	if !exists {
		return apperrors.NotFoundWithID("User", userID)
	}

	listing.Name = sanitizer.NormalizeName(listing.Name)
	listing.Desc = sanitizer.TrimAndNormalize(listing.Desc)
	listing.Amenities = sanitizer.NormalizeAmenities(listing.Amenities)

	if err := s.validator.Validate(listing); err != nil {
		s.cfg.Log.Warn("Listing validation failed", "error", err)
		return apperrors.Validation("Invalid listing input", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		s.cfg.Log.Error("Failed to create listing", "name", listing.Name, "error", err)
		return apperrors.Internal("Failed to create listing", err)
	}

	s.cfg.Log.Info("Listing created", "id", listing.ID, "name", listing.Name, "rooms", listing.RoomsAvailable)
	return nil
}

func (s *listingService) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Listing", id)
		}
		if errors.Is(err, listingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid listing ID format")
		}
		s.cfg.Log.Error("Failed to get listing", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve listing", err)
	}

	return listing, nil
}

func (s *listingService) GetNewest(ctx context.Context, limit int) ([]*model.Listing, error) {
	limit = config.NormalizePaginationLimit(limit)

	listings, err := s.repo.FindNewest(ctx, limit)
	if err != nil {
		s.cfg.Log.Error("Failed to get newest listings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve listings", err)
	}

	return listings, nil
}

func (s *listingService) Search(ctx context.Context, filter *model.SearchFilter) ([]*model.ListingAvailability, error) {
	if filter == nil {
		filter = &model.SearchFilter{}
	}
	filter.Amenities = sanitizer.NormalizeAmenities(filter.Amenities)

	if err := s.validator.ValidateSearch(filter); err != nil {
		s.cfg.Log.Warn("Search validation failed", "error", err)
		return nil, apperrors.Validation("Invalid search filter", map[string]any{"error": err.Error()})
	}

	if err := s.reconciler.ReconcileExpired(ctx); err != nil {
		return nil, err
	}

	candidates, err := s.repo.Search(ctx, filter, s.cfg.SearchResultLimit)
	if err != nil {
		s.cfg.Log.Error("Listing search failed", "error", err)
		return nil, apperrors.Internal("Failed to search listings", err)
	}

	now := s.now()
	results := make([]*model.ListingAvailability, 0, len(candidates))
	for _, listing := range candidates {
		overlapping, err := s.occupancy.CountOverlapping(ctx, listing.ID, filter.StartDate, filter.EndDate, now)
		if err != nil {
			s.cfg.Log.Error("Overlap count failed", "listing_id", listing.ID, "error", err)
			return nil, apperrors.Internal("Failed to compute availability", err)
		}

		available := listing.RoomsAvailable - int(overlapping)
		if available <= 0 {
			continue
		}

		results = append(results, &model.ListingAvailability{
			Listing:        listing,
			AvailableRooms: available,
		})
	}

	s.cfg.Log.Info("Listing search completed",
		"candidates", len(candidates),
		"available", len(results),
	)
	return results, nil
}

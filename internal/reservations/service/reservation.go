package service

import (
	"context"
	"errors"
	"staybook/internal/identity"
	listingserrors "staybook/internal/listings/errors"
	reservationserrors "staybook/internal/reservations/errors"
	"staybook/internal/reservations/events"
	"staybook/internal/reservations/repository"
	"staybook/internal/reservations/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
	"time"

	"github.com/google/uuid"
)

// InventoryLedger is the atomic room-counter primitive, implemented by the
// listing repository. TryReserveRoom is a storage-level conditional
// decrement; it either consumes exactly one room or reports exhaustion
// without touching anything.
type InventoryLedger interface {
	TryReserveRoom(ctx context.Context, listingID string) error
	ReleaseRoom(ctx context.Context, listingID string) error
	ReleaseRooms(ctx context.Context, listingID string, n int) error
}

type ReservationService interface {
	// Create books one room under the authenticated user. Fails with an
	// authentication error when no identity is present, a not-found error
	// when the identity has no stored user record, and a rooms-exhausted
	// error when the listing counter is at zero.
	Create(ctx context.Context, input *model.ReservationInput) (*model.Reservation, error)
	// Cancel moves a reservation to CANCELLED and frees its room when it was
	// still holding one. Calling it on an already terminal reservation is a
	// no-op that returns the unchanged record.
	Cancel(ctx context.Context, id string) (*model.Reservation, error)
	// AdminBlock takes one room out of circulation as a BLOCKED reservation.
	AdminBlock(ctx context.Context, input *model.BlockInput) (*model.Reservation, error)
	// AdminUnblock resolves a BLOCKED reservation: COMPLETED when its end
	// date has passed, CANCELLED otherwise, freeing the held room either
	// way. Non-BLOCKED reservations are returned unchanged.
	AdminUnblock(ctx context.Context, id string) (*model.Reservation, error)
	// ReconcileExpired completes every time-expired ACTIVE reservation and
	// returns its room. Safe to call repeatedly; it is pulled at the start
	// of every availability-sensitive operation rather than run by a
	// scheduler.
	ReconcileExpired(ctx context.Context) error
	ListForUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, int64, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	ledger    InventoryLedger
	users     identity.UserStore
	events    events.Publisher
	validator *validator.ReservationValidator
	cfg       *config.Config

	// now is swappable for tests.
	now func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	ledger InventoryLedger,
	users identity.UserStore,
	publisher events.Publisher,
	validator *validator.ReservationValidator,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		ledger:    ledger,
		users:     users,
		events:    publisher,
		validator: validator,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *reservationService) Create(ctx context.Context, input *model.ReservationInput) (*model.Reservation, error) {
	userID, err := s.resolveUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateCreate(input); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return nil, apperrors.Validation("Invalid reservation input", map[string]any{"error": err.Error()})
	}

	if err := s.ReconcileExpired(ctx); err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		ListingID:       input.ListingID,
		UserID:          userID,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Status:          model.StatusActive,
		ChargeID:        input.ChargeID,
		DaysDifference:  model.DaysBetween(input.StartDate, input.EndDate),
		ReservedDates:   model.ReservedDayIDs(input.StartDate, input.EndDate),
		SpecialRequests: sanitizer.TrimAndNormalize(input.SpecialRequests),
		ContactPhone:    sanitizer.NormalizePhone(input.ContactPhone),
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ledger.TryReserveRoom(txCtx, input.ListingID); err != nil {
			return s.mapLedgerError(err, input.ListingID)
		}
		if err := s.repo.Create(txCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation",
			"listing_id", input.ListingID,
			"user_id", userID,
			"error", err,
		)
		return nil, err
	}

	s.events.ReservationChanged(ctx, events.TypeCreated, reservation)
	s.cfg.Log.Info("Reservation created",
		"id", reservation.ID,
		"listing_id", reservation.ListingID,
		"user_id", reservation.UserID,
		"start_date", reservation.StartDate,
		"end_date", reservation.EndDate,
	)
	return reservation, nil
}

func (s *reservationService) Cancel(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	if err := s.ReconcileExpired(ctx); err != nil {
		return nil, err
	}

	var out *model.Reservation
	var changed bool
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.loadReservation(txCtx, id)
		if err != nil {
			return err
		}

		// The prior-status check runs against the row as loaded inside this
		// transaction, after reconciliation, so a reservation the reconciler
		// just completed cannot be freed a second time here.
		transition, ok := model.CancelTransition(existing.Status)
		if !ok {
			out = existing
			return nil
		}

		if err := s.repo.UpdateStatus(txCtx, id, transition.Next); err != nil {
			return apperrors.Internal("Failed to cancel reservation", err)
		}
		if transition.FreeRoom {
			if err := s.ledger.ReleaseRoom(txCtx, existing.ListingID); err != nil {
				return apperrors.Internal("Failed to release room", err)
			}
		}

		existing.Status = transition.Next
		out = existing
		changed = true
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cancel reservation", "id", id, "error", err)
		return nil, err
	}

	if changed {
		s.events.ReservationChanged(ctx, events.TypeCancelled, out)
		s.cfg.Log.Info("Reservation cancelled", "id", id, "listing_id", out.ListingID)
	}
	return out, nil
}

func (s *reservationService) AdminBlock(ctx context.Context, input *model.BlockInput) (*model.Reservation, error) {
	adminID, err := s.resolveUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateBlock(input); err != nil {
		s.cfg.Log.Warn("Block validation failed", "error", err)
		return nil, apperrors.Validation("Invalid block input", map[string]any{"error": err.Error()})
	}

	if err := s.ReconcileExpired(ctx); err != nil {
		return nil, err
	}

	reason := sanitizer.TrimAndNormalize(input.Reason)
	if reason == "" {
		reason = "Admin block"
	}

	reservation := &model.Reservation{
		ListingID:       input.ListingID,
		UserID:          adminID,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Status:          model.StatusBlocked,
		ChargeID:        "BLOCK_" + uuid.NewString(),
		DaysDifference:  model.DaysBetween(input.StartDate, input.EndDate),
		ReservedDates:   model.ReservedDayIDs(input.StartDate, input.EndDate),
		SpecialRequests: reason,
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ledger.TryReserveRoom(txCtx, input.ListingID); err != nil {
			return s.mapLedgerError(err, input.ListingID)
		}
		if err := s.repo.Create(txCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create block reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to block listing room",
			"listing_id", input.ListingID,
			"admin_id", adminID,
			"error", err,
		)
		return nil, err
	}

	s.events.ReservationChanged(ctx, events.TypeBlocked, reservation)
	s.cfg.Log.Info("Room blocked",
		"id", reservation.ID,
		"listing_id", reservation.ListingID,
		"admin_id", adminID,
	)
	return reservation, nil
}

func (s *reservationService) AdminUnblock(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	if err := s.ReconcileExpired(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	var out *model.Reservation
	var changed bool
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.loadReservation(txCtx, id)
		if err != nil {
			return err
		}

		transition, ok := model.UnblockTransition(existing.Status, existing.EndDate, now)
		if !ok {
			out = existing
			return nil
		}

		if err := s.repo.UpdateStatus(txCtx, id, transition.Next); err != nil {
			return apperrors.Internal("Failed to unblock reservation", err)
		}
		if transition.FreeRoom {
			if err := s.ledger.ReleaseRoom(txCtx, existing.ListingID); err != nil {
				return apperrors.Internal("Failed to release room", err)
			}
		}

		existing.Status = transition.Next
		out = existing
		changed = true
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to unblock reservation", "id", id, "error", err)
		return nil, err
	}

	if changed {
		s.events.ReservationChanged(ctx, events.TypeUnblocked, out)
		s.cfg.Log.Info("Reservation unblocked", "id", id, "status", out.Status)
	}
	return out, nil
}

// ReconcileExpired is deliberately lazy: there is no background sweeper, and
// correctness never depends on one. Stale ACTIVE rows only make listings look
// more occupied than they are, so skipping a call can never oversell; every
// entry point still reconciles first so reads stay fresh.
func (s *reservationService) ReconcileExpired(ctx context.Context) error {
	now := s.now()

	// Cheap peek outside the transaction: the common case on every entry
	// point is "nothing expired", and that must not cost a session.
	expired, err := s.repo.FindExpiredActive(ctx, now)
	if err != nil {
		return apperrors.Internal("Failed to find expired reservations", err)
	}
	if len(expired) == 0 {
		return nil
	}

	// The authoritative set is re-selected inside the transaction. A
	// concurrent reconcile or cancel can resolve a peeked row before this
	// transaction runs; completing by id alone would then free its room a
	// second time. CompleteMany only flips rows still ACTIVE and reports the
	// count, and the release matches that count per listing.
	var completed []*model.Reservation
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		completed = nil

		rows, err := s.repo.FindExpiredActive(txCtx, now)
		if err != nil {
			return apperrors.Internal("Failed to find expired reservations", err)
		}
		if len(rows) == 0 {
			return nil
		}

		perListing := make(map[string][]string)
		for _, r := range rows {
			perListing[r.ListingID] = append(perListing[r.ListingID], r.ID)
		}

		for listingID, ids := range perListing {
			flipped, err := s.repo.CompleteMany(txCtx, ids)
			if err != nil {
				return apperrors.Internal("Failed to complete expired reservations", err)
			}
			if flipped == 0 {
				continue
			}
			if err := s.ledger.ReleaseRooms(txCtx, listingID, int(flipped)); err != nil {
				return apperrors.Internal("Failed to release rooms", err)
			}
		}

		completed = rows
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Reconciliation failed", "expired", len(expired), "error", err)
		return err
	}
	if len(completed) == 0 {
		return nil
	}

	listings := make(map[string]struct{})
	for _, r := range completed {
		r.Status = model.StatusCompleted
		s.events.ReservationChanged(ctx, events.TypeCompleted, r)
		listings[r.ListingID] = struct{}{}
	}
	s.cfg.Log.Info("Expired reservations reconciled",
		"completed", len(completed),
		"listings", len(listings),
	)
	return nil
}

func (s *reservationService) ListForUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("User ID cannot be empty")
	}

	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to count reservations", "user_id", userID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count reservations", err)
	}

	reservations, err := s.repo.FindByUser(ctx, userID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list reservations", "user_id", userID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve reservations", err)
	}

	return reservations, count, nil
}

// --- Helpers ---

func (s *reservationService) resolveUser(ctx context.Context) (string, error) {
	userID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return "", apperrors.AuthRequired()
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		// A malformed id can never match a stored user record.
		if errors.Is(err, identity.ErrInvalidID) {
			return "", apperrors.NotFoundWithID("User", userID)
		}
		return "", apperrors.Internal("Failed to resolve user", err)
	}
	if !exists {
		return "", apperrors.NotFoundWithID("User", userID)
	}
	return userID, nil
}

func (s *reservationService) loadReservation(ctx context.Context, id string) (*model.Reservation, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to load reservation", err)
	}
	return existing, nil
}

func (s *reservationService) mapLedgerError(err error, listingID string) error {
	if errors.Is(err, listingserrors.ErrRoomsExhausted) {
		return apperrors.RoomsExhausted(listingID)
	}
	if errors.Is(err, listingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid listing ID format")
	}
	return apperrors.Internal("Failed to reserve room", err)
}

package service

import (
	"context"
	"testing"
	"time"

	"staybook/internal/identity"
	listingserrors "staybook/internal/listings/errors"
	"staybook/internal/listings/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	mongotx "staybook/pkg/db/mongo"
)

const (
	testListingID = "507f1f77bcf86cd799439011"
	testUserID    = "507f1f77bcf86cd799439022"
)

type fakeListingRepo struct {
	listings map[string]*model.Listing

	searchFunc func(ctx context.Context, filter *model.SearchFilter, limit int) ([]*model.Listing, error)
}

func (f *fakeListingRepo) Create(ctx context.Context, listing *model.Listing) error {
	listing.ID = testListingID
	f.listings[listing.ID] = listing
	return nil
}

func (f *fakeListingRepo) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, listingserrors.ErrNotFound
	}
	return l, nil
}

func (f *fakeListingRepo) FindNewest(ctx context.Context, limit int) ([]*model.Listing, error) {
	var out []*model.Listing
	for _, l := range f.listings {
		out = append(out, l)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeListingRepo) Search(ctx context.Context, filter *model.SearchFilter, limit int) ([]*model.Listing, error) {
	if f.searchFunc != nil {
		return f.searchFunc(ctx, filter, limit)
	}
	return f.FindNewest(ctx, limit)
}

func (f *fakeListingRepo) TryReserveRoom(ctx context.Context, listingID string) error {
	l, ok := f.listings[listingID]
	if !ok {
		return listingserrors.ErrNotFound
	}
	if l.RoomsAvailable <= 0 {
		return listingserrors.ErrRoomsExhausted
	}
	l.RoomsAvailable--
	return nil
}

func (f *fakeListingRepo) ReleaseRoom(ctx context.Context, listingID string) error {
	return f.ReleaseRooms(ctx, listingID, 1)
}

func (f *fakeListingRepo) ReleaseRooms(ctx context.Context, listingID string, n int) error {
	f.listings[listingID].RoomsAvailable += n
	return nil
}

func (f *fakeListingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

// fakeOccupancy judges overlap against a fixed set of occupying holds, the
// same interval test the reservation repository runs in storage.
type fakeOccupancy struct {
	holds []hold
}

type hold struct {
	listingID string
	start     time.Time
	end       time.Time
}

func (f *fakeOccupancy) CountOverlapping(ctx context.Context, listingID string, start, end *time.Time, now time.Time) (int64, error) {
	var n int64
	for _, h := range f.holds {
		if h.listingID != listingID {
			continue
		}
		if start != nil && end != nil {
			if !h.start.After(*end) && !h.end.Before(*start) {
				n++
			}
		} else if !h.end.Before(now) {
			n++
		}
	}
	return n, nil
}

type fakeReconciler struct {
	calls int
	err   error
}

func (f *fakeReconciler) ReconcileExpired(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakeUserStore struct {
	users map[string]bool
}

func (f *fakeUserStore) Exists(ctx context.Context, userID string) (bool, error) {
	return f.users[userID], nil
}

func newTestService(repo *fakeListingRepo, occupancy *fakeOccupancy, reconciler *fakeReconciler) *listingService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &listingService{
		repo:       repo,
		occupancy:  occupancy,
		reconciler: reconciler,
		users:      &fakeUserStore{users: map[string]bool{testUserID: true}},
		validator:  validator.NewListingValidator(log),
		cfg:        &config.Config{Log: log, SearchResultLimit: 20},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

// A listing with spare aggregate capacity can still be fully promised for a
// specific window; conversely holds outside the window must not hide it.
func TestSearch_DateAwareFiltering(t *testing.T) {
	listing := &model.Listing{
		ID:             testListingID,
		Name:           "Harbor View",
		Type:           "hotel",
		PricePerNight:  120,
		Beds:           2,
		RoomsAvailable: 1,
	}
	repo := &fakeListingRepo{listings: map[string]*model.Listing{listing.ID: listing}}
	occupancy := &fakeOccupancy{holds: []hold{
		{listingID: testListingID, start: date(2026, 1, 10), end: date(2026, 1, 15)},
	}}

	svc := newTestService(repo, occupancy, &fakeReconciler{})

	// Jan 20-25: no overlap with the Jan 10-15 hold.
	results, err := svc.Search(context.Background(), &model.SearchFilter{
		StartDate: datePtr(2026, 1, 20),
		EndDate:   datePtr(2026, 1, 25),
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected listing included for disjoint window, got %d results", len(results))
	}
	if results[0].AvailableRooms != 1 {
		t.Errorf("expected 1 available room, got %d", results[0].AvailableRooms)
	}

	// Jan 12-18: overlaps the hold, nothing left.
	results, err = svc.Search(context.Background(), &model.SearchFilter{
		StartDate: datePtr(2026, 1, 12),
		EndDate:   datePtr(2026, 1, 18),
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected listing excluded for overlapping window, got %d results", len(results))
	}
}

func TestSearch_NoWindowCountsCurrentHolds(t *testing.T) {
	listing := &model.Listing{
		ID:             testListingID,
		Name:           "Harbor View",
		Type:           "hotel",
		PricePerNight:  120,
		Beds:           2,
		RoomsAvailable: 1,
	}
	repo := &fakeListingRepo{listings: map[string]*model.Listing{listing.ID: listing}}

	// One hold already ended, one still running.
	occupancy := &fakeOccupancy{holds: []hold{
		{listingID: testListingID, start: time.Now().Add(-240 * time.Hour), end: time.Now().Add(-120 * time.Hour)},
	}}

	svc := newTestService(repo, occupancy, &fakeReconciler{})

	results, err := svc.Search(context.Background(), &model.SearchFilter{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("past holds must not count without a window, got %d results", len(results))
	}

	occupancy.holds = append(occupancy.holds, hold{
		listingID: testListingID,
		start:     time.Now().Add(-24 * time.Hour),
		end:       time.Now().Add(48 * time.Hour),
	})

	results, err = svc.Search(context.Background(), &model.SearchFilter{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("a running hold must count without a window, got %d results", len(results))
	}
}

func TestSearch_ReconcilesFirst(t *testing.T) {
	repo := &fakeListingRepo{listings: map[string]*model.Listing{}}
	reconciler := &fakeReconciler{}
	svc := newTestService(repo, &fakeOccupancy{}, reconciler)

	if _, err := svc.Search(context.Background(), &model.SearchFilter{}); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if reconciler.calls != 1 {
		t.Errorf("expected exactly one reconcile call, got %d", reconciler.calls)
	}
}

func TestSearch_ReconcileFailureAborts(t *testing.T) {
	repo := &fakeListingRepo{listings: map[string]*model.Listing{}}
	reconciler := &fakeReconciler{err: apperrors.Internal("storage unavailable", nil)}
	svc := newTestService(repo, &fakeOccupancy{}, reconciler)

	if _, err := svc.Search(context.Background(), &model.SearchFilter{}); err == nil {
		t.Fatal("search must fail when reconciliation fails")
	}
}

func TestSearch_RejectsHalfWindow(t *testing.T) {
	repo := &fakeListingRepo{listings: map[string]*model.Listing{}}
	svc := newTestService(repo, &fakeOccupancy{}, &fakeReconciler{})

	_, err := svc.Search(context.Background(), &model.SearchFilter{
		StartDate: datePtr(2026, 1, 20),
	})
	if err == nil {
		t.Fatal("expected validation error for start date without end date")
	}
	if appErr := apperrors.AsAppError(err); appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected %s, got %v", apperrors.CodeValidation, err)
	}
}

func TestCreate_RequiresAuthentication(t *testing.T) {
	repo := &fakeListingRepo{listings: map[string]*model.Listing{}}
	svc := newTestService(repo, &fakeOccupancy{}, &fakeReconciler{})

	err := svc.Create(context.Background(), &model.Listing{
		Name:           "Harbor View",
		Type:           "hotel",
		PricePerNight:  120,
		Beds:           2,
		RoomsAvailable: 3,
	})
	if err == nil {
		t.Fatal("expected error for unauthenticated create")
	}
	if appErr := apperrors.AsAppError(err); appErr == nil || appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("expected %s, got %v", apperrors.CodeUnauthorized, err)
	}
}

func TestCreate_NormalizesInput(t *testing.T) {
	repo := &fakeListingRepo{listings: map[string]*model.Listing{}}
	svc := newTestService(repo, &fakeOccupancy{}, &fakeReconciler{})

	ctx := identity.WithUserID(context.Background(), testUserID)
	listing := &model.Listing{
		Name:           "  Harbor   View ",
		Type:           "hotel",
		PricePerNight:  120,
		Beds:           2,
		RoomsAvailable: 3,
		Amenities:      []string{"Free WiFi", "free wifi", "Pool"},
	}
	if err := svc.Create(ctx, listing); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if listing.Name != "Harbor View" {
		t.Errorf("name not normalized: %q", listing.Name)
	}
	if len(listing.Amenities) != 2 || listing.Amenities[0] != "free_wifi" || listing.Amenities[1] != "pool" {
		t.Errorf("amenities not normalized: %v", listing.Amenities)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := &fakeListingRepo{listings: map[string]*model.Listing{}}
	svc := newTestService(repo, &fakeOccupancy{}, &fakeReconciler{})

	_, err := svc.GetByID(context.Background(), "507f1f77bcf86cd799439099")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if appErr := apperrors.AsAppError(err); appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}

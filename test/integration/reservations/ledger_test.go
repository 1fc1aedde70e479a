package reservations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	listingserrors "staybook/internal/listings/errors"
	listingsrepository "staybook/internal/listings/repository"
	reservationsrepository "staybook/internal/reservations/repository"
	"staybook/pkg/model"
	"staybook/test/integration/testutil"
)

// The conditional decrement is the one mechanism that prevents overbooking,
// so it is the one thing worth proving against a real MongoDB rather than a
// fake: N concurrent reservations against capacity C must yield exactly C
// decrements.
func TestTryReserveRoom_ConcurrentAgainstMongo(t *testing.T) {
	cfg := testutil.RequireMongo(t)
	testutil.CleanDatabase(t, cfg)
	t.Cleanup(func() { testutil.CleanDatabase(t, cfg) })

	const capacity = 5
	const attempts = 20

	listingID := testutil.SeedListing(t, cfg, capacity)
	repo := listingsrepository.NewMongoListingRepository(cfg)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.TryReserveRoom(context.Background(), listingID)
		}()
	}
	wg.Wait()
	close(results)

	var successes, exhausted int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, listingserrors.ErrRoomsExhausted):
			exhausted++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != capacity {
		t.Errorf("expected exactly %d successful decrements, got %d", capacity, successes)
	}
	if exhausted != attempts-capacity {
		t.Errorf("expected %d exhausted failures, got %d", attempts-capacity, exhausted)
	}
	if got := testutil.RoomsAvailable(t, cfg, listingID); got != 0 {
		t.Errorf("expected counter at 0, got %d", got)
	}
}

func TestReleaseRooms_RestoresCounter(t *testing.T) {
	cfg := testutil.RequireMongo(t)
	testutil.CleanDatabase(t, cfg)
	t.Cleanup(func() { testutil.CleanDatabase(t, cfg) })

	listingID := testutil.SeedListing(t, cfg, 3)
	repo := listingsrepository.NewMongoListingRepository(cfg)

	for i := 0; i < 3; i++ {
		if err := repo.TryReserveRoom(context.Background(), listingID); err != nil {
			t.Fatalf("decrement %d failed: %v", i, err)
		}
	}
	if err := repo.ReleaseRooms(context.Background(), listingID, 2); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if got := testutil.RoomsAvailable(t, cfg, listingID); got != 2 {
		t.Errorf("expected counter at 2, got %d", got)
	}
}

func TestCountOverlapping_AgainstMongo(t *testing.T) {
	cfg := testutil.RequireMongo(t)
	testutil.CleanDatabase(t, cfg)
	t.Cleanup(func() { testutil.CleanDatabase(t, cfg) })

	listingID := testutil.SeedListing(t, cfg, 1)
	userID := testutil.SeedUser(t, cfg)
	repo := reservationsrepository.NewMongoReservationRepository(cfg)

	hold := &model.Reservation{
		ListingID: listingID,
		UserID:    userID,
		StartDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:    model.StatusActive,
		ChargeID:  "ch_integration",
	}
	if err := repo.Create(context.Background(), hold); err != nil {
		t.Fatalf("failed to create reservation: %v", err)
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	disjointStart := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	disjointEnd := time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC)
	n, err := repo.CountOverlapping(context.Background(), listingID, &disjointStart, &disjointEnd, now)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 overlaps for disjoint window, got %d", n)
	}

	overlapStart := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	overlapEnd := time.Date(2026, 1, 18, 0, 0, 0, 0, time.UTC)
	n, err = repo.CountOverlapping(context.Background(), listingID, &overlapStart, &overlapEnd, now)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 overlap, got %d", n)
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	listingserrors "staybook/internal/listings/errors"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Listings"
)

type mongoListingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	FindNewest(ctx context.Context, limit int) ([]*model.Listing, error)
	Search(ctx context.Context, filter *model.SearchFilter, limit int) ([]*model.Listing, error)

	// TryReserveRoom is the only overbooking guard in the system: one atomic
	// conditional update that decrements rooms_available where it is still
	// positive, then checks the modified-row count. It must never be split
	// into a read, an application-level compare, and a write.
	TryReserveRoom(ctx context.Context, listingID string) error
	// ReleaseRoom unconditionally returns one room to the counter.
	ReleaseRoom(ctx context.Context, listingID string) error
	// ReleaseRooms returns n rooms at once, for batch reconciliation.
	ReleaseRooms(ctx context.Context, listingID string, n int) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoListingRepository(cfg *config.Config) ListingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoListingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless it already carries a
// session: wrapping a SessionContext would break transaction semantics.
func (r *mongoListingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	listing.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, listing)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		listing.ID = oid.Hex()
	}
	return nil
}

func (r *mongoListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	var listing model.Listing
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, listingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}

	return &listing, nil
}

func (r *mongoListingRepository) FindNewest(ctx context.Context, limit int) ([]*model.Listing, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "avg_rating", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []*model.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}

	return listings, nil
}

// Search applies the non-availability filters only. Date-range availability
// is computed by the service on top of these candidates.
func (r *mongoListingRepository) Search(ctx context.Context, filter *model.SearchFilter, limit int) ([]*model.Listing, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := r.buildSearchFilter(filter)

	opts := options.Find().
		SetSort(bson.D{{Key: "avg_rating", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []*model.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}

	return listings, nil
}

func (r *mongoListingRepository) buildSearchFilter(filter *model.SearchFilter) bson.M {
	query := bson.M{}

	if filter.ProvinceID != nil {
		query["province_id"] = *filter.ProvinceID
	}
	if filter.DistrictID != nil {
		query["district_id"] = *filter.DistrictID
	}
	if minBeds := filter.MinBeds(); minBeds > 0 {
		query["beds"] = bson.M{"$gte": minBeds}
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.MinPrice != nil || filter.MaxPrice != nil {
		price := bson.M{}
		if filter.MinPrice != nil {
			price["$gte"] = *filter.MinPrice
		}
		if filter.MaxPrice != nil {
			price["$lte"] = *filter.MaxPrice
		}
		query["price_per_night"] = price
	}
	if len(filter.Amenities) > 0 {
		query["amenities"] = bson.M{"$all": filter.Amenities}
	}

	return query
}

func (r *mongoListingRepository) TryReserveRoom(ctx context.Context, listingID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, listingID)
	}

	// Compare-and-decrement in a single statement: the predicate and the
	// decrement are evaluated atomically on the row.
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "rooms_available": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"rooms_available": -1}},
	)
	if err != nil {
		return fmt.Errorf("failed to reserve room: %w", err)
	}

	if result.ModifiedCount == 0 {
		return listingserrors.ErrRoomsExhausted
	}
	return nil
}

func (r *mongoListingRepository) ReleaseRoom(ctx context.Context, listingID string) error {
	return r.ReleaseRooms(ctx, listingID, 1)
}

func (r *mongoListingRepository) ReleaseRooms(ctx context.Context, listingID string, n int) error {
	if n <= 0 {
		return nil
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, listingID)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"rooms_available": n}},
	)
	if err != nil {
		return fmt.Errorf("failed to release rooms: %w", err)
	}

	if result.MatchedCount == 0 {
		return listingserrors.ErrNotFound
	}
	return nil
}

func (r *mongoListingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

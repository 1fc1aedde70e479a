package testutil

import (
	"context"
	"testing"
	"time"

	"staybook/pkg/config"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const cleanupTimeout = 10 * time.Second

// CleanDatabase drops the collections the booking engine writes to, leaving
// each test a blank world.
func CleanDatabase(t *testing.T, cfg *config.Config) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	for _, name := range []string{"Listings", "Reservations", "Users"} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			t.Fatalf("failed to drop %s: %v", name, err)
		}
	}
}

// SeedListing inserts a listing fixture and returns its id.
func SeedListing(t *testing.T, cfg *config.Config, rooms int) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	doc := bson.M{
		"name":            "Integration Test Villa",
		"type":            "villa",
		"price_per_night": 180.0,
		"beds":            3,
		"rooms_available": rooms,
		"created_at":      time.Now(),
	}
	res, err := cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection("Listings").InsertOne(ctx, doc)
	if err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex()
}

// SeedUser inserts a user fixture and returns its id.
func SeedUser(t *testing.T, cfg *config.Config) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	doc := bson.M{
		"email":      "guest@example.com",
		"name":       "Test Guest",
		"created_at": time.Now(),
	}
	res, err := cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection("Users").InsertOne(ctx, doc)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex()
}

// RoomsAvailable reads the raw counter straight from storage.
func RoomsAvailable(t *testing.T, cfg *config.Config, listingID string) int {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		t.Fatalf("bad listing id: %v", err)
	}

	var listing model.Listing
	err = cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection("Listings").
		FindOne(ctx, bson.M{"_id": oid}).Decode(&listing)
	if err != nil {
		t.Fatalf("failed to read listing: %v", err)
	}
	return listing.RoomsAvailable
}

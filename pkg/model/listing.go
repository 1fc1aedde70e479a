package model

import (
	"time"
)

// Listing is a bookable property with a single fungible room pool.
// RoomsAvailable is the sole capacity counter; it is only ever changed
// through the listing repository's atomic conditional update primitives.
type Listing struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name           string    `json:"name" bson:"name" validate:"required,min=2,max=150"`
	Type           string    `json:"type" bson:"type" validate:"required,min=2,max=50"`
	Desc           string    `json:"desc,omitempty" bson:"desc,omitempty" validate:"omitempty,max=2000"`
	PricePerNight  float64   `json:"price_per_night" bson:"price_per_night" validate:"required,gt=0"`
	Beds           int       `json:"beds" bson:"beds" validate:"required,min=1,max=50"`
	RoomsAvailable int       `json:"rooms_available" bson:"rooms_available" validate:"min=0"`
	ProvinceID     int       `json:"province_id,omitempty" bson:"province_id,omitempty"`
	DistrictID     int       `json:"district_id,omitempty" bson:"district_id,omitempty"`
	Amenities      []string  `json:"amenities,omitempty" bson:"amenities,omitempty"`
	ImageURLs      []string  `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	Thumbnail      string    `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	AvgRating      float64   `json:"avg_rating" bson:"avg_rating"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// SearchFilter is the caller-supplied listing search input. Date fields are
// optional: when both are present they define the requested booking window,
// otherwise availability is judged against currently-or-future occupying
// reservations.
type SearchFilter struct {
	ProvinceID *int       `json:"province_id,omitempty"`
	DistrictID *int       `json:"district_id,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Guests     int        `json:"guests,omitempty" validate:"omitempty,min=1,max=100"`
	MinPrice   *float64   `json:"min_price,omitempty" validate:"omitempty,gte=0"`
	MaxPrice   *float64   `json:"max_price,omitempty" validate:"omitempty,gte=0"`
	Type       string     `json:"type,omitempty" validate:"omitempty,max=50"`
	Amenities  []string   `json:"amenities,omitempty"`
}

// MinBeds derives the bed requirement from the guest count, two guests per
// bed, rounded up. Zero means no constraint.
func (f *SearchFilter) MinBeds() int {
	if f.Guests <= 0 {
		return 0
	}
	return (f.Guests + 1) / 2
}

// ListingAvailability is a search result: the listing plus the number of
// rooms actually free for the requested window. AvailableRooms can be lower
// than the raw counter because holds that overlap the window are subtracted
// from it.
type ListingAvailability struct {
	Listing        *Listing `json:"listing"`
	AvailableRooms int      `json:"available_rooms"`
}

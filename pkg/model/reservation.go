package model

import (
	"time"
)

// Status is the lifecycle state of a reservation. ACTIVE and BLOCKED hold a
// room; CANCELLED and COMPLETED are terminal and never revisited.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusBlocked   Status = "BLOCKED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Occupying reports whether a reservation in state s holds a room against the
// listing counter.
func (s Status) Occupying() bool {
	return s == StatusActive || s == StatusBlocked
}

// Transition is the outcome of a state change: the next status and whether
// exactly one room must be returned to the listing counter as part of the
// same transaction. Keeping the side effect on the transition value is what
// makes the consume/free balance checkable in one place.
type Transition struct {
	Next     Status
	FreeRoom bool
}

// CancelTransition computes the transition for a cancel request against the
// freshly loaded current status. ok is false when the reservation is already
// terminal, in which case the caller must treat the call as a no-op.
func CancelTransition(current Status) (Transition, bool) {
	if current.Terminal() {
		return Transition{}, false
	}
	return Transition{Next: StatusCancelled, FreeRoom: current.Occupying()}, true
}

// UnblockTransition computes the transition for an admin unblock. Only
// BLOCKED reservations move: past their end date they complete, otherwise
// they cancel, and either way the held room is freed. ok is false for any
// other current status.
func UnblockTransition(current Status, endDate, now time.Time) (Transition, bool) {
	if current != StatusBlocked {
		return Transition{}, false
	}
	next := StatusCancelled
	if endDate.Before(now) {
		next = StatusCompleted
	}
	return Transition{Next: next, FreeRoom: true}, true
}

// ExpireTransition computes the transition the reconciler applies to a
// time-expired reservation. Only ACTIVE reservations past their end date
// expire; BLOCKED reservations are left for an explicit admin unblock even
// when their end date has passed.
func ExpireTransition(current Status, endDate, now time.Time) (Transition, bool) {
	if current != StatusActive || !endDate.Before(now) {
		return Transition{}, false
	}
	return Transition{Next: StatusCompleted, FreeRoom: true}, true
}

// Reservation is a guest booking or an administrative hold on one room of a
// listing. Dates form a half-open interval: StartDate inclusive, EndDate
// exclusive at day granularity. Rows are never deleted; terminal states are
// the historical record.
type Reservation struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ListingID       string    `json:"listing_id" bson:"listing_id" validate:"required,mongodb"`
	UserID          string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	StartDate       time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" bson:"end_date" validate:"required,gtfield=StartDate"`
	Status          Status    `json:"status" bson:"status" validate:"required,oneof=ACTIVE BLOCKED CANCELLED COMPLETED"`
	ChargeID        string    `json:"charge_id" bson:"charge_id"`
	DaysDifference  int       `json:"days_difference" bson:"days_difference"`
	ReservedDates   []int     `json:"reserved_dates" bson:"reserved_dates"`
	SpecialRequests string    `json:"special_requests,omitempty" bson:"special_requests,omitempty"`
	ContactPhone    string    `json:"contact_phone,omitempty" bson:"contact_phone,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// ReservationInput is a guest booking request. The acting user comes from
// the request context, never from the payload.
type ReservationInput struct {
	ListingID       string    `json:"listing_id" validate:"required,mongodb"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	ChargeID        string    `json:"charge_id" validate:"required,min=1,max=200"`
	SpecialRequests string    `json:"special_requests" validate:"omitempty,max=1000"`
	ContactPhone    string    `json:"contact_phone" validate:"omitempty,max=20"`
}

// BlockInput is an administrative hold request. No charge is taken; a
// synthetic charge id is recorded instead.
type BlockInput struct {
	ListingID string    `json:"listing_id" validate:"required,mongodb"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Reason    string    `json:"reason" validate:"omitempty,max=1000"`
}

// DaysBetween returns the number of whole days in the half-open interval
// [start, end). Partial trailing days round up so a stay always covers at
// least one night.
func DaysBetween(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	d := end.Sub(start)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// ReservedDayIDs expands [start, end) into per-day identifiers in YYYYMMDD
// form, for display and audit.
func ReservedDayIDs(start, end time.Time) []int {
	days := DaysBetween(start, end)
	ids := make([]int, 0, days)
	cur := start
	for i := 0; i < days; i++ {
		ids = append(ids, cur.Year()*10000+int(cur.Month())*100+cur.Day())
		cur = cur.AddDate(0, 0, 1)
	}
	return ids
}

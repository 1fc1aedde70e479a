package model

import (
	"testing"
	"time"
)

func TestCancelTransition(t *testing.T) {
	tests := []struct {
		name     string
		current  Status
		ok       bool
		next     Status
		freeRoom bool
	}{
		{"active frees the room", StatusActive, true, StatusCancelled, true},
		{"blocked frees the room", StatusBlocked, true, StatusCancelled, true},
		{"cancelled is a no-op", StatusCancelled, false, "", false},
		{"completed is a no-op", StatusCompleted, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := CancelTransition(tt.current)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if tr.Next != tt.next {
				t.Errorf("next = %s, want %s", tr.Next, tt.next)
			}
			if tr.FreeRoom != tt.freeRoom {
				t.Errorf("freeRoom = %v, want %v", tr.FreeRoom, tt.freeRoom)
			}
		})
	}
}

func TestUnblockTransition(t *testing.T) {
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 5)
	past := now.AddDate(0, 0, -5)

	tr, ok := UnblockTransition(StatusBlocked, future, now)
	if !ok || tr.Next != StatusCancelled || !tr.FreeRoom {
		t.Errorf("unblock before end date: got (%+v, %v), want cancelled+free", tr, ok)
	}

	tr, ok = UnblockTransition(StatusBlocked, past, now)
	if !ok || tr.Next != StatusCompleted || !tr.FreeRoom {
		t.Errorf("unblock after end date: got (%+v, %v), want completed+free", tr, ok)
	}

	for _, s := range []Status{StatusActive, StatusCancelled, StatusCompleted} {
		if _, ok := UnblockTransition(s, past, now); ok {
			t.Errorf("unblock on %s should be a no-op", s)
		}
	}
}

func TestExpireTransition(t *testing.T) {
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	tr, ok := ExpireTransition(StatusActive, past, now)
	if !ok || tr.Next != StatusCompleted || !tr.FreeRoom {
		t.Errorf("expired active: got (%+v, %v), want completed+free", tr, ok)
	}

	if _, ok := ExpireTransition(StatusActive, future, now); ok {
		t.Error("active with future end date must not expire")
	}

	// Blocked holds past their end date stay blocked until an explicit admin
	// unblock; the reconciler leaves them alone.
	if _, ok := ExpireTransition(StatusBlocked, past, now); ok {
		t.Error("blocked reservations are never expired by the reconciler")
	}
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	if got := DaysBetween(start, start.AddDate(0, 0, 5)); got != 5 {
		t.Errorf("5 whole days: got %d", got)
	}
	if got := DaysBetween(start, start.Add(36*time.Hour)); got != 2 {
		t.Errorf("partial trailing day rounds up: got %d", got)
	}
	if got := DaysBetween(start, start); got != 0 {
		t.Errorf("empty interval: got %d", got)
	}
	if got := DaysBetween(start, start.AddDate(0, 0, -1)); got != 0 {
		t.Errorf("inverted interval: got %d", got)
	}
}

func TestReservedDayIDs(t *testing.T) {
	start := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	got := ReservedDayIDs(start, end)
	want := []int{20260130, 20260131, 20260201}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusActive.Occupying() || !StatusBlocked.Occupying() {
		t.Error("active and blocked must occupy a room")
	}
	if StatusCancelled.Occupying() || StatusCompleted.Occupying() {
		t.Error("terminal states must not occupy a room")
	}
	if StatusActive.Terminal() || StatusBlocked.Terminal() {
		t.Error("active and blocked are not terminal")
	}
	if !StatusCancelled.Terminal() || !StatusCompleted.Terminal() {
		t.Error("cancelled and completed are terminal")
	}
}

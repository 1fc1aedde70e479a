// Package audit consumes reservation lifecycle events and writes them to the
// structured log as an append-only operational trail. The booking flow never
// depends on it; losing the auditor loses visibility, not correctness.
package audit

import (
	"context"
	"encoding/json"

	"staybook/internal/reservations/events"
	"staybook/pkg/kafka"
	"staybook/pkg/logger"
)

type Auditor struct {
	log *logger.Logger
}

func NewAuditor(log *logger.Logger) *Auditor {
	return &Auditor{log: log}
}

// Handle is the consumer callback. Malformed payloads are permanent failures
// and go straight to the DLQ instead of burning retries.
func (a *Auditor) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.ReservationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return kafka.NewPermanentError("malformed reservation event", err)
	}

	a.log.Info("Reservation event",
		"event_type", msg.GetEventType(),
		"event_id", msg.GetEventID(),
		"reservation_id", event.ReservationID,
		"listing_id", event.ListingID,
		"user_id", event.UserID,
		"status", event.Status,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)
	return nil
}

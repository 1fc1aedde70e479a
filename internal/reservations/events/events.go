// Package events publishes reservation lifecycle changes for downstream
// consumers (notifications, analytics). Publishing is best effort and happens
// after the storage transaction commits; a failed publish never rolls back a
// reservation.
package events

import (
	"context"
	"staybook/pkg/kafka"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"time"
)

const (
	Topic    = "reservation-events"
	DLQTopic = "reservation-events-dlq"

	Source = "reservations"
)

type Type string

const (
	TypeCreated   Type = "reservation.created"
	TypeCancelled Type = "reservation.cancelled"
	TypeBlocked   Type = "reservation.blocked"
	TypeUnblocked Type = "reservation.unblocked"
	TypeCompleted Type = "reservation.completed"
)

type ReservationEvent struct {
	Type          Type         `json:"type"`
	ReservationID string       `json:"reservation_id"`
	ListingID     string       `json:"listing_id"`
	UserID        string       `json:"user_id"`
	Status        model.Status `json:"status"`
	StartDate     time.Time    `json:"start_date"`
	EndDate       time.Time    `json:"end_date"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

type Publisher interface {
	ReservationChanged(ctx context.Context, typ Type, reservation *model.Reservation)
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *kafkaPublisher) ReservationChanged(ctx context.Context, typ Type, reservation *model.Reservation) {
	event := ReservationEvent{
		Type:          typ,
		ReservationID: reservation.ID,
		ListingID:     reservation.ListingID,
		UserID:        reservation.UserID,
		Status:        reservation.Status,
		StartDate:     reservation.StartDate,
		EndDate:       reservation.EndDate,
		OccurredAt:    time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(reservation.ListingID).
		WithValue(event).
		WithEventType(string(typ)).
		WithSource(Source).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish reservation event",
			"type", typ,
			"reservation_id", reservation.ID,
			"error", err,
		)
	}
}

// noopPublisher is used when no Kafka brokers are configured.
type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) ReservationChanged(context.Context, Type, *model.Reservation) {}

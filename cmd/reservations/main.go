package main

import (
	"staybook/internal/identity"
	listingsrepository "staybook/internal/listings/repository"
	"staybook/internal/reservations/events"
	"staybook/internal/reservations/handler"
	"staybook/internal/reservations/repository"
	"staybook/internal/reservations/service"
	"staybook/internal/reservations/validator"
	"staybook/pkg/app"
	"staybook/pkg/config"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")
	reservationService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ReservationService {
	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	ledger := listingsrepository.NewMongoListingRepository(cfg)
	userStore := identity.NewMongoUserStore(cfg)

	reservationService := service.NewReservationService(
		reservationRepo,
		ledger,
		userStore,
		newEventPublisher(cfg),
		reservationValidator,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return reservationService
}

// newEventPublisher falls back to a no-op publisher when the producer cannot
// be constructed, so a broken Kafka setup degrades to unpublished events
// instead of a dead service.
func newEventPublisher(cfg *config.Config) events.Publisher {
	producer, err := kafka.NewProducer(kafka_config.Load(), events.Topic, events.DLQTopic)
	if err != nil {
		cfg.Log.Error("Failed to create Kafka producer, events disabled", "error", err)
		return events.NewNoopPublisher()
	}
	return events.NewKafkaPublisher(producer, cfg.Log)
}

package main

import (
	"staybook/internal/identity"
	"staybook/internal/listings/handler"
	"staybook/internal/listings/repository"
	"staybook/internal/listings/service"
	"staybook/internal/listings/validator"
	"staybook/internal/reservations/events"
	reservationsrepository "staybook/internal/reservations/repository"
	reservationsservice "staybook/internal/reservations/service"
	reservationsvalidator "staybook/internal/reservations/validator"
	"staybook/pkg/app"
	"staybook/pkg/config"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
)

const ServiceName = "listings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Listings service")
	listingService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewListingHandler(listingService, cfg.Log))
	serverApp.Run()
}

// initServices wires the listing service together with the reservation-side
// collaborators the search path depends on: the reconciler that settles
// expired reservations before any availability read, and the overlap counter
// that makes search date-aware.
func initServices(cfg *config.Config) service.ListingService {
	listingValidator := validator.NewListingValidator(cfg.Log)
	listingRepo := repository.NewMongoListingRepository(cfg)
	reservationRepo := reservationsrepository.NewMongoReservationRepository(cfg)
	userStore := identity.NewMongoUserStore(cfg)

	reconciler := reservationsservice.NewReservationService(
		reservationRepo,
		listingRepo,
		userStore,
		newEventPublisher(cfg),
		reservationsvalidator.NewReservationValidator(cfg.Log),
		cfg,
	)

	listingService := service.NewListingService(
		listingRepo,
		reservationRepo,
		reconciler,
		userStore,
		listingValidator,
		cfg,
	)

	cfg.Log.Info("Listing service initialized", "database", cfg.MongoDatabaseName)
	return listingService
}

func newEventPublisher(cfg *config.Config) events.Publisher {
	producer, err := kafka.NewProducer(kafka_config.Load(), events.Topic, events.DLQTopic)
	if err != nil {
		cfg.Log.Error("Failed to create Kafka producer, events disabled", "error", err)
		return events.NewNoopPublisher()
	}
	return events.NewKafkaPublisher(producer, cfg.Log)
}

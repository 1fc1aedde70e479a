package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"staybook/internal/audit"
	"staybook/internal/reservations/events"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
	kafka_middleware "staybook/pkg/kafka/middleware"
	"staybook/pkg/logger"
)

const (
	ServiceName   = "auditor"
	ConsumerGroup = "reservation-audit"
)

func main() {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   ServiceName,
	})

	auditor := audit.NewAuditor(log)
	consumer, err := kafka.NewConsumer(kafka_config.Load(), events.Topic, ConsumerGroup, events.DLQTopic, auditor.Handle)
	if err != nil {
		log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware())
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		sig := <-shutdown
		log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	log.Info("Starting reservation event auditor", "topic", events.Topic, "group", ConsumerGroup)
	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		log.Error("Failed to close consumer", "error", err)
	}
	log.Info("Auditor stopped")
}

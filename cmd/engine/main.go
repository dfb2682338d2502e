package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	"bokari/internal/availability"
	"bokari/internal/bookings/repository"
	bookingservice "bokari/internal/bookings/service"
	"bokari/internal/bookings/validator"
	"bokari/internal/calendar"
	enginehandler "bokari/internal/engine/handler"
	engineservice "bokari/internal/engine/service"
	"bokari/internal/locks"
	"bokari/internal/notify"
	"bokari/internal/reconcile"
	"bokari/pkg/app"
	"bokari/pkg/client"
	"bokari/pkg/config"
	"bokari/pkg/kafka"
	kafkaconfig "bokari/pkg/kafka/config"
	kafkamiddleware "bokari/pkg/kafka/middleware"
	"bokari/pkg/model"
)

const ServiceName = "engine"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting availability and booking engine")

	mongoClient := client.NewMongoClient(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)

	serverApp := app.NewApplication()

	// Calendar provider and availability.
	provider := calendar.NewClient(calendar.ClientConfig{
		BaseURL:    cfg.CalendarBaseURL,
		APIKey:     cfg.CalendarAPIKey,
		Timeout:    cfg.CalendarTimeout,
		MaxRetries: cfg.CalendarMaxRetries,
	}, cfg.Log)

	bookingRepo := repository.NewMongoBookingRepository(
		mongoClient.Client,
		cfg.MongoDatabaseName,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
	)

	generator := availability.NewGenerator(cfg.Location, nil)
	resolver := availability.NewResolver(provider, bookingRepo, generator, cfg.Log)

	// Optional declared schedule served while the calendar source is down.
	var fallback engineservice.SlotResolver
	if cfg.FallbackScheduleRRule != "" {
		fallback = availability.NewFallbackSchedule(model.AvailabilityWindow{
			RRule:           cfg.FallbackScheduleRRule,
			StartTime:       cfg.FallbackScheduleStart,
			EndTime:         cfg.FallbackScheduleEnd,
			SlotDurationMin: cfg.DefaultSlotDurationMin,
		}, generator, bookingRepo, cfg.Log)
	}

	// Advisory slot locks.
	lockManager := locks.NewManager(cfg.LockSweepInterval, nil)
	serverApp.OnShutdown(lockManager.Stop)

	// Notifications.
	producer, err := kafka.NewProducer(kafkaconfig.Load())
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	dispatcher := notify.NewDispatcher(producer, 64, cfg.Log)
	serverApp.OnShutdown(func() {
		dispatcher.Stop()
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	// Booking coordination.
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingSvc := bookingservice.NewBookingService(
		bookingRepo,
		lockManager,
		resolver,
		provider,
		dispatcher,
		bookingValidator,
		cfg,
	)

	// Reconciliation: every pass, whether read-triggered, forced or
	// interval-driven, goes through the cache so passes never overlap.
	reconciler := reconcile.NewService(bookingRepo, provider, dispatcher, cfg.ReconcileLookahead, cfg.Log)
	syncCache := reconcile.NewSyncCache(reconciler, cfg.SyncCacheTTL, cfg.Log)

	reconcileCtx, stopReconcile := context.WithCancel(context.Background())
	go syncCache.Run(reconcileCtx, cfg.ReconcileInterval)
	serverApp.OnShutdown(stopReconcile)

	engineSvc := engineservice.NewEngineService(resolver, fallback, syncCache, bookingSvc, cfg)
	engineHandler := enginehandler.NewEngineHandler(engineSvc, cfg.Location, cfg.Log)

	serverApp.SetApp(cfg, mongoClient.Client, engineHandler)
	serverApp.Run()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mongoClient.Disconnect(shutdownCtx, cfg.Log)
}

package main

import (
	availabilityhandler "fitbook/internal/availability/handler"
	availabilityrepo "fitbook/internal/availability/repository"
	availabilityservice "fitbook/internal/availability/service"
	availabilityvalidator "fitbook/internal/availability/validator"
	bookinghandler "fitbook/internal/booking/handler"
	bookingrepo "fitbook/internal/booking/repository"
	bookingservice "fitbook/internal/booking/service"
	bookingvalidator "fitbook/internal/booking/validator"
	entitlementrepo "fitbook/internal/entitlement/repository"
	entitlementservice "fitbook/internal/entitlement/service"
	"fitbook/internal/notify"
	recurringhandler "fitbook/internal/recurring/handler"
	recurringrepo "fitbook/internal/recurring/repository"
	recurringservice "fitbook/internal/recurring/service"
	"fitbook/pkg/app"
	"fitbook/pkg/config"
	"fitbook/pkg/contracts"
	"fitbook/pkg/kafka"
	kafka_config "fitbook/pkg/kafka/config"
)

const ServiceName = "fitbook"

func main() {
	cfg := config.Load(ServiceName)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	// Log all configuration values
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Fitbook service")
	cfg.SetMongo()

	serverApp := app.NewApplication(cfg)
	dispatcher := initDispatcher(cfg, serverApp)
	serverApp.SetApp(initHandlers(cfg, dispatcher)...)
	serverApp.Run()
}

func initDispatcher(cfg *config.Config, serverApp *app.Application) notify.Dispatcher {
	var producer *kafka.Producer
	if cfg.NotificationsEnabled {
		var err error
		producer, err = kafka.NewProducer(kafka_config.Load(), cfg.NotificationTopic, cfg.NotificationDLQTopic)
		if err != nil {
			cfg.Log.Fatal("Failed to create notification producer", "error", err)
		}
		serverApp.OnShutdown(func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close notification producer", "error", err)
			}
		})
	}

	dispatcher := notify.NewKafkaDispatcher(producer, cfg)
	serverApp.OnShutdown(dispatcher.Close)
	return dispatcher
}

func initHandlers(cfg *config.Config, dispatcher notify.Dispatcher) []contracts.Handler {
	templateRepo := availabilityrepo.NewMongoTemplateRepository(cfg)
	exceptionRepo := availabilityrepo.NewMongoExceptionRepository(cfg)
	packRepo := entitlementrepo.NewMongoPackRepository(cfg)
	subscriptionRepo := entitlementrepo.NewMongoSubscriptionRepository(cfg)
	creditRepo := entitlementrepo.NewMongoCreditRepository(cfg)
	sessionRepo := bookingrepo.NewMongoSessionRepository(cfg)
	lockRepo := bookingrepo.NewSessionLockRepository(cfg)
	partyRepo := bookingrepo.NewMongoPartyRepository(cfg)
	scheduleRepo := recurringrepo.NewMongoScheduleRepository(cfg)
	preferenceRepo := recurringrepo.NewMongoPreferenceRepository(cfg)

	availabilitySvc := availabilityservice.NewAvailabilityService(
		templateRepo,
		exceptionRepo,
		availabilityvalidator.NewAvailabilityValidator(cfg.Log),
		cfg,
	)
	entitlementSvc := entitlementservice.NewEntitlementService(
		packRepo,
		subscriptionRepo,
		creditRepo,
		sessionRepo,
		cfg,
	)
	conflictChecker := bookingservice.NewConflictChecker(sessionRepo, availabilitySvc, cfg)
	bookingSvc := bookingservice.NewBookingService(
		sessionRepo,
		lockRepo,
		partyRepo,
		bookingvalidator.NewSessionValidator(cfg.Log),
		conflictChecker,
		entitlementSvc,
		dispatcher,
		cfg,
	)
	recurringSvc := recurringservice.NewRecurringService(
		scheduleRepo,
		preferenceRepo,
		sessionRepo,
		lockRepo,
		conflictChecker,
		entitlementSvc,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		availabilityhandler.NewAvailabilityHandler(availabilitySvc, cfg.Log),
		bookinghandler.NewSessionHandler(bookingSvc, cfg.Log),
		recurringhandler.NewRecurringHandler(recurringSvc, cfg.Log),
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	authsvc "weekstay/internal/app/services/auth"
	bookingsvc "weekstay/internal/app/services/booking"
	housesvc "weekstay/internal/app/services/house"
	usersvc "weekstay/internal/app/services/user"
	domainbooking "weekstay/internal/domain/booking"
	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
	"weekstay/internal/infra/broker/kafka"
	"weekstay/internal/infra/config"
	mongodb "weekstay/internal/infra/db/mongo"
	ginserver "weekstay/internal/infra/http/gin"
	"weekstay/internal/infra/notify"
	"weekstay/internal/infra/obs"
	infraoutbox "weekstay/internal/infra/outbox"
	"weekstay/internal/infra/security"
	"weekstay/internal/infra/storage/s3"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Close(closeCtx)
	}()

	bookingRepo := mongodb.NewBookingRepository(client.DB)
	houseRepo := mongodb.NewHouseRepository(client.DB)
	userRepo := mongodb.NewUserRepository(client.DB)
	outboxStore := infraoutbox.NewStore(client.DB)

	policy := domainbooking.WeekPolicy{
		CheckInWeekday:  cfg.CheckInWeekday,
		CheckOutWeekday: cfg.CheckOutWeekday,
		WeekLength:      cfg.WeekLength,
	}

	var photos housesvc.PhotoStore = s3.NoopUploader{}
	if uploader, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger); err != nil {
		logger.Warn("photo storage unavailable", "error", err)
	} else {
		photos = uploader
	}

	hasher := security.BcryptHasher{}
	tokens := security.JWTCodec{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL}

	authService := &authsvc.Service{Users: userRepo, Passwords: hasher, Tokens: tokens, Logger: logger}
	bookingService := &bookingsvc.Service{
		Bookings: bookingRepo,
		Houses:   houseRepo,
		Users:    userRepo,
		Outbox:   outboxStore,
		Policy:   policy,
		Logger:   logger,
	}
	houseService := &housesvc.Service{
		Houses:   houseRepo,
		Bookings: bookingRepo,
		Users:    userRepo,
		Photos:   photos,
		Logger:   logger,
	}
	userService := &usersvc.Service{
		Users:     userRepo,
		Houses:    houseRepo,
		Passwords: hasher,
		Logger:    logger,
	}

	if err := bootstrapAdmin(ctx, userService, userRepo, logger); err != nil {
		logger.Error("admin bootstrap failed", "error", err)
		os.Exit(1)
	}

	startEventPipeline(ctx, cfg, outboxStore, userRepo, houseRepo, logger)

	handlers := ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Auth: authService, Users: userService},
		House:          ginserver.HouseHandler{Houses: houseService},
		Booking:        ginserver.BookingHandler{Bookings: bookingService},
		User:           ginserver.UserHandler{Users: userService},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		},
	}, handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

// bootstrapAdmin provisions the first administrator from the environment.
// Accounts are admin-managed, so a fresh install needs one seeded login.
func bootstrapAdmin(ctx context.Context, users *usersvc.Service, repo domainuser.Repository, logger *slog.Logger) error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	email := os.Getenv("ADMIN_EMAIL")
	if username == "" || password == "" || email == "" {
		return nil
	}
	admins, err := repo.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}
	if _, err := users.Create(ctx, usersvc.CreateParams{
		Username: username,
		Email:    email,
		Password: password,
		Role:     domainuser.RoleAdmin,
	}); err != nil {
		return err
	}
	logger.Info("bootstrap admin created", "username", username)
	return nil
}

// startEventPipeline runs the outbox relay and the notification consumer.
// Both are optional: without Kafka brokers bookings still work, they just do
// not produce emails.
func startEventPipeline(ctx context.Context, cfg config.Config, store *infraoutbox.Store, users domainuser.Repository, houses domainhouse.Repository, logger *slog.Logger) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("kafka brokers not configured, event pipeline disabled")
		return
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		logger.Error("kafka producer init failed", "error", err)
		return
	}
	worker := &infraoutbox.Worker{
		Store:       store,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}
	go func() {
		defer producer.Close()
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	mailer := notify.NewMailer(cfg.MailerAPIKey, cfg.MailerFromName, cfg.MailerFromEmail)
	if !mailer.Enabled() {
		logger.Warn("mailer not configured, booking emails disabled")
		return
	}
	handler := &notify.BookingEventHandler{
		Users:  users,
		Houses: houses,
		Sender: mailer,
		Logger: logger,
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, "weekstay-notifier", nil, handler, logger)
	if err != nil {
		logger.Error("kafka consumer init failed", "error", err)
		return
	}
	topic := cfg.KafkaTopicPrefix + "booking.events.v1"
	go func() {
		defer consumer.Close()
		if err := consumer.Run(ctx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification consumer stopped", "error", err)
		}
	}()
}

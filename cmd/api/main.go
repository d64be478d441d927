package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-homeservices-api/internal/config"
	"github.com/go-homeservices-api/internal/infrastructure/dynamo"
	"github.com/go-homeservices-api/internal/infrastructure/events"
	jwtinfra "github.com/go-homeservices-api/internal/infrastructure/jwt"
	"github.com/go-homeservices-api/internal/infrastructure/mailersend"
	"github.com/go-homeservices-api/internal/infrastructure/smtp"
	"github.com/go-homeservices-api/internal/infrastructure/sns"
	transporthttp "github.com/go-homeservices-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	setupLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		fatal("dynamodb client", err)
	}
	// Creates tables and GSIs that don't exist yet.
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	// Tokens are required for every authenticated route.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		fatal("jwt provider", err)
	}

	var mailer transporthttp.Mailer = smtp.NewMailer(cfg)
	if ms := mailersend.NewMailer(cfg); ms != nil {
		mailer = ms
		slog.Info("email delivery via mailersend")
	}

	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(ctx, cfg); err == nil {
		smsSender = sender
	} else {
		slog.Warn("SNS sender not available, booking SMS disabled", "error", err)
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		if p, err := events.NewNATSPublisher(cfg.NATSURL); err == nil {
			publisher = p
		} else {
			slog.Warn("NATS not available, events disabled", "error", err)
		}
	}
	defer publisher.Close()

	deps := &transporthttp.Deps{
		OTPRepo:      dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs),
		CouponRepo:   dynamo.NewCouponRepo(dynamoClient, cfg.DynamoTables.Coupons),
		UserRepo:     dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		BookingRepo:  dynamo.NewBookingRepo(dynamoClient, cfg.DynamoTables.Bookings),
		SettingsRepo: dynamo.NewSettingsRepo(dynamoClient, cfg.DynamoTables.Settings),
		Mailer:       mailer,
		SMSSender:    smsSender,
		Publisher:    publisher,
		JWTProvider:  jwtProvider,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
		return
	}
	slog.Info("server stopped")
}

func setupLogger(env string) {
	var h slog.Handler
	if env == "production" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

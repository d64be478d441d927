package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-homeservices-api/internal/application/booking"
	"github.com/go-homeservices-api/internal/application/coupon"
	"github.com/go-homeservices-api/internal/application/otp"
	"github.com/go-homeservices-api/internal/application/session"
	"github.com/go-homeservices-api/internal/application/settings"
	"github.com/go-homeservices-api/internal/application/user"
	"github.com/go-homeservices-api/internal/config"
	"github.com/go-homeservices-api/internal/domain"
	"github.com/go-homeservices-api/internal/infrastructure/events"
	jwtinfra "github.com/go-homeservices-api/internal/infrastructure/jwt"
	"github.com/go-homeservices-api/internal/infrastructure/sns"
	"github.com/go-homeservices-api/internal/transport/http/handler"
	appmiddleware "github.com/go-homeservices-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	OTPRepo      OTPRepository
	CouponRepo   CouponRepository
	UserRepo     UserRepository
	BookingRepo  BookingRepository
	SettingsRepo SettingsRepository
	Mailer       Mailer
	SMSSender    sns.SMSSender // nil disables booking SMS
	Publisher    events.Publisher
	JWTProvider  *jwtinfra.Provider
}

// NewRouter builds and returns the application router. ctx bounds the
// rate limiter's background cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10, applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10, cfg.TrustProxyHeaders)

	otpSvc := otp.NewService(otp.ServiceDeps{
		OTPRepo:   deps.OTPRepo,
		Mailer:    deps.Mailer,
		Publisher: deps.Publisher,
		Config:    cfg.OTP,
	})
	couponSvc := coupon.NewService(coupon.ServiceDeps{
		CouponRepo: deps.CouponRepo,
		Publisher:  deps.Publisher,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:    deps.UserRepo,
		OTP:         otpSvc,
		JWTProvider: deps.JWTProvider,
		AdminEmails: cfg.AdminEmails,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:    deps.UserRepo,
		JWTProvider: deps.JWTProvider,
	})
	bookingDeps := booking.ServiceDeps{
		BookingRepo: deps.BookingRepo,
		Coupons:     couponSvc,
		UserRepo:    deps.UserRepo,
		Publisher:   deps.Publisher,
	}
	if deps.SMSSender != nil {
		bookingDeps.SMSSender = deps.SMSSender
	}
	bookingSvc := booking.NewService(bookingDeps)
	settingsSvc := settings.NewService(settings.ServiceDeps{SettingsRepo: deps.SettingsRepo})

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(otpSvc)
	userH := handler.NewUserHandler(userSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	couponH := handler.NewCouponHandler(couponSvc)
	bookingH := handler.NewBookingHandler(bookingSvc)
	settingsH := handler.NewSettingsHandler(settingsSvc)

	r.Route("/v1", func(r chi.Router) {
		// Public
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/otp/send", otpH.Send)
		r.With(sensitiveRL.Limit).Post("/otp/verify", otpH.Verify)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Get("/settings", settingsH.Get)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/me", userH.Me)
			r.Post("/coupons/validate", couponH.Validate)
			r.Post("/coupons/redeem", couponH.Redeem)
			r.Post("/bookings", bookingH.Create)
			r.Get("/bookings", bookingH.ListMine)
			r.Get("/bookings/{id}", bookingH.Get)

			// Admin
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Put("/users/{id}/enable", userH.SetEnabled)
				r.Post("/coupons", couponH.Create)
				r.Get("/coupons", couponH.List)
				r.Get("/coupons/{code}", couponH.Get)
				r.Put("/coupons/{code}", couponH.Update)
				r.Put("/bookings/{id}/status", bookingH.UpdateStatus)
				r.Put("/settings", settingsH.Update)
			})
		})
	})

	return r
}

package server

import (
	"errors"
	"log"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/auth"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/config"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/db"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/qrcode"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/rental"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/station"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/stream"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/transaction"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/trip"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       db.Querier
	Redis    *redis.Client
	Stream   *stream.Hub
	OTP      *auth.OTPService
	Stations *station.Service
}

func NewServer(cfg config.Config, pg db.Querier, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       pg,
		Redis:    redisClient,
		Stream:   stream.NewHub(redisClient),
		OTP:      auth.NewOTPService(redisClient, cfg.OTPTTL, auth.LogSender{}),
		Stations: station.NewService(pg),
	}

	registerRoutes(s)
	return s
}

// Close releases the stream hub's redis subscription.
func (s *Server) Close() {
	s.Stream.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	rentals := rental.NewService(s.DB, s.Stations, s.Stream, qrcode.NewValidator(s.Cfg.QRPrefix), s.Cfg.FarePerBlock)

	accounts := auth.NewService(s.Cfg.JWTSecret, s.DB, s.OTP)
	if s.Cfg.RedisAddr != "" {
		// A configured but unreachable redis must not turn OTP off.
		accounts.RequireOTP()
	}
	auth.RegisterRoutes(s.App.Group("/auth"), accounts, s.OTP)
	transaction.RegisterRoutes(s.App.Group("/query/transactions"), transaction.NewService(s.DB), jwtMiddleware)
	trip.RegisterRoutes(s.App.Group("/query/trips"), trip.NewService(s.DB), jwtMiddleware)
	station.RegisterRoutes(s.App.Group("/stations"), s.Stations)
	rental.RegisterRoutes(s.App.Group("/rentals"), rentals, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

// errorHandler renders every error as auth.ErrorResponse.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(auth.ErrorResponse{Status: code, Message: err.Error()})
}

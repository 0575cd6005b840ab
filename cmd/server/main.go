package main // Entry point package

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/shutterbloom/booking-api/internal/auth"
	"github.com/shutterbloom/booking-api/internal/config"
	"github.com/shutterbloom/booking-api/internal/database"
	"github.com/shutterbloom/booking-api/internal/handler"
	"github.com/shutterbloom/booking-api/internal/logger"
	mw "github.com/shutterbloom/booking-api/internal/middleware"
	"github.com/shutterbloom/booking-api/internal/queue"
	"github.com/shutterbloom/booking-api/internal/repository"
	"github.com/shutterbloom/booking-api/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	logger.Init(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(db, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewRefreshTokenRepo(db, cfg.RefreshTTLDays)
	eventRepo := repository.NewEventRepo(db)
	leadRepo := repository.NewLeadRepo(db)

	sessions := auth.NewSessionManager(cfg.JWTSecret, cfg.AccessTTLMin, userRepo, tokenRepo)

	// Rate limiting degrades gracefully: an unreachable Redis yields a nil
	// client and NewTokenBucket becomes a pass-through.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting disabled")
	}
	rateLimit := mw.NewTokenBucket(cfg.RateLimit, rdb)
	guard := mw.AccessGuard(cfg.JWTSecret, userRepo)

	// Background consumer delivering lead webhook jobs. Runs for the whole
	// process lifetime with its own reconnect loop.
	go queue.StartLeadRelayConsumer(cfg.AMQPURL)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(mw.TrustedHosts(cfg.AllowedHosts))
	e.Use(mw.CORS(cfg.AllowedOrigins))
	e.Use(mw.SecurityHeaders())

	router.Register(e, router.Deps{
		Auth:      handler.NewAuthHandler(cfg, userRepo, sessions),
		Events:    handler.NewEventHandler(eventRepo),
		Leads:     handler.NewLeadHandler(cfg, leadRepo),
		Guard:     guard,
		RateLimit: rateLimit,
	})

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/carepanel/carepanel/internal/config"
	"github.com/carepanel/carepanel/internal/domain/administrative"
	"github.com/carepanel/carepanel/internal/domain/auditevent"
	"github.com/carepanel/carepanel/internal/domain/clinical"
	"github.com/carepanel/carepanel/internal/domain/patient"
	"github.com/carepanel/carepanel/internal/domain/system"
	"github.com/carepanel/carepanel/internal/platform/auth"
	"github.com/carepanel/carepanel/internal/platform/cache"
	"github.com/carepanel/carepanel/internal/platform/db"
	"github.com/carepanel/carepanel/internal/platform/logging"
	"github.com/carepanel/carepanel/internal/platform/middleware"
)

const shutdownTimeout = 10 * time.Second

// app holds the long-lived dependencies the HTTP server is assembled from.
type app struct {
	pool      *pgxpool.Pool
	metrics   *middleware.Metrics
	patients  *patient.Service
	audit     *auditevent.Service
	tokens    *auth.TokenIssuer
	users     auth.UserStore
	passwords *auth.PasswordManager
	health    map[string]db.Pinger
}

func runServer(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closer := logging.New(cfg)
	defer closer.Close()

	// Database
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	metrics := middleware.NewMetrics()
	metrics.RegisterPool(pool)

	// Patient read cache
	health := map[string]db.Pinger{}
	patientCache := patient.NopCache()
	if cfg.RedisURL != "" {
		rc, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, patient cache disabled")
		} else {
			defer rc.Close()
			patientCache = patient.NewRedisCache(rc, cfg.PatientCacheTTL)
			health["redis"] = rc
			logger.Info().Dur("ttl", cfg.PatientCacheTTL).Msg("patient cache enabled")
		}
	}

	// Caller identities
	passwords := auth.NewPasswordManager(bcrypt.DefaultCost)
	users, err := auth.NewMemoryUserStore(passwords, auth.DemoCredentials())
	if err != nil {
		return err
	}

	a := &app{
		pool:    pool,
		metrics: metrics,
		patients: patient.NewService(
			patient.NewRepo(pool),
			db.NewTxRunner(pool),
			patient.WithCache(patientCache),
			patient.WithLogger(logger.With().Str("component", "patient").Logger()),
		),
		audit:     auditevent.NewService(auditevent.NewRepo(pool)),
		tokens:    auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.AccessTokenTTL()),
		users:     users,
		passwords: passwords,
		health:    health,
	}
	e := newServer(cfg, logger, a)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Str("version", version).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer builds the echo instance: global middleware, infrastructure
// routes and the /api/v1 surface.
func newServer(cfg *config.Config, logger zerolog.Logger, a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	e.Use(middleware.Sanitize(logger))
	e.Use(echomw.CORSWithConfig(corsConfig(cfg)))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	if a.metrics != nil {
		e.Use(a.metrics.Middleware())
	}
	e.Use(middleware.Audit(logger, auditRecorders(a)...))

	registerInfraRoutes(e, a)

	// Authenticated API. The rate limiter keys on the caller, so it runs
	// after token verification.
	apiV1 := e.Group("/api/v1",
		auth.JWTMiddleware(auth.JWTConfig{Tokens: a.tokens, Users: a.users, Skipper: auth.AuthSkipper}),
		middleware.RateLimit(rateLimitConfig(cfg)),
	)
	auth.NewHandler(a.tokens, a.users, a.passwords).RegisterRoutes(apiV1)
	clinical.NewHandler().RegisterRoutes(apiV1)
	administrative.NewHandler().RegisterRoutes(apiV1)
	system.NewHandler().RegisterRoutes(apiV1)

	// Routes that touch Postgres get a pinned per-request connection.
	data := apiV1.Group("", db.SessionMiddleware(a.pool))
	patient.NewHandler(a.patients).RegisterRoutes(data)
	auditevent.NewHandler(a.audit).RegisterRoutes(data)

	return e
}

func registerInfraRoutes(e *echo.Echo, a *app) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Healthcare Dashboard API"})
	})
	e.GET("/health", db.HealthHandler(a.pool, a.health))
	e.GET("/health/db", func(c echo.Context) error {
		return c.JSON(http.StatusOK, db.GetPoolStats(a.pool))
	})
	if a.metrics != nil {
		e.GET("/metrics", a.metrics.Handler())
	}
}

func auditRecorders(a *app) []middleware.AuditRecorder {
	var recs []middleware.AuditRecorder
	if a.audit != nil {
		recs = append(recs, a.audit)
	}
	if a.metrics != nil {
		recs = append(recs, a.metrics)
	}
	return recs
}

func corsConfig(cfg *config.Config) echomw.CORSConfig {
	return echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
	}
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
		rl.BurstSize = cfg.RateLimitBurst
	}
	return rl
}

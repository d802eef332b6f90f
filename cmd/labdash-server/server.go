package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/labdash/labdash/internal/config"
	"github.com/labdash/labdash/internal/domain/compliance"
	"github.com/labdash/labdash/internal/domain/dashboard"
	"github.com/labdash/labdash/internal/domain/equipment"
	"github.com/labdash/labdash/internal/domain/laborder"
	"github.com/labdash/labdash/internal/domain/qualitycontrol"
	"github.com/labdash/labdash/internal/platform/auth"
	"github.com/labdash/labdash/internal/platform/cache"
	"github.com/labdash/labdash/internal/platform/db"
	"github.com/labdash/labdash/internal/platform/middleware"
	"github.com/labdash/labdash/internal/platform/reporting"
)

const version = "0.1.0"

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	logger := newLogger(os.Getenv("ENV"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	pingers := map[string]db.Pinger{}
	var dashCache cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rc := cache.NewRedisCache(client)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			// the dashboard degrades to uncached builds
			logger.Warn().Err(err).Msg("redis unreachable at startup")
		}
		dashCache = rc
		pingers["redis"] = rc
	} else {
		logger.Info().Msg("REDIS_URL not set, dashboard caching disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	e := newEcho(cfg, logger, reg)
	e.GET("/health", db.HealthHandler(pool, pingers))

	authMW, err := authMiddleware(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid auth configuration")
	}
	if cfg.ResolvedAuthMode() == "development" {
		logger.Warn().Msg("development auth active, unauthenticated requests run as admin")
	}

	apiV1 := e.Group("/api/v1",
		authMW,
		middleware.RateLimit(rateLimitConfig(cfg)),
		middleware.RequestTimeout(cfg.RequestTimeout),
	)
	registerRoutes(apiV1, pool, cfg, logger, dashCache, reg)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newEcho builds the server with its global middleware and the metrics
// endpoint. API routes are added by the caller.
func newEcho(cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, "X-Tenant-ID"},
	}))
	e.Use(middleware.NewHTTPMetrics(reg).Middleware())

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	e.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"version": version})
	})
	return e
}

func authMiddleware(cfg *config.Config) (echo.MiddlewareFunc, error) {
	var verify echo.MiddlewareFunc
	if cfg.AuthSigningKey != "" {
		verify = auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		})
	}
	switch mode := cfg.ResolvedAuthMode(); mode {
	case "jwt":
		if verify == nil {
			return nil, fmt.Errorf("AUTH_SIGNING_KEY is required in jwt mode")
		}
		return verify, nil
	case "development":
		if verify == nil {
			return auth.DevAuthMiddleware(), nil
		}
		return auth.DevAuthMiddleware(verify), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rl.RequestsPerSecond <= 0 {
		return middleware.DefaultRateLimitConfig()
	}
	return rl
}

// registerRoutes mounts the API. Record and report routes run on one tenant
// connection pinned for the request. The dashboard fans out over several
// connections of its own, so its routes only resolve the tenant.
func registerRoutes(api *echo.Group, pool *pgxpool.Pool, cfg *config.Config, logger zerolog.Logger, dashCache cache.Cache, reg prometheus.Registerer) {
	pinned := api.Group("", db.TenantMiddleware(pool, cfg.DefaultTenant))
	scoped := api.Group("", db.ResolveTenant(cfg.DefaultTenant))

	qcSvc := qualitycontrol.NewService(qualitycontrol.NewQCTestRepoPG(pool), logger)
	qualitycontrol.NewHandler(qcSvc).RegisterRoutes(pinned)

	eqSvc := equipment.NewService(equipment.NewEquipmentRepoPG(pool), logger)
	eqSvc.SetDueSoonWindow(cfg.DueSoonWindow())
	equipment.NewHandler(eqSvc).RegisterRoutes(pinned)

	compSvc := compliance.NewService(compliance.NewEntryRepoPG(pool), logger)
	compliance.NewHandler(compSvc).RegisterRoutes(pinned)

	orderSvc := laborder.NewService(laborder.NewLabOrderRepoPG(pool), logger)
	laborder.NewHandler(orderSvc).RegisterRoutes(pinned)

	dashSvc := dashboard.NewService(qcSvc, eqSvc, compSvc, orderSvc, logger,
		dashboard.WithCache(dashCache, cfg.DashboardCacheTTL),
		dashboard.WithConnScope(db.TenantConnScope(pool)),
		dashboard.WithMetrics(dashboard.NewMetrics(reg)),
	)
	dashSvc.Watch(qcSvc, eqSvc, compSvc, orderSvc)
	dashboard.NewHandler(dashSvc).RegisterRoutes(scoped)

	reporting.NewHandler(pool).RegisterRoutes(pinned)
}

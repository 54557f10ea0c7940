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

	"github.com/nfi/casedesk/internal/config"
	"github.com/nfi/casedesk/internal/domain/casefile"
	"github.com/nfi/casedesk/internal/domain/followup"
	"github.com/nfi/casedesk/internal/domain/hospital"
	"github.com/nfi/casedesk/internal/domain/intake"
	"github.com/nfi/casedesk/internal/platform/auth"
	"github.com/nfi/casedesk/internal/platform/db"
	"github.com/nfi/casedesk/internal/platform/metrics"
	"github.com/nfi/casedesk/internal/platform/middleware"
	"github.com/nfi/casedesk/internal/platform/reporting"
)

const version = "0.1.0"

// routeRegistrar is implemented by every domain handler.
type routeRegistrar interface {
	RegisterRoutes(api *echo.Group)
}

func runServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	e := newEcho(cfg, logger)
	e.GET("/health/db", db.HealthHandler(pool, logger))
	api := apiGroup(e, cfg, logger, &pgAuditRecorder{pool: pool})
	registerAPI(api, handlers(pool, loc, logger)...)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newEcho builds the server with global middleware and the unauthenticated
// operational endpoints.
func newEcho(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	if cfg.MetricsEnabled {
		e.Use(metrics.Middleware())
	}
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if cfg.MetricsEnabled {
		e.GET("/metrics", metrics.Handler())
	}
	return e
}

// apiGroup returns the authenticated, audited /api/v1 group.
func apiGroup(e *echo.Echo, cfg *config.Config, logger zerolog.Logger, recorders ...middleware.AuditRecorder) *echo.Group {
	api := e.Group("/api/v1")
	if cfg.IsDev() {
		logger.Warn().Msg("development auth enabled: unauthenticated requests act as admin")
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}
	api.Use(middleware.Audit(logger, recorders...))
	return api
}

// handlers wires repositories and services onto the pool.
func handlers(pool *pgxpool.Pool, loc *time.Location, logger zerolog.Logger) []routeRegistrar {
	tx := db.PoolTx{Pool: pool}

	hospitalSvc := hospital.NewService(hospital.NewRepo(pool), tx)
	caseSvc := casefile.NewService(casefile.NewRepo(pool), hospitalSvc, tx)
	followupSvc := followup.NewService(followup.NewRepo(pool), caseSvc, tx, loc, logger)
	intakeSvc := intake.NewService(intake.NewRepo(pool), caseSvc, logger)

	return []routeRegistrar{
		hospital.NewHandler(hospitalSvc),
		casefile.NewHandler(caseSvc),
		followup.NewHandler(followupSvc),
		intake.NewHandler(intakeSvc),
		reporting.NewHandler(pool, loc, logger),
	}
}

func registerAPI(api *echo.Group, hs ...routeRegistrar) {
	for _, h := range hs {
		h.RegisterRoutes(api)
	}
}

package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const pingTimeout = 5 * time.Second

// PoolStats is the subset of pgxpool statistics reported by /health/db.
type PoolStats struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
	Max      int32 `json:"max"`
	Acquires int64 `json:"acquires"`
}

// Health is the /health/db response body.
type Health struct {
	Status string    `json:"status"`
	PingMS int64     `json:"ping_ms"`
	Pool   PoolStats `json:"pool"`
}

func statsOf(pool *pgxpool.Pool) PoolStats {
	s := pool.Stat()
	return PoolStats{
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		Acquired: s.AcquiredConns(),
		Max:      s.MaxConns(),
		Acquires: s.AcquireCount(),
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves /health/db. Driver errors are logged, not returned.
func HealthHandler(pool *pgxpool.Pool, logger zerolog.Logger) echo.HandlerFunc {
	return healthHandler(pool, func() PoolStats { return statsOf(pool) }, logger)
}

func healthHandler(p pinger, stats func() PoolStats, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		defer cancel()

		start := time.Now()
		err := p.Ping(ctx)
		h := Health{Status: "up", PingMS: time.Since(start).Milliseconds(), Pool: stats()}
		if err != nil {
			logger.Warn().Err(err).Int32("pool_total", h.Pool.Total).Msg("database ping failed")
			h.Status = "down"
			return c.JSON(http.StatusServiceUnavailable, h)
		}
		return c.JSON(http.StatusOK, h)
	}
}

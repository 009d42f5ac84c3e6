package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// Pinger is an auxiliary dependency checked by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports database health plus any named dependencies. A
// failing database yields 503; a failing dependency is reported as degraded.
func HealthHandler(pool *pgxpool.Pool, deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		err := pool.Ping(ctx)
		stats := GetPoolStats(pool)

		if err != nil {
			stats.Healthy = false
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  "database unreachable",
				"pool":   stats,
			})
		}

		depStatus := checkDeps(ctx, deps)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":       overallStatus(depStatus),
			"pool":         stats,
			"dependencies": depStatus,
		})
	}
}

func checkDeps(ctx context.Context, deps map[string]Pinger) map[string]string {
	out := make(map[string]string, len(deps))
	for name, p := range deps {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			out[name] = "unhealthy"
		} else {
			out[name] = "healthy"
		}
	}
	return out
}

func overallStatus(deps map[string]string) string {
	for _, s := range deps {
		if s != "healthy" {
			return "degraded"
		}
	}
	return "healthy"
}

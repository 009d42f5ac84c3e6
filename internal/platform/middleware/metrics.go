package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const loginRoute = "/api/v1/auth/login"

// Metrics owns a private prometheus registry so tests and multiple servers
// in one process never collide on registration.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authAttempts    *prometheus.CounterVec
	phiAccess       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"},
		),
		phiAccess: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phi_access_total",
				Help: "Total number of patient information accesses",
			},
			[]string{"action", "resource", "status"},
		),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.authAttempts,
		m.phiAccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterPool exports connection pool gauges read at scrape time.
func (m *Metrics) RegisterPool(pool *pgxpool.Pool) {
	gauge := func(name, help string, read func(*pgxpool.Stat) int32) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return float64(read(pool.Stat()))
		})
	}
	m.registry.MustRegister(
		gauge("db_pool_total_conns", "Connections currently in the pool", (*pgxpool.Stat).TotalConns),
		gauge("db_pool_idle_conns", "Idle connections in the pool", (*pgxpool.Stat).IdleConns),
		gauge("db_pool_acquired_conns", "Connections currently checked out", (*pgxpool.Stat).AcquiredConns),
	)
}

// Middleware counts and times every request by route template. Login
// outcomes are also counted as auth attempts.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = StatusOf(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			if route == loginRoute && method == http.MethodPost {
				result := "success"
				if status >= http.StatusBadRequest {
					result = "failure"
				}
				m.authAttempts.WithLabelValues(result).Inc()
			}
			return err
		}
	}
}

// RecordAccess makes Metrics an AuditRecorder.
func (m *Metrics) RecordAccess(_ context.Context, entry AuditEntry) error {
	m.phiAccess.WithLabelValues(entry.Action, entry.Resource, strconv.Itoa(entry.Status)).Inc()
	return nil
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

package services

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelrank/internal/catalog"
	"github.com/temcen/reelrank/internal/database"
	"github.com/temcen/reelrank/internal/similarity"
)

type HealthService struct {
	logger  *logrus.Logger
	checks  map[string]func(ctx context.Context) error
	catalog *catalog.Store
	tables  *similarity.Tables
	events  interface{ Enabled() bool }

	// Prometheus metrics
	healthCheckStatus *prometheus.GaugeVec
	lastHealthCheck   *prometheus.GaugeVec
	systemMetrics     *prometheus.GaugeVec
}

type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]string      `json:"services"`
	Critical  []string               `json:"critical_failures,omitempty"`
	Degraded  []string               `json:"degraded,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// NewHealthService checks the stores behind db and reports whether the
// offline data loaded. db may be nil in tests.
func NewHealthService(logger *logrus.Logger, db *database.Database, store *catalog.Store, tables *similarity.Tables) *HealthService {
	hs := &HealthService{
		logger:  logger,
		checks:  make(map[string]func(ctx context.Context) error),
		catalog: store,
		tables:  tables,
	}

	if db != nil {
		if db.PG != nil {
			hs.checks["postgresql"] = db.PG.Ping
		}
		if db.Redis != nil {
			hs.checks["redis_sessions"] = func(ctx context.Context) error { return db.Redis.Sessions.Ping(ctx).Err() }
			hs.checks["redis_cache"] = func(ctx context.Context) error { return db.Redis.Cache.Ping(ctx).Err() }
		}
		if db.Neo4j != nil {
			hs.checks["neo4j"] = db.Neo4j.VerifyConnectivity
		}
	}

	hs.healthCheckStatus = registerCollector(logger, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_status",
		Help: "Health check status (1 = healthy, 0 = unhealthy)",
	}, []string{"service"}))

	hs.lastHealthCheck = registerCollector(logger, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_timestamp",
		Help: "Timestamp of last health check",
	}, []string{"service"}))

	hs.systemMetrics = registerCollector(logger, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "system_info",
		Help: "System information metrics",
	}, []string{"metric_type"}))

	return hs
}

// ReportEvents adds the event bus state to the health details. A disabled
// bus does not degrade the service.
func (s *HealthService) ReportEvents(bus interface{ Enabled() bool }) {
	s.events = bus
}

// CheckHealth pings every store. A failed store makes the service
// unhealthy; an empty catalog or similarity table only degrades it.
func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
		Details:   make(map[string]interface{}),
	}

	for name, check := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := check(checkCtx)
		cancel()

		if err != nil {
			status.Services[name] = "unhealthy"
			status.Critical = append(status.Critical, name)
			s.logger.WithError(err).Errorf("Service %s is unhealthy", name)
			s.UpdateHealthMetrics(name, false)
		} else {
			status.Services[name] = "healthy"
			s.UpdateHealthMetrics(name, true)
		}
	}

	items := 0
	if s.catalog != nil {
		items = s.catalog.Len()
	}
	status.Details["catalog_items"] = items
	if items == 0 {
		status.Degraded = append(status.Degraded, "catalog")
	}

	features, scores := 0, 0
	if s.tables != nil {
		features, scores = s.tables.Sizes()
	}
	status.Details["feature_seeds"] = features
	status.Details["score_seeds"] = scores
	if features == 0 {
		status.Degraded = append(status.Degraded, "feature_similarity")
	}
	if scores == 0 {
		status.Degraded = append(status.Degraded, "score_similarity")
	}

	if s.events != nil {
		status.Details["event_publishing"] = s.events.Enabled()
	}

	switch {
	case len(status.Critical) > 0:
		status.Status = "unhealthy"
	case len(status.Degraded) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}

	return status
}

// CollectSystemMetrics samples runtime statistics until ctx is done.
func (s *HealthService) CollectSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	var memStats runtime.MemStats

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		runtime.ReadMemStats(&memStats)
		s.systemMetrics.WithLabelValues("memory_alloc_bytes").Set(float64(memStats.Alloc))
		s.systemMetrics.WithLabelValues("memory_sys_bytes").Set(float64(memStats.Sys))
		s.systemMetrics.WithLabelValues("goroutines_count").Set(float64(runtime.NumGoroutine()))
		s.systemMetrics.WithLabelValues("gc_runs_total").Set(float64(memStats.NumGC))
	}
}

// UpdateHealthMetrics updates health check metrics
func (s *HealthService) UpdateHealthMetrics(serviceName string, healthy bool) {
	if healthy {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(1)
	} else {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(0)
	}
	s.lastHealthCheck.WithLabelValues(serviceName).Set(float64(time.Now().Unix()))
}

package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/envutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	webhookDeliveries *CounterVec
	webhookLatency    *HistogramVec

	checkouts   *CounterVec
	settlements *CounterVec

	aggregateOps       *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	clientLatency *HistogramVec

	pendingPurchases *Gauge
	pgStats          *GaugeVec
	redisUp          *Gauge
	redisPing        *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool { return envutil.Bool("METRICS_ENABLED", false) }

// Current is the process-wide instance, nil until Init runs with metrics on.
func Current() *Metrics { return instance }

// Init returns nil when METRICS_ENABLED is off; every method is nil-safe.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	latencyBuckets := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	return &Metrics{
		apiRequests: NewCounterVec("cm_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"cm_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			latencyBuckets,
		),
		apiInflight: NewGauge("cm_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("cm_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("cm_api_requests_error_total", "API requests answered with 5xx."),

		webhookDeliveries: NewCounterVec("cm_webhook_deliveries_total", "Webhook deliveries by provider/outcome.", []string{"provider", "outcome"}),
		webhookLatency: NewHistogramVec(
			"cm_webhook_duration_seconds",
			"Webhook processing latency by provider.",
			[]string{"provider"},
			latencyBuckets,
		),

		checkouts:   NewCounterVec("cm_checkout_total", "Checkout attempts by outcome.", []string{"outcome"}),
		settlements: NewCounterVec("cm_purchase_settlements_total", "Purchase settlements by resulting status.", []string{"status", "transitioned"}),

		aggregateOps: NewHistogramVec(
			"cm_aggregate_operation_duration_seconds",
			"Aggregate write latency by operation/status.",
			[]string{"operation", "status"},
			latencyBuckets,
		),
		aggregateConflicts: NewCounterVec("cm_aggregate_conflicts_total", "Aggregate conflicts by operation.", []string{"operation"}),
		aggregateRetries:   NewCounterVec("cm_aggregate_retryable_total", "Aggregate retryable failures by operation.", []string{"operation"}),

		clientLatency: NewHistogramVec(
			"cm_upstream_request_duration_seconds",
			"Outbound calls to payment/identity/mail providers.",
			[]string{"client", "status"},
			latencyBuckets,
		),

		pendingPurchases: NewGauge("cm_pending_purchases", "Purchases still pending with a payment session."),
		pgStats:          NewGaugeVec("cm_postgres_pool", "Database pool stats.", []string{"stat"}),
		redisUp:          NewGauge("cm_redis_up", "Redis reachability (1/0)."),
		redisPing:        NewGauge("cm_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

// StartServer serves /metrics on a separate listener until ctx ends.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil || strings.TrimSpace(addr) == "" {
		return
	}
	srv := &http.Server{Addr: addr, Handler: http.HandlerFunc(m.WriteHTTP), ReadHeaderTimeout: 5 * time.Second}
	context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && log != nil {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	all := []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.webhookDeliveries, m.webhookLatency,
		m.checkouts, m.settlements,
		m.aggregateOps, m.aggregateConflicts, m.aggregateRetries,
		m.clientLatency,
		m.pendingPurchases, m.pgStats, m.redisUp, m.redisPing,
	}
	for _, pw := range all {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method, route, status = orUnknown(method), orUnknown(route), orUnknown(status)
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

// Gauge methods are nil-safe, so these need no guard of their own.
func (m *Metrics) ApiInflightInc() { m.inflight().Inc() }
func (m *Metrics) ApiInflightDec() { m.inflight().Dec() }

func (m *Metrics) inflight() *Gauge {
	if m == nil {
		return nil
	}
	return m.apiInflight
}

// ObserveWebhook records one delivery. Outcome is one of processed, ignored,
// duplicate, rejected or failed.
func (m *Metrics) ObserveWebhook(provider, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	provider = orUnknown(provider)
	m.webhookDeliveries.Inc(provider, orUnknown(outcome))
	m.webhookLatency.Observe(dur.Seconds(), provider)
}

func (m *Metrics) IncCheckout(outcome string) {
	if m == nil {
		return
	}
	m.checkouts.Inc(orUnknown(outcome))
}

func (m *Metrics) IncSettlement(status string, transitioned bool) {
	if m == nil {
		return
	}
	m.settlements.Inc(orUnknown(status), strconv.FormatBool(transitioned))
}

func (m *Metrics) ObserveAggregateOperation(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Observe(dur.Seconds(), orUnknown(operation), orUnknown(status))
}

func (m *Metrics) IncAggregateConflict(operation string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(orUnknown(operation))
}

func (m *Metrics) IncAggregateRetry(operation string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(orUnknown(operation))
}

func (m *Metrics) ObserveClient(client, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.clientLatency.Observe(dur.Seconds(), orUnknown(client), orUnknown(status))
}

// poll runs collect every METRICS_SCRAPE_INTERVAL_SECONDS until ctx ends.
// A collect error is logged and the next tick tries again.
func poll(ctx context.Context, log *logger.Logger, name string, collect func(context.Context) error) {
	interval := envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if err := collect(ctx); err != nil && log != nil {
				log.Warn("metrics collector failed", "collector", name, "error", err)
			}
		}
	}()
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	poll(ctx, log, "postgres", func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		st := sqlDB.Stats()
		for stat, v := range map[string]float64{
			"open_connections":      float64(st.OpenConnections),
			"in_use":                float64(st.InUse),
			"idle":                  float64(st.Idle),
			"wait_count":            float64(st.WaitCount),
			"wait_duration_seconds": st.WaitDuration.Seconds(),
			"max_open_connections":  float64(st.MaxOpenConnections),
		} {
			m.pgStats.Set(v, stat)
		}
		return nil
	})
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	poll(ctx, log, "redis", func(ctx context.Context) error {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			return err
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
		return nil
	})
}

// StartPendingPurchaseCollector tracks how many checkouts await a payment outcome.
func (m *Metrics) StartPendingPurchaseCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	poll(ctx, log, "pending_purchases", func(ctx context.Context) error {
		var n int64
		err := db.WithContext(ctx).
			Model(&types.Purchase{}).
			Where("status = ? AND session_id IS NOT NULL", types.PurchaseStatusPending).
			Count(&n).Error
		if err != nil {
			return err
		}
		m.pendingPurchases.Set(float64(n))
		return nil
	})
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

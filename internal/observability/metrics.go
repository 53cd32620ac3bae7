package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/magix-backend/internal/platform/envutil"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	llmRequests  *CounterVec
	llmLatency   *HistogramVec
	llmFragments *CounterVec

	pipelineRuns   *CounterVec
	llmStatusCache *CounterVec
	blobOps        *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, or nil when metrics are disabled.
// Every method is nil-safe.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("magix_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"magix_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		),
		apiInflight: NewGauge("magix_api_inflight_requests", "In-flight API requests."),
		llmRequests: NewCounterVec("magix_llm_requests_total", "Upstream LLM calls by provider/model/status.", []string{"provider", "model", "status"}),
		llmLatency: NewHistogramVec(
			"magix_llm_request_duration_seconds",
			"Upstream LLM call duration in seconds.",
			[]string{"provider", "model", "status"},
			[]float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		),
		llmFragments:   NewCounterVec("magix_llm_fragments_total", "Fragments yielded by provider.", []string{"provider"}),
		pipelineRuns:   NewCounterVec("magix_message_pipeline_total", "Message pipeline outcomes by terminal state.", []string{"state", "outcome"}),
		llmStatusCache: NewCounterVec("magix_llm_status_cache_total", "LLM active-flag cache lookups by result.", []string{"result"}),
		blobOps:        NewCounterVec("magix_blob_operations_total", "Blob store operations by op/doc/status.", []string{"op", "doc", "status"}),
		pgStats:        NewGaugeVec("magix_db_pool", "Database pool stats.", []string{"stat"}),
		redisUp:        NewGauge("magix_redis_up", "1 when the last Redis ping succeeded."),
		redisPing:      NewGauge("magix_redis_ping_seconds", "Last Redis ping latency in seconds."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmFragments,
		m.pipelineRuns, m.llmStatusCache, m.blobOps,
		m.pgStats, m.redisUp, m.redisPing,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(provider, model, status string, dur time.Duration, fragments int) {
	if m == nil {
		return
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	m.llmRequests.Inc(provider, strings.TrimSpace(model), status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), provider, strings.TrimSpace(model), status)
	}
	if fragments > 0 {
		m.llmFragments.Add(float64(fragments), provider)
	}
}

func (m *Metrics) IncPipeline(state, outcome string) {
	if m == nil {
		return
	}
	m.pipelineRuns.Inc(state, outcome)
}

func (m *Metrics) IncLLMStatusCache(result string) {
	if m == nil {
		return
	}
	m.llmStatusCache.Inc(result)
}

func (m *Metrics) IncBlobOp(op, doc, status string) {
	if m == nil {
		return
	}
	m.blobOps.Inc(op, doc, status)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

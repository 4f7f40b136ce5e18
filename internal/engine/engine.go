package engine

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/generator"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	reportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_generator_reports_generated_total",
		Help: "The total number of weather reports generated",
	}, []string{"country", "weather"})
	requestsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_client_requests_total",
		Help: "The total number of replayed reports by outcome",
	}, []string{"status"})
	storageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "traffic_client_storage_duration_seconds",
		Help:    "Time taken to store weather reports",
		Buckets: prometheus.DefBuckets,
	})
	activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "traffic_client_active_workers",
		Help: "Number of currently running replay workers",
	})
)

const defaultBatchSize = 100

type EngineConfig struct {
	Workers   int           `yaml:"workers"`
	Rate      int           `yaml:"rate"`
	BatchSize int           `yaml:"batch_size"`
	MinWait   time.Duration `yaml:"min_wait"`
	MaxWait   time.Duration `yaml:"max_wait"`
}

// ReplayStats summarizes one Replay run.
type ReplayStats struct {
	Sent   int64
	Failed int64
}

type Engine struct {
	generator generator.Generator
	storage   storage.Storage
	config    EngineConfig
	limiter   *rate.Limiter
}

// NewEngine wires a generator and a storage. generator may be nil for an
// engine that only replays existing reports.
func NewEngine(generator generator.Generator, storage storage.Storage, cfg EngineConfig) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	return &Engine{
		generator: generator,
		storage:   storage,
		config:    cfg,
		limiter:   rate.NewLimiter(limitFor(cfg.Rate), cfg.Workers),
	}
}

func limitFor(r int) rate.Limit {
	if r <= 0 {
		return rate.Inf
	}
	return rate.Limit(r)
}

func (e *Engine) SetRate(newRate int) {
	e.limiter.SetLimit(limitFor(newRate))
	log.Printf("Engine target rate updated to %d requests/sec", newRate)
}

// Generate produces exactly n reports and hands them to the storage in batches.
func (e *Engine) Generate(ctx context.Context, n int) error {
	if n < 0 {
		return fmt.Errorf("report count must be non-negative, got %d", n)
	}
	if e.generator == nil {
		return fmt.Errorf("engine has no generator")
	}

	batch := make([]model.Report, 0, min(n, e.config.BatchSize))

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := e.storage.StoreBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to store batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		report := e.generator.Generate()
		reportsGenerated.WithLabelValues(report.Country, string(report.Weather)).Inc()

		batch = append(batch, report)
		if len(batch) >= e.config.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

// Replay sends every report to the storage once. Each worker pauses for a
// random think time between consecutive requests. Failed requests are
// logged and counted; they never stop the run.
func (e *Engine) Replay(ctx context.Context, reports []model.Report) (ReplayStats, error) {
	var (
		wg    sync.WaitGroup
		stats ReplayStats
		jobs  = make(chan model.Report)
	)

	log.Printf("Engine replaying %d reports with %d workers", len(reports), e.config.Workers)

	for i := 0; i < e.config.Workers; i++ {
		wg.Add(1)
		go e.worker(ctx, jobs, &stats, &wg)
	}

feed:
	for _, report := range reports {
		select {
		case jobs <- report:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)

	wg.Wait()

	log.Printf("Replay finished. Sent: %d, failed: %d", stats.Sent, stats.Failed)
	return stats, ctx.Err()
}

func (e *Engine) worker(ctx context.Context, jobs <-chan model.Report, stats *ReplayStats, wg *sync.WaitGroup) {
	activeWorkers.Inc()
	defer activeWorkers.Dec()
	defer wg.Done()

	first := true
	for report := range jobs {
		if !first {
			if err := sleep(ctx, e.thinkTime()); err != nil {
				return
			}
		}
		first = false

		if err := e.limiter.Wait(ctx); err != nil {
			return
		}

		start := time.Now()
		err := e.storage.Store(ctx, report)
		storageDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			atomic.AddInt64(&stats.Failed, 1)
			requestsSent.WithLabelValues("failure").Inc()
			log.Printf("Worker failed to send report: %v", err)
			continue
		}

		atomic.AddInt64(&stats.Sent, 1)
		requestsSent.WithLabelValues("success").Inc()
	}
}

// thinkTime returns a uniform random duration in [MinWait, MaxWait].
func (e *Engine) thinkTime() time.Duration {
	lo, hi := e.config.MinWait, e.config.MaxWait
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

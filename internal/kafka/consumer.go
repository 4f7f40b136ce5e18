package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"github.com/valyala/fastjson"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/storage"
)

var (
	messagesConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "The total number of messages consumed from Kafka",
	})
	decodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kafka_messages_decode_errors_total",
		Help: "The total number of messages that could not be decoded",
	})
	reportsByCountry = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_reports_by_country_total",
		Help: "The total number of stored weather reports per country",
	}, []string{"country"})
	consumerLag = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kafka_consumer_lag",
		Help: "The current lag of the consumer group",
	})
)

const (
	defaultBatchSize     = 500
	defaultFlushInterval = 1 * time.Second
	defaultRetryPause    = 1 * time.Second
)

// messageReader is the part of *kafka.Reader the consumer relies on.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

type Consumer struct {
	reader  messageReader
	storage storage.Storage
	parser  fastjson.ParserPool

	batchSize     int
	flushInterval time.Duration
	retryPause    time.Duration
}

func NewConsumer(cfg KafkaConfig, storage storage.Storage) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{
		reader:        r,
		storage:       storage,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		retryPause:    defaultRetryPause,
	}
}

// batch holds decoded reports and every fetched message, including the
// ones that failed to decode, so their offsets are committed together.
type batch struct {
	reports  []model.Report
	messages []kafka.Message
}

func (b *batch) reset() {
	b.reports = b.reports[:0]
	b.messages = b.messages[:0]
}

// Start consumes until ctx is done. A batch is flushed when it is full or
// flushInterval after the previous flush. A failed flush keeps the batch
// uncommitted, pauses for retryPause and tries again; no new messages are
// fetched while a full batch is pending.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.reader.Close()
	log.Println("Starting Kafka consumer with batch processing...")

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := c.reader.Stats()
				consumerLag.Set(float64(stats.Lag))
			}
		}
	}()

	b := &batch{
		reports:  make([]model.Report, 0, c.batchSize),
		messages: make([]kafka.Message, 0, c.batchSize),
	}
	lastFlush := time.Now()

	flush := func() {
		if err := c.flush(ctx, b); err != nil {
			log.Printf("Failed to flush batch of %d reports: %v", len(b.reports), err)
			pause(ctx, c.retryPause)
			return
		}
		b.reset()
		lastFlush = time.Now()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		deadline := time.Now().Add(c.flushInterval)
		if len(b.messages) > 0 {
			if len(b.messages) >= c.batchSize || time.Since(lastFlush) >= c.flushInterval {
				flush()
				continue
			}
			deadline = lastFlush.Add(c.flushInterval)
		}

		fetchCtx, cancel := context.WithDeadline(ctx, deadline)
		m, err := c.reader.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if errors.Is(err, context.DeadlineExceeded) {
				if len(b.messages) > 0 {
					flush()
				}
				continue
			}

			log.Printf("Failed to fetch message: %v", err)
			pause(ctx, time.Second)
			continue
		}

		b.messages = append(b.messages, m)

		report, err := c.decode(m.Value)
		if err != nil {
			decodeErrors.Inc()
			log.Printf("Failed to decode message at offset %d: %v", m.Offset, err)
			continue
		}
		b.reports = append(b.reports, report)
	}
}

func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// flush stores the decoded reports, then commits every message of the batch.
func (c *Consumer) flush(ctx context.Context, b *batch) error {
	if len(b.messages) == 0 {
		return nil
	}

	if err := c.storage.StoreBatch(ctx, b.reports); err != nil {
		return err
	}

	for country, n := range countByCountry(b.reports) {
		reportsByCountry.WithLabelValues(country).Add(float64(n))
	}

	if err := c.reader.CommitMessages(ctx, b.messages...); err != nil {
		// Not fatal; the batch may be redelivered.
		log.Printf("Failed to commit messages: %v", err)
	}

	messagesConsumed.Add(float64(len(b.messages)))
	log.Printf("Stored batch of %d reports (%d messages)", len(b.reports), len(b.messages))
	return nil
}

func (c *Consumer) decode(value []byte) (model.Report, error) {
	p := c.parser.Get()
	defer c.parser.Put(p)

	v, err := p.ParseBytes(value)
	if err != nil {
		return model.Report{}, err
	}
	if v.Type() != fastjson.TypeObject {
		return model.Report{}, fmt.Errorf("expected JSON object, got %s", v.Type())
	}

	return model.Report{
		Description: string(v.GetStringBytes("description")),
		Country:     string(v.GetStringBytes("country")),
		Weather:     model.Weather(v.GetStringBytes("weather")),
	}, nil
}

func countByCountry(reports []model.Report) map[string]int {
	counts := make(map[string]int)
	for _, r := range reports {
		counts[r.CountryOrUnknown()]++
	}
	return counts
}

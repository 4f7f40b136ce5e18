package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
	Async   bool     `yaml:"async"`
}

// Record is one message to publish. Value is marshalled to JSON.
type Record struct {
	Key   string
	Value any
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(cfg KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		Async:        cfg.Async,
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 3 * time.Second,
	}

	return &Producer{writer: w}
}

func (p *Producer) Produce(ctx context.Context, key string, value any) error {
	return p.ProduceBatch(ctx, []Record{{Key: key, Value: value}})
}

func (p *Producer) ProduceBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	msgs := make([]kafka.Message, len(records))
	for i, record := range records {
		value, err := json.Marshal(record.Value)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}

		msgs[i] = kafka.Message{
			Key:   []byte(record.Key),
			Value: value,
			Time:  now,
		}
	}

	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// LogRecords keys each log entry by its trace_id, falling back to service,
// so entries of one trace land on the same partition.
func LogRecords(entries []model.LogEntry) []Record {
	records := make([]Record, len(entries))
	for i, entry := range entries {
		key, _ := entry["trace_id"].(string)
		if key == "" {
			key, _ = entry["service"].(string)
		}
		records[i] = Record{Key: key, Value: entry}
	}
	return records
}

package opensearch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

var (
	indexingErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opensearch_indexing_errors_total",
		Help: "The total number of failed indexing attempts",
	})
	indexingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "opensearch_indexing_duration_seconds",
		Help:    "The duration of indexing requests to OpenSearch",
		Buckets: prometheus.DefBuckets,
	})
)

const DefaultIndexPrefix = "weather-reports"

type OpenSearchConfig struct {
	Addresses   []string `yaml:"addresses"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	IndexPrefix string   `yaml:"index_prefix"`
}

// document is the indexed form of a report.
type document struct {
	model.Report
	Timestamp string `json:"@timestamp"`
}

type OpenSearchStorage struct {
	client      *opensearch.Client
	indexPrefix string
	now         func() time.Time
}

func NewOpenSearchStorage(cfg OpenSearchConfig) (*OpenSearchStorage, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = DefaultIndexPrefix
	}

	return &OpenSearchStorage{
		client:      client,
		indexPrefix: prefix,
		now:         time.Now,
	}, nil
}

func (s *OpenSearchStorage) indexName(t time.Time) string {
	return fmt.Sprintf("%s-%s", s.indexPrefix, t.Format("2006.01.02"))
}

func (s *OpenSearchStorage) Store(ctx context.Context, report model.Report) error {
	timer := prometheus.NewTimer(indexingDuration)
	defer timer.ObserveDuration()

	now := s.now().UTC()
	body, err := json.Marshal(document{Report: report, Timestamp: now.Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: s.indexName(now),
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		indexingErrors.Inc()
		return fmt.Errorf("failed to execute index request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		indexingErrors.Inc()
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

func (s *OpenSearchStorage) StoreBatch(ctx context.Context, reports []model.Report) error {
	if len(reports) == 0 {
		return nil
	}

	timer := prometheus.NewTimer(indexingDuration)
	defer timer.ObserveDuration()

	body := s.bulkBody(reports)

	req := opensearchapi.BulkRequest{
		Body: strings.NewReader(body),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		indexingErrors.Inc()
		return fmt.Errorf("failed to execute bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		indexingErrors.Inc()
		return fmt.Errorf("opensearch bulk error: %s", res.String())
	}

	return nil
}

// bulkBody renders reports in the newline-delimited bulk format,
// one action line followed by one document line per report.
func (s *OpenSearchStorage) bulkBody(reports []model.Report) string {
	now := s.now().UTC()
	indexName := s.indexName(now)
	ts := now.Format(time.RFC3339)

	var buf strings.Builder
	for _, report := range reports {
		data, err := json.Marshal(document{Report: report, Timestamp: ts})
		if err != nil {
			log.Printf("Failed to marshal report for bulk index: %v", err)
			continue
		}

		fmt.Fprintf(&buf, `{ "index": { "_index": "%s" } }%s`, indexName, "\n")
		buf.Write(data)
		buf.WriteString("\n")
	}
	return buf.String()
}

func (s *OpenSearchStorage) Close() error {
	return nil
}

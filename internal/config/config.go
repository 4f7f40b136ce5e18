package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/engine"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/generator/random"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/kafka"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/logstore"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/storage"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/storage/console"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/storage/file"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/storage/http"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/storage/opensearch"
)

type StorageType string

const (
	StorageConsole    StorageType = "console"
	StorageHTTP       StorageType = "http"
	StorageFile       StorageType = "file"
	StorageOpenSearch StorageType = "opensearch"
)

type StorageConfig struct {
	Type       StorageType                 `yaml:"type"`
	HTTP       http.HTTPConfig             `yaml:"http"`
	File       file.FileConfig             `yaml:"file"`
	OpenSearch opensearch.OpenSearchConfig `yaml:"opensearch"`
}

// Open builds the storage backend selected by Type.
func (c StorageConfig) Open() (storage.Storage, error) {
	switch c.Type {
	case StorageConsole:
		return console.NewConsoleStorage(), nil
	case StorageFile:
		return file.NewFileStorage(c.File), nil
	case StorageHTTP:
		return http.NewHTTPStorage(c.HTTP), nil
	case StorageOpenSearch:
		s, err := opensearch.NewOpenSearchStorage(c.OpenSearch)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %q", c.Type)
	}
}

type GeneratorConfig struct {
	Count   int                    `yaml:"count"`
	Random  random.GeneratorConfig `yaml:"random"`
	Storage StorageConfig          `yaml:"storage"`
}

type TrafficConfig struct {
	Input   string              `yaml:"input"`
	Engine  engine.EngineConfig `yaml:"engine"`
	Storage StorageConfig       `yaml:"storage"`
}

type LogServiceConfig struct {
	Addr  string            `yaml:"addr"`
	File  string            `yaml:"file"`
	Kafka kafka.KafkaConfig `yaml:"kafka"`
}

type IngestorConfig struct {
	Addr  string            `yaml:"addr"`
	Kafka kafka.KafkaConfig `yaml:"kafka"`
}

type ConsumerConfig struct {
	MetricsAddr string                      `yaml:"metrics_addr"`
	Kafka       kafka.KafkaConfig           `yaml:"kafka"`
	OpenSearch  opensearch.OpenSearchConfig `yaml:"opensearch"`
}

type Config struct {
	Generator  GeneratorConfig  `yaml:"generator"`
	Traffic    TrafficConfig    `yaml:"traffic"`
	LogService LogServiceConfig `yaml:"log_service"`
	Ingestor   IngestorConfig   `yaml:"ingestor"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Generator: GeneratorConfig{
			Count: 10000,
			Storage: StorageConfig{
				Type: StorageFile,
				File: file.FileConfig{Path: file.DefaultPath},
			},
		},
		Traffic: TrafficConfig{
			Input: file.DefaultPath,
			Engine: engine.EngineConfig{
				Workers: 1,
				MinWait: 1 * time.Second,
				MaxWait: 5 * time.Second,
			},
			Storage: StorageConfig{
				Type: StorageHTTP,
				HTTP: http.HTTPConfig{
					URL:                http.DefaultURL,
					Timeout:            10 * time.Second,
					InsecureSkipVerify: true,
				},
			},
		},
		LogService: LogServiceConfig{
			Addr: ":8000",
			File: logstore.DefaultPath,
			Kafka: kafka.KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "logs",
				Async:   true,
			},
		},
		Ingestor: IngestorConfig{
			Addr: ":8080",
			Kafka: kafka.KafkaConfig{
				Enabled: true,
				Brokers: []string{"localhost:9092"},
				Topic:   "weather-tweets",
			},
		},
		Consumer: ConsumerConfig{
			MetricsAddr: ":2112",
			Kafka: kafka.KafkaConfig{
				Enabled: true,
				Brokers: []string{"localhost:9092"},
				Topic:   "weather-tweets",
				GroupID: "weather-consumer-group",
			},
			OpenSearch: opensearch.OpenSearchConfig{
				Addresses:   []string{"https://localhost:9200"},
				IndexPrefix: opensearch.DefaultIndexPrefix,
			},
		},
	}
}

// LoadConfig decodes the YAML file at path over Default and then applies
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		brokers := strings.Split(v, ",")
		c.LogService.Kafka.Brokers = brokers
		c.Ingestor.Kafka.Brokers = brokers
		c.Consumer.Kafka.Brokers = brokers
	}
	if v, ok := os.LookupEnv("KAFKA_TOPIC"); ok {
		c.Ingestor.Kafka.Topic = v
		c.Consumer.Kafka.Topic = v
	}
	if v, ok := os.LookupEnv("KAFKA_GROUP_ID"); ok {
		c.Consumer.Kafka.GroupID = v
	}
	if v, ok := os.LookupEnv("OPENSEARCH_ADDR"); ok {
		c.Consumer.OpenSearch.Addresses = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("SERVER_ADDR"); ok {
		c.LogService.Addr = v
		c.Ingestor.Addr = v
	}
	if v, ok := os.LookupEnv("LOGS_FILE"); ok {
		c.LogService.File = v
	}
	if v, ok := os.LookupEnv("TARGET_URL"); ok {
		c.Traffic.Storage.HTTP.URL = v
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/config"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/kafka"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/storage/opensearch"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("Starting metrics server on %s", cfg.Consumer.MetricsAddr)
		if err := http.ListenAndServe(cfg.Consumer.MetricsAddr, mux); err != nil {
			log.Fatalf("Metrics server failed: %v", err)
		}
	}()

	osStorage, err := opensearch.NewOpenSearchStorage(cfg.Consumer.OpenSearch)
	if err != nil {
		log.Fatalf("Failed to create OpenSearch client: %v", err)
	}

	consumer := kafka.NewConsumer(cfg.Consumer.Kafka, osStorage)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Consumer failed: %v", err)
	}

	log.Println("Consumer stopped.")
}

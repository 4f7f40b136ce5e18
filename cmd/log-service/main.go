package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/api"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/config"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/kafka"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/logstore"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	logsFile := flag.String("file", "", "Log store file (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.LogService.Addr = *addr
	}
	if *logsFile != "" {
		cfg.LogService.File = *logsFile
	}

	store := logstore.NewFileStore(cfg.LogService.File)
	if n, err := store.Count(context.Background()); err != nil {
		log.Printf("Failed to read existing logs from %s: %v", store.Path(), err)
	} else {
		metrics.LogsStored.Set(float64(n))
		log.Printf("Log store %s holds %d entries", store.Path(), n)
	}

	var publisher api.Publisher
	if cfg.LogService.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.LogService.Kafka)
		defer producer.Close()
		publisher = producer
		log.Printf("Mirroring appended logs to Kafka topic %s", cfg.LogService.Kafka.Topic)
	}

	server := api.NewLogServer(store, publisher)

	go func() {
		log.Printf("Starting server on %s", cfg.LogService.Addr)
		if err := server.ListenAndServe(cfg.LogService.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Received signal: %v. Shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

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
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	producer := kafka.NewProducer(cfg.Ingestor.Kafka)
	defer producer.Close()

	server := api.NewInputServer(producer)

	go func() {
		log.Printf("Starting server on %s, publishing to topic %s", cfg.Ingestor.Addr, cfg.Ingestor.Kafka.Topic)
		if err := server.ListenAndServe(cfg.Ingestor.Addr); err != nil {
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

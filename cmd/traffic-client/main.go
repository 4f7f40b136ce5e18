package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/api"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/config"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/engine"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/storage/file"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	in := flag.String("in", "", "Reports file to replay (overrides config)")
	target := flag.String("target", "", "Target URL (overrides config)")
	workers := flag.Int("workers", 0, "Concurrent senders (overrides config)")
	controlAddr := flag.String("control", "", "Serve the control API (/rate, /metrics) on this address")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *in != "" {
		cfg.Traffic.Input = *in
	}
	if *target != "" {
		cfg.Traffic.Storage.Type = config.StorageHTTP
		cfg.Traffic.Storage.HTTP.URL = *target
	}
	if *workers > 0 {
		cfg.Traffic.Engine.Workers = *workers
	}

	reports, err := file.Load(cfg.Traffic.Input)
	if err != nil {
		log.Fatalf("Failed to load reports: %v", err)
	}

	store, err := cfg.Traffic.Storage.Open()
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	eng := engine.NewEngine(nil, store, cfg.Traffic.Engine)

	if *controlAddr != "" {
		server := api.NewControlServer(eng)
		go func() {
			log.Printf("Control API listening on %s", *controlAddr)
			if err := server.ListenAndServe(*controlAddr); err != nil {
				log.Printf("API Error: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Loaded %d reports from %s, sending to %s", len(reports), cfg.Traffic.Input, cfg.Traffic.Storage.HTTP.URL)

	stats, err := eng.Replay(ctx, reports)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Replay stopped: %v", err)
	}

	log.Printf("Traffic done. Sent: %d, failed: %d, total: %d", stats.Sent, stats.Failed, len(reports))
}

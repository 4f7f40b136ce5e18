package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/config"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/engine"
	"github.com/Fercho9134/SO1-S12025-202200349/internal/generator/random"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	count := flag.Int("count", 0, "Number of reports to generate (overrides config)")
	out := flag.String("out", "", "Output JSON file (overrides config, forces file storage)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "count":
			cfg.Generator.Count = *count
		case "out":
			cfg.Generator.Storage.Type = config.StorageFile
			cfg.Generator.Storage.File.Path = *out
		}
	})

	store, err := cfg.Generator.Storage.Open()
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	generator := random.NewRandomGenerator(cfg.Generator.Random)
	eng := engine.NewEngine(generator, store, engine.EngineConfig{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Generate(ctx, cfg.Generator.Count); err != nil {
		log.Fatalf("Failed to generate reports: %v", err)
	}

	if err := store.Close(); err != nil {
		log.Fatalf("Failed to write reports: %v", err)
	}

	if cfg.Generator.Storage.Type == config.StorageFile {
		log.Printf("JSON generated and saved to '%s' (%d reports)", cfg.Generator.Storage.File.Path, cfg.Generator.Count)
	} else {
		log.Printf("Generated %d reports into %s storage", cfg.Generator.Count, cfg.Generator.Storage.Type)
	}
}

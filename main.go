package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/dnldd/tradechart/service"
	"github.com/rs/zerolog"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		os.Exit(1)
	}

	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)

	pipeline, err := service.NewPipeline(&service.PipelineConfig{
		Market:               cfg.Symbol,
		Date:                 cfg.Date,
		Window:               cfg.Window,
		APIKey:               cfg.APIKey,
		SecretKey:            cfg.SecretKey,
		BaseURL:              cfg.BaseURL,
		HistoricDataFilepath: cfg.HistoricDataFilepath,
		HTMLFilepath:         cfg.HTMLPath,
		CSVFilepath:          cfg.CSVPath,
		Schedule:             cfg.Schedule,
	})
	if err != nil {
		log.Printf("creating pipeline: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go handleTermination(ctx, cancel)

	err = pipeline.Run(ctx)
	cancel()
	if err != nil {
		log.Printf("running pipeline: %v", err)
		os.Exit(1)
	}
}

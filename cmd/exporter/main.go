package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/app"
	"github.com/art0tod/battle-rap-v2-sub000/internal/export"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if len(service.Config.Export) == 0 {
		logger.Error.Fatalf("No [[export]] targets configured in %s", *configPath)
	}

	exporter, err := export.NewGSheetExporter(service.Config.Export, service.Leaderboard)
	if err != nil {
		logger.Error.Fatalf("Failed to initialize Google Sheets exporter: %v", err)
	}
	exporter.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	if err := exporter.Shutdown(); err != nil {
		logger.Error.Printf("Exporter shutdown: %v", err)
	}
	logger.Info.Println("Standings exporter stopped")
}

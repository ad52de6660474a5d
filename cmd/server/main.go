package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/app"
	"github.com/art0tod/battle-rap-v2-sub000/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := service.Ping(context.Background()); err != nil {
		logger.Error.Printf("Leaderboard cache unreachable, standings will miss the cache: %v", err)
	}

	mux := http.NewServeMux()
	handlers.NewJudgingHandler(service).Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting battle judging server on %s", service.Config.Server.Port)
	if service.Config.Engine.ChallengeTournamentID != "" {
		logger.Debug.Printf("Challenge tournament: %s", service.Config.Engine.ChallengeTournamentID)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, mux); err != nil {
		logger.Error.Fatalf("Battle judging server failed: %v", err)
	}
}

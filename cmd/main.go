package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"github.com/embedhunt/jobhunter/internal/api"
	"github.com/embedhunt/jobhunter/internal/clients/boards"
	"github.com/embedhunt/jobhunter/internal/config"
	"github.com/embedhunt/jobhunter/internal/logger"
	"github.com/embedhunt/jobhunter/internal/metrics"
	"github.com/embedhunt/jobhunter/internal/repositories"
	"github.com/embedhunt/jobhunter/internal/scraper"
	"github.com/embedhunt/jobhunter/internal/services"
)

func buildRunners(cfg *config.Config) []services.SourceRunner {

	client := boards.NewClient()
	client.SetRateLimit(cfg.Scraper.MaxRequestsPerSecond)

	var runners []services.SourceRunner
	for _, rules := range scraper.AllRules() {
		runners = append(runners, services.SourceRunner{
			Source:    rules.Source,
			Collector: scraper.NewPaginator(rules, client, cfg.Scraper.PageDelay),
			MaxPages:  rules.MaxPages,
		})
	}
	return runners
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(fmt.Sprintf(":%d", cfg.API.MetricsPort))

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	if err = dbContext.Migrate(); err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	jobs := repositories.NewJobsRepository(dbContext.DB)
	runs := repositories.NewRunsRepository(dbContext.DB)

	bus := EventBus.New()

	gate := services.NewRunGate(runs, cfg.Scraper.MinRunInterval)
	orchestrator := services.NewOrchestrator(gate, buildRunners(cfg), jobs, runs, bus)

	cleaner, err := services.NewRunsCleaner(runs, cfg.Scraper.RunRetentionInDays)
	if err != nil {
		log.Fatalf("can't create runs cleaner: %v", err)
	}
	defer cleaner.Stop()

	scheduler, err := services.NewScheduler(orchestrator, cfg.Scraper.CronSpec, cfg.Scraper.RunOnStart)
	if err != nil {
		log.Fatalf("can't create scheduler: %v", err)
	}
	defer scheduler.Stop()

	handler, err := api.NewHandler(bus, jobs, runs, gate, orchestrator)
	if err != nil {
		log.Fatalf("can't create api handler: %v", err)
	}

	server := api.NewServer(cfg.API.Port, handler)
	server.Start()

	<-ctx.Done()

	log.Info("Shutting down services...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = server.Stop(shutdownCtx); err != nil {
		log.Errorf("api server shutdown: %v", err)
	}
	log.Info("Services stopped.")
}

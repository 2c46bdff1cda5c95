package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/config"
	"github.com/dvloznov/bank-backoffice/internal/export"
	"github.com/dvloznov/bank-backoffice/internal/gateway/httpapi"
	"github.com/dvloznov/bank-backoffice/internal/jobs/inmemory"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/dvloznov/bank-backoffice/internal/report"
	"github.com/dvloznov/bank-backoffice/internal/report/pdf"
)

// worker exports the previous day's movements report to the configured sinks
// once a day.
func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	interval := flag.Duration("interval", time.Hour, "How often to check whether yesterday's report was exported")
	sinkList := flag.String("sinks", "", "Comma-separated sinks; empty means all configured")
	retention := flag.Duration("retention", 7*24*time.Hour, "How long finished export jobs are kept")
	flag.Parse()

	log := logger.NewWithOptions(os.Stdout, logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	sinks, closeSinks, err := export.FromConfig(ctx, cfg.Export)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure export sinks")
	}
	defer closeSinks()
	if len(sinks.Names()) == 0 {
		log.Fatal().Msg("No export sinks configured")
	}

	transactionGW := httpapi.NewTransactionService(cfg.Services.TransactionURL, httpapi.WithTimeout(cfg.Services.Timeout))
	runner := export.NewRunner(report.NewAssembler(transactionGW, pdf.New()), sinks)

	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Export.QueueSize, jobStore,
		inmemory.WithWorkers(cfg.Export.Workers),
		inmemory.WithMaxRetries(cfg.Export.MaxRetries),
	)

	if err := jobQueue.Start(ctx, runner.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	var selected []string
	for _, s := range strings.Split(*sinkList, ",") {
		if s = strings.TrimSpace(s); s != "" {
			selected = append(selected, s)
		}
	}
	scheduler := export.NewDailyScheduler(jobQueue, selected, *interval)
	go scheduler.Run(ctx)
	go pruneJobs(ctx, jobStore, *retention, *interval)

	log.Info().Strs("sinks", sinks.Names()).Dur("interval", *interval).Msg("Export worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down export worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	cancel()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Export worker exited")
}

// pruneJobs drops finished jobs older than retention every interval.
func pruneJobs(ctx context.Context, store *inmemory.Store, retention, interval time.Duration) {
	log := logger.FromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.Prune(ctx, now.Add(-retention)); n > 0 {
				log.Info().Int("removed", n).Msg("Pruned finished export jobs")
			}
		}
	}
}

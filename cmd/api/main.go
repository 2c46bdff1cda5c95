package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dvloznov/bank-backoffice/internal/api/handlers"
	"github.com/dvloznov/bank-backoffice/internal/api/middleware"
	"github.com/dvloznov/bank-backoffice/internal/config"
	"github.com/dvloznov/bank-backoffice/internal/export"
	"github.com/dvloznov/bank-backoffice/internal/gateway/httpapi"
	"github.com/dvloznov/bank-backoffice/internal/jobs/inmemory"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/dvloznov/bank-backoffice/internal/report"
	"github.com/dvloznov/bank-backoffice/internal/report/pdf"
	"github.com/dvloznov/bank-backoffice/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	port := flag.Int("port", cfg.HTTP.Port, "HTTP server port (or set API_PORT)")
	flag.Parse()

	log := logger.NewWithOptions(os.Stdout, logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	ctx := logger.WithContext(context.Background(), log)

	// Gateways to the three bank services
	timeout := httpapi.WithTimeout(cfg.Services.Timeout)
	clientGW := httpapi.NewClientService(cfg.Services.ClientURL, timeout)
	accountGW := httpapi.NewAccountService(cfg.Services.AccountURL, timeout)
	transactionGW := httpapi.NewTransactionService(cfg.Services.TransactionURL, timeout)

	assembler := report.NewAssembler(transactionGW, pdf.New())

	// Export sinks and job infrastructure
	sinks, closeSinks, err := export.FromConfig(ctx, cfg.Export)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure export sinks")
	}
	defer closeSinks()
	if len(sinks.Names()) == 0 {
		log.Warn().Msg("No export sinks configured - report exports will be refused")
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Export.QueueSize, jobStore,
		inmemory.WithWorkers(cfg.Export.Workers),
		inmemory.WithMaxRetries(cfg.Export.MaxRetries),
	)
	runner := export.NewRunner(assembler, sinks)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Strs("sinks", sinks.Names()).Msg("Starting export worker")
		if err := jobQueue.Start(workerCtx, runner.Handle); err != nil {
			log.Error().Err(err).Msg("Export worker stopped with error")
		}
	}()

	// Router
	mux := http.NewServeMux()
	handlers.NewClientsHandler(usecase.NewClientUseCases(clientGW), log).Register(mux)
	handlers.NewAccountsHandler(usecase.NewAccountUseCases(accountGW, clientGW), log).Register(mux)
	handlers.NewTransactionsHandler(usecase.NewTransactionUseCases(transactionGW), log).Register(mux)
	handlers.NewReportsHandler(assembler, jobQueue, sinks, log).Register(mux)
	handlers.NewJobsHandler(jobStore, log).Register(mux)
	mux.HandleFunc("GET /health", handlers.NewHealthHandler(transactionGW, log).Health)

	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS(cfg.HTTP.AllowedOrigins()),
	)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(*port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info().
			Int("port", *port).
			Str("client_service", cfg.Services.ClientURL).
			Str("account_service", cfg.Services.AccountURL).
			Str("transaction_service", cfg.Services.TransactionURL).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight exports
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dvloznov/bank-backoffice/internal/bankstub"
	"github.com/dvloznov/bank-backoffice/internal/config"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/gin-gonic/gin"
)

// bankstub runs in-memory client, account and transaction services sharing
// one store, each on its own address, for local development.
func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithOptions(os.Stdout, logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := bankstub.NewServer(bankstub.NewStore(), log)

	servers := []*http.Server{
		{Addr: cfg.Stub.ClientAddr, Handler: srv.Router(bankstub.ClientService)},
		{Addr: cfg.Stub.AccountAddr, Handler: srv.Router(bankstub.AccountService)},
		{Addr: cfg.Stub.TransactionAddr, Handler: srv.Router(bankstub.TransactionService)},
	}
	names := []string{"client", "account", "transaction"}

	for i, s := range servers {
		go func() {
			log.Info().Str("service", names[i]).Str("addr", s.Addr).Msg("Starting stub service")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Str("service", names[i]).Msg("Failed to start stub service")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down stub services...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Shutdown(ctx); err != nil {
				log.Error().Err(err).Str("addr", s.Addr).Msg("Stub service forced to shutdown")
			}
		}()
	}
	wg.Wait()

	log.Info().Msg("Stub services exited")
}

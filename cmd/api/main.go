package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davidobi/bank-ledger/internal/config"
	"github.com/davidobi/bank-ledger/internal/handler"
	"github.com/davidobi/bank-ledger/internal/logging"
	"github.com/davidobi/bank-ledger/internal/middleware"
	"github.com/davidobi/bank-ledger/internal/repository"
	"github.com/davidobi/bank-ledger/internal/service"
	"github.com/davidobi/bank-ledger/internal/service/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("ledger-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)
	ledger := repository.NewLedgerRepository(db)

	accountSvc := service.NewAccountService(accounts, ledger)
	transferSvc := transfer.NewService(accounts, transactions, ledger, db, transfer.Policy{
		RejectSelfTransfer:   cfg.RejectSelfTransfer,
		EnforceCurrencyMatch: cfg.EnforceCurrencyMatch,
		EnforceAccountStatus: cfg.EnforceAccountStatus,
	})

	accountHandler := handler.NewAccountHandler(accountSvc)
	transferHandler := handler.NewTransferHandler(transferSvc)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/accounts", accountHandler.Create)
	mux.HandleFunc("GET /api/v1/accounts/{id}", accountHandler.Get)
	mux.HandleFunc("GET /api/v1/accounts/{id}/ledger", accountHandler.ListLedger)
	mux.HandleFunc("PATCH /api/v1/accounts/{id}/status", accountHandler.UpdateStatus)

	mux.HandleFunc("POST /api/v1/deposits", transferHandler.CreateDeposit)
	mux.HandleFunc("POST /api/v1/withdrawals", transferHandler.CreateWithdrawal)
	mux.HandleFunc("POST /api/v1/transfers", transferHandler.CreateTransfer)
	mux.HandleFunc("GET /api/v1/transactions/{id}", transferHandler.GetTransaction)

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

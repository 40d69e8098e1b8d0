package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labinf/libraryapi/catalog"
	"github.com/labinf/libraryapi/config"
	"github.com/labinf/libraryapi/core"
	"github.com/labinf/libraryapi/httpapi"
	"github.com/labinf/libraryapi/lending"
	"github.com/labinf/libraryapi/notify"
	"github.com/labinf/libraryapi/otellog"
	"github.com/labinf/libraryapi/overdue"
	"github.com/labinf/libraryapi/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := otellog.NewTextLogger(slog.LevelInfo)
	if cfg.OTelLogs {
		logger = otellog.NewBridgeLogger("libraryapi")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := config.NewPGXPool(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, postgres.Schema); err != nil {
		log.Fatalf("Failed to apply database schema: %v", err)
	}

	bookStore, err := postgres.NewBookStoreFromPGXPool(pool, postgres.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to build book store: %v", err)
	}

	loanStore, err := postgres.NewLoanStoreFromPGXPool(pool, postgres.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to build loan store: %v", err)
	}

	books := catalog.NewService(bookStore)
	loans := lending.NewService(bookStore, loanStore, core.SystemClock{})

	var notifier overdue.Notifier = notify.NewLogNotifier(logger)
	if cfg.SMTPAddr != "" {
		smtpOptions := make([]notify.SMTPOption, 0)
		if cfg.SMTPUsername != "" {
			smtpOptions = append(smtpOptions, notify.WithCredentials(cfg.SMTPUsername, cfg.SMTPPassword))
		}
		notifier = notify.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom, smtpOptions...)
	}

	sweep := overdue.NewSweep(loans, notifier,
		overdue.WithThresholdDays(cfg.OverdueDays),
		overdue.WithMessage(cfg.OverdueNotice),
		overdue.WithSweepLogger(logger),
	)

	scheduler := overdue.NewScheduler(sweep,
		overdue.WithHourUTC(cfg.SweepHourUTC),
		overdue.WithLogger(logger),
	)

	go scheduler.Run(ctx)

	server := httpapi.NewServer(books, loans, httpapi.WithLogger(logger))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("http server shutdown failed", "error", shutdownErr.Error())
		}
	}()

	logger.Info("library api listening", "addr", cfg.HTTPAddr)

	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		log.Fatalf("HTTP server failed: %v", serveErr)
	}
}

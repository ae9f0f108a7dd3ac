package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/tesfam/kiraypay/internal/app"
	"github.com/tesfam/kiraypay/internal/version"
	"github.com/tesfam/kiraypay/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	application, err := app.NewApplication(logger)
	if err != nil {
		return err
	}
	defer application.DB.Close()
	defer application.Cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workers := worker.New(&worker.Worker{
		KafkaStream:    application.Kafka,
		Settlement:     application.Settlement,
		Payouts:        application.Payouts,
		Reconciliation: application.Reconciliation,
		Ctx:            ctx,
		Helper:         application.Helper(),
	})

	go workers.SettlementWorker()
	go workers.PayoutResultWorker()
	go workers.ReconciliationWorker(time.Duration(application.Config.Reconciliation.IntervalHours) * time.Hour)

	return application.ServeHTTP()
}

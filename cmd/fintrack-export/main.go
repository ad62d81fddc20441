// Command fintrack-export writes one month of transactions to a Google
// spreadsheet. With -follow it stays connected to the event exchange and
// re-exports whenever transactions or settings change.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/persist"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/store"
)

func main() {
	month := flag.String("month", "", "month to export as YYYY-MM (default: the stored month cursor)")
	follow := flag.Bool("follow", false, "keep running and re-export on state change events")
	dryRun := flag.Bool("dry-run", false, "render rows without calling the Sheets API")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if *month != "" {
		if _, err := core.ParseMonth(*month); err != nil {
			logger.Error("Invalid -month flag", log.FieldError, err)
			os.Exit(2)
		}
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, cfg, logger, *month, *follow, *dryRun); err != nil {
		logger.Error("Export failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, month string, follow, dryRun bool) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.Logger).Create(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer res.Close()

	var exporter sheets.MonthExporter
	if dryRun {
		exporter = memory.New()
	} else {
		if err := cfg.ValidateExport(); err != nil {
			return err
		}
		gs, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return fmt.Errorf("sheets exporter: %w", err)
		}
		exporter = gs
	}

	j := &job{
		load:     res.Persister.Load,
		exporter: exporter,
		month:    month,
		logger:   logger.WithComponent(log.ComponentSheets),
	}
	if _, err := j.export(ctx, ""); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	if cfg.AMQPURL == "" {
		return errors.New("-follow needs AMQP_URL")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer client.Close()

	keys := []string{
		amqp.RoutingKey(store.Transactions),
		amqp.RoutingKey(store.Settings),
		amqp.RoutingKey(store.CurrentMonth),
	}
	err = client.Consume(ctx, cfg.AMQPQueue, keys, j.handle(ctx))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// job exports either a fixed month or whichever month the event (or the
// stored cursor) names.
type job struct {
	load     func(context.Context) (core.State, persist.Source)
	exporter sheets.MonthExporter
	month    string
	logger   *log.Logger
}

// export reloads the persisted state and writes the target month. hint is
// used when no month was fixed on the command line; an empty hint means the
// stored cursor.
func (j *job) export(ctx context.Context, hint string) (string, error) {
	state, source := j.load(ctx)

	month := j.month
	if month == "" {
		month = hint
	}
	if month == "" {
		month = state.CurrentMonth
	}

	ref, err := j.exporter.ExportMonth(ctx, month, state.Transactions, state.Settings.Currency)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", month, err)
	}
	j.logger.InfoContext(ctx, "Month exported",
		log.FieldOperation, log.OpExport,
		log.FieldMonth, month,
		log.FieldSheetsRef, ref,
		"source", string(source),
		"transactions", len(state.Transactions))
	return ref, nil
}

// handle re-exports on every event. A bad month in the event is logged and
// acknowledged since retrying cannot fix it; other failures requeue.
func (j *job) handle(ctx context.Context) func(*amqp.StateChangedMessage) error {
	return func(msg *amqp.StateChangedMessage) error {
		_, err := j.export(ctx, msg.Month)
		if errors.Is(err, core.ErrInvalidMonth) {
			j.logger.WarnContext(ctx, "Skipping event with unusable month",
				log.FieldSlice, msg.Slice,
				log.FieldMonth, msg.Month,
				log.FieldError, err)
			return nil
		}
		return err
	}
}

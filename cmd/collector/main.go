package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"

	"SP500Collector/internal/collector"
	"SP500Collector/internal/config"
	"SP500Collector/internal/notifier"
	"SP500Collector/internal/recorder"
	"SP500Collector/internal/scheduler"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(cfg.Log.Level),
		Caller:     1,
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			ColorOutput:    true,
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		},
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Str("output", cfg.Output.Dir).Msg("SP500Collector starting")

	// Init fetcher and ticker source
	client := collector.NewHTTPClient(cfg.Proxy, 30*time.Second)
	fetcher := collector.NewYahooFetcher(collector.WithHTTPClient(client))
	source := collector.NewWikipediaSource(cfg.Source.WikipediaURL, cfg.Source.SymbolColumn, client)
	log.Info().Str("provider", fetcher.Name()).Str("source", cfg.Source.WikipediaURL).Msg("data sources ready")

	col := collector.NewCollector(source, fetcher, collector.Options{
		Dir:           cfg.Output.Dir,
		PricesFile:    cfg.Output.PricesFile,
		LookbackYears: cfg.Prices.LookbackYears,
		Interval:      cfg.Prices.Interval,
		Adjusted:      !cfg.Prices.Raw,
		Threads:       cfg.Prices.Threads,
		Workers:       cfg.Fundamentals.Workers,
	})

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Init Telegram notifier
	var n scheduler.Notifier
	if cfg.TelegramEnabled() {
		n = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, col, n, rec)

	if cfg.Schedule.Cron == "" {
		if err := sched.RunOnce(); err != nil {
			rec.Close()
			log.Fatal().Err(err).Msg("collection run failed")
		}
		return
	}

	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	sched.Start()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing collection now")
		go sched.RunNow()
	}

	log.Info().Msg("SP500Collector is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Info().Msg("shutdown signal received, stopping...")
	sched.Stop()
	log.Info().Msg("SP500Collector stopped")
}

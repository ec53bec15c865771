package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"SP500Collector/internal/collector"
	"SP500Collector/internal/model"
	"SP500Collector/internal/notifier"
	"SP500Collector/internal/recorder"
)

// ErrRunInProgress is returned when a run is triggered while another is active.
var ErrRunInProgress = errors.New("collection run already in progress")

// Notifier delivers run summaries. TelegramNotifier satisfies it.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the collector once or on a cron schedule and reports each run.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  Notifier // nil disables notifications
	Recorder  recorder.Recorder
	Ctx       context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, n Notifier, rec recorder.Recorder) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  n,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// Register schedules a collection run for the given six-field cron expression.
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.scheduledRun); err != nil {
		return fmt.Errorf("register collection task: %w", err)
	}
	log.Info().Str("cron", expr).Msg("collection task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunOnce executes one collection run, records it and sends the summary.
// The returned error is the run error; recording and notification failures
// are logged only.
func (s *Scheduler) RunOnce() error {
	if !s.running.TryLock() {
		return ErrRunInProgress
	}
	defer s.running.Unlock()

	summary, runErr := s.Collector.Run(s.Ctx)
	s.record(summary, runErr)
	s.trySend(notifier.FormatRunSummary(summary, runErr))

	if runErr != nil {
		log.Error().Err(runErr).Str("run_id", summary.ID).Msg("collection run failed")
		return runErr
	}
	log.Info().
		Str("run_id", summary.ID).
		Int("tickers", len(summary.Tickers)).
		Int("price_rows", summary.PriceRows).
		Int("succeeded", summary.Succeeded()).
		Int("failed", len(summary.Failed())).
		Dur("duration", summary.Duration()).
		Msg("collection run complete")
	return nil
}

// RunNow executes a run immediately, logging instead of returning its error
// (for RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.scheduledRun()
}

func (s *Scheduler) scheduledRun() {
	if err := s.RunOnce(); err != nil {
		log.Warn().Err(err).Msg("scheduled run did not complete")
	}
}

func (s *Scheduler) record(summary *model.RunSummary, runErr error) {
	if err := s.Recorder.RecordRun(recorder.NewRunEvent(summary, runErr)); err != nil {
		log.Error().Err(err).Msg("record run")
	}
	for _, r := range summary.Results {
		if err := s.Recorder.RecordSymbol(recorder.NewSymbolEvent(summary.ID, r)); err != nil {
			log.Error().Err(err).Str("symbol", r.Symbol).Msg("record symbol")
		}
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

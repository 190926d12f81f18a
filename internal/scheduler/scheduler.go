// Package scheduler runs the correlation analysis on a fixed interval over
// the trailing observation window and publishes each report.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/analysis"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/observability"
)

// ErrEmptyWindow is returned by RunOnce when the store holds nothing in the window.
var ErrEmptyWindow = errors.New("no observations in analysis window")

// Snapshotter returns the hourly observations between two instants.
type Snapshotter interface {
	Window(from, to time.Time) []domain.DistrictObservation
}

// Analyzer produces a report from a request.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error)
}

// Publisher delivers serialized reports downstream.
type Publisher interface {
	Publish(ctx context.Context, events ...domain.OutputEvent) error
}

// Options controls the schedule.
type Options struct {
	Window   time.Duration // trailing span analyzed on each run
	Interval time.Duration // time between runs, rounded down to whole minutes
	Timeout  time.Duration // per-run deadline; 0 means 1 minute
}

// Scheduler periodically analyzes the observation window.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     Snapshotter
	engine    Analyzer
	publisher Publisher
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics

	runMu  sync.Mutex // one run at a time
	latest atomic.Pointer[analysis.Report]
}

// New creates a Scheduler. publisher may be nil, in which case reports are
// only kept in memory.
func New(store Snapshotter, engine Analyzer, publisher Publisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		engine:    engine,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules the analysis job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	minutes := int(s.opts.Interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
		defer cancel()

		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrEmptyWindow) {
			s.logger.Error("scheduled analysis failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.logger.Info("analysis scheduler started", "every_minutes", minutes, "window", s.opts.Window)
	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Latest returns the most recent successful report.
func (s *Scheduler) Latest() (*analysis.Report, bool) {
	r := s.latest.Load()
	return r, r != nil
}

// CheckReadiness returns nil once a report has been produced.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if s.latest.Load() == nil {
		return errors.New("no analysis report produced yet")
	}
	return nil
}

// RunOnce snapshots the window, rolls it up to daily values, analyzes it and
// publishes the report. A publish failure is logged and counted but does not
// discard the report.
func (s *Scheduler) RunOnce(ctx context.Context) (*analysis.Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	now := domain.Clock().Now().UTC()
	from := domain.Day(now.Add(-s.opts.Window))

	// The period covers whole days, so the snapshot starts at midnight of the
	// oldest day rather than at the cutoff instant.
	daily := domain.RollupDaily(s.store.Window(from, now))
	s.metrics.WindowObservations.Set(float64(len(daily)))
	if len(daily) == 0 {
		s.metrics.AnalysisRuns.WithLabelValues("empty").Inc()
		s.logger.Info("analysis skipped, window is empty", "from", from, "to", now)
		return nil, ErrEmptyWindow
	}

	report, err := s.engine.Analyze(ctx, analysis.Request{
		Observations: daily,
		Period:       domain.NewPeriod(from, now),
	})
	if err != nil {
		s.metrics.AnalysisRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	s.latest.Store(report)
	s.metrics.AnalysisRuns.WithLabelValues("success").Inc()
	s.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	s.metrics.LastReportTimestamp.Set(float64(report.GeneratedAt.Unix()))
	s.logger.Info("analysis completed",
		"report_id", report.ID,
		"observations", len(daily),
		"districts", len(report.Districts),
		"duration", time.Since(start),
	)

	s.publish(ctx, report)
	return report, nil
}

func (s *Scheduler) publish(ctx context.Context, report *analysis.Report) {
	if s.publisher == nil {
		return
	}
	event, err := analysis.SerializeReport(report)
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Warn("publish report failed", "report_id", report.ID, "error", err)
		return
	}
	s.metrics.ReportsPublished.Inc()
}

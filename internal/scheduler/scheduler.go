package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Warmer refreshes cached weather for a set of cities.
type Warmer interface {
	WarmUp(ctx context.Context, cities []string) error
}

// Scheduler keeps the observation cache warm for frequently requested
// cities on a cron schedule.
type Scheduler struct {
	warmer     Warmer
	logger     *zap.Logger
	cities     []string
	spec       string
	runTimeout time.Duration
	cron       *cron.Cron
	job        cron.Job
	entryID    cron.EntryID
	running    bool
	mu         sync.Mutex
	lastRun    time.Time
	lastErr    error
}

func NewScheduler(warmer Warmer, cities []string, spec string, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		warmer:     warmer,
		logger:     logger,
		cities:     cities,
		spec:       spec,
		runTimeout: 60 * time.Second,
		cron:       cron.New(),
	}
	// scheduled, initial and manual runs share one wrapped job so they
	// never overlap
	s.job = cron.NewChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	).Then(cron.FuncJob(s.runWarmUp))
	return s
}

// Start registers the warm-up job and runs it once immediately.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	id, err := s.cron.AddJob(s.spec, s.job)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}
	s.entryID = id
	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started",
		zap.String("spec", s.spec),
		zap.Time("next_run", s.cron.Entry(id).Next),
		zap.Strings("cities", s.cities))

	go s.job.Run()
	return nil
}

func (s *Scheduler) runWarmUp() {
	s.mu.Lock()
	cities := append([]string(nil), s.cities...)
	s.mu.Unlock()

	if len(cities) == 0 {
		return
	}

	startTime := time.Now()
	s.logger.Info("Starting scheduled weather warm-up", zap.Strings("cities", cities))

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	err := s.warmer.WarmUp(ctx, cities)

	s.mu.Lock()
	s.lastRun = startTime
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled weather warm-up failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
		return
	}
	s.logger.Info("Scheduled weather warm-up completed",
		zap.Duration("duration", time.Since(startTime)))
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering weather warm-up")
	go s.job.Run()
}

func (s *Scheduler) UpdateCities(cities []string) {
	s.mu.Lock()
	s.cities = cities
	s.mu.Unlock()

	s.logger.Info("Scheduler cities updated", zap.Strings("cities", cities))
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":  s.running,
		"spec":     s.spec,
		"last_run": s.lastRun,
		"cities":   s.cities,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	if s.lastErr != nil {
		status["last_error"] = s.lastErr.Error()
	}
	return status
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

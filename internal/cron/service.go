package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/quickbite-backend/pkg/logger"
	"github.com/angelmondragon/quickbite-backend/pkg/metrics"
)

const (
	defaultInterval     = time.Hour
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 2 * time.Second
)

// ServiceParams configure the sweeper.
type ServiceParams struct {
	Logger       *logger.Logger
	Registry     *Registry
	Lock         Lock
	Metrics      *metrics.CronJobMetrics
	Interval     time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Service runs every registered job once per cycle, each inside its own failure boundary.
type Service struct {
	logg        *logger.Logger
	registry    *Registry
	lock        Lock
	metrics     *metrics.CronJobMetrics
	interval    time.Duration
	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
}

// PhaseResult is the outcome of one job within a sweep.
type PhaseResult struct {
	Job        string        `json:"job"`
	Affected   int64         `json:"affected"`
	Attempts   int           `json:"attempts"`
	Duration   time.Duration `json:"duration_ns"`
	Err        error         `json:"-"`
	ErrMessage string        `json:"error,omitempty"`
}

// Summary reports a sweep. Skipped is set when another replica held the lock.
type Summary struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Skipped    bool          `json:"skipped"`
	Phases     []PhaseResult `json:"phases"`
}

// Err combines the per-phase errors.
func (s Summary) Err() error {
	var errs error
	for _, phase := range s.Phases {
		if phase.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", phase.Job, phase.Err))
		}
	}
	return errs
}

// NewService builds the sweeper.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	attempts := params.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	backoff := params.RetryBackoff
	if backoff < 0 {
		backoff = defaultRetryBackoff
	}
	return &Service{
		logg:        params.Logger,
		registry:    registry,
		lock:        params.Lock,
		metrics:     params.Metrics,
		interval:    interval,
		maxAttempts: attempts,
		backoff:     backoff,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run sweeps immediately and then on every interval until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.cycle(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "sweeper context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Service) cycle(ctx context.Context) {
	summary, err := s.RunOnce(ctx)
	if err != nil {
		s.logg.Error(ctx, "sweep failed to start", err)
		return
	}
	if phaseErr := summary.Err(); phaseErr != nil {
		s.logg.Error(ctx, "sweep finished with failed phases", phaseErr)
	}
}

// RunOnce performs a single sweep under the lock. Phase failures are recorded in the
// summary; the returned error only covers lock problems.
func (s *Service) RunOnce(ctx context.Context) (*Summary, error) {
	summary := &Summary{StartedAt: s.now(), Phases: []PhaseResult{}}
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another sweeper instance is running; skipping this cycle")
		summary.Skipped = true
		summary.FinishedAt = s.now()
		return summary, nil
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "failed to release sweeper lock", relErr)
		}
	}()

	s.logg.Info(ctx, "sweep starting")
	for _, job := range s.registry.Jobs() {
		summary.Phases = append(summary.Phases, s.runJob(ctx, job))
	}
	summary.FinishedAt = s.now()
	s.logg.Info(s.logg.WithField(ctx, "duration_ms", summary.FinishedAt.Sub(summary.StartedAt).Milliseconds()), "sweep complete")
	return summary, nil
}

func (s *Service) runJob(ctx context.Context, job Job) PhaseResult {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")
	s.logg.Info(jobCtx, "job start")

	result := PhaseResult{Job: job.Name()}
	start := time.Now()
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		result.Attempts = attempt
		affected, err := job.Run(jobCtx)
		result.Affected += affected
		result.Err = err
		if err == nil {
			break
		}
		attemptCtx := s.logg.WithField(jobCtx, "attempt", attempt)
		s.logg.Warn(s.logg.WithField(attemptCtx, "error", err.Error()), "job attempt failed")
		if attempt == s.maxAttempts || !s.wait(ctx, time.Duration(attempt)*s.backoff) {
			break
		}
	}
	result.Duration = time.Since(start)

	s.metrics.ObserveDuration(job.Name(), result.Duration)
	s.metrics.AddAffected(job.Name(), result.Affected)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", result.Duration.Milliseconds())
	jobCtx = s.logg.WithField(jobCtx, "affected", result.Affected)
	if result.Err != nil {
		result.ErrMessage = result.Err.Error()
		s.logg.Error(jobCtx, "job failed", result.Err)
		s.metrics.IncFailure(job.Name())
		return result
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
	return result
}

// wait sleeps for d unless ctx ends first.
func (s *Service) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

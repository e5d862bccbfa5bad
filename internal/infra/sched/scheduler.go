package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/infra/logging"
	"telegram-reward-bot/internal/infra/metrics"
)

const jobTimeout = 10 * time.Minute

// JobFunc is one scheduled run. Its ctx ends when the scheduler stops or the
// run exceeds jobTimeout.
type JobFunc func(ctx context.Context) error

// Scheduler runs named jobs on cron expressions. Overlapping runs of the same
// job are skipped.
type Scheduler struct {
	engine *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    *zerolog.Logger
}

func NewScheduler(logger *zerolog.Logger) *Scheduler {
	log := logging.Component(logger, "Scheduler")
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		engine: cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Register adds fn under spec ("*/30 * * * *", "@every 6h", "@daily").
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	_, err := s.engine.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			metrics.IncJob(name, "failed")
			s.log.Error().Err(err).Str("job", name).Dur("took", time.Since(start)).Msg("job failed")
			return
		}
		metrics.IncJob(name, "completed")
		s.log.Info().Str("job", name).Dur("took", time.Since(start)).Msg("job completed")
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	s.log.Info().Str("job", name).Str("spec", spec).Msg("job registered")
	return nil
}

// Run starts the engine and blocks until ctx is done, then waits for running
// jobs to return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.engine.Start()
	<-ctx.Done()
	s.cancel()
	<-s.engine.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
	return nil
}

// cronLogger routes cron's own logging into zerolog.
type cronLogger struct{ log *zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

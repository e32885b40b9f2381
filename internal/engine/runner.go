package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Runner drives the engine on a fixed interval. Overlapping ticks are
// skipped, never queued: two ticks must not race over the same schedule
// set, and a skipped tick loses nothing because due conditions persist
// until the minute rolls over.
type Runner struct {
	engine   *Engine
	interval time.Duration
	cron     *cron.Cron
}

func NewRunner(e *Engine, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{engine: e, interval: interval}
}

// Start registers the tick job and begins polling. ctx bounds every tick's
// external calls.
func (r *Runner) Start(ctx context.Context) error {
	logger := cronLogger{}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(logger)))

	spec := fmt.Sprintf("@every %s", r.interval)
	if _, err := c.AddFunc(spec, func() {
		if err := r.engine.RunTick(ctx); err != nil {
			log.Error().Err(err).Msg("poll tick failed")
		}
	}); err != nil {
		return fmt.Errorf("registering poll job: %w", err)
	}

	c.Start()
	r.cron = c
	log.Info().Dur("interval", r.interval).Msg("schedule polling started")
	return nil
}

// Stop halts polling and waits for an in-flight tick to finish.
func (r *Runner) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	log.Info().Msg("schedule polling stopped")
}

// cronLogger adapts zerolog to cron's logger interface.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	log.Debug().Fields(kvFields(kv)).Msg(msg)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	log.Error().Err(err).Fields(kvFields(kv)).Msg(msg)
}

func kvFields(kv []any) map[string]any {
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields[key] = kv[i+1]
	}
	return fields
}

var _ cron.Logger = cronLogger{}

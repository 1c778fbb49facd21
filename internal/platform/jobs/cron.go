// Package jobs runs the engine's batch entry points on cron schedules.
//
// The runner is purely an in-process trigger; each job receives a fresh
// context and its error is logged, never propagated. A failed nightly run
// must not take the process down.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Runner schedules batch jobs using 5-field cron expressions.
type Runner struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

// NewRunner creates a stopped Runner. Call Start after registering jobs.
func NewRunner(logger zerolog.Logger) *Runner {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	return &Runner{cron: c, logger: logger}
}

// Add registers a named job under the given cron expression. It returns an
// error if the expression is invalid.
func (r *Runner) Add(expr, name string, job func(ctx context.Context) error) error {
	_, err := r.cron.AddFunc(expr, func() {
		if err := job(context.Background()); err != nil {
			r.logger.Error().Err(err).Str("job", name).Msg("scheduled job failed")
			return
		}
		r.logger.Info().Str("job", name).Msg("scheduled job completed")
	})
	return err
}

// Start begins dispatching jobs.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

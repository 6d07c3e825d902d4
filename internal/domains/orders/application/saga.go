package application

import (
	"context"
	"log/slog"
)

// Step is one unit of the order placement saga. Compensate undoes a
// successful Execute.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// saga runs steps in order and, on the first failure, compensates the steps
// that already succeeded in reverse order.
type saga struct {
	steps  []Step
	logger *slog.Logger
}

func (s *saga) run(ctx context.Context) error {
	done := make([]Step, 0, len(s.steps))
	for _, step := range s.steps {
		if err := step.Execute(ctx); err != nil {
			s.logger.WarnContext(ctx, "order saga step failed, compensating",
				slog.String("step", step.Name()),
				slog.String("error", err.Error()),
			)
			s.rollback(ctx, done)
			return err
		}
		done = append(done, step)
	}
	return nil
}

func (s *saga) rollback(ctx context.Context, done []Step) {
	// Compensation must still run when the request context is gone.
	ctx = context.WithoutCancel(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if err := step.Compensate(ctx); err != nil {
			s.logger.ErrorContext(ctx, "order saga compensation failed",
				slog.String("step", step.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// funcStep adapts closures to Step.
type funcStep struct {
	name       string
	execute    func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

func (s funcStep) Name() string { return s.name }

func (s funcStep) Execute(ctx context.Context) error { return s.execute(ctx) }

func (s funcStep) Compensate(ctx context.Context) error {
	if s.compensate == nil {
		return nil
	}
	return s.compensate(ctx)
}

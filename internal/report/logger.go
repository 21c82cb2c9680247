package report

import (
	"log/slog"
	"sort"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// StepLogger is an observer that logs every n-th committed step with the
// position of each body.
type StepLogger struct {
	logger *slog.Logger
	every  int
}

func NewStepLogger(logger *slog.Logger, every int) *StepLogger {
	if logger == nil {
		logger = slog.Default()
	}
	if every < 1 {
		every = 1
	}
	return &StepLogger{logger: logger, every: every}
}

func (l *StepLogger) OnStep(r dynamo.StepResult) error {
	if r.Step%l.every != 0 {
		return nil
	}

	ids := make([]string, 0, len(r.Positions))
	for id := range r.Positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	attrs := make([]any, 0, len(ids))
	for _, id := range ids {
		p := r.Positions[id]
		attrs = append(attrs, slog.Group(id, slog.Float64("x", p.X), slog.Float64("y", p.Y)))
	}

	l.logger.Info("step",
		slog.Int("step", r.Step),
		slog.Float64("time", r.Time),
		slog.Float64("kinetic_energy", r.TotalKineticEnergy),
		slog.Group("positions", attrs...),
	)
	return nil
}

package worker

import (
	"context"
	"errors"
	"log/slog"
)

// ErrStop is returned (or wrapped) by a processor whose message
// source is gone for good; the worker exits its loop instead of
// spinning on a dead source.
var ErrStop = errors.New("stop worker")

type Config struct {
	Name      string
	Processor Processor
}

type Processor interface {
	ProcessMessage(ctx context.Context) error
}

type Worker struct {
	name      string
	processor Processor
}

func New(cfg Config) *Worker {
	return &Worker{
		name:      cfg.Name,
		processor: cfg.Processor,
	}
}

func (w *Worker) Run(ctx context.Context) {
	slog.InfoContext(ctx, "Worker started...", "worker", w.name)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Worker stopped...", "worker", w.name)
			return
		default:
			err := w.processor.ProcessMessage(ctx)
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			if errors.Is(err, ErrStop) {
				slog.InfoContext(ctx, "Worker stopping...", "worker", w.name, "reason", err)
				return
			}
			slog.ErrorContext(ctx, "Error processing message", "worker", w.name, "error", err)
		}
	}
}

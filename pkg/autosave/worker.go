package autosave

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
)

// tickWorker drives Scheduler.Tick on a ticker.
type tickWorker struct {
	*worker.BaseWorker
	scheduler *Scheduler
	cancel    context.CancelFunc
}

func newTickWorker(s *Scheduler) *tickWorker {
	return &tickWorker{
		BaseWorker: worker.NewBaseWorker("autosave"),
		scheduler:  s,
	}
}

func (w *tickWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("autosave already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *tickWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *tickWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"interval":          w.scheduler.config.Interval.String(),
		}
	})
}

func (w *tickWorker) run(ctx context.Context) error {
	ticker := time.NewTicker(w.scheduler.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// Failures are logged and tracked by the scheduler; the loop keeps going.
			_ = w.scheduler.Tick(ctx)
		}
	}
}

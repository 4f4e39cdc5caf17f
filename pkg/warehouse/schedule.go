package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jasonlvhit/gocron"
)

// Schedule refreshes the index every day at the given local time ("15:04").
// The returned function stops the scheduler.
func (w *Warehouse) Schedule(at string) (stop func(), err error) {
	if _, err := time.Parse("15:04", at); err != nil {
		return nil, fmt.Errorf("invalid refresh time %q: %w", at, err)
	}

	s := gocron.NewScheduler()
	s.Every(1).Day().At(at).Do(w.scheduledRefresh)
	stopped := s.Start()

	_, next := s.NextRun()
	w.logger.Infof("daily refresh scheduled at %s (next run %s)", at, next.Format(time.RFC3339))

	return func() {
		s.Clear()
		close(stopped)
	}, nil
}

func (w *Warehouse) scheduledRefresh() {
	if err := w.Refresh(context.Background(), ReasonSchedule); err != nil {
		w.logger.Errorf("scheduled refresh failed: %v", err)
	}
}

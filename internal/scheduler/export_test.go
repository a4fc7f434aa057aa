package scheduler

import (
	"context"
	"time"
)

func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Scheduler) CheckFrom(ctx context.Context, from time.Time) time.Time {
	return s.checkFrom(ctx, from)
}

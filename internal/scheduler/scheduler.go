package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Josue049/CronoSpark/internal/rabbit"
	"github.com/Josue049/CronoSpark/internal/storage"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Interval        time.Duration
	CleanupInterval time.Duration
	RemindBefore    time.Duration
	// Retention of dated events; zero keeps everything.
	Retention time.Duration
	Timezone  string
}

var ErrNoPublisher = errors.New("no reminder publisher")

type Publisher interface {
	Publish(ctx context.Context, reminder rabbit.Reminder) error
}

// Scheduler is not safe for concurrent use.
type Scheduler struct {
	config    Config
	storage   storage.Storage
	publisher Publisher
	loc       *time.Location
	now       func() time.Time
	// published holds reminders sent in a window that has not completed yet.
	published map[reminderKey]struct{}
}

type reminderKey struct {
	id  int64
	due int64
}

// New creates a scheduler. A nil publisher disables reminders.
func New(config Config, storage storage.Storage, publisher Publisher) (*Scheduler, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("incorrect scheduler interval %s", config.Interval)
	}
	tz := config.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return &Scheduler{
		config:    config,
		storage:   storage,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
		published: map[reminderKey]struct{}{},
	}, nil
}

// Run checks for reminders every interval until ctx is done.
// Without a publisher it only removes old events.
func (s *Scheduler) Run(ctx context.Context) error {
	var (
		check <-chan time.Time
		from  time.Time
	)
	if s.publisher != nil {
		checkTicker := time.NewTicker(s.config.Interval)
		defer checkTicker.Stop()
		check = checkTicker.C
	} else {
		log.Warn("reminders are disabled, only old events are removed")
	}

	var cleanup <-chan time.Time
	if s.config.Retention > 0 && s.config.CleanupInterval > 0 {
		cleanupTicker := time.NewTicker(s.config.CleanupInterval)
		defer cleanupTicker.Stop()
		cleanup = cleanupTicker.C
	}

	if check != nil {
		from = s.checkFrom(ctx, s.now().Add(-s.config.Interval))
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-check:
			from = s.checkFrom(ctx, from)
		case <-cleanup:
			if _, err := s.Cleanup(ctx); err != nil {
				log.Errorf("failed to remove old events: %v", err)
			}
		}
	}
}

// checkFrom checks (from:now] and returns where the next check starts.
// A failed window is checked again on the next tick.
func (s *Scheduler) checkFrom(ctx context.Context, from time.Time) time.Time {
	to := s.now()
	log.Debugf("check reminders: %s - %s", from, to)
	if _, err := s.Check(ctx, from, to); err != nil {
		log.Errorf("failed to check reminders, retrying from %s: %v", from, err)
		return from
	}
	return to
}

// Check publishes reminders for urgent events whose reminder moment is in (from:to].
// After a failure the same window may be checked again: reminders already
// published in it are skipped.
func (s *Scheduler) Check(ctx context.Context, from, to time.Time) (int, error) {
	if s.publisher == nil {
		return 0, ErrNoPublisher
	}
	fromDate := from.Add(s.config.RemindBefore).In(s.loc).Format(storage.DateLayout)
	toDate := to.Add(s.config.RemindBefore).In(s.loc).Format(storage.DateLayout)
	events, err := s.storage.GetUrgentEventsBetween(ctx, fromDate, toDate)
	if err != nil {
		return 0, fmt.Errorf("failed to get events: %w", err)
	}

	var sent int
	for _, event := range events {
		due, ok := event.Due(s.loc)
		if !ok {
			continue
		}
		remindAt := due.Add(-s.config.RemindBefore)
		if !remindAt.After(from) || remindAt.After(to) {
			continue
		}
		key := reminderKey{id: event.ID, due: due.Unix()}
		if _, ok := s.published[key]; ok {
			continue
		}
		log.WithField("event", event.ID).WithField("due", due).Debug("send reminder")
		err := s.publisher.Publish(ctx, rabbit.Reminder{ID: event.ID, Title: event.Title, Link: event.Link, Due: due})
		if err != nil {
			return sent, fmt.Errorf("failed to publish reminder for event %d: %w", event.ID, err)
		}
		s.published[key] = struct{}{}
		sent++
	}
	s.published = map[reminderKey]struct{}{}
	return sent, nil
}

// Cleanup removes events dated before the retention period.
func (s *Scheduler) Cleanup(ctx context.Context) (int64, error) {
	if s.config.Retention <= 0 {
		return 0, nil
	}
	before := s.now().Add(-s.config.Retention).In(s.loc).Format(storage.DateLayout)
	removed, err := s.storage.RemoveBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.WithField("before", before).WithField("removed", removed).Info("old events removed")
	}
	return removed, nil
}

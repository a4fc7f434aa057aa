package storage

import (
	"context"
	"errors"
)

var (
	ErrDuplicateEventID = errors.New("event with same ID exists")
	ErrNotFoundEvent    = errors.New("event not found")
	ErrConnectionFailed = errors.New("failed to connect")
)

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	Ping(ctx context.Context) error
	AddEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id int64) (Event, error)
	UpdateEvent(ctx context.Context, id int64, e Event) error
	RemoveEvent(ctx context.Context, id int64) error
	// ListEvents returns events ordered by date and time (unset first), newest created first on ties.
	ListEvents(ctx context.Context) ([]Event, error)
	ListUrgentEvents(ctx context.Context, limit int) ([]Event, error)
	// GetUrgentEventsBetween selects urgent events dated in [fromDate:toDate].
	GetUrgentEventsBetween(ctx context.Context, fromDate, toDate string) ([]Event, error)
	RemoveBefore(ctx context.Context, date string) (int64, error)
}

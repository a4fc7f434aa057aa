package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Josue049/CronoSpark/internal/storage"
	"github.com/Josue049/CronoSpark/internal/validator"
)

// UrgentLimit is the size of the urgent events panel.
const UrgentLimit = 5

var ErrInvalidEvent = errors.New("invalid event")

// EventInput is an event as submitted by a user.
type EventInput struct {
	Title       string `json:"title" validate:"required|max:200"`
	Description string `json:"description" validate:"max:10000"`
	Date        string `json:"date" validate:"layout:2006-01-02"`
	Time        string `json:"time" validate:"layout:15:04"`
	Link        string `json:"link" validate:"max:500|regexp:(https?://\\S+)?"`
	Urgent      bool   `json:"urgent"`
}

type Overview struct {
	Events []storage.Event
	Urgent []storage.Event
}

type App struct {
	Storage storage.Storage
}

func New(storage storage.Storage) *App {
	return &App{Storage: storage}
}

func (a *App) CreateEvent(ctx context.Context, in EventInput) (storage.Event, error) {
	e, err := in.toEvent()
	if err != nil {
		return storage.Event{}, err
	}
	if err := a.Storage.AddEvent(ctx, &e); err != nil {
		return storage.Event{}, err
	}
	return e, nil
}

func (a *App) UpdateEvent(ctx context.Context, id int64, in EventInput) (storage.Event, error) {
	e, err := in.toEvent()
	if err != nil {
		return storage.Event{}, err
	}
	if err := a.Storage.UpdateEvent(ctx, id, e); err != nil {
		return storage.Event{}, err
	}
	return a.Storage.GetEvent(ctx, id)
}

func (a *App) RemoveEvent(ctx context.Context, id int64) error {
	return a.Storage.RemoveEvent(ctx, id)
}

func (a *App) GetEvent(ctx context.Context, id int64) (storage.Event, error) {
	return a.Storage.GetEvent(ctx, id)
}

func (a *App) ListEvents(ctx context.Context) ([]storage.Event, error) {
	return a.Storage.ListEvents(ctx)
}

// Overview returns everything the index page shows.
func (a *App) Overview(ctx context.Context) (Overview, error) {
	events, err := a.Storage.ListEvents(ctx)
	if err != nil {
		return Overview{}, err
	}
	urgent, err := a.Storage.ListUrgentEvents(ctx, UrgentLimit)
	if err != nil {
		return Overview{}, err
	}
	return Overview{Events: events, Urgent: urgent}, nil
}

func (a *App) Ping(ctx context.Context) error {
	return a.Storage.Ping(ctx)
}

func (in EventInput) normalize() EventInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.Link = strings.TrimSpace(in.Link)
	return in
}

func (in EventInput) toEvent() (storage.Event, error) {
	in = in.normalize()
	if err := validator.Validate(in); err != nil {
		return storage.Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return storage.Event{
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Time:        in.Time,
		Link:        in.Link,
		Urgent:      in.Urgent,
	}, nil
}

package sqlstorage_test

import (
	"context"
	"testing"
	"time"

	"github.com/Josue049/CronoSpark/internal/storage"
	sqlstorage "github.com/Josue049/CronoSpark/internal/storage/sql"
	"github.com/stretchr/testify/require"
)

type storageFactory func(t *testing.T) *sqlstorage.Storage

func testStorage(t *testing.T, createStorage storageFactory) {
	t.Helper()
	ctx := context.Background()

	t.Run("add event", func(t *testing.T) {
		e := storage.Event{
			Title:       "test",
			Description: "description",
			Date:        "2300-01-01",
			Time:        "10:30",
			Link:        "https://example.com/meet",
			Urgent:      true,
		}
		s := createStorage(t)

		require.NoError(t, s.AddEvent(ctx, &e))
		require.NotZero(t, e.ID)
		require.False(t, e.CreatedAt.IsZero())

		actual, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		compareEvents(t, e, actual)
	})

	t.Run("optional fields are kept empty", func(t *testing.T) {
		e := storage.Event{Title: "bare"}
		s := createStorage(t)
		require.NoError(t, s.AddEvent(ctx, &e))

		actual, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		require.Empty(t, actual.Description)
		require.Empty(t, actual.Date)
		require.Empty(t, actual.Time)
		require.Empty(t, actual.Link)
		require.False(t, actual.Urgent)
	})

	t.Run("update event", func(t *testing.T) {
		e := storage.Event{Title: "test", Date: "2300-01-01"}
		s := createStorage(t)
		require.NoError(t, s.AddEvent(ctx, &e))

		e.Title = "updated title"
		e.Description = "updated description"
		e.Time = "08:15"
		e.Urgent = true
		require.NoError(t, s.UpdateEvent(ctx, e.ID, e))

		actual, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		compareEvents(t, e, actual)
	})

	t.Run("delete event", func(t *testing.T) {
		e := storage.Event{Title: "test"}
		s := createStorage(t)
		require.NoError(t, s.AddEvent(ctx, &e))

		require.NoError(t, s.RemoveEvent(ctx, e.ID))

		events, err := s.ListEvents(ctx)
		require.NoError(t, err)
		require.Empty(t, events)
	})

	t.Run("list order", func(t *testing.T) {
		s := createStorage(t)
		for _, e := range []storage.Event{
			{Title: "b", Date: "2300-01-02", Time: "09:00"},
			{Title: "a", Date: "2300-01-02"},
			{Title: "none-old"},
			{Title: "c", Date: "2300-01-01", Time: "23:00"},
			{Title: "none-new"},
		} {
			e := e
			require.NoError(t, s.AddEvent(ctx, &e))
		}

		events, err := s.ListEvents(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"none-new", "none-old", "c", "a", "b"}, titles(events))
	})

	t.Run("urgent events", func(t *testing.T) {
		s := createStorage(t)
		for i, date := range []string{"2300-01-07", "", "2300-01-03", "2300-01-05", "2300-01-01", "2300-01-02"} {
			e := storage.Event{Title: date, Date: date, Urgent: i != 3}
			require.NoError(t, s.AddEvent(ctx, &e))
		}

		events, err := s.ListUrgentEvents(ctx, 3)
		require.NoError(t, err)
		require.Equal(t, []string{"", "2300-01-01", "2300-01-02"}, titles(events))

		events, err = s.GetUrgentEventsBetween(ctx, "2300-01-02", "2300-01-07")
		require.NoError(t, err)
		require.Equal(t, []string{"2300-01-02", "2300-01-03", "2300-01-07"}, titles(events))
	})

	t.Run("remove before", func(t *testing.T) {
		s := createStorage(t)
		for _, date := range []string{"2020-01-01", "2020-06-01", "", "2301-01-01"} {
			e := storage.Event{Title: date, Date: date}
			require.NoError(t, s.AddEvent(ctx, &e))
		}

		removed, err := s.RemoveBefore(ctx, "2021-01-01")
		require.NoError(t, err)
		require.Equal(t, int64(2), removed)

		events, err := s.ListEvents(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"", "2301-01-01"}, titles(events))
	})
}

func testStorageNegativeCases(t *testing.T, createStorage storageFactory) {
	t.Helper()
	ctx := context.Background()

	t.Run("add event with same id", func(t *testing.T) {
		e := storage.Event{Title: "test"}
		s := createStorage(t)

		require.NoError(t, s.AddEvent(ctx, &e))
		require.ErrorIs(t, s.AddEvent(ctx, &e), storage.ErrDuplicateEventID)
	})

	t.Run("auto id after explicit id", func(t *testing.T) {
		s := createStorage(t)
		explicit := storage.Event{ID: 100, Title: "explicit"}
		require.NoError(t, s.AddEvent(ctx, &explicit))

		auto := storage.Event{Title: "auto"}
		require.NoError(t, s.AddEvent(ctx, &auto))
		require.Greater(t, auto.ID, explicit.ID)
	})

	t.Run("get not exist event", func(t *testing.T) {
		s := createStorage(t)
		_, err := s.GetEvent(ctx, 424242)
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})

	t.Run("update not exist event", func(t *testing.T) {
		s := createStorage(t)
		require.ErrorIs(t, s.UpdateEvent(ctx, 424242, storage.Event{Title: "x"}), storage.ErrNotFoundEvent)
	})

	t.Run("delete not exist event", func(t *testing.T) {
		s := createStorage(t)
		require.ErrorIs(t, s.RemoveEvent(ctx, 424242), storage.ErrNotFoundEvent)
	})
}

func compareEvents(t *testing.T, expected storage.Event, actual storage.Event) {
	t.Helper()
	require.WithinDuration(t, expected.CreatedAt, actual.CreatedAt, time.Millisecond)
	expected.CreatedAt = actual.CreatedAt
	require.Equal(t, expected, actual)
}

func titles(events []storage.Event) []string {
	res := make([]string, 0, len(events))
	for _, e := range events {
		res = append(res, e.Title)
	}
	return res
}

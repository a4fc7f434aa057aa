package memorystorage_test

import (
	"context"
	"testing"
	"time"

	"github.com/Josue049/CronoSpark/internal/storage"
	memorystorage "github.com/Josue049/CronoSpark/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("add and get event", func(t *testing.T) {
		s := memorystorage.New()
		e := storage.Event{Title: "test", Date: "2030-01-01", Time: "10:00"}

		require.NoError(t, s.AddEvent(ctx, &e))
		require.Equal(t, int64(1), e.ID)
		require.False(t, e.CreatedAt.IsZero())

		actual, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, e, actual)
	})

	t.Run("update keeps creation time", func(t *testing.T) {
		s := memorystorage.New()
		e := storage.Event{Title: "test"}
		require.NoError(t, s.AddEvent(ctx, &e))

		require.NoError(t, s.UpdateEvent(ctx, e.ID, storage.Event{Title: "updated", Urgent: true}))

		actual, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, "updated", actual.Title)
		require.True(t, actual.Urgent)
		require.Equal(t, e.CreatedAt, actual.CreatedAt)
	})

	t.Run("remove event", func(t *testing.T) {
		s := memorystorage.New()
		e := storage.Event{Title: "test"}
		require.NoError(t, s.AddEvent(ctx, &e))

		require.NoError(t, s.RemoveEvent(ctx, e.ID))
		_, err := s.GetEvent(ctx, e.ID)
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})

	t.Run("list order", func(t *testing.T) {
		s := memorystorage.New()
		for _, e := range []storage.Event{
			{Title: "b", Date: "2030-01-02", Time: "09:00"},
			{Title: "a", Date: "2030-01-02"},
			{Title: "none-old"},
			{Title: "c", Date: "2030-01-01", Time: "23:00"},
		} {
			e := e
			require.NoError(t, s.AddEvent(ctx, &e))
			time.Sleep(time.Millisecond)
		}
		last := storage.Event{Title: "none-new"}
		require.NoError(t, s.AddEvent(ctx, &last))

		events, err := s.ListEvents(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"none-new", "none-old", "c", "a", "b"}, titles(events))
	})

	t.Run("urgent events", func(t *testing.T) {
		s := memorystorage.New()
		for i, date := range []string{"2030-01-07", "", "2030-01-03", "2030-01-05", "2030-01-01", "2030-01-02"} {
			e := storage.Event{Title: date, Date: date, Urgent: i != 3}
			require.NoError(t, s.AddEvent(ctx, &e))
		}

		events, err := s.ListUrgentEvents(ctx, 3)
		require.NoError(t, err)
		require.Equal(t, []string{"", "2030-01-01", "2030-01-02"}, titles(events))

		events, err = s.GetUrgentEventsBetween(ctx, "2030-01-02", "2030-01-07")
		require.NoError(t, err)
		require.Equal(t, []string{"2030-01-02", "2030-01-03", "2030-01-07"}, titles(events))
	})

	t.Run("remove before", func(t *testing.T) {
		s := memorystorage.New()
		for _, date := range []string{"2020-01-01", "2020-06-01", "", "2031-01-01"} {
			e := storage.Event{Title: date, Date: date}
			require.NoError(t, s.AddEvent(ctx, &e))
		}

		removed, err := s.RemoveBefore(ctx, "2021-01-01")
		require.NoError(t, err)
		require.Equal(t, int64(2), removed)

		events, err := s.ListEvents(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"", "2031-01-01"}, titles(events))
	})
}

func TestStorageNegativeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("add event with same id", func(t *testing.T) {
		s := memorystorage.New()
		e := storage.Event{Title: "test"}
		require.NoError(t, s.AddEvent(ctx, &e))
		require.ErrorIs(t, s.AddEvent(ctx, &e), storage.ErrDuplicateEventID)
	})

	t.Run("auto id after explicit id", func(t *testing.T) {
		s := memorystorage.New()
		explicit := storage.Event{ID: 100, Title: "explicit"}
		require.NoError(t, s.AddEvent(ctx, &explicit))
		auto := storage.Event{Title: "auto"}
		require.NoError(t, s.AddEvent(ctx, &auto))
		require.Greater(t, auto.ID, explicit.ID)
	})

	t.Run("update not exist event", func(t *testing.T) {
		s := memorystorage.New()
		require.ErrorIs(t, s.UpdateEvent(ctx, 42, storage.Event{Title: "x"}), storage.ErrNotFoundEvent)
	})

	t.Run("delete not exist event", func(t *testing.T) {
		s := memorystorage.New()
		require.ErrorIs(t, s.RemoveEvent(ctx, 42), storage.ErrNotFoundEvent)
	})
}

func titles(events []storage.Event) []string {
	res := make([]string, 0, len(events))
	for _, e := range events {
		res = append(res, e.Title)
	}
	return res
}

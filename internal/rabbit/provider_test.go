package rabbit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeReminder(t *testing.T) {
	t.Run("correct", func(t *testing.T) {
		r, err := DecodeReminder([]byte(`{"id":3,"title":"call","due":"2030-01-01T10:00:00Z"}`))
		require.NoError(t, err)
		require.Equal(t, int64(3), r.ID)
		require.Equal(t, "call", r.Title)
		require.Equal(t, 10, r.Due.Hour())
	})

	t.Run("broken json", func(t *testing.T) {
		_, err := DecodeReminder([]byte(`{"id":`))
		require.Error(t, err)
	})

	t.Run("no id", func(t *testing.T) {
		_, err := DecodeReminder([]byte(`{"title":"call"}`))
		require.ErrorIs(t, err, ErrNoEventID)
	})
}

package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "copilot", "token"))
	require.NoError(t, err)

	t.Run("absent token loads as empty", func(t *testing.T) {
		token, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, store.Save("tok-abc"))
		token, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "tok-abc", token)
	})

	t.Run("clear discards", func(t *testing.T) {
		require.NoError(t, store.Clear())
		token, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("clearing twice is fine", func(t *testing.T) {
		require.NoError(t, store.Clear())
	})
}

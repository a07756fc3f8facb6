package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTokenRoundtrip(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "session.db"))

	_, ok, err := store.LoadToken()
	require.NoError(t, err)
	assert.False(t, ok, "fresh store holds no token")

	require.NoError(t, store.SaveToken("tok-1"))
	token, ok, err := store.LoadToken()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, store.SaveToken("tok-2"))
	token, ok, err = store.LoadToken()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-2", token, "save replaces the previous token")

	require.NoError(t, store.DeleteToken())
	_, ok, err = store.LoadToken()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveToken("persisted"))
	require.NoError(t, store.Close())

	reopened := openTestStore(t, path)
	token, ok, err := reopened.LoadToken()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", token)
}

package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelops/copilot/internal/types"
)

func TestLoadMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "session.json"))

	snap, err := store.Load()
	var cacheErr *Error
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "load", cacheErr.Op)

	require.NotNil(t, snap, "a failed load still yields a usable snapshot")
	assert.Empty(t, snap.Conversations)
	assert.Empty(t, snap.Order)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	snap, err := New(path).Load()
	var cacheErr *Error
	require.ErrorAs(t, err, &cacheErr)
	assert.NotNil(t, snap)
	assert.Empty(t, snap.Conversations)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := New(path)

	snap := types.EmptySnapshot()
	snap.Conversations["c1"] = &types.Conversation{
		ID:    "c1",
		Title: "Suspicious login",
		Messages: []types.Message{
			{Role: types.RoleUser, Content: "what is this?"},
			{Role: types.RoleAssistant, Content: "Looks fine.", Rendered: "**Looks fine.**"},
		},
		Final: &types.FinalDecision{Summary: "Looks fine.", RiskScore: 0.1},
	}
	snap.Order = []string{"c1"}
	snap.Folders["f1"] = &types.Folder{ID: "f1", Name: "cases", ChatIDs: []string{"c1"}}
	snap.FolderOrder = []string{"f1"}

	require.NoError(t, store.Save(snap))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	// No temp file left behind by the atomic write.
	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveOverwritesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := New(path)

	first := types.EmptySnapshot()
	first.Conversations["old"] = &types.Conversation{ID: "old"}
	first.Order = []string{"old"}
	require.NoError(t, store.Save(first))

	second := types.EmptySnapshot()
	second.Conversations["new"] = &types.Conversation{ID: "new"}
	second.Order = []string{"new"}
	require.NoError(t, store.Save(second))

	got, err := store.Load()
	require.NoError(t, err)
	assert.NotContains(t, got.Conversations, "old")
	assert.Contains(t, got.Conversations, "new")
}

func TestSaveFailureIsTyped(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store := New(filepath.Join(blocker, "nested", "session.json"))
	err := store.Save(types.EmptySnapshot())
	var cacheErr *Error
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "save", cacheErr.Op)
}

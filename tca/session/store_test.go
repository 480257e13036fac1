package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndListInOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	turns := []ports.Turn{
		{Role: "user", Content: "weather?"},
		{Role: "assistant", Content: "[tool request 1: get_weather({\"location\":\"Oslo\"})]"},
		{Role: "tool", Content: "4.2", ToolCallID: "1"},
		{Role: "assistant", Content: "It is 4.2°C in Oslo."},
	}
	for _, turn := range turns {
		require.NoError(t, store.SaveTurn(ctx, "s1", turn))
	}

	got, err := store.ListSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, len(turns))
	for i, turn := range turns {
		assert.Equal(t, turn.Role, got[i].Role)
		assert.Equal(t, turn.Content, got[i].Content)
		assert.Equal(t, turn.ToolCallID, got[i].ToolCallID)
		assert.False(t, got[i].CreatedAt.IsZero())
	}
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTurn(ctx, "a", ports.Turn{Role: "user", Content: "one"}))
	require.NoError(t, store.SaveTurn(ctx, "b", ports.Turn{Role: "user", Content: "two"}))

	got, err := store.ListSession(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Content)

	empty, err := store.ListSession(ctx, "absent")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_SessionsMostRecentFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTurn(ctx, "old", ports.Turn{Role: "user", Content: "x"}))
	require.NoError(t, store.SaveTurn(ctx, "new", ports.Turn{Role: "user", Content: "y"}))

	ids, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids)
}

func TestStore_PreservesCreatedAt(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveTurn(ctx, "s", ports.Turn{Role: "user", Content: "x", CreatedAt: at}))

	got, err := store.ListSession(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].CreatedAt.Equal(at))
}

func TestOpen_ReopenRunsMigrationsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveTurn(context.Background(), "s", ports.Turn{Role: "user", Content: "x"}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.ListSession(context.Background(), "s")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

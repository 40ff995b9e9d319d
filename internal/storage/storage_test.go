package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/keshon/plankboat/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) (*Storage, datastore.Config) {
	t.Helper()
	cfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "datastore.json"))
	cfg.AutoSaveInterval = 0
	s, err := New(cfg)
	require.NoError(t, err)
	return s, cfg
}

func TestCommandHistory_EmptyGuild(t *testing.T) {
	s, _ := newStorage(t)
	defer s.Close()

	history, err := s.CommandHistory("42", "c1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAppendCommand_KeepsNewest(t *testing.T) {
	s, _ := newStorage(t)
	defer s.Close()

	for i := 0; i < CommandHistoryLimit+5; i++ {
		require.NoError(t, s.AppendCommand("42", "c1", CommandHistoryRecord{
			Command: "roll",
			Param:   fmt.Sprintf("%dd6", i),
		}))
	}

	history, err := s.CommandHistory("42", "c1")
	require.NoError(t, err)
	require.Len(t, history, CommandHistoryLimit)
	assert.Equal(t, "5d6", history[0].Param)
	assert.Equal(t, fmt.Sprintf("%dd6", CommandHistoryLimit+4), history[len(history)-1].Param)
}

func TestAppendCommand_GuildsAreIsolated(t *testing.T) {
	s, _ := newStorage(t)
	defer s.Close()

	require.NoError(t, s.AppendCommand("a", "c1", CommandHistoryRecord{Command: "roll"}))

	a, err := s.CommandHistory("a", "c2")
	require.NoError(t, err)
	b, err := s.CommandHistory("b", "c1")
	require.NoError(t, err)

	assert.Len(t, a, 1, "guild history spans its channels")
	assert.Empty(t, b)
}

func TestAppendCommand_DirectMessagesArePerChannel(t *testing.T) {
	s, _ := newStorage(t)
	defer s.Close()

	require.NoError(t, s.AppendCommand("", "dm-alice", CommandHistoryRecord{
		UserID:    "alice",
		ChannelID: "dm-alice",
		Command:   "anime",
		Param:     "secret query",
	}))

	bob, err := s.CommandHistory("", "dm-bob")
	require.NoError(t, err)
	assert.Empty(t, bob)

	alice, err := s.CommandHistory("", "dm-alice")
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, "secret query", alice[0].Param)

	guild, err := s.CommandHistory("dm-alice", "dm-alice")
	require.NoError(t, err)
	assert.Empty(t, guild, "a guild id never resolves to a DM record")
}

func TestHistorySurvivesReopen(t *testing.T) {
	s, cfg := newStorage(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendCommand("42", "c1", CommandHistoryRecord{Command: "roulette", Datetime: at}))
	require.NoError(t, s.Close())

	reopened, err := New(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	history, err := reopened.CommandHistory("42", "c1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, at.Equal(history[0].Datetime))
}

func TestClearHistory(t *testing.T) {
	s, cfg := newStorage(t)
	require.NoError(t, s.AppendCommand("", "dm-alice", CommandHistoryRecord{Command: "anime"}))
	require.NoError(t, s.AppendCommand("", "dm-bob", CommandHistoryRecord{Command: "roll"}))
	require.NoError(t, s.AppendCommand("42", "c1", CommandHistoryRecord{Command: "roll"}))
	assert.Equal(t, 3, s.Scopes())

	require.NoError(t, s.ClearHistory("", "dm-alice"))
	assert.Equal(t, 2, s.Scopes())

	// The deletion is on disk before Close.
	raw, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "dm:dm-alice")
	assert.Contains(t, string(raw), "dm:dm-bob")

	bob, err := s.CommandHistory("", "dm-bob")
	require.NoError(t, err)
	assert.Len(t, bob, 1)
	require.NoError(t, s.Close())
}

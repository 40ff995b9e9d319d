// Package storage keeps per-guild bot records on top of the JSON datastore.
package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/keshon/plankboat/datastore"
)

// CommandHistoryLimit is how many executed commands are kept per guild.
const CommandHistoryLimit = 20

// CommandHistoryRecord is one executed command.
type CommandHistoryRecord struct {
	InvocationID string    `json:"invocation_id"`
	ChannelID    string    `json:"channel_id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Command      string    `json:"command"`
	Param        string    `json:"param"`
	Result       string    `json:"result"`
	Datetime     time.Time `json:"datetime"`
}

// Record is everything stored for one guild or DM channel.
type Record struct {
	CommandHistory []CommandHistoryRecord `json:"cmd_history"`
}

type Storage struct {
	ds *datastore.DataStore
	mu sync.Mutex // serializes read-modify-write of guild records
}

func New(cfg datastore.Config) (*Storage, error) {
	ds, err := datastore.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Stats exposes datastore statistics for the status endpoint.
func (s *Storage) Stats() map[string]any {
	return s.ds.Stats()
}

// recordKey scopes a record to its guild. Direct messages have no guild and
// are kept per channel so one user never sees another user's DM history.
func recordKey(guildID, channelID string) string {
	if guildID == "" {
		return "dm:" + channelID
	}
	return "guild:" + guildID
}

func (s *Storage) getOrCreateRecord(key string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(key, &record); err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if record.CommandHistory == nil {
		record.CommandHistory = []CommandHistoryRecord{}
	}
	return &record, nil
}

// AppendCommand records an executed command, keeping the newest
// CommandHistoryLimit entries. channelID only matters for direct messages.
func (s *Storage) AppendCommand(guildID, channelID string, rec CommandHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(guildID, channelID)
	record, err := s.getOrCreateRecord(key)
	if err != nil {
		return err
	}

	record.CommandHistory = append(record.CommandHistory, rec)
	if n := len(record.CommandHistory); n > CommandHistoryLimit {
		record.CommandHistory = record.CommandHistory[n-CommandHistoryLimit:]
	}
	return s.ds.Put(key, record)
}

// CommandHistory returns the stored commands for a guild, or for a DM
// channel when guildID is empty, oldest first.
func (s *Storage) CommandHistory(guildID, channelID string) ([]CommandHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateRecord(recordKey(guildID, channelID))
	if err != nil {
		return nil, err
	}
	return record.CommandHistory, nil
}

// ClearHistory forgets the command history of a guild or DM channel and
// writes the change to disk right away.
func (s *Storage) ClearHistory(guildID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ds.Delete(recordKey(guildID, channelID))
	return s.ds.Save()
}

// Scopes returns how many guilds and DM channels have stored history.
func (s *Storage) Scopes() int {
	return len(s.ds.Keys())
}

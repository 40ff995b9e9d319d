// Package history shows the commands recently run in a guild.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/plankboat/internal/command"
	"github.com/keshon/plankboat/internal/storage"
	"github.com/keshon/plankboat/pkg/cmd"
	"github.com/keshon/plankboat/pkg/util"
)

const timeFormat = "MM-DD hh:mm"

// Store reads and clears the command history.
type Store interface {
	CommandHistory(guildID, channelID string) ([]storage.CommandHistoryRecord, error)
	ClearHistory(guildID, channelID string) error
}

type HistoryCommand struct {
	prefix string
	store  Store
}

func New(prefix string, store Store) *HistoryCommand {
	return &HistoryCommand{prefix: prefix, store: store}
}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Description() string { return "Show the last commands run here" }
func (c *HistoryCommand) Usage() string       { return "[clear]" }

// Run lists the stored history. "clear" forgets it, which is only allowed
// in direct messages since guild history is shared.
func (c *HistoryCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	if len(inv.Args) > 2 {
		return cmd.Arity(2, len(inv.Args))
	}
	mc, err := command.From(inv)
	if err != nil {
		return err
	}

	if len(inv.Args) == 2 {
		if inv.Args[1] != "clear" {
			return cmd.Argument("unknown history action: %s", inv.Args[1])
		}
		return c.clear(mc)
	}

	records, err := c.store.CommandHistory(mc.Message.GuildID, mc.Message.ChannelID)
	if err != nil {
		return cmd.Other("read command history: %v", err)
	}
	if len(records) == 0 {
		return mc.Say("No commands have been run here yet.")
	}

	var b strings.Builder
	b.WriteString("```\n")
	for _, r := range records {
		line := strings.TrimSpace(c.prefix + r.Command + " " + r.Param)
		fmt.Fprintf(&b, "%s %-16s %s (%s)\n", util.FormatTime(r.Datetime, timeFormat), r.Username, line, r.Result)
	}
	b.WriteString("```")
	return mc.Say(b.String())
}

func (c *HistoryCommand) clear(mc *command.MessageContext) error {
	if mc.Message.GuildID != "" {
		return cmd.Argument("only direct message history can be cleared")
	}
	if err := c.store.ClearHistory("", mc.Message.ChannelID); err != nil {
		return cmd.Other("clear command history: %v", err)
	}
	return mc.Say("History cleared.")
}

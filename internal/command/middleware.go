package command

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/plankboat/internal/metrics"
	"github.com/keshon/plankboat/internal/storage"
	"github.com/keshon/plankboat/pkg/cmd"
)

// WithRecovery turns a panic inside a command into a KindOther error.
func WithRecovery() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) (err error) {
			defer func() {
				if r := recover(); r != nil {
					zerolog.Ctx(ctx).Error().
						Str("command", c.Name()).
						Str("stack", string(debug.Stack())).
						Msgf("command panicked: %v", r)
					err = cmd.Other("panic: %v", r)
				}
			}()
			return c.Run(ctx, inv)
		})
	}
}

// WithArgumentReply replies with the rendered error when a command fails on
// bad input. The error is still returned.
func WithArgumentReply() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)
			if cmd.KindOf(err) != cmd.KindArgument {
				return err
			}
			mc, ferr := From(inv)
			if ferr != nil {
				return err
			}
			if rerr := mc.Reply(err.Error()); rerr != nil {
				zerolog.Ctx(ctx).Warn().Err(rerr).Str("command", c.Name()).Msg("argument error reply failed")
			}
			return err
		})
	}
}

// HistoryStore records executed commands.
type HistoryStore interface {
	AppendCommand(guildID, channelID string, rec storage.CommandHistoryRecord) error
}

// WithCommandLog appends every message-triggered execution to store.
func WithCommandLog(store HistoryStore) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)

			mc, ferr := From(inv)
			if ferr != nil || store == nil {
				return err
			}
			rec := storage.CommandHistoryRecord{
				InvocationID: inv.ID,
				ChannelID:    mc.Message.ChannelID,
				Command:      c.Name(),
				Param:        params(inv),
				Result:       resultLabel(err),
				Datetime:     time.Now().UTC(),
			}
			if mc.Message.Author != nil {
				rec.UserID = mc.Message.Author.ID
				rec.Username = mc.Message.Author.Username
			}
			if e := store.AppendCommand(mc.Message.GuildID, mc.Message.ChannelID, rec); e != nil {
				zerolog.Ctx(ctx).Warn().Err(e).Str("command", c.Name()).Msg("failed to log command")
			}
			return err
		})
	}
}

// WithMetrics counts executions and their duration.
func WithMetrics(m *metrics.Metrics) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)
			m.CommandFinished(c.Name(), resultLabel(err), time.Since(start))
			return err
		})
	}
}

func params(inv *cmd.Invocation) string {
	if len(inv.Args) < 2 {
		return ""
	}
	return strings.Join(inv.Args[1:], " ")
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return cmd.KindOf(err).String()
}

// Usager is implemented by commands that take arguments worth showing in
// help.
type Usager interface {
	Usage() string
}

// Describe renders a command as a help line. Middleware hides optional
// interfaces, so the usage hint is read from the unwrapped command.
func Describe(prefix string, c cmd.Command) string {
	call := prefix + c.Name()
	if u, ok := cmd.Root(c).(Usager); ok && u.Usage() != "" {
		call += " " + u.Usage()
	}
	return fmt.Sprintf("`%s` %s", call, c.Description())
}

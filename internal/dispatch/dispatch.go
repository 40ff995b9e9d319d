// Package dispatch turns inbound chat messages into command executions on
// the worker pool. Handle never blocks on a command and never sees a
// command's error.
package dispatch

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keshon/plankboat/internal/command"
	"github.com/keshon/plankboat/internal/metrics"
	"github.com/keshon/plankboat/pkg/cmd"
	"github.com/keshon/plankboat/pkg/workerpool"
)

// Outcome is where a message ended up.
type Outcome int

const (
	// Dropped: not a command.
	Dropped Outcome = iota
	// Unknown: prefixed, but no command by that name.
	Unknown
	// Scheduled: handed to the worker pool.
	Scheduled
	// Rejected: the pool refused the task.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Dropped:
		return "dropped"
	case Unknown:
		return "unknown"
	case Scheduled:
		return "scheduled"
	case Rejected:
		return "rejected"
	}
	return "invalid"
}

// Resolver looks commands up by name.
type Resolver interface {
	Resolve(name string) (cmd.Command, bool)
}

// Submitter accepts tasks for asynchronous execution.
type Submitter interface {
	Submit(task workerpool.Task) error
	Pending() int
}

type Options struct {
	Prefix   string
	Registry Resolver
	Pool     Submitter
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

type Dispatcher struct {
	prefix   string
	registry Resolver
	pool     Submitter
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

func New(opts Options) *Dispatcher {
	return &Dispatcher{
		prefix:   opts.Prefix,
		registry: opts.Registry,
		pool:     opts.Pool,
		log:      opts.Logger.With().Str("component", "dispatch").Logger(),
		metrics:  opts.Metrics,
	}
}

// Handle tokenizes msg, resolves the command and schedules it.
func (d *Dispatcher) Handle(p command.Platform, msg *discordgo.Message) Outcome {
	outcome := d.handle(p, msg)
	d.metrics.Dispatched(outcome.String())
	return outcome
}

func (d *Dispatcher) handle(p command.Platform, msg *discordgo.Message) Outcome {
	args, ok := cmd.Tokenize(d.prefix, msg.Content)
	if !ok {
		d.log.Trace().Str("channel", msg.ChannelID).Msg("not a command")
		return Dropped
	}

	c, ok := d.registry.Resolve(args[0])
	if !ok {
		d.log.Info().Str("command", args[0]).Str("channel", msg.ChannelID).Msg("unknown command")
		return Unknown
	}

	inv := &cmd.Invocation{
		ID:   uuid.NewString(),
		Args: args,
		Data: &command.MessageContext{Platform: p, Message: msg},
	}
	log := d.log.With().
		Str("command", c.Name()).
		Str("invocation", inv.ID).
		Str("channel", msg.ChannelID).
		Str("guild", msg.GuildID).
		Logger()

	err := d.pool.Submit(func(ctx context.Context) {
		d.run(log.WithContext(ctx), log, c, inv)
	})
	d.metrics.QueueDepth(d.pool.Pending())
	if err != nil {
		if errors.Is(err, workerpool.ErrQueueFull) {
			log.Warn().Err(err).Msg("command rejected, queue full")
		} else {
			log.Error().Err(err).Msg("command rejected by worker pool")
		}
		return Rejected
	}

	log.Debug().Strs("args", args[1:]).Msg("command scheduled")
	return Scheduled
}

func (d *Dispatcher) run(ctx context.Context, log zerolog.Logger, c cmd.Command, inv *cmd.Invocation) {
	d.metrics.QueueDepth(d.pool.Pending())

	err := c.Run(ctx, inv)
	if err == nil {
		log.Trace().Msg("command completed")
		return
	}

	ce := cmd.AsError(err)
	lvl := zerolog.ErrorLevel
	if ce.Kind == cmd.KindArgument {
		lvl = zerolog.InfoLevel
	}
	log.WithLevel(lvl).Str("kind", ce.Kind.String()).Msg(ce.Error())
}

// Package discord connects the dispatcher to the Discord gateway.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/plankboat/internal/command"
	"github.com/keshon/plankboat/internal/dispatch"
)

// Handler receives messages that may be commands.
type Handler interface {
	Handle(p command.Platform, msg *discordgo.Message) dispatch.Outcome
}

type Config struct {
	Token string
	// Shards is the number of gateway sessions; 0 asks the gateway.
	Shards int
}

// Bot owns one gateway session per shard.
type Bot struct {
	cfg     Config
	handler Handler
	log     zerolog.Logger

	mu       sync.RWMutex
	sessions []*discordgo.Session
}

func New(cfg Config, h Handler, log zerolog.Logger) *Bot {
	return &Bot{
		cfg:     cfg,
		handler: h,
		log:     log.With().Str("component", "discord").Logger(),
	}
}

// Run opens every shard and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	count, err := b.shardCount()
	if err != nil {
		return err
	}
	b.log.Info().Int("shards", count).Msg("starting gateway sessions")

	defer b.closeAll()
	for id := 0; id < count; id++ {
		s, err := b.newSession(id, count)
		if err != nil {
			return err
		}
		if err := s.Open(); err != nil {
			return fmt.Errorf("open shard %d: %w", id, err)
		}
		b.mu.Lock()
		b.sessions = append(b.sessions, s)
		b.mu.Unlock()
	}

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing gateway sessions")
	return nil
}

// ShardCount returns the number of open sessions.
func (b *Bot) ShardCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

func (b *Bot) shardCount() (int, error) {
	if b.cfg.Shards > 0 {
		return b.cfg.Shards, nil
	}

	dg, err := discordgo.New("Bot " + b.cfg.Token)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	gw, err := dg.GatewayBot()
	if err != nil {
		return 0, fmt.Errorf("query recommended shard count: %w", err)
	}
	if gw.Shards < 1 {
		return 1, nil
	}
	return gw.Shards, nil
}

func (b *Bot) newSession(id, count int) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + b.cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.ShardID = id
	dg.ShardCount = count
	dg.Identify.Intents = discordgo.IntentsAll

	ev := &events{
		handler: b.handler,
		log:     b.log.With().Int("shard", id).Logger(),
	}
	dg.AddHandler(ev.onReady)
	dg.AddHandler(ev.onResumed)
	dg.AddHandler(ev.onGuildCreate)
	dg.AddHandler(ev.onGuildDelete)
	dg.AddHandler(ev.onMessageCreate)
	dg.AddHandler(ev.onEvent)
	return dg, nil
}

func (b *Bot) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.sessions {
		if err := s.Close(); err != nil {
			b.log.Warn().Err(err).Int("shard", s.ShardID).Msg("failed to close session")
		}
	}
	b.sessions = nil
}

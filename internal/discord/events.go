package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

type events struct {
	handler Handler
	log     zerolog.Logger
}

func (e *events) onReady(s *discordgo.Session, r *discordgo.Ready) {
	e.log.Info().
		Str("user", r.User.String()).
		Int("guilds", len(r.Guilds)).
		Msg("connected")
}

func (e *events) onResumed(s *discordgo.Session, r *discordgo.Resumed) {
	e.log.Info().Msg("session resumed")
}

func (e *events) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	e.log.Info().Str("guild", g.ID).Str("name", g.Name).Int("members", g.MemberCount).Msg("guild available")
}

func (e *events) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		e.log.Warn().Str("guild", g.ID).Msg("guild unavailable")
		return
	}
	name := ""
	if g.BeforeDelete != nil {
		name = g.BeforeDelete.Name
	}
	e.log.Info().Str("guild", g.ID).Str("name", name).Msg("removed from guild")
}

func (e *events) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	if !shouldDispatch(selfID, m.Message) {
		return
	}
	e.handler.Handle(&sessionPlatform{s: s}, m.Message)
}

// onEvent sees every raw gateway event.
func (e *events) onEvent(s *discordgo.Session, ev *discordgo.Event) {
	e.log.Trace().Str("type", ev.Type).Int("seq", int(ev.Sequence)).Msg("gateway event")
}

// shouldDispatch ignores our own messages and those of other bots.
func shouldDispatch(selfID string, m *discordgo.Message) bool {
	if m == nil || m.Author == nil {
		return false
	}
	if m.Author.Bot || m.Author.ID == selfID {
		return false
	}
	return m.Content != ""
}

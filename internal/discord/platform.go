package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/plankboat/internal/command"
)

// sessionPlatform implements command.Platform over a gateway session.
type sessionPlatform struct {
	s *discordgo.Session
}

var _ command.Platform = (*sessionPlatform)(nil)

func (p *sessionPlatform) Reply(msg *discordgo.Message, content string) error {
	_, err := p.s.ChannelMessageSendReply(msg.ChannelID, content, msg.Reference())
	return err
}

func (p *sessionPlatform) Say(channelID, content string) error {
	_, err := p.s.ChannelMessageSend(channelID, content)
	return err
}

func (p *sessionPlatform) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := p.s.ChannelMessageSendEmbed(channelID, embed)
	return err
}

func (p *sessionPlatform) Channel(channelID string) (*discordgo.Channel, error) {
	if ch, err := p.s.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return p.s.Channel(channelID)
}

func (p *sessionPlatform) OnlineMembers(ch *discordgo.Channel) ([]*discordgo.User, error) {
	if ch.GuildID == "" {
		return nil, errors.New("channel does not belong to a guild")
	}
	guild, err := p.s.State.Guild(ch.GuildID)
	if err != nil {
		return nil, err
	}

	p.s.State.RLock()
	presences := append([]*discordgo.Presence(nil), guild.Presences...)
	p.s.State.RUnlock()

	return onlineViewers(presences,
		func(userID string) bool {
			perms, err := p.s.State.UserChannelPermissions(userID, ch.ID)
			return err == nil && perms&discordgo.PermissionViewChannel != 0
		},
		func(userID string) *discordgo.User {
			if m, err := p.s.State.Member(ch.GuildID, userID); err == nil && m.User != nil {
				return m.User
			}
			return nil
		},
	), nil
}

// onlineViewers keeps online, non-bot users that canView reports as able to
// see the channel. lookup fills in partial presence users.
func onlineViewers(presences []*discordgo.Presence, canView func(string) bool, lookup func(string) *discordgo.User) []*discordgo.User {
	var out []*discordgo.User
	for _, pr := range presences {
		if pr == nil || pr.User == nil || pr.Status != discordgo.StatusOnline {
			continue
		}
		u := pr.User
		if full := lookup(u.ID); full != nil {
			u = full
		}
		if u.Bot || !canView(u.ID) {
			continue
		}
		out = append(out, u)
	}
	return out
}

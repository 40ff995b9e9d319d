// Package roulette picks a random online member of the channel.
package roulette

import (
	"context"
	"math/rand/v2"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/plankboat/internal/command"
	"github.com/keshon/plankboat/pkg/cmd"
)

const (
	dmReply      = "It wouldn't make much sense to have a roulette in here would it?"
	groupReply   = "Oh shit, bots inside groups are supported now?!?!"
	unknownReply = "???"
	nobodyReply  = "Nobody is around to win!"
)

// Pick returns an index in [0, n).
type Pick func(n int) int

type RouletteCommand struct {
	pick Pick
}

// New returns the command; a nil pick uses math/rand/v2.
func New(pick Pick) *RouletteCommand {
	if pick == nil {
		pick = rand.IntN
	}
	return &RouletteCommand{pick: pick}
}

func (c *RouletteCommand) Name() string { return "roulette" }

func (c *RouletteCommand) Description() string {
	return "Pick a random online member who can see this channel"
}

func (c *RouletteCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := command.From(inv)
	if err != nil {
		return err
	}

	ch, err := mc.Platform.Channel(mc.Message.ChannelID)
	if err != nil {
		return cmd.Platform(err)
	}

	switch ch.Type {
	case discordgo.ChannelTypeDM:
		return mc.Say(dmReply)
	case discordgo.ChannelTypeGroupDM:
		return mc.Say(groupReply)
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildNewsThread:
	default:
		if err := mc.Reply(unknownReply); err != nil {
			return err
		}
		author := "unknown"
		if mc.Message.Author != nil {
			author = mc.Message.Author.String()
		}
		return cmd.Other("command received from unexpected channel type %d (by: %s)", ch.Type, author)
	}

	members, err := mc.Platform.OnlineMembers(ch)
	if err != nil {
		return cmd.Platform(err)
	}
	if len(members) == 0 {
		return mc.Say(nobodyReply)
	}

	winner := members[c.pick(len(members))]
	return mc.Say("And the winner is: " + winner.Mention())
}

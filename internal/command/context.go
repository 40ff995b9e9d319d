// Package command holds what every chat command shares: the platform
// boundary commands talk through and the middleware applied around them.
package command

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/plankboat/pkg/cmd"
)

// Platform is the outbound side of the chat platform. Implementations return
// raw errors; commands wrap them with cmd.Platform.
type Platform interface {
	// Reply answers msg in its channel, referencing it.
	Reply(msg *discordgo.Message, content string) error
	// Say posts a plain message.
	Say(channelID, content string) error
	// SendEmbed posts a rich message.
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) error
	// Channel resolves a channel by ID.
	Channel(channelID string) (*discordgo.Channel, error)
	// OnlineMembers lists online members of the channel's guild that can
	// view the channel.
	OnlineMembers(channel *discordgo.Channel) ([]*discordgo.User, error)
}

// MessageContext is the Invocation.Data of a message-triggered command.
type MessageContext struct {
	Platform Platform
	Message  *discordgo.Message
}

// From extracts the message context from inv.
func From(inv *cmd.Invocation) (*MessageContext, error) {
	if inv == nil {
		return nil, cmd.Other("missing invocation")
	}
	mc, ok := inv.Data.(*MessageContext)
	if !ok || mc == nil || mc.Platform == nil || mc.Message == nil {
		return nil, cmd.Other("command %q invoked without a message context", inv.Name())
	}
	return mc, nil
}

// Reply answers the triggering message, wrapping failures as platform errors.
func (mc *MessageContext) Reply(content string) error {
	return cmd.Platform(mc.Platform.Reply(mc.Message, content))
}

// Say posts to the triggering message's channel.
func (mc *MessageContext) Say(content string) error {
	return cmd.Platform(mc.Platform.Say(mc.Message.ChannelID, content))
}

// SendEmbed posts an embed to the triggering message's channel.
func (mc *MessageContext) SendEmbed(embed *discordgo.MessageEmbed) error {
	return cmd.Platform(mc.Platform.SendEmbed(mc.Message.ChannelID, embed))
}

// Package commandtest provides an in-memory command.Platform for tests.
package commandtest

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/plankboat/internal/command"
	"github.com/keshon/plankboat/pkg/cmd"
)

// Sent is one outbound message recorded by Platform.
type Sent struct {
	ChannelID string
	Content   string
	ReplyTo   string
	Embed     *discordgo.MessageEmbed
}

// Platform records outbound traffic. Set the exported fields to script
// lookups and failures.
type Platform struct {
	Channels map[string]*discordgo.Channel
	Members  []*discordgo.User
	// SendErr fails every outbound call.
	SendErr    error
	MembersErr error

	mu   sync.Mutex
	sent []Sent
}

var _ command.Platform = (*Platform)(nil)

func (p *Platform) record(s Sent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SendErr != nil {
		return p.SendErr
	}
	p.sent = append(p.sent, s)
	return nil
}

func (p *Platform) Reply(msg *discordgo.Message, content string) error {
	return p.record(Sent{ChannelID: msg.ChannelID, Content: content, ReplyTo: msg.ID})
}

func (p *Platform) Say(channelID, content string) error {
	return p.record(Sent{ChannelID: channelID, Content: content})
}

func (p *Platform) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	return p.record(Sent{ChannelID: channelID, Embed: embed})
}

func (p *Platform) Channel(channelID string) (*discordgo.Channel, error) {
	if ch, ok := p.Channels[channelID]; ok {
		return ch, nil
	}
	return nil, fmt.Errorf("unknown channel %s", channelID)
}

func (p *Platform) OnlineMembers(*discordgo.Channel) ([]*discordgo.User, error) {
	if p.MembersErr != nil {
		return nil, p.MembersErr
	}
	return p.Members, nil
}

// Sent returns a copy of everything sent so far.
func (p *Platform) Sent() []Sent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Sent(nil), p.sent...)
}

// Last returns the most recent outbound message, or the zero value.
func (p *Platform) Last() Sent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return Sent{}
	}
	return p.sent[len(p.sent)-1]
}

// Message builds an inbound guild message.
func Message(channelID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m-" + channelID,
		ChannelID: channelID,
		GuildID:   "g1",
		Content:   content,
		Author:    &discordgo.User{ID: "u1", Username: "tester"},
	}
}

// Invocation builds an invocation bound to p and msg.
func Invocation(p *Platform, msg *discordgo.Message, args ...string) *cmd.Invocation {
	return &cmd.Invocation{
		ID:   "inv-test",
		Args: args,
		Data: &command.MessageContext{Platform: p, Message: msg},
	}
}

// Package help lists the registered commands.
package help

import (
	"context"
	"strings"

	"github.com/keshon/plankboat/internal/command"
	"github.com/keshon/plankboat/pkg/cmd"
)

// Lister is the part of the registry help needs.
type Lister interface {
	All() []cmd.Command
}

type HelpCommand struct {
	prefix   string
	registry Lister
}

func New(prefix string, registry Lister) *HelpCommand {
	return &HelpCommand{prefix: prefix, registry: registry}
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "List available commands" }

func (c *HelpCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := command.From(inv)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("**Commands**\n")
	for _, registered := range c.registry.All() {
		b.WriteString(command.Describe(c.prefix, registered))
		b.WriteByte('\n')
	}
	return mc.Say(strings.TrimRight(b.String(), "\n"))
}

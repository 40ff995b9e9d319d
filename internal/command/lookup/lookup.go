// Package lookup implements the anime and manga search commands.
package lookup

import (
	"context"
	"strings"

	"github.com/keshon/plankboat/internal/command"
	"github.com/keshon/plankboat/internal/mal"
	"github.com/keshon/plankboat/pkg/cmd"
)

// Searcher finds the first catalogue entry matching a query.
type Searcher interface {
	Search(ctx context.Context, kind mal.Kind, query string) (*mal.Entry, error)
}

type LookupCommand struct {
	kind     mal.Kind
	searcher Searcher
}

func NewAnime(s Searcher) *LookupCommand { return &LookupCommand{kind: mal.Anime, searcher: s} }
func NewManga(s Searcher) *LookupCommand { return &LookupCommand{kind: mal.Manga, searcher: s} }

func (c *LookupCommand) Name() string { return string(c.kind) }

func (c *LookupCommand) Description() string {
	return "Look up " + string(c.kind) + " on MyAnimeList"
}

func (c *LookupCommand) Usage() string { return "<title>" }

// Run searches for the joined arguments and posts the result as an embed.
// Searches without results are answered in chat and are not failures.
// Multi-word queries are welcome, so 2 is a minimum arg count.
func (c *LookupCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	if len(inv.Args) < 2 {
		return cmd.Arity(2, len(inv.Args))
	}
	mc, err := command.From(inv)
	if err != nil {
		return err
	}

	query := strings.Join(inv.Args[1:], " ")
	entry, err := c.searcher.Search(ctx, c.kind, query)
	if err != nil {
		if ce := cmd.AsError(err); ce.Kind == cmd.KindArgument {
			return mc.Reply("Query failed: " + ce.Message)
		}
		return err
	}
	return mc.SendEmbed(mal.Embed(c.kind, entry))
}

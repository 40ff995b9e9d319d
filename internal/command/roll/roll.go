// Package roll implements the dice command: NdM+K.
package roll

import (
	"context"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/keshon/plankboat/internal/command"
	"github.com/keshon/plankboat/pkg/cmd"
)

const (
	// DefaultMaxListed is how many individual throws are listed in a reply.
	DefaultMaxListed = 12
	maxDice          = 1_000_000
	maxSides         = 1_000_000
	maxModifier      = 1_000_000
)

var diceRegex = regexp.MustCompile(`^(\d+?)?d(\d+?)([\+-]\d+?)?$`)

// Rand is the randomness source; IntN returns a value in [0, n).
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Dice is a parsed NdM+K expression.
type Dice struct {
	Count    int
	Sides    int
	Modifier int
}

// Throw is the outcome of rolling Dice.
type Throw struct {
	Sum    int
	Throws []int // nil when the count exceeds the listing limit
}

type Option func(*RollCommand)

// WithRand replaces the randomness source.
func WithRand(r Rand) Option {
	return func(c *RollCommand) { c.rng = r }
}

// WithMaxListed sets how many throws are listed individually.
func WithMaxListed(n int) Option {
	return func(c *RollCommand) {
		if n >= 0 {
			c.maxListed = n
		}
	}
}

type RollCommand struct {
	rng       Rand
	maxListed int
}

func New(opts ...Option) *RollCommand {
	c := &RollCommand{rng: globalRand{}, maxListed: DefaultMaxListed}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RollCommand) Name() string { return "roll" }

func (c *RollCommand) Description() string {
	return "Roll dice like `2d6+1` (N dice with M sides plus K)"
}

func (c *RollCommand) Usage() string { return "NdM+K" }

func (c *RollCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	if len(inv.Args) < 2 {
		return cmd.Arity(2, len(inv.Args))
	}
	mc, err := command.From(inv)
	if err != nil {
		return err
	}

	dice, err := Parse(inv.Args[1])
	if err != nil {
		return err
	}
	return mc.Reply(Format(dice, c.Roll(dice)))
}

// Parse reads NdM+K. N defaults to 1 and K to 0.
func Parse(expr string) (Dice, error) {
	m := diceRegex.FindStringSubmatch(expr)
	if m == nil {
		return Dice{}, cmd.Argument("invalid dice syntax: %s", expr)
	}

	d := Dice{Count: 1}
	var err error
	if m[1] != "" {
		if d.Count, err = strconv.Atoi(m[1]); err != nil || d.Count > maxDice {
			return Dice{}, cmd.Argument("too many dice: %s", m[1])
		}
	}
	if d.Sides, err = strconv.Atoi(m[2]); err != nil || d.Sides > maxSides {
		return Dice{}, cmd.Argument("too many sides: %s", m[2])
	}
	if d.Sides < 1 {
		return Dice{}, cmd.Argument("a die needs at least one side")
	}
	if m[3] != "" {
		d.Modifier, err = strconv.Atoi(m[3])
		if err != nil || d.Modifier > maxModifier || d.Modifier < -maxModifier {
			return Dice{}, cmd.Argument("modifier out of range: %s", m[3])
		}
	}
	return d, nil
}

// Roll throws the dice. Above the listing limit a single draw over the
// whole range replaces the individual throws.
func (c *RollCommand) Roll(d Dice) Throw {
	if d.Count > c.maxListed {
		span := d.Count*d.Sides - d.Count + 1
		return Throw{Sum: d.Modifier + d.Count + c.rng.IntN(span)}
	}

	t := Throw{Sum: d.Modifier, Throws: make([]int, 0, d.Count)}
	for i := 0; i < d.Count; i++ {
		v := 1 + c.rng.IntN(d.Sides)
		t.Throws = append(t.Throws, v)
		t.Sum += v
	}
	return t
}

// Format renders the reply: the sum alone for a single die, otherwise the
// sum followed by the listed throws.
func Format(d Dice, t Throw) string {
	sum := strconv.Itoa(t.Sum)
	if d.Count <= 1 {
		return sum
	}

	listed := "too many dice to list"
	if t.Throws != nil {
		parts := make([]string, len(t.Throws))
		for i, v := range t.Throws {
			parts[i] = strconv.Itoa(v)
		}
		listed = strings.Join(parts, ", ")
	}
	return sum + " \n[ " + listed + " ]"
}

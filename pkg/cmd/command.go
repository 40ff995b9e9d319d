// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How chat text becomes an
// invocation and where a command runs (worker pool, CLI, tests) is decided by
// the adapters that wrap this package.
package cmd

import "context"

// Invocation is one parsed request to run a command. Args[0] is the command
// name and Args[1:] are its arguments. Adapters set Data to their context
// (e.g. the chat platform handle and the originating message).
type Invocation struct {
	ID   string
	Args []string
	Data interface{}
}

// Name returns the command name the invocation was resolved by.
func (inv *Invocation) Name() string {
	if inv == nil || len(inv.Args) == 0 {
		return ""
	}
	return inv.Args[0]
}

// Command is the universal contract: identity plus execution. Implementations
// are shared by concurrent invocations and must not keep per-call state.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

package cmd

import "context"

// Middleware wraps a command (e.g. recovery, logging, metrics). The wrapped
// value is still a Command, so registries never see the difference.
type Middleware func(Command) Command

// Apply applies middlewares in order; the first in the list is the outermost.
func Apply(c Command, mws ...Middleware) Command {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

type wrapped struct {
	Command
	run func(ctx context.Context, inv *Invocation) error
}

func (w *wrapped) Run(ctx context.Context, inv *Invocation) error { return w.run(ctx, inv) }

func (w *wrapped) unwrap() Command { return w.Command }

// Wrap returns a command that keeps c's name and description but runs run.
// A nil run falls through to c.
func Wrap(c Command, run func(ctx context.Context, inv *Invocation) error) Command {
	if run == nil {
		run = c.Run
	}
	return &wrapped{Command: c, run: run}
}

// Root strips every Wrap layer and returns the command underneath.
func Root(c Command) Command {
	for {
		w, ok := c.(*wrapped)
		if !ok {
			return c
		}
		c = w.unwrap()
	}
}

package cmd

import "sort"

// Registry maps command names to shared command instances. It is filled once
// at startup and only read afterwards, so lookups take no locks. Register must
// not be called once dispatch has started.
type Registry struct {
	commands map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register maps name to c. A later registration for the same name replaces
// the earlier one; replaced reports whether that happened.
func (r *Registry) Register(name string, c Command) (replaced bool) {
	_, replaced = r.commands[name]
	r.commands[name] = c
	return replaced
}

// Add registers c under its own name.
func (r *Registry) Add(c Command) (replaced bool) {
	return r.Register(c.Name(), c)
}

// Resolve returns the command registered under name. Names are case-sensitive.
func (r *Registry) Resolve(name string) (Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Len returns the number of registered names.
func (r *Registry) Len() int { return len(r.commands) }

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered commands ordered by the name they are
// registered under.
func (r *Registry) All() []Command {
	names := r.Names()
	list := make([]Command, 0, len(names))
	for _, name := range names {
		list = append(list, r.commands[name])
	}
	return list
}

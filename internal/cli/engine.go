package cli

import (
	"io"
	"strings"
)

// Engine walks one session's position in a Menu tree and dispatches
// input lines against it. It is not safe for concurrent use; each
// session owns exactly one Engine, matching one CliSession per
// connection in the original.
type Engine struct {
	root    *Menu
	stack   []*Menu // stack[0] is always root; current menu is the last element
	OnUnknown func(out io.Writer, line string)
	// OnRootExit fires when "exit"/"back"/".." is typed while already at
	// the root menu — the original cli library treats this as leaving
	// the whole session rather than a no-op, since there's nowhere
	// shallower to climb to.
	OnRootExit func(out io.Writer)
}

// NewEngine returns an Engine positioned at root.
func NewEngine(root *Menu) *Engine {
	return &Engine{root: root, stack: []*Menu{root}}
}

// Current returns the menu the session is currently inside.
func (e *Engine) Current() *Menu {
	return e.stack[len(e.stack)-1]
}

// Prompt renders the session's current position as a "/"-joined path,
// e.g. "cli/GodFather/Delhi", matching the original's nested-menu
// prompt convention.
func (e *Engine) Prompt() string {
	names := make([]string, len(e.stack))
	for i, m := range e.stack {
		names[i] = m.Name
	}
	return strings.Join(names, "/")
}

// Dispatch parses one input line and either navigates into a submenu,
// climbs back out, runs a matching command, or calls OnUnknown. Empty
// lines are ignored.
func (e *Engine) Dispatch(out io.Writer, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	name, rest := splitFirstToken(line)
	current := e.Current()

	switch name {
	case "exit", "back", "..":
		if len(e.stack) > 1 {
			e.stack = e.stack[:len(e.stack)-1]
		} else if e.OnRootExit != nil {
			e.OnRootExit(out)
		}
		return
	}

	if sub, ok := current.Submenu(name); ok {
		e.stack = append(e.stack, sub)
		return
	}

	if cmd, ok := current.Command(name); ok {
		cmd.Handler(out, rest)
		return
	}

	if e.OnUnknown != nil {
		e.OnUnknown(out, line)
	}
}

// Reset returns the session to the root menu, used when a command
// wants to bail out to the top (e.g. after a fatal error).
func (e *Engine) Reset() {
	e.stack = []*Menu{e.root}
}

func splitFirstToken(line string) (first, rest string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

// Package cli implements a small nested-menu command dispatcher in the
// shape of the daniele77/cli menu tree original_source/src/customcli.h
// wraps: a root menu holding top-level commands plus named submenus,
// each submenu holding its own commands and (optionally) further
// submenus. A session navigates into a submenu by typing its name and
// climbs back out with "exit", mirroring CSession::init_cli's
// per-movie, per-theatre menu layout.
//
// No menu/REPL library ships in this module's dependency surface (the
// reference ecosystem sampled for this project does not carry one), so
// like the protocol package this is a deliberate hand-rolled exception
// — see DESIGN.md.
package cli

import "io"

// CommandFunc handles one dispatched command. arg is everything on the
// input line after the command name, unparsed.
type CommandFunc func(out io.Writer, arg string)

// Command is one leaf entry in a Menu.
type Command struct {
	Name    string
	Help    string
	Handler CommandFunc
}

// Menu is one node of the command tree: a named set of commands plus
// named child menus, matching one cli::Menu from the original.
type Menu struct {
	Name string
	Help string

	commands map[string]*Command
	cmdOrder  []string
	children  map[string]*Menu
	childOrder []string
}

// NewMenu returns an empty menu ready for AddCommand/AddSubmenu calls.
func NewMenu(name, help string) *Menu {
	return &Menu{
		Name:     name,
		Help:     help,
		commands: make(map[string]*Command),
		children: make(map[string]*Menu),
	}
}

// AddCommand registers a command in this menu and returns it.
func (m *Menu) AddCommand(name, help string, fn CommandFunc) *Command {
	cmd := &Command{Name: name, Help: help, Handler: fn}
	if _, exists := m.commands[name]; !exists {
		m.cmdOrder = append(m.cmdOrder, name)
	}
	m.commands[name] = cmd
	return cmd
}

// AddSubmenu attaches child under this menu, keyed by child.Name.
func (m *Menu) AddSubmenu(child *Menu) {
	if _, exists := m.children[child.Name]; !exists {
		m.childOrder = append(m.childOrder, child.Name)
	}
	m.children[child.Name] = child
}

// Command looks up a command by name in this menu only (no recursion
// into submenus).
func (m *Menu) Command(name string) (*Command, bool) {
	c, ok := m.commands[name]
	return c, ok
}

// Submenu looks up a child menu by name.
func (m *Menu) Submenu(name string) (*Menu, bool) {
	c, ok := m.children[name]
	return c, ok
}

// Commands returns this menu's commands in registration order.
func (m *Menu) Commands() []*Command {
	out := make([]*Command, len(m.cmdOrder))
	for i, name := range m.cmdOrder {
		out[i] = m.commands[name]
	}
	return out
}

// Submenus returns this menu's child menus in registration order.
func (m *Menu) Submenus() []*Menu {
	out := make([]*Menu, len(m.childOrder))
	for i, name := range m.childOrder {
		out[i] = m.children[name]
	}
	return out
}

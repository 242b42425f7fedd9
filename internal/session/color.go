package session

import "github.com/labstack/gommon/color"

// palette wraps one session's color state. gommon/color already ships
// transitively through this module's echo dependency for the admin
// HTTP server's startup banner; reusing it here for the booking CLI's
// color/nocolor toggle keeps the whole module on one ANSI-coloring
// library instead of introducing a second one.
//
// Each session owns its own *color.Color instance rather than
// toggling a shared package-level switch, so one booker's "color"
// command can never flip another session's output.
type palette struct {
	c       *color.Color
	enabled bool
}

func newPalette() *palette {
	c := color.New()
	c.Disable()
	return &palette{c: c, enabled: false}
}

func (p *palette) enable() {
	p.c.Enable()
	p.enabled = true
}

func (p *palette) disable() {
	p.c.Disable()
	p.enabled = false
}

func (p *palette) ok(msg string) string    { return p.c.Green(msg) }
func (p *palette) warn(msg string) string  { return p.c.Yellow(msg) }
func (p *palette) errorf(msg string) string { return p.c.Red(msg) }

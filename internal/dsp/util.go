package dsp

import (
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/synthmod"
)

// Gain is a one-in, one-out Module that scales its input by a fixed
// factor. Useful as a patch building block wherever a level needs
// trimming without a dedicated control (master volume, sidechain taps).
type Gain struct {
	synthmod.Base
	in, out *port.Port
	level   float64
}

func NewGain(name string, level float64) *Gain {
	g := &Gain{Base: synthmod.NewBase(name), level: level}
	g.in = g.AddPort(port.NewInput("in", port.Float64, g))
	g.out = g.AddPort(port.NewOutput("out", port.Float64, g))
	return g
}

func (g *Gain) Configure(float64) {}

func (g *Gain) Clone() synthmod.Module { return NewGain(g.Name(), g.level) }

func (g *Gain) SetLevel(level float64) { g.level = level }

func (g *Gain) Render(frameCount int) {
	for i := 0; i < frameCount; i++ {
		g.out.Out(i, g.in.In(i)*g.level)
	}
}

// ConstControl is a Control with no lifecycle of its own: it always
// reports NoteIsDone and emits a fixed value on every frame. It exists
// to let a patch feed a module's input (a filter cutoff, a detune
// amount) a constant without a dedicated handwritten source.
type ConstControl struct {
	synthmod.Base
	out   *port.Port
	value float64
}

func NewConstControl(name string, value float64) *ConstControl {
	c := &ConstControl{Base: synthmod.NewBase(name), value: value}
	c.out = c.AddPort(port.NewOutput("out", port.Float64, c))
	return c
}

func (c *ConstControl) Configure(float64) {}

func (c *ConstControl) Clone() synthmod.Module { return NewConstControl(c.Name(), c.value) }

func (c *ConstControl) SetValue(value float64) { c.value = value }

func (c *ConstControl) StartNote()       {}
func (c *ConstControl) ReleaseNote()     {}
func (c *ConstControl) KillNote()        {}
func (c *ConstControl) NoteIsDone() bool { return true }

func (c *ConstControl) Render(frameCount int) {
	for i := 0; i < frameCount; i++ {
		c.out.Out(i, c.value)
	}
}

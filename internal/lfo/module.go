package lfo

import (
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/synthmod"
)

// Module adapts LFO into a Control with a single out port, so a patch
// can route a free-running modulation source (pitch, gain, filter
// cutoff) the same way it routes any other signal. Declared at the
// timbre level it behaves as the teacher's own doc comment describes
// it: "designed to be shared across all voices" — one oscillator whose
// output feeds every attached voice via a timbre-to-voice link.
type Module struct {
	synthmod.Base
	out *port.Port

	lfo        LFO
	sampleRate float64
}

// NewModule creates an LFO Module with the given depth, rate, and
// waveform (see the Wave* constants).
func NewModule(name string, depth, rateHz float64, waveform int) *Module {
	m := &Module{Base: synthmod.NewBase(name)}
	m.lfo.Set(depth, rateHz, waveform)
	m.out = m.AddPort(port.NewOutput("out", port.Float64, m))
	return m
}

func (m *Module) Configure(sampleRate float64) { m.sampleRate = sampleRate }

func (m *Module) Clone() synthmod.Module {
	c := &Module{Base: synthmod.NewBase(m.Name()), sampleRate: m.sampleRate}
	c.lfo = m.lfo
	c.out = c.AddPort(port.NewOutput("out", port.Float64, c))
	return c
}

// Set reconfigures the LFO's depth, rate, and waveform at runtime.
func (m *Module) Set(depth, rateHz float64, waveform int) { m.lfo.Set(depth, rateHz, waveform) }

// StartNote, ReleaseNote, and KillNote are no-ops: a timbre-level LFO
// has no per-note lifecycle of its own. Declaring it as a Control
// rather than a plain Module still lets a patch treat it uniformly
// with every other signal source.
func (m *Module) StartNote()       {}
func (m *Module) ReleaseNote()     {}
func (m *Module) KillNote()        {}
func (m *Module) NoteIsDone() bool { return true }

func (m *Module) Render(frameCount int) {
	for i := 0; i < frameCount; i++ {
		m.out.Out(i, m.lfo.Sample(m.sampleRate))
	}
}

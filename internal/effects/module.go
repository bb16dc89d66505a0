package effects

import (
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/synthmod"
)

// EffectsModule is a timbre-level post-render Module wrapping a Chain:
// it reads a stereo pair of input ports and writes the Chain's stereo
// output, so the teacher's delay/reverb/chorus/distortion/eq/compressor
// effects stay wired and exercised by the patch-declared signal graph
// instead of living only in the old fixed-topology voice.
type EffectsModule struct {
	synthmod.Base
	inL, inR, outL, outR *port.Port

	chain *Chain
}

// NewEffectsModule wraps chain. A nil chain behaves as a pass-through.
func NewEffectsModule(name string, chain *Chain) *EffectsModule {
	if chain == nil {
		chain = NewChain()
	}
	m := &EffectsModule{Base: synthmod.NewBase(name), chain: chain}
	m.inL = m.AddPort(port.NewInput("inL", port.Float64, m))
	m.inR = m.AddPort(port.NewInput("inR", port.Float64, m))
	m.outL = m.AddPort(port.NewOutput("outL", port.Float64, m))
	m.outR = m.AddPort(port.NewOutput("outR", port.Float64, m))
	return m
}

func (m *EffectsModule) Configure(float64) {}

// Clone gives the clone its own Chain instance, built from the same
// Effectors as the archetype's, so per-timbre effect state (delay
// lines, filter history) isn't shared across timbre clones.
func (m *EffectsModule) Clone() synthmod.Module {
	return NewEffectsModule(m.Name(), m.chain.clone())
}

func (m *EffectsModule) Render(frameCount int) {
	for i := 0; i < frameCount; i++ {
		l, r := m.chain.Process(float32(m.inL.In(i)), float32(m.inR.In(i)))
		m.outL.Out(i, float64(l))
		m.outR.Out(i, float64(r))
	}
}

// Reset clears all transient effect state (delay/reverb buffers, filter
// history) without rebuilding the chain.
func (m *EffectsModule) Reset() { m.chain.Reset() }

package effects

import (
	"testing"

	"github.com/patchwire/synthcore/internal/port"
)

func TestEffectsModulePassesThroughWithNilChain(t *testing.T) {
	m := NewEffectsModule("fx", nil)
	m.Configure(44100)

	inL, _ := findPort(m, "inL")
	inR, _ := findPort(m, "inR")
	inL.Out(0, 0.5)
	inR.Out(0, -0.25)

	m.Render(1)
	outL, _ := findPort(m, "outL")
	outR, _ := findPort(m, "outR")
	if outL.In(0) != 0.5 || outR.In(0) != -0.25 {
		t.Fatalf("pass-through outL=%v outR=%v, want 0.5/-0.25", outL.In(0), outR.In(0))
	}
}

func TestEffectsModuleAppliesChain(t *testing.T) {
	chain := NewChain(&gainEffector{gain: 2})
	m := NewEffectsModule("fx", chain)
	m.Configure(44100)

	inL, _ := findPort(m, "inL")
	inR, _ := findPort(m, "inR")
	inL.Out(0, 1.0)
	inR.Out(0, 1.0)

	m.Render(1)
	outL, _ := findPort(m, "outL")
	outR, _ := findPort(m, "outR")
	if outL.In(0) != 2.0 || outR.In(0) != 2.0 {
		t.Fatalf("outL=%v outR=%v, want 2.0/2.0", outL.In(0), outR.In(0))
	}
}

func TestEffectsModuleCloneDoesNotShareEffectorState(t *testing.T) {
	m := NewEffectsModule("fx", NewChain(NewDelay(44100, 5, 0.9, 0, 1.0)))
	m.Configure(44100)
	inL, _ := findPort(m, "inL")
	inR, _ := findPort(m, "inR")
	inL.Out(0, 1.0)
	inR.Out(0, 1.0)
	m.Render(1)

	clone := m.Clone().(*EffectsModule)
	cloneInL, _ := findPort(clone, "inL")
	cloneInR, _ := findPort(clone, "inR")
	cloneInL.Out(0, 0)
	cloneInR.Out(0, 0)
	clone.Render(1)
	cloneOutL, _ := findPort(clone, "outL")
	if cloneOutL.In(0) != 0 {
		t.Fatalf("clone's delay line was primed by the archetype's render: outL=%v", cloneOutL.In(0))
	}
}

// gainEffector is a trivial Effector test double.
type gainEffector struct{ gain float32 }

func (g *gainEffector) Process(l, r float32) (float32, float32) { return l * g.gain, r * g.gain }
func (g *gainEffector) Reset()                                  {}
func (g *gainEffector) Clone() Effector                         { return &gainEffector{gain: g.gain} }

func findPort(m *EffectsModule, name string) (*port.Port, bool) {
	for _, p := range m.Ports() {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

package dsp

import (
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/synthmod"
	"github.com/patchwire/synthcore/internal/voice"
)

// Summer bridges the voice/timbre boundary: each voice contributes its
// own VoiceSide input, and the single TimbreSide output is their sum
// across whichever voices are currently attached to the timbre.
//
// Grounded on original_source/synth/core/summer.h. The C++ original
// relies on its framework to hand every module a live pointer to its
// owning Timbre; this port lacks that generic wiring, so the embedder
// must call TimbreSide.AttachTimbre once after Synth.Finalize.
type Summer struct {
	voicePorts []*port.Port
}

func NewSummer() *Summer { return &Summer{} }

func (s *Summer) register(p *port.Port) { s.voicePorts = append(s.voicePorts, p) }

// VoiceSide is the per-voice half of a Summer: a single input port
// that passes its signal straight through to the TimbreSide sum.
type VoiceSide struct {
	synthmod.Base
	in     *port.Port
	parent *Summer
}

func (s *Summer) NewVoiceSide(name string) *VoiceSide {
	v := &VoiceSide{Base: synthmod.NewBase(name), parent: s}
	v.in = v.AddPort(port.NewInput("in", port.Float64, v))
	s.register(v.in)
	return v
}

func (v *VoiceSide) Configure(float64) {}

func (v *VoiceSide) Clone() synthmod.Module {
	c := v.parent.NewVoiceSide(v.Name())
	return c
}

func (v *VoiceSide) Render(int) {}

// TimbreSide is the timbre-level half of a Summer: its out port holds
// the sum, each frame, of every attached voice's VoiceSide.in.
type TimbreSide struct {
	synthmod.Base
	out    *port.Port
	parent *Summer
	timbre *voice.Timbre
}

func (s *Summer) NewTimbreSide(name string) *TimbreSide {
	ts := &TimbreSide{Base: synthmod.NewBase(name), parent: s}
	ts.out = ts.AddPort(port.NewOutput("out", port.Float64, ts))
	return ts
}

func (ts *TimbreSide) Configure(float64) {}

func (ts *TimbreSide) Clone() synthmod.Module {
	return ts.parent.NewTimbreSide(ts.Name())
}

// AttachTimbre tells this TimbreSide which Timbre's attached-voice set
// to sum over. Call once, after Synth.Finalize places this TimbreSide
// in its final Timbre.
func (ts *TimbreSide) AttachTimbre(t *voice.Timbre) { ts.timbre = t }

func (ts *TimbreSide) Render(frameCount int) {
	var attached []*port.Port
	if ts.timbre != nil {
		for _, vi := range ts.timbre.AttachedVoices() {
			if vi >= 0 && vi < len(ts.parent.voicePorts) {
				attached = append(attached, ts.parent.voicePorts[vi])
			}
		}
	}
	for i := 0; i < frameCount; i++ {
		var sum port.Sample
		for _, in := range attached {
			sum += in.In(i)
		}
		ts.out.Out(i, sum)
	}
}

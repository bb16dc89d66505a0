package dsp

import (
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/synthmod"
)

type envState int

const (
	envAttack envState = iota
	envDecay
	envSustain
	envRelease
	envOff
)

// ADSREnvelope is a voice-level Control: a linear per-sample envelope
// generator driven by the Voice lifecycle (StartNote/ReleaseNote/
// KillNote), emitting its current level into out on every Render.
//
// Grounded on the advanceOpEnv state machine and the Control lifecycle
// contract of original_source/synth/core/controls.h.
type ADSREnvelope struct {
	synthmod.Base
	out *port.Port

	sampleRate float64
	attack     float64
	decay      float64
	sustain    float64
	release    float64

	state envState
	level float64
}

func NewADSREnvelope(name string, attack, decay, sustain, release float64) *ADSREnvelope {
	e := &ADSREnvelope{
		Base:    synthmod.NewBase(name),
		attack:  attack,
		decay:   decay,
		sustain: sustain,
		release: release,
		state:   envOff,
	}
	e.out = e.AddPort(port.NewOutput("out", port.Float64, e))
	return e
}

func (e *ADSREnvelope) Configure(sampleRate float64) { e.sampleRate = sampleRate }

func (e *ADSREnvelope) Clone() synthmod.Module {
	return NewADSREnvelope(e.Name(), e.attack, e.decay, e.sustain, e.release)
}

func (e *ADSREnvelope) StartNote() {
	e.state = envAttack
	e.level = 0
}

func (e *ADSREnvelope) ReleaseNote() {
	if e.state != envOff {
		e.state = envRelease
	}
}

// KillNote forces an immediate silence rather than running the release
// stage; Voice.KillNote uses this for a hard stop on steal/all-off.
func (e *ADSREnvelope) KillNote() {
	e.state = envOff
	e.level = 0
}

func (e *ADSREnvelope) NoteIsDone() bool { return e.state == envOff }

func (e *ADSREnvelope) Render(frameCount int) {
	for i := 0; i < frameCount; i++ {
		e.advance()
		e.out.Out(i, e.level)
	}
}

func (e *ADSREnvelope) advance() {
	switch e.state {
	case envAttack:
		step := 1.0 / (e.attack * e.sampleRate)
		if step <= 0 {
			step = 1
		}
		e.level += step
		if e.level >= 1 {
			e.level = 1
			e.state = envDecay
		}
	case envDecay:
		step := (1 - e.sustain) / (e.decay * e.sampleRate)
		if step <= 0 {
			step = 1
		}
		e.level -= step
		if e.level <= e.sustain {
			e.level = e.sustain
			e.state = envSustain
		}
	case envSustain:
	case envRelease:
		step := e.sustain / (e.release * e.sampleRate)
		if step <= 0 {
			step = 1
		}
		e.level -= step
		if e.level <= 0.0001 {
			e.level = 0
			e.state = envOff
		}
	case envOff:
		e.level = 0
	}
}

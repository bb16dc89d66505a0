// Package voice implements Voice, Timbre, and Synth (spec component
// C7): per-voice and per-timbre lifecycle state and the compiled
// action lists that render them.
package voice

import (
	"github.com/patchwire/synthcore/internal/plan"
	"github.com/patchwire/synthcore/internal/planner"
	"github.com/patchwire/synthcore/internal/resolver"
	"github.com/patchwire/synthcore/internal/synthmod"
)

// State is a Voice's position in the lifecycle state machine (spec
// §4.7's transition table).
type State int

const (
	IDLE State = iota
	SOUNDING
	RELEASING
	STOPPING
)

func (s State) String() string {
	switch s {
	case IDLE:
		return "IDLE"
	case SOUNDING:
		return "SOUNDING"
	case RELEASING:
		return "RELEASING"
	case STOPPING:
		return "STOPPING"
	default:
		return "?"
	}
}

// Voice owns a cloned set of voice-level controls and modules, its
// current Timbre attachment (nil when IDLE), its lifecycle state, and
// its compiled per-chunk action list. IDLE implies not attached;
// SOUNDING/RELEASING imply attached; STOPPING counts down
// shutdownFramesLeft before becoming IDLE (spec §4.7 invariants).
type Voice struct {
	index    int
	Controls []synthmod.Control
	Modules  []synthmod.Module

	timbre *Timbre
	state  State

	shutdownTotalFrames int
	shutdownFramesLeft  int

	vPrep   []plan.Step
	vRender []plan.Step
}

func newArchetypeVoice() *Voice {
	return &Voice{state: IDLE}
}

// AddControl registers a voice-level control on the archetype voice.
// Call only before Synth.Finalize.
func (v *Voice) AddControl(c synthmod.Control) *Voice {
	v.Controls = append(v.Controls, c)
	return v
}

// AddModule registers a voice-level module on the archetype voice.
func (v *Voice) AddModule(m synthmod.Module) *Voice {
	v.Modules = append(v.Modules, m)
	return v
}

func (v *Voice) Index() int      { return v.index }
func (v *Voice) State() State    { return v.state }
func (v *Voice) Timbre() *Timbre { return v.timbre }

// clone deep-copies the voice's controls and modules for instance i
// (spec: "finalize copies the archetype into the remaining slots").
func (v *Voice) clone(i int) *Voice {
	nv := &Voice{index: i, state: IDLE, shutdownTotalFrames: v.shutdownTotalFrames}
	nv.Controls = make([]synthmod.Control, len(v.Controls))
	for j, c := range v.Controls {
		nv.Controls[j] = c.Clone().(synthmod.Control)
	}
	nv.Modules = make([]synthmod.Module, len(v.Modules))
	for j, m := range v.Modules {
		nv.Modules[j] = m.Clone()
	}
	return nv
}

// StartNote transitions IDLE -> SOUNDING, invoking StartNote on every
// lifecycle control (spec §4.7 table).
func (v *Voice) StartNote() {
	if v.state != IDLE {
		return
	}
	for _, c := range v.Controls {
		c.StartNote()
	}
	v.state = SOUNDING
}

// ReleaseNote transitions SOUNDING -> RELEASING.
func (v *Voice) ReleaseNote() {
	if v.state != SOUNDING {
		return
	}
	for _, c := range v.Controls {
		c.ReleaseNote()
	}
	v.state = RELEASING
}

// KillNote transitions SOUNDING or RELEASING -> STOPPING, resetting the
// shutdown countdown and invoking KillNote on every lifecycle control.
func (v *Voice) KillNote() {
	if v.state != SOUNDING && v.state != RELEASING {
		return
	}
	v.shutdownFramesLeft = v.shutdownTotalFrames
	for _, c := range v.Controls {
		c.KillNote()
	}
	v.state = STOPPING
}

// Render executes the voice's compiled per-chunk actions, then advances
// the lifecycle state machine: RELEASING becomes IDLE once any
// lifecycle control reports NoteIsDone; STOPPING becomes IDLE once its
// shutdown countdown reaches zero. Both transitions detach the voice
// from its timbre.
func (v *Voice) Render(frameCount int) {
	plan.Run(v.vRender, frameCount)

	switch v.state {
	case RELEASING:
		if v.noteIsDone() {
			v.detach()
		}
	case STOPPING:
		v.shutdownFramesLeft -= frameCount
		if v.shutdownFramesLeft <= 0 {
			v.detach()
		}
	}
}

func (v *Voice) noteIsDone() bool {
	for _, c := range v.Controls {
		if c.NoteIsDone() {
			return true
		}
	}
	return false
}

func (v *Voice) detach() {
	if v.timbre != nil {
		v.timbre.attached.clear(v.index)
	}
	v.timbre = nil
	v.state = IDLE
}

// bindTo rebuilds this voice's Resolver against t's current controls/
// modules plus its own, and runs the one-shot VPrep actions. Called
// whenever the voice is attached to a timbre, and whenever that
// timbre's Plan is recompiled while the voice is already attached.
// Re-running VPrep is idempotent (it only resets buffer aliasing), so
// rebinding on every attach is simple and safe, at the cost of
// redoing a little work that a plan-generation cache could skip.
func (v *Voice) bindTo(t *Timbre) {
	res := resolver.BuildVoiceResolver(t.Controls, t.Modules, v.Controls, v.Modules)
	v.vPrep = planner.Bind(t.compiled.VPrep, res)
	v.vRender = planner.Bind(t.compiled.VRender, res)
	plan.Run(v.vPrep, 0)
}

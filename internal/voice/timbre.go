package voice

import (
	"github.com/patchwire/synthcore/internal/patch"
	"github.com/patchwire/synthcore/internal/plan"
	"github.com/patchwire/synthcore/internal/planner"
	"github.com/patchwire/synthcore/internal/resolver"
	"github.com/patchwire/synthcore/internal/synthmod"
)

// Timbre owns timbre-level modules/controls, a current Patch, the
// compiled Plan it produced, and the bitset of attached voice indices
// (spec §4.7). It doubles as both the archetype the embedder populates
// before Synth.Finalize and (index 0, or any clone) a live instance.
type Timbre struct {
	index       int
	Controls    []synthmod.Control
	Modules     []synthmod.Module
	outputFlags []bool

	Patch    *patch.Patch
	compiled plan.Plan
	res      *resolver.Resolver

	prepSteps []plan.Step
	preSteps  []plan.Step
	postSteps []plan.Step

	attached voiceBits
}

func newArchetypeTimbre() *Timbre {
	return &Timbre{}
}

func (t *Timbre) Index() int { return t.index }

// AddControl registers a timbre-level control on the archetype timbre.
// Call only before Synth.Finalize.
func (t *Timbre) AddControl(c synthmod.Control) *Timbre {
	t.Controls = append(t.Controls, c)
	return t
}

// AddModule registers a timbre-level module. isOutput marks its input
// ports as contributing to the audible result (spec §3's "output
// modules").
func (t *Timbre) AddModule(m synthmod.Module, isOutput bool) *Timbre {
	t.Modules = append(t.Modules, m)
	t.outputFlags = append(t.outputFlags, isOutput)
	return t
}

// OutputModules returns the modules marked isOutput, in declaration
// order.
func (t *Timbre) OutputModules() []synthmod.Module {
	var out []synthmod.Module
	for i, m := range t.Modules {
		if t.outputFlags[i] {
			out = append(out, m)
		}
	}
	return out
}

func (t *Timbre) clone(i int) *Timbre {
	nt := &Timbre{index: i}
	nt.Controls = make([]synthmod.Control, len(t.Controls))
	for j, c := range t.Controls {
		nt.Controls[j] = c.Clone().(synthmod.Control)
	}
	nt.Modules = make([]synthmod.Module, len(t.Modules))
	for j, m := range t.Modules {
		nt.Modules[j] = m.Clone()
	}
	nt.outputFlags = append([]bool(nil), t.outputFlags...)
	return nt
}

// applyPatch compiles p against this timbre's controls/modules plus
// voiceControls/voiceModules (the Synth's voice archetype declaration),
// binds the resulting Plan's timbre-side steps against this timbre's
// own Resolver, runs the one-shot TPrep actions, and rebinds every
// currently attached voice against the new Plan.
func (t *Timbre) applyPatch(p *patch.Patch, voiceControls []synthmod.Control, voiceModules []synthmod.Module, voices []*Voice) error {
	cfg := planner.Config{
		TimbreControls: t.Controls,
		TimbreModules:  t.Modules,
		VoiceControls:  voiceControls,
		VoiceModules:   voiceModules,
		OutputModules:  t.OutputModules(),
		Patch:          p,
	}
	pl, err := planner.Plan(cfg)
	if err != nil {
		return err
	}

	t.Patch = p
	t.compiled = pl
	t.res = resolver.BuildTimbreResolver(t.Controls, t.Modules)
	t.prepSteps = planner.Bind(pl.TPrep, t.res)
	t.preSteps = planner.Bind(pl.PreRender, t.res)
	t.postSteps = planner.Bind(pl.PostRender, t.res)
	plan.Run(t.prepSteps, 0)

	for _, vi := range t.attached.indices() {
		voices[vi].bindTo(t)
	}
	return nil
}

// PreRender executes this timbre's per-chunk pre-render actions (those
// timbre modules whose output feeds a voice module).
func (t *Timbre) PreRender(frameCount int) { plan.Run(t.preSteps, frameCount) }

// PostRender executes this timbre's per-chunk post-render actions
// (those timbre modules, including the output modules, that consume
// voice output).
func (t *Timbre) PostRender(frameCount int) { plan.Run(t.postSteps, frameCount) }

// AttachedVoices returns currently attached voice indices in ascending
// order.
func (t *Timbre) AttachedVoices() []int { return t.attached.indices() }

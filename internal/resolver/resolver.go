package resolver

import (
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/synthmod"
)

// Resolver is a finalized bijection between live controls, modules, and
// ports, and dense 0-based indices (spec component C5). Two Resolvers
// coexist per timbre: a timbre-only Resolver used for prep and pre/post
// render actions, and a timbre+voice Resolver used for voice-render
// actions. Building the voice Resolver by first adding the same timbre
// objects, in the same order, then appending voice objects, keeps the
// timbre prefix's indices identical across both (spec §3, §4.5).
type Resolver struct {
	Controls *Universe[synthmod.Control]
	Modules  *Universe[synthmod.Module]
	Ports    *Universe[*port.Port]
}

func New() *Resolver {
	return &Resolver{
		Controls: NewUniverse[synthmod.Control](),
		Modules:  NewUniverse[synthmod.Module](),
		Ports:    NewUniverse[*port.Port](),
	}
}

// AddControls extends the Controls and Ports universes with cs, in
// order, collecting each control's ports in the order it declares them.
func (r *Resolver) AddControls(cs []synthmod.Control) {
	for _, c := range cs {
		r.Controls.Add(c)
		for _, p := range c.Ports() {
			r.Ports.Add(p)
		}
	}
}

// AddModules extends the Modules and Ports universes with ms, in order.
func (r *Resolver) AddModules(ms []synthmod.Module) {
	for _, m := range ms {
		r.Modules.Add(m)
		for _, p := range m.Ports() {
			r.Ports.Add(p)
		}
	}
}

// Finalize locks all three universes. No further Add calls are
// permitted afterward.
func (r *Resolver) Finalize() {
	r.Controls.Finalize()
	r.Modules.Finalize()
	r.Ports.Finalize()
}

// BuildTimbreResolver builds and finalizes a Resolver over exactly a
// timbre's own controls and modules. Used both at planning time (as the
// timbre prefix of BuildVoiceResolver) and at run time (one instance
// per live Timbre, reused for every chunk).
func BuildTimbreResolver(controls []synthmod.Control, modules []synthmod.Module) *Resolver {
	r := New()
	r.AddControls(controls)
	r.AddModules(modules)
	r.Finalize()
	return r
}

// BuildVoiceResolver builds and finalizes a Resolver over a timbre's
// controls and modules followed by one voice's controls and modules.
// Adding the timbre objects first, in the same order BuildTimbreResolver
// does, guarantees the timbre prefix's indices agree between the two —
// which is what lets a single Plan (compiled once, against an archetype
// voice) be re-bound against any attached voice's own Resolver (spec
// §3, §4.5).
func BuildVoiceResolver(timbreControls []synthmod.Control, timbreModules []synthmod.Module, voiceControls []synthmod.Control, voiceModules []synthmod.Module) *Resolver {
	r := New()
	r.AddControls(timbreControls)
	r.AddModules(timbreModules)
	r.AddControls(voiceControls)
	r.AddModules(voiceModules)
	r.Finalize()
	return r
}

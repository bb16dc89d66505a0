package voice

import (
	"fmt"

	"github.com/patchwire/synthcore/internal/patch"
	"github.com/patchwire/synthcore/internal/synthmod"
)

// ConfigError reports a configuration fault detected during Finalize
// or ApplyPatch (spec §7): duplicate registration, capacity overflow,
// or (surfaced from the planner) a graph cycle.
type ConfigError struct {
	Kind string
	Msg  string
}

func (e *ConfigError) Error() string { return e.Kind + ": " + e.Msg }

// Synth owns the timbre vector (length Timbrality) and voice vector
// (length Polyphony). Index 0 of each is the archetype the embedder
// populates before Finalize; Finalize clones it into the remaining
// slots. After Finalize the structure is frozen (spec §3).
type Synth struct {
	SampleRate float64
	Polyphony  int
	Timbrality int

	timbreArchetype *Timbre
	voiceArchetype  *Voice

	Timbres []*Timbre
	Voices  []*Voice

	finalized bool
}

// NewSynth creates a Synth with an empty archetype timbre and voice.
// Populate them via AddTimbreControl/AddTimbreModule/AddVoiceControl/
// AddVoiceModule, then call Finalize.
func NewSynth(sampleRate float64, polyphony, timbrality int) *Synth {
	return &Synth{
		SampleRate:      sampleRate,
		Polyphony:       polyphony,
		Timbrality:      timbrality,
		timbreArchetype: newArchetypeTimbre(),
		voiceArchetype:  newArchetypeVoice(),
	}
}

func (s *Synth) AddTimbreControl(c synthmod.Control) { s.timbreArchetype.AddControl(c) }
func (s *Synth) AddTimbreModule(m synthmod.Module, isOutput bool) {
	s.timbreArchetype.AddModule(m, isOutput)
}
func (s *Synth) AddVoiceControl(c synthmod.Control) { s.voiceArchetype.AddControl(c) }
func (s *Synth) AddVoiceModule(m synthmod.Module)   { s.voiceArchetype.AddModule(m) }

// Finalize locks the archetype declarations, clones them into
// Polyphony voices and Timbrality timbres, and configures every
// resulting control and module with SampleRate. After Finalize, no
// further Add* calls are permitted.
func (s *Synth) Finalize(noteShutdownTime float64) error {
	if s.finalized {
		return &ConfigError{Kind: "already finalized", Msg: "Finalize called twice"}
	}
	if s.Polyphony <= 0 {
		return &ConfigError{Kind: "capacity exceeded", Msg: "Polyphony must be positive"}
	}
	if s.Timbrality <= 0 {
		return &ConfigError{Kind: "capacity exceeded", Msg: "Timbrality must be positive"}
	}

	s.voiceArchetype.shutdownTotalFrames = shutdownFrames(noteShutdownTime, s.SampleRate)

	s.Voices = make([]*Voice, s.Polyphony)
	s.Voices[0] = s.voiceArchetype
	for i := 1; i < s.Polyphony; i++ {
		s.Voices[i] = s.voiceArchetype.clone(i)
	}

	s.Timbres = make([]*Timbre, s.Timbrality)
	s.Timbres[0] = s.timbreArchetype
	for i := 1; i < s.Timbrality; i++ {
		s.Timbres[i] = s.timbreArchetype.clone(i)
	}

	for _, v := range s.Voices {
		for _, c := range v.Controls {
			c.Configure(s.SampleRate)
		}
		for _, m := range v.Modules {
			m.Configure(s.SampleRate)
		}
	}
	for _, t := range s.Timbres {
		for _, c := range t.Controls {
			c.Configure(s.SampleRate)
		}
		for _, m := range t.Modules {
			m.Configure(s.SampleRate)
		}
	}

	s.finalized = true
	return nil
}

func shutdownFrames(seconds, sampleRate float64) int {
	n := int(seconds * sampleRate)
	if float64(n) < seconds*sampleRate {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ApplyPatch compiles p against Timbres[timbreIndex]'s declared
// controls/modules and the voice archetype's, rebinding every
// currently attached voice.
func (s *Synth) ApplyPatch(p *patch.Patch, timbreIndex int) error {
	if timbreIndex < 0 || timbreIndex >= len(s.Timbres) {
		return &ConfigError{Kind: "bad index", Msg: fmt.Sprintf("timbre index %d out of range", timbreIndex)}
	}
	return s.Timbres[timbreIndex].applyPatch(p, s.voiceArchetype.Controls, s.voiceArchetype.Modules, s.Voices)
}

// AttachVoiceToTimbre binds v's Resolver against t's current Plan and
// marks it attached. v must be IDLE and unattached.
func (s *Synth) AttachVoiceToTimbre(v *Voice, t *Timbre) {
	v.timbre = t
	v.bindTo(t)
	t.attached.set(v.index)
}

// DetachVoiceFromTimbre clears v's attachment without touching its
// lifecycle state. Voice.Render calls this internally on its own
// RELEASING->IDLE and STOPPING->IDLE transitions; this method exists
// for callers (e.g. a host resetting a stuck voice) that need it
// directly.
func (s *Synth) DetachVoiceFromTimbre(v *Voice) {
	v.detach()
}

// Render executes one chunk for timbre t: pre-render, every attached
// voice, then post-render (spec §3, §5 ordering: "all pre_render
// actions complete-before any voice renders; all voice renders
// complete-before post_render").
func (t *Timbre) Render(frameCount int, voices []*Voice) {
	t.PreRender(frameCount)
	for _, vi := range t.attached.indices() {
		voices[vi].Render(frameCount)
	}
	t.PostRender(frameCount)
}

// Package config defines the Config subsystem holder the embedder
// passes to Finalize (spec §6: "the Config object is an indexed
// collection of subsystems; sample rate is mandatory, others
// optional, e.g. MIDI").
//
// The source keeps a type-indexed map from subsystem-type to
// subsystem-pointer; spec §9's Design Notes flag that as a reflection
// anti-pattern and recommend "an explicit enum-keyed map or a builder
// that passes subsystems positionally" instead. Config follows that
// guidance directly: a small struct of named, optional pointer fields,
// no reflection, no type-indexed map.
package config

import "github.com/patchwire/synthcore/internal/voice"

// DefaultNoteShutdownTime is the time (seconds) a killed voice stays
// in STOPPING before returning to IDLE (spec §6's NOTE_SHUTDOWN_TIME,
// default 10ms). The voice applies no gain ramp of its own during that
// time; its output is whatever its patch keeps rendering.
const DefaultNoteShutdownTime = 0.010

// MIDI is the optional MIDI subsystem: present iff the embedder wants
// MIDI input wired to the synth's voices. Assigner may be left nil to
// get the default PriorityAssigner with a by-index steal order.
type MIDI struct {
	// Assigner picks which voice to hand out / steal. Nil selects
	// voice.NewPriorityAssigner with DefaultPrioritizer.
	Assigner voice.Assigner
	// Prioritizer scores a sounding voice for stealing (lower steals
	// first). Ignored if Assigner is non-nil. Nil selects
	// DefaultPrioritizer.
	Prioritizer voice.Prioritizer
}

// Config is the struct-of-pointers Finalize accepts (spec §6.3). Zero
// value is valid: NoteShutdownTimeOverride defaults to
// DefaultNoteShutdownTime and MIDI subsystems are simply absent.
type Config struct {
	// NoteShutdownTimeOverride overrides DefaultNoteShutdownTime when
	// non-zero.
	NoteShutdownTimeOverride float64
	// MIDI enables the MIDI subsystem (Dispatcher, Layering, Note
	// Manager, Parser) when non-nil.
	MIDI *MIDI
}

// DefaultPrioritizer steals the lowest-index sounding voice first.
// The embedder is expected to supply a more useful policy (note age,
// velocity) via MIDI.Prioritizer; this exists only so a Config with no
// MIDI.Prioritizer set still produces a deterministic Assigner.
func DefaultPrioritizer(v *voice.Voice) int { return v.Index() }

// NoteShutdownTime returns c.NoteShutdownTimeOverride, or
// DefaultNoteShutdownTime if c is nil or the field is unset.
func (c *Config) NoteShutdownTime() float64 {
	if c == nil || c.NoteShutdownTimeOverride <= 0 {
		return DefaultNoteShutdownTime
	}
	return c.NoteShutdownTimeOverride
}

// ResolveAssigner returns the Assigner the MIDI subsystem should use,
// building the default PriorityAssigner over voices if none was
// supplied.
func (m *MIDI) ResolveAssigner(voices []*voice.Voice) voice.Assigner {
	if m.Assigner != nil {
		return m.Assigner
	}
	prioritize := m.Prioritizer
	if prioritize == nil {
		prioritize = DefaultPrioritizer
	}
	return voice.NewPriorityAssigner(voices, prioritize)
}

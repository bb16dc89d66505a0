package config

import (
	"testing"

	"github.com/patchwire/synthcore/internal/voice"
)

func TestNoteShutdownTimeDefaultsWhenUnset(t *testing.T) {
	var c *Config
	if got := c.NoteShutdownTime(); got != DefaultNoteShutdownTime {
		t.Fatalf("nil Config noteShutdownTime = %v, want %v", got, DefaultNoteShutdownTime)
	}

	c = &Config{}
	if got := c.NoteShutdownTime(); got != DefaultNoteShutdownTime {
		t.Fatalf("zero Config noteShutdownTime = %v, want %v", got, DefaultNoteShutdownTime)
	}
}

func TestNoteShutdownTimeOverride(t *testing.T) {
	c := &Config{NoteShutdownTimeOverride: 0.25}
	if got := c.NoteShutdownTime(); got != 0.25 {
		t.Fatalf("noteShutdownTime = %v, want 0.25", got)
	}
}

func TestMIDIResolveAssignerDefaultsToPriorityAssigner(t *testing.T) {
	s := voice.NewSynth(44100, 2, 1)
	if err := s.Finalize(DefaultNoteShutdownTime); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	m := &MIDI{}
	a := m.ResolveAssigner(s.Voices)
	v, ok := a.AssignIdleVoice()
	if !ok || v.Index() != 0 {
		t.Fatalf("AssignIdleVoice = %v, %v, want voice 0", v, ok)
	}
}

func TestMIDIResolveAssignerHonorsSuppliedAssigner(t *testing.T) {
	s := voice.NewSynth(44100, 1, 1)
	if err := s.Finalize(DefaultNoteShutdownTime); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	custom := voice.NewPriorityAssigner(s.Voices, func(v *voice.Voice) int { return -v.Index() })
	m := &MIDI{Assigner: custom}
	if got := m.ResolveAssigner(s.Voices); got != custom {
		t.Fatalf("resolveAssigner did not return the supplied Assigner")
	}
}

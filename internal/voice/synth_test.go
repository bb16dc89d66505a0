package voice_test

import (
	"testing"

	"github.com/patchwire/synthcore/internal/voice"
)

func TestFinalizeClonesArchetypesIntoDistinctInstances(t *testing.T) {
	s := newTestSynth(t, 3, 2)
	if len(s.Voices) != 3 || len(s.Timbres) != 2 {
		t.Fatalf("Voices=%d Timbres=%d, want 3 and 2", len(s.Voices), len(s.Timbres))
	}
	for i, v := range s.Voices {
		if v.Index() != i {
			t.Errorf("Voices[%d].Index() = %d", i, v.Index())
		}
	}
	// Clones must be distinct module/control instances, not aliases of
	// the archetype, or concurrent voices would corrupt each other's
	// envelope state.
	if s.Voices[0].Modules[0] == s.Voices[1].Modules[0] {
		t.Errorf("voice 0 and voice 1 share the same module instance")
	}
	if s.Voices[0].Controls[0] == s.Voices[1].Controls[0] {
		t.Errorf("voice 0 and voice 1 share the same control instance")
	}
}

func TestFinalizeTwiceIsAnError(t *testing.T) {
	s := voice.NewSynth(48000, 1, 1)
	s.AddVoiceModule(newFakeModule("osc"))
	s.AddTimbreModule(newFakeModule("out"), true)
	if err := s.Finalize(0.01); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if err := s.Finalize(0.01); err == nil {
		t.Fatal("expected an error calling Finalize twice")
	}
}

func TestApplyPatchOnOutOfRangeTimbreIndex(t *testing.T) {
	s := newTestSynth(t, 1, 1)
	if err := s.ApplyPatch(nil, 5); err == nil {
		t.Fatal("expected an error for an out-of-range timbre index")
	}
}

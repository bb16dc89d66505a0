package voice_test

import (
	"testing"

	"github.com/patchwire/synthcore/internal/voice"
)

func TestAssignIdleVoicePicksFirstIdleInIndexOrder(t *testing.T) {
	s := newTestSynth(t, 4, 1)
	for _, v := range s.Voices {
		s.AttachVoiceToTimbre(v, s.Timbres[0])
	}
	a := voice.NewPriorityAssigner(s.Voices, func(v *voice.Voice) int { return v.Index() })

	got, ok := a.AssignIdleVoice()
	if !ok || got != s.Voices[0] {
		t.Fatalf("AssignIdleVoice = %v, ok=%v, want Voices[0]", got, ok)
	}
}

func TestAssignIdleVoiceRoundRobinsAfterAllocation(t *testing.T) {
	s := newTestSynth(t, 3, 1)
	for _, v := range s.Voices {
		s.AttachVoiceToTimbre(v, s.Timbres[0])
	}
	a := voice.NewPriorityAssigner(s.Voices, func(v *voice.Voice) int { return v.Index() })

	first, _ := a.AssignIdleVoice()
	first.StartNote()
	second, ok := a.AssignIdleVoice()
	if !ok || second == first {
		t.Fatalf("second AssignIdleVoice = %v, want a different voice from %v", second, first)
	}
}

func TestAssignIdleVoiceReturnsFalseWhenNoneIdle(t *testing.T) {
	s := newTestSynth(t, 1, 1)
	v := s.Voices[0]
	s.AttachVoiceToTimbre(v, s.Timbres[0])
	v.StartNote()
	a := voice.NewPriorityAssigner(s.Voices, func(v *voice.Voice) int { return v.Index() })

	if _, ok := a.AssignIdleVoice(); ok {
		t.Fatal("expected no IDLE voice to be available")
	}
}

func TestChooseVoiceToStealPicksLowestPriority(t *testing.T) {
	s := newTestSynth(t, 3, 1)
	for _, v := range s.Voices {
		s.AttachVoiceToTimbre(v, s.Timbres[0])
		v.StartNote()
	}
	priority := map[int]int{0: 5, 1: 1, 2: 9}
	a := voice.NewPriorityAssigner(s.Voices, func(v *voice.Voice) int { return priority[v.Index()] })

	got, ok := a.ChooseVoiceToSteal()
	if !ok || got != s.Voices[1] {
		t.Fatalf("ChooseVoiceToSteal = %v, want Voices[1] (lowest priority)", got)
	}
}

func TestChooseVoiceToStealSkipsStoppingVoices(t *testing.T) {
	s := newTestSynth(t, 2, 1)
	for _, v := range s.Voices {
		s.AttachVoiceToTimbre(v, s.Timbres[0])
		v.StartNote()
	}
	s.Voices[0].KillNote() // now STOPPING, and lowest-priority
	priority := map[int]int{0: 1, 1: 5}
	a := voice.NewPriorityAssigner(s.Voices, func(v *voice.Voice) int { return priority[v.Index()] })

	got, ok := a.ChooseVoiceToSteal()
	if !ok || got != s.Voices[1] {
		t.Fatalf("ChooseVoiceToSteal = %v, want Voices[1]: a STOPPING voice must not be re-stolen", got)
	}
}

func TestChooseVoiceToStealReturnsFalseWhenAllIdleOrStopping(t *testing.T) {
	s := newTestSynth(t, 2, 1)
	for _, v := range s.Voices {
		s.AttachVoiceToTimbre(v, s.Timbres[0])
	}
	s.Voices[0].StartNote()
	s.Voices[0].KillNote() // STOPPING
	// Voices[1] stays IDLE.
	a := voice.NewPriorityAssigner(s.Voices, func(v *voice.Voice) int { return v.Index() })

	if _, ok := a.ChooseVoiceToSteal(); ok {
		t.Fatal("expected no steal candidate: one IDLE, one STOPPING")
	}
}

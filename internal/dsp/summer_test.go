package dsp_test

import (
	"testing"

	"github.com/patchwire/synthcore/internal/dsp"
	"github.com/patchwire/synthcore/internal/patch"
	"github.com/patchwire/synthcore/internal/voice"
)

// newSummerRig builds a real one-timbre Synth of the given polyphony whose sole
// voice module and timbre module are the two halves of a Summer, so
// Synth.Finalize's clone loop registers each voice's VoiceSide.in with
// the Summer in voice-index order exactly as it would in production.
func newSummerRig(t *testing.T, polyphony int) (*voice.Synth, *dsp.TimbreSide) {
	t.Helper()
	s := voice.NewSynth(48000, polyphony, 1)
	summer := dsp.NewSummer()
	s.AddVoiceModule(summer.NewVoiceSide("vs"))
	ts := summer.NewTimbreSide("ts")
	s.AddTimbreModule(ts, true)

	if err := s.Finalize(0.01); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := s.ApplyPatch(patch.New(), 0); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	ts.AttachTimbre(s.Timbres[0])
	return s, ts
}

func voiceSideIn(t *testing.T, v *voice.Voice) *dsp.VoiceSide {
	t.Helper()
	vs, ok := v.Modules[0].(*dsp.VoiceSide)
	if !ok {
		t.Fatalf("voice %d's module 0 is not a *dsp.VoiceSide", v.Index())
	}
	return vs
}

func TestSummerSumsOnlyAttachedVoices(t *testing.T) {
	s, ts := newSummerRig(t, 3)
	s.AttachVoiceToTimbre(s.Voices[0], s.Timbres[0])
	s.AttachVoiceToTimbre(s.Voices[1], s.Timbres[0])
	// Voices[2] is deliberately left unattached.

	in0, _ := moduleInput(voiceSideIn(t, s.Voices[0]), "in")
	in1, _ := moduleInput(voiceSideIn(t, s.Voices[1]), "in")
	in2, _ := moduleInput(voiceSideIn(t, s.Voices[2]), "in")
	in0.Out(0, 1.0)
	in1.Out(0, 2.0)
	in2.Out(0, 100.0) // not attached; must not contribute

	ts.Render(1)
	out, _ := moduleOutput(ts, "out")
	if got := out.In(0); got != 3.0 {
		t.Fatalf("sum = %v, want 3 (voices 0 and 1 only)", got)
	}
}

func TestSummerWithNoAttachedVoicesIsSilent(t *testing.T) {
	_, ts := newSummerRig(t, 2)

	ts.Render(1)
	out, _ := moduleOutput(ts, "out")
	if got := out.In(0); got != 0 {
		t.Fatalf("sum with no attached voices = %v, want 0", got)
	}
}

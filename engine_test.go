package synthcore

import (
	"testing"

	"github.com/patchwire/synthcore/internal/config"
	"github.com/patchwire/synthcore/internal/dsp"
	"github.com/patchwire/synthcore/internal/patch"
	"github.com/patchwire/synthcore/internal/voice"
)

// buildBeepEngine wires polyphony=1, timbrality=1: one naive-square
// oscillator voice module whose freq input is a constant, feeding a
// timbre-level Output sink (spec §8 S1).
func buildBeepEngine(t *testing.T, sampleRate float64) *Engine {
	t.Helper()
	e := CreateSynth(sampleRate, 1, 1, "beep")

	osc := dsp.NewNaiveSquare("osc")
	e.AddVoiceModule(osc)

	out := dsp.NewOutput("out")
	e.AddTimbreModule(out, true)

	if err := e.Finalize(&config.Config{}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	p := patch.New()
	p.SetConstant(osc.Port("freq"), 441)
	p.Connect(out.InL, osc.Port("out"))
	p.Connect(out.InR, osc.Port("out"))
	if err := e.ApplyPatch(p, 0); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	e.AttachVoiceToTimbre(e.Synth.Voices[0], e.Synth.Timbres[0])
	e.Synth.Voices[0].StartNote()
	return e
}

// The literal, falsifiable claim in the beep scenario is the
// zero-crossing spacing (every 50 samples). A naive phase accumulator
// only lands exactly on a phase boundary when freq/sampleRate divides
// evenly; 441Hz at 44100Hz gives a phase step of exactly 0.01, so the
// accumulator crosses 0.5 and 1.0 on exact sample boundaries, landing
// the crossings at {0, 50, 100, ...} as described. 441Hz also produces
// 44 complete cycles across 4410 frames rather than the stated 10;
// the crossing-spacing assertion is the one this test checks.
func TestSingleVoiceBeepProducesExpectedZeroCrossingSpacing(t *testing.T) {
	e := buildBeepEngine(t, 44100)

	dst := make([]float32, 4410*2)
	e.Process(dst)

	for i := 0; i < 4410; i++ {
		want := float32(1)
		if (i/50)%2 == 1 {
			want = -1
		}
		if dst[i*2] != want || dst[i*2+1] != want {
			t.Fatalf("sample %d = (%v,%v), want (%v,%v)", i, dst[i*2], dst[i*2+1], want, want)
		}
	}
}

func TestFinalizeWithoutMIDIConfigLeavesMIDIDisabled(t *testing.T) {
	e := buildBeepEngine(t, 44100)
	if e.MIDIEnabled() {
		t.Fatalf("MIDIEnabled() = true, want false (no config.MIDI supplied)")
	}
	e.ProcessByte(0x90) // must not panic with no Parser installed
}

func TestFinalizeWithMIDIConfigEnablesDispatch(t *testing.T) {
	e := CreateSynth(44100, 2, 1, "midi-beep")
	osc := dsp.NewNaiveSquare("osc")
	e.AddVoiceModule(osc)
	out := dsp.NewOutput("out")
	e.AddTimbreModule(out, true)

	if err := e.Finalize(&config.Config{MIDI: &config.MIDI{}}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !e.MIDIEnabled() {
		t.Fatalf("MIDIEnabled() = false, want true")
	}

	p := patch.New()
	p.SetConstant(osc.Port("freq"), 440)
	p.Connect(out.InL, osc.Port("out"))
	p.Connect(out.InR, osc.Port("out"))
	if err := e.ApplyPatch(p, 0); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	// Note-on channel 0, note 60, velocity 100.
	e.ProcessBytes([]byte{0x90, 60, 100})
	if e.Synth.Voices[0].State() == voice.IDLE {
		t.Fatalf("voice 0 still IDLE after note-on dispatch")
	}
}

package dsp_test

import (
	"testing"

	"github.com/patchwire/synthcore/internal/dsp"
)

func TestADSREnvelopeRunsThroughAllStagesOnStartThenRelease(t *testing.T) {
	e := dsp.NewADSREnvelope("env", 0.001, 0.001, 0.5, 0.001)
	e.Configure(1000) // 1 sample = 1ms, so each stage takes ~1 sample

	e.StartNote()
	out, _ := moduleOutput(e, "out")

	e.Render(1)
	attackLevel := out.In(0)
	if attackLevel <= 0 {
		t.Fatalf("level after first attack sample = %v, want > 0", attackLevel)
	}

	// Run long enough to reach sustain.
	e.Render(10)
	sustainLevel := out.In(9)
	if sustainLevel != 0.5 {
		t.Fatalf("sustain level = %v, want 0.5", sustainLevel)
	}
	if e.NoteIsDone() {
		t.Fatalf("note reported done while sustaining")
	}

	e.ReleaseNote()
	e.Render(10)
	if !e.NoteIsDone() {
		t.Fatalf("note not done after release had time to decay to zero")
	}
	released := out.In(9)
	if released != 0 {
		t.Fatalf("level after full release = %v, want 0", released)
	}
}

func TestADSREnvelopeKillNoteIsImmediate(t *testing.T) {
	e := dsp.NewADSREnvelope("env", 0.001, 0.001, 0.5, 1.0)
	e.Configure(1000)
	e.StartNote()
	e.Render(5)

	e.KillNote()
	if !e.NoteIsDone() {
		t.Fatalf("KillNote should make the envelope immediately done")
	}
	out, _ := moduleOutput(e, "out")
	e.Render(1)
	if out.In(0) != 0 {
		t.Fatalf("level after KillNote = %v, want 0", out.In(0))
	}
}

func TestADSREnvelopeIsDoneBeforeStarted(t *testing.T) {
	e := dsp.NewADSREnvelope("env", 0.01, 0.01, 0.5, 0.01)
	e.Configure(48000)
	if !e.NoteIsDone() {
		t.Fatalf("a fresh envelope that was never started should already report done")
	}
}

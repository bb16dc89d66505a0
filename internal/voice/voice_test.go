package voice_test

import (
	"testing"

	"github.com/patchwire/synthcore/internal/patch"
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/synthmod"
	"github.com/patchwire/synthcore/internal/voice"
)

// fakeModule is a minimal Module stand-in: one input port, one output
// port, no real DSP.
type fakeModule struct {
	synthmod.Base
	in, out *port.Port
}

func newFakeModule(name string) *fakeModule {
	m := &fakeModule{Base: synthmod.NewBase(name)}
	m.in = m.AddPort(port.NewInput("in", port.Float64, m))
	m.out = m.AddPort(port.NewOutput("out", port.Float64, m))
	return m
}

func (m *fakeModule) Render(int)             {}
func (m *fakeModule) Configure(float64)      {}
func (m *fakeModule) Clone() synthmod.Module { return newFakeModule(m.Name()) }

// fakeControl is a minimal Control stand-in whose NoteIsDone is
// flipped by the test via a pointer the test retains across Clone, by
// keying on name (since clones are separate instances attached to
// separate voices after Synth.Finalize).
type fakeControl struct {
	synthmod.Base
	out  *port.Port
	done bool
}

func newFakeControl(name string) *fakeControl {
	c := &fakeControl{Base: synthmod.NewBase(name)}
	c.out = c.AddPort(port.NewOutput("out", port.Float64, c))
	return c
}

func (c *fakeControl) Render(int)        {}
func (c *fakeControl) Configure(float64) {}
func (c *fakeControl) Clone() synthmod.Module { return newFakeControl(c.Name()) }
func (c *fakeControl) StartNote()       {}
func (c *fakeControl) ReleaseNote()     {}
func (c *fakeControl) KillNote()        {}
func (c *fakeControl) NoteIsDone() bool { return c.done }

func newTestSynth(t *testing.T, polyphony, timbrality int) *voice.Synth {
	t.Helper()
	s := voice.NewSynth(48000, polyphony, timbrality)
	env := newFakeControl("env")
	osc := newFakeModule("osc")
	s.AddVoiceControl(env)
	s.AddVoiceModule(osc)

	out := newFakeModule("out")
	s.AddTimbreModule(out, true)

	if err := s.Finalize(0.01); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	p := patch.New()
	p.Connect(out.Port("in"), osc.Port("out"))
	if err := s.ApplyPatch(p, 0); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	return s
}

func TestVoiceLifecycleTransitions(t *testing.T) {
	s := newTestSynth(t, 2, 1)
	v := s.Voices[0]
	s.AttachVoiceToTimbre(v, s.Timbres[0])

	if v.State() != voice.IDLE {
		t.Fatalf("state = %v, want IDLE", v.State())
	}

	v.StartNote()
	if v.State() != voice.SOUNDING {
		t.Fatalf("after StartNote, state = %v, want SOUNDING", v.State())
	}

	v.ReleaseNote()
	if v.State() != voice.RELEASING {
		t.Fatalf("after ReleaseNote, state = %v, want RELEASING", v.State())
	}

	// The envelope reports not-done, so a render doesn't detach yet.
	v.Render(16)
	if v.State() != voice.RELEASING {
		t.Fatalf("render with note not done transitioned state to %v, want still RELEASING", v.State())
	}
	if v.Timbre() == nil {
		t.Fatalf("voice detached while note still sounding")
	}
}

func TestVoiceKillNoteShutdownCountdown(t *testing.T) {
	s := newTestSynth(t, 2, 1)
	v := s.Voices[0]
	s.AttachVoiceToTimbre(v, s.Timbres[0])

	v.StartNote()
	v.KillNote()
	if v.State() != voice.STOPPING {
		t.Fatalf("after KillNote, state = %v, want STOPPING", v.State())
	}

	// 0.01s at 48000 => 480 frames of shutdown; one 16-frame render
	// should not yet finish the countdown.
	v.Render(16)
	if v.State() != voice.STOPPING {
		t.Fatalf("one short render finished the shutdown countdown early: state = %v", v.State())
	}

	for i := 0; i < 100 && v.State() == voice.STOPPING; i++ {
		v.Render(16)
	}
	if v.State() != voice.IDLE {
		t.Fatalf("state = %v after shutdown countdown expired, want IDLE", v.State())
	}
	if v.Timbre() != nil {
		t.Fatalf("voice still attached after shutdown countdown expired")
	}
}

func TestStartNoteIgnoredUnlessIdle(t *testing.T) {
	s := newTestSynth(t, 1, 1)
	v := s.Voices[0]
	s.AttachVoiceToTimbre(v, s.Timbres[0])
	v.StartNote()
	v.StartNote() // no-op: already SOUNDING
	if v.State() != voice.SOUNDING {
		t.Fatalf("state = %v, want SOUNDING", v.State())
	}
}

func TestReapplyingPatchRebindsAttachedVoice(t *testing.T) {
	s := newTestSynth(t, 1, 1)
	v := s.Voices[0]
	s.AttachVoiceToTimbre(v, s.Timbres[0])
	v.StartNote()

	// Re-apply the same patch; this should rebind the attached voice
	// without panicking or losing its attachment.
	osc := s.Voices[0].Modules[0]
	out := s.Timbres[0].Modules[0]
	p := patch.New()
	p.Connect(out.Ports()[0], osc.Ports()[1])
	if err := s.ApplyPatch(p, 0); err != nil {
		t.Fatalf("re-ApplyPatch: %v", err)
	}
	if v.Timbre() != s.Timbres[0] {
		t.Fatalf("voice lost its timbre attachment across a patch reapply")
	}
	v.Render(16) // must not panic
}

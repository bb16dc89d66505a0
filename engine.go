// Package synthcore is the embedder-facing facade over the modular
// polyphonic synth engine: the small set of operations a host uses to
// build a synth's archetypes, finalize it, patch its timbres, attach
// voices, feed it MIDI, and pull rendered audio (spec §6 "External
// Interfaces").
package synthcore

import (
	"github.com/patchwire/synthcore/internal/config"
	"github.com/patchwire/synthcore/internal/midi"
	"github.com/patchwire/synthcore/internal/patch"
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/synthmod"
	"github.com/patchwire/synthcore/internal/voice"
)

// Engine owns a Synth plus, once Finalize enables it, the MIDI
// subsystem (Dispatcher, Layering, Note Manager, Parser) that drives
// it. It implements internal/audio.SampleSource directly, so the
// ebiten-backed audio.Player can play it without an adapter.
type Engine struct {
	Name  string
	Synth *voice.Synth

	layering    *midi.Layering
	dispatcher  *midi.Dispatcher
	noteManager *midi.NoteManager
	parser      *midi.Parser
}

// CreateSynth creates an Engine with an empty archetype timbre and
// voice (spec §6.1's create_synth). Populate it with
// AddTimbreControl/AddTimbreModule/AddVoiceControl/AddVoiceModule,
// then call Finalize.
func CreateSynth(sampleRate float64, polyphony, timbrality int, name string) *Engine {
	return &Engine{Name: name, Synth: voice.NewSynth(sampleRate, polyphony, timbrality)}
}

func (e *Engine) AddTimbreControl(c synthmod.Control)            { e.Synth.AddTimbreControl(c) }
func (e *Engine) AddTimbreModule(m synthmod.Module, isOutput bool) { e.Synth.AddTimbreModule(m, isOutput) }
func (e *Engine) AddVoiceControl(c synthmod.Control)             { e.Synth.AddVoiceControl(c) }
func (e *Engine) AddVoiceModule(m synthmod.Module)               { e.Synth.AddVoiceModule(m) }

// Finalize freezes the archetype structure and, if cfg declares a
// MIDI subsystem, wires up Layering, Dispatcher, Note Manager and
// Parser over the finalized voices (spec §6.1.3: "the Config object
// is an indexed collection of subsystems; sample rate is mandatory,
// others optional, e.g. MIDI").
func (e *Engine) Finalize(cfg *config.Config) error {
	if err := e.Synth.Finalize(cfg.NoteShutdownTime()); err != nil {
		return err
	}
	if cfg != nil && cfg.MIDI != nil {
		e.layering = midi.NewLayering(e.Synth.Timbrality)
		e.dispatcher = midi.NewDispatcher(e.Synth.Timbrality)
		e.dispatcher.AttachLayering(e.layering)

		assigner := cfg.MIDI.ResolveAssigner(e.Synth.Voices)
		e.noteManager = midi.NewNoteManager()
		e.noteManager.AttachSynth(e.Synth)
		e.noteManager.AttachAssigner(assigner)
		e.noteManager.AttachDispatcher(e.dispatcher)

		e.parser = midi.NewParser()
		e.parser.SmallHandler = e.dispatcher.DispatchMessage
	}
	return nil
}

// ApplyPatch compiles patch p against Timbres[timbreIndex] (spec
// §6.1.4).
func (e *Engine) ApplyPatch(p *patch.Patch, timbreIndex int) error {
	return e.Synth.ApplyPatch(p, timbreIndex)
}

// AttachVoiceToTimbre and DetachVoiceFromTimbre bind/unbind a voice to
// a timbre (spec §6.1.5).
func (e *Engine) AttachVoiceToTimbre(v *voice.Voice, t *voice.Timbre) {
	e.Synth.AttachVoiceToTimbre(v, t)
}
func (e *Engine) DetachVoiceFromTimbre(v *voice.Voice) { e.Synth.DetachVoiceFromTimbre(v) }

// MIDIEnabled reports whether Finalize was given a MIDI subsystem.
func (e *Engine) MIDIEnabled() bool { return e.parser != nil }

// ProcessByte feeds one MIDI byte into the Parser/Dispatcher chain
// (spec §6.1.7's MIDI Facade). It is a no-op if Finalize was not given
// a MIDI subsystem.
func (e *Engine) ProcessByte(b byte) {
	if e.parser != nil {
		e.parser.ProcessByte(b)
	}
}

// ProcessBytes feeds a byte slice into the Parser in order.
func (e *Engine) ProcessBytes(bytes []byte) {
	if e.parser != nil {
		e.parser.ProcessBytes(bytes)
	}
}

// ProcessMessage dispatches a single already-parsed message directly,
// bypassing the byte-stream parser.
func (e *Engine) ProcessMessage(msg midi.SmallMessage) {
	if e.dispatcher != nil {
		e.dispatcher.DispatchMessage(msg)
	}
}

// Layering returns the MIDI channel/timbre routing table, or nil if
// MIDI is not enabled.
func (e *Engine) Layering() *midi.Layering { return e.layering }

// NoteManager returns the Note Manager, or nil if MIDI is not enabled.
func (e *Engine) NoteManager() *midi.NoteManager { return e.noteManager }

// renderChunk runs one frameCount-sample chunk across every timbre:
// pre-render, each attached voice, post-render (spec §6.1.6).
func (e *Engine) renderChunk(frameCount int) {
	if e.noteManager != nil {
		e.noteManager.Render()
	}
	for _, t := range e.Synth.Timbres {
		t.Render(frameCount, e.Synth.Voices)
	}
}

// Process implements internal/audio.SampleSource: dst is interleaved
// stereo float32. It renders in port.MaxFrames-sized chunks (the
// render path's fixed buffer size) and sums every timbre's output
// modules' input ports into dst (spec §6's "exposes final samples via
// a designated output module's input port buffer").
func (e *Engine) Process(dst []float32) {
	frames := len(dst) / 2
	off := 0
	for frames > 0 {
		n := frames
		if n > port.MaxFrames {
			n = port.MaxFrames
		}
		e.renderChunk(n)
		e.mixInto(dst[off*2:(off+n)*2], n)
		off += n
		frames -= n
	}
}

func (e *Engine) mixInto(dst []float32, frameCount int) {
	for i := 0; i < frameCount; i++ {
		var l, r port.Sample
		for _, t := range e.Synth.Timbres {
			for _, m := range t.OutputModules() {
				inL, inR := outputStereoPorts(m)
				if inL != nil {
					l += inL.In(i)
				}
				if inR != nil {
					r += inR.In(i)
				} else if inL != nil {
					r += inL.In(i)
				}
			}
		}
		dst[i*2] = float32(l)
		dst[i*2+1] = float32(r)
	}
}

// outputStereoPorts finds an output module's left/right input ports by
// name ("inL"/"inR", or "in" for a mono sink whose single port feeds
// both channels).
func outputStereoPorts(m synthmod.Module) (l, r *port.Port) {
	for _, p := range m.Ports() {
		if p.Direction() != port.In {
			continue
		}
		switch p.Name() {
		case "inL", "in":
			if l == nil {
				l = p
			}
		case "inR":
			r = p
		}
	}
	return l, r
}

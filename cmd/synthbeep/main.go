// Command synthbeep is a minimal CLI front end over the synthcore
// engine: it builds one of a small set of built-in patches, optionally
// replays a recorded MIDI byte stream against it, and either writes
// the rendered audio to a WAV file or plays it back in real time.
package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	synthcore "github.com/patchwire/synthcore"
	"github.com/patchwire/synthcore/internal/audio"
	"github.com/patchwire/synthcore/internal/config"
	"github.com/patchwire/synthcore/internal/dsp"
	"github.com/patchwire/synthcore/internal/effects"
	"github.com/patchwire/synthcore/internal/lfo"
	"github.com/patchwire/synthcore/internal/patch"
)

var (
	polyphony  int
	timbrality int
	sampleRate float64
	patchName  = newPatchFlag("beep")
	midiInPath string
	seconds    float64
	outPath    string
	realtime   bool
)

// patchFlag is a pflag.Value that only accepts a registered
// builtinPatches name, so an unknown --patch is rejected at flag-parse
// time rather than after an engine has already been partially built.
type patchFlag struct{ name string }

func newPatchFlag(def string) *patchFlag { return &patchFlag{name: def} }

func (p *patchFlag) String() string { return p.name }
func (p *patchFlag) Type() string   { return "string" }
func (p *patchFlag) Set(v string) error {
	if _, ok := builtinPatches[v]; !ok {
		return fmt.Errorf("unknown patch %q (want beep|pad)", v)
	}
	p.name = v
	return nil
}

var _ pflag.Value = (*patchFlag)(nil)

func main() {
	root := &cobra.Command{
		Use:   "synthbeep",
		Short: "Render or play a patch through the synthcore engine",
		RunE:  run,
	}
	flags := root.Flags()
	flags.IntVarP(&polyphony, "polyphony", "p", 4, "number of simultaneously sounding voices")
	flags.IntVar(&timbrality, "timbrality", 1, "number of simultaneously active timbres")
	flags.Float64Var(&sampleRate, "sample-rate", 44100, "output sample rate in Hz")
	flags.Var(patchName, "patch", "built-in patch to load: beep|pad")
	flags.StringVar(&midiInPath, "midi-in", "", "path to a raw MIDI byte stream file to replay before rendering")
	flags.Float64VarP(&seconds, "seconds", "s", 2.0, "length of audio to render, in seconds")
	flags.StringVarP(&outPath, "out", "o", "", "write rendered audio to this WAV file")
	flags.BoolVarP(&realtime, "realtime", "r", false, "play audio live instead of writing --out")

	if err := root.Execute(); err != nil {
		log.Fatal("synthbeep failed", "err", err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "synthbeep"})

	builder := builtinPatches[patchName.String()]

	engine, err := builder(sampleRate, polyphony, timbrality)
	if err != nil {
		return fmt.Errorf("building patch %q: %w", patchName, err)
	}
	logger.Info("engine finalized", "patch", patchName, "polyphony", polyphony, "timbrality", timbrality, "sampleRate", sampleRate)

	if midiInPath != "" {
		bytes, err := os.ReadFile(midiInPath)
		if err != nil {
			return fmt.Errorf("reading --midi-in: %w", err)
		}
		engine.ProcessBytes(bytes)
		logger.Info("replayed MIDI file", "path", midiInPath, "bytes", len(bytes))
	} else {
		engine.AttachVoiceToTimbre(engine.Synth.Voices[0], engine.Synth.Timbres[0])
		engine.Synth.Voices[0].StartNote()
	}

	if realtime {
		player, err := audio.NewPlayer(int(sampleRate), engine)
		if err != nil {
			return fmt.Errorf("starting realtime playback: %w", err)
		}
		player.Play()
		logger.Info("playing in real time; press Ctrl-C to stop")
		select {}
	}

	frames := int(seconds * sampleRate)
	samples := make([]float32, frames*2)
	engine.Process(samples)

	if outPath == "" {
		logger.Warn("no --out and no --realtime given; nothing written")
		return nil
	}
	if err := writeWAV(outPath, samples, int(sampleRate)); err != nil {
		return fmt.Errorf("writing --out: %w", err)
	}
	logger.Info("wrote WAV", "path", outPath, "frames", frames)
	return nil
}

type patchBuilder func(sampleRate float64, polyphony, timbrality int) (*synthcore.Engine, error)

var builtinPatches = map[string]patchBuilder{
	"beep": buildBeepPatch,
	"pad":  buildPadPatch,
}

// buildBeepPatch wires a bare naive-square oscillator straight to the
// output, gated by an ADSR envelope (spec §8 S1's shape, generalized
// to run under a CLI instead of a fixed 4,410-frame test).
func buildBeepPatch(sampleRate float64, polyphony, timbrality int) (*synthcore.Engine, error) {
	e := synthcore.CreateSynth(sampleRate, polyphony, timbrality, "beep")

	osc := dsp.NewNaiveSquare("osc")
	env := dsp.NewADSREnvelope("env", 0.01, 0.05, 0.7, 0.2)
	gain := dsp.NewGain("vca", 1.0)
	e.AddVoiceControl(env)
	e.AddVoiceModule(osc)
	e.AddVoiceModule(gain)

	out := dsp.NewOutput("out")
	e.AddTimbreModule(out, true)

	if err := e.Finalize(&config.Config{MIDI: &config.MIDI{}}); err != nil {
		return nil, err
	}

	p := patch.New()
	p.SetConstant(osc.Port("freq"), 261.63)
	p.ConnectBoth(gain.Port("in"), osc.Port("out"), env.Port("out"))
	p.Connect(out.InL, gain.Port("out"))
	p.Connect(out.InR, gain.Port("out"))
	if err := e.ApplyPatch(p, 0); err != nil {
		return nil, err
	}
	return e, nil
}

// buildPadPatch layers a naive-saw oscillator under a slow LFO-driven
// gain tremolo and a light reverb: osc -> envelope VCA (voice level) ->
// tremolo gain modulated by a timbre-shared LFO -> reverb (timbre
// level), demonstrating the timbre-level LFO and effects wiring
// crossing the voice/timbre boundary without a Twin.
func buildPadPatch(sampleRate float64, polyphony, timbrality int) (*synthcore.Engine, error) {
	e := synthcore.CreateSynth(sampleRate, polyphony, timbrality, "pad")

	osc := dsp.NewNaiveSaw("osc")
	env := dsp.NewADSREnvelope("env", 0.4, 0.3, 0.8, 0.8)
	gain := dsp.NewGain("vca", 1.0)
	tremolo := dsp.NewGain("tremolo", 1.0)
	e.AddVoiceControl(env)
	e.AddVoiceModule(osc)
	e.AddVoiceModule(gain)
	e.AddVoiceModule(tremolo)

	shimmer := lfo.NewModule("shimmer", 0.3, 4.0, lfo.WaveTriangle)
	verb := effects.NewEffectsModule("verb", effects.NewChain(effects.NewReverb(int(sampleRate), 0.6, 0.35, 0.3)))
	e.AddTimbreControl(shimmer)
	e.AddTimbreModule(verb, false)

	out := dsp.NewOutput("out")
	e.AddTimbreModule(out, true)

	if err := e.Finalize(&config.Config{MIDI: &config.MIDI{}}); err != nil {
		return nil, err
	}

	p := patch.New()
	p.SetConstant(osc.Port("freq"), 110)
	p.ConnectBoth(gain.Port("in"), osc.Port("out"), env.Port("out"))
	p.ConnectBoth(tremolo.Port("in"), gain.Port("out"), shimmer.Port("out"))
	p.Connect(verb.Port("inL"), tremolo.Port("out"))
	p.Connect(verb.Port("inR"), tremolo.Port("out"))
	p.Connect(out.InL, verb.Port("outL"))
	p.Connect(out.InR, verb.Port("outR"))
	if err := e.ApplyPatch(p, 0); err != nil {
		return nil, err
	}
	return e, nil
}

// writeWAV encodes interleaved stereo float32 samples as a 32-bit
// float PCM WAV file (format tag 3), matching the teacher's own
// RIFF/WAVE header layout in offline.go but written directly here
// since that file belongs to the old fixed-topology facade.
func writeWAV(path string, samples []float32, sampleRate int) error {
	const channels = 2
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize

	buf := make([]byte, 44+dataSize)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(chunkSize))
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(buf[22:], channels)
	binary.LittleEndian.PutUint32(buf[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:], 32)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[44+i*4:], math.Float32bits(s))
	}
	return os.WriteFile(path, buf, 0o644)
}

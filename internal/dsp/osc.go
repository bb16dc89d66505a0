// Package dsp supplies concrete oscillator, envelope, and utility
// Modules/Controls (spec §3's "render into an output port buffer" left
// the actual DSP unspecified). Grounded on the teacher's own naive
// oscillator math and envelope state machine, reshaped into the Port/
// Module/Control abstractions.
package dsp

import (
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/synthmod"
)

// NaiveSquare is a voice-level oscillator Module: a phase accumulator
// driven by its freq input port, emitting +1/-1 with no band limiting.
//
// Grounded on original_source/synth/osc/naive-square.h.
type NaiveSquare struct {
	synthmod.Base
	freq, out *port.Port

	invSampleRate float64
	phase         float64
}

func NewNaiveSquare(name string) *NaiveSquare {
	o := &NaiveSquare{Base: synthmod.NewBase(name)}
	o.freq = o.AddPort(port.NewInput("freq", port.Float64, o))
	o.out = o.AddPort(port.NewOutput("out", port.Float64, o))
	return o
}

func (o *NaiveSquare) Configure(sampleRate float64) { o.invSampleRate = 1 / sampleRate }

func (o *NaiveSquare) Clone() synthmod.Module {
	c := NewNaiveSquare(o.Name())
	c.invSampleRate = o.invSampleRate
	return c
}

func (o *NaiveSquare) Render(frameCount int) {
	for i := 0; i < frameCount; i++ {
		if o.phase < 0.5 {
			o.out.Out(i, 1)
		} else {
			o.out.Out(i, -1)
		}
		o.phase += o.invSampleRate * o.freq.In(i)
		for o.phase >= 1 {
			o.phase -= 1
		}
	}
}

// NaiveSaw is NaiveSquare's sibling: the same phase accumulator, a
// linear ramp waveform instead of a square one.
//
// Grounded on original_source/synth/osc/naive-saw.h.
type NaiveSaw struct {
	synthmod.Base
	freq, out *port.Port

	invSampleRate float64
	phase         float64
}

func NewNaiveSaw(name string) *NaiveSaw {
	o := &NaiveSaw{Base: synthmod.NewBase(name)}
	o.freq = o.AddPort(port.NewInput("freq", port.Float64, o))
	o.out = o.AddPort(port.NewOutput("out", port.Float64, o))
	return o
}

func (o *NaiveSaw) Configure(sampleRate float64) { o.invSampleRate = 1 / sampleRate }

func (o *NaiveSaw) Clone() synthmod.Module {
	c := NewNaiveSaw(o.Name())
	c.invSampleRate = o.invSampleRate
	return c
}

func (o *NaiveSaw) Render(frameCount int) {
	for i := 0; i < frameCount; i++ {
		o.out.Out(i, 1-2*o.phase)
		o.phase += o.invSampleRate * o.freq.In(i)
		for o.phase >= 1 {
			o.phase -= 1
		}
	}
}

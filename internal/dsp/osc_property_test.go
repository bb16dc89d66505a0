package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Both oscillators are bare phase accumulators, grounded on
// original_source/synth/osc/naive-{square,saw}.h, whose wrap-around
// only handles phase advancing forward (freq >= 0). For any such freq
// sequence, their output must stay within the waveform's declared
// range and the phase must never escape [0, 1).
func TestNaiveSquareStaysInRangeForAnyFreqSequence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sampleRate := rapid.Float64Range(8000, 192000).Draw(t, "sampleRate")
		frames := rapid.IntRange(1, 2048).Draw(t, "frames")

		o := NewNaiveSquare("osc")
		o.Configure(sampleRate)
		freqs := make([]float64, frames)
		for i := range freqs {
			freqs[i] = rapid.Float64Range(0, 20000).Draw(t, "freq")
		}
		o.freq.Clear(0)
		for i, f := range freqs {
			o.freq.Out(i, f)
		}
		o.Render(frames)

		for i := 0; i < frames; i++ {
			v := o.out.In(i)
			assert.True(t, v == 1 || v == -1, "sample %d = %v, want +-1", i, v)
		}
		assert.GreaterOrEqual(t, o.phase, 0.0)
		assert.Less(t, o.phase, 1.0)
	})
}

func TestNaiveSawStaysInRangeForAnyFreqSequence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sampleRate := rapid.Float64Range(8000, 192000).Draw(t, "sampleRate")
		frames := rapid.IntRange(1, 2048).Draw(t, "frames")

		o := NewNaiveSaw("osc")
		o.Configure(sampleRate)
		freqs := make([]float64, frames)
		for i := range freqs {
			freqs[i] = rapid.Float64Range(0, 20000).Draw(t, "freq")
		}
		o.freq.Clear(0)
		for i, f := range freqs {
			o.freq.Out(i, f)
		}
		o.Render(frames)

		for i := 0; i < frames; i++ {
			v := o.out.In(i)
			assert.GreaterOrEqual(t, v, -1.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		assert.GreaterOrEqual(t, o.phase, 0.0)
		assert.Less(t, o.phase, 1.0)
	})
}

package dsp

import (
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/synthmod"
)

// Output is the designated output module the embedder reads final
// samples from: "the engine ... exposes final samples via a
// designated output module's input port buffer" (spec §6). It has no
// output ports and does nothing on Render; it exists purely as a
// named landing point for InL/InR so the engine facade has a stable
// port to read after a timbre's PostRender.
type Output struct {
	synthmod.Base
	InL, InR *port.Port
}

func NewOutput(name string) *Output {
	o := &Output{Base: synthmod.NewBase(name)}
	o.InL = o.AddPort(port.NewInput("inL", port.Float64, o))
	o.InR = o.AddPort(port.NewInput("inR", port.Float64, o))
	return o
}

func (o *Output) Configure(float64) {}

func (o *Output) Clone() synthmod.Module { return NewOutput(o.Name()) }

// Render is a no-op: Output only exists to be the addressed input
// port buffer a patch link writes into.
func (o *Output) Render(int) {}

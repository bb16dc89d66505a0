// Package synthmod defines the Module and Control abstractions shared by
// every signal-producing or signal-consuming node in a patch (spec
// component C2).
package synthmod

import "github.com/patchwire/synthcore/internal/port"

// Module is a named entity exposing an ordered list of ports and a
// render operation. Port order matters: it defines the Resolver's port
// numbering (see internal/resolver), so Ports must return the same
// slice, in the same order, across calls.
type Module interface {
	Name() string
	Ports() []*port.Port
	// Render reads already-bound input ports [0..frameCount) and
	// writes output ports [0..frameCount).
	Render(frameCount int)
	// Configure is called once, after the module is placed in its
	// final Voice/Timbre and before any patch is applied.
	Configure(sampleRate float64)
	// Clone deep-copies the module including its port declarations,
	// but not external references (owning timbre/voice, aliases).
	// The clone is only usable once its ports are re-indexed by a
	// fresh Resolver.
	Clone() Module
}

// Control is a Module specialized to emit a value stream into a single
// output port, additionally participating in voice lifetime.
type Control interface {
	Module
	StartNote()
	ReleaseNote()
	KillNote()
	NoteIsDone() bool
}

// Base provides the bookkeeping common to most Module implementations:
// a name and an ordered port list. Embed it and add behavior.
type Base struct {
	name  string
	ports []*port.Port
}

func NewBase(name string) Base {
	return Base{name: name}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Ports() []*port.Port { return b.ports }

// AddPort appends p to this module's port list. Call in construction
// order: that order becomes the Resolver's port numbering for this
// module.
func (b *Base) AddPort(p *port.Port) *port.Port {
	b.ports = append(b.ports, p)
	return p
}

// Port looks up a previously added port by name; used by tests and by
// patch-construction helper code that refers to ports by name instead
// of by position.
func (b *Base) Port(name string) *port.Port {
	for _, p := range b.ports {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// TwinSource is implemented by modules that declare a "twin" module on
// the other side of the voice/timbre boundary. The Planner treats a
// twinned input port as if connected by a simple link from the twin's
// matching output port, unless an explicit Link targets that input
// (spec §4.2, §9 Open Questions: explicit links override twin wiring).
type TwinSource interface {
	// TwinOutputFor returns the output port on the twin side that
	// should feed dest, or nil if dest has no twin wiring.
	TwinOutputFor(dest *port.Port) *port.Port
}

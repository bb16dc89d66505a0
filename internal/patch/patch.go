// Package patch implements Patch (spec component C4): a builder that
// accumulates an ordered set of Links describing one timbre's wiring.
// When multiple links target the same destination port, the first
// becomes a Copy step and the rest become Add steps, in declaration
// order — Patch preserves that order end to end by appending to a
// plain slice.
package patch

import (
	"github.com/patchwire/synthcore/internal/link"
	"github.com/patchwire/synthcore/internal/port"
)

// Patch is an ordered set of Links plus an optional twin-port table
// (spec §4.2, §9): a twin mapping supplies an implicit simple link for
// a destination port that has no explicit Link targeting it. An
// explicit Link always overrides twin wiring (spec §9 Open Questions).
type Patch struct {
	Links []*link.Link
	twins map[*port.Port]*port.Port
}

func New() *Patch {
	return &Patch{twins: make(map[*port.Port]*port.Port)}
}

// Connect adds a simple (src-only, unit scale) link.
func (p *Patch) Connect(dest, src *port.Port) *Patch {
	return p.ConnectScaled(dest, src, link.DefaultScale)
}

// ConnectScaled adds a src-only link with an explicit gain.
func (p *Patch) ConnectScaled(dest, src *port.Port, scale float64) *Patch {
	p.Links = append(p.Links, link.New(dest, src, nil, scale))
	return p
}

// ConnectCtl adds a ctl-only link (dest <- ctl * scale, no src).
func (p *Patch) ConnectCtl(dest, ctl *port.Port) *Patch {
	return p.ConnectCtlScaled(dest, ctl, link.DefaultScale)
}

func (p *Patch) ConnectCtlScaled(dest, ctl *port.Port, scale float64) *Patch {
	p.Links = append(p.Links, link.New(dest, nil, ctl, scale))
	return p
}

// ConnectBoth adds a link with both a source and a control
// (dest <- src * ctl * scale).
func (p *Patch) ConnectBoth(dest, src, ctl *port.Port) *Patch {
	return p.ConnectBothScaled(dest, src, ctl, link.DefaultScale)
}

func (p *Patch) ConnectBothScaled(dest, src, ctl *port.Port, scale float64) *Patch {
	p.Links = append(p.Links, link.New(dest, src, ctl, scale))
	return p
}

// SetConstant adds a link with neither src nor ctl: dest is filled with
// scale every chunk (foldable into a ClearBuffer prep step).
func (p *Patch) SetConstant(dest *port.Port, scale float64) *Patch {
	p.Links = append(p.Links, link.New(dest, nil, nil, scale))
	return p
}

// Twin declares an implicit simple connection across the voice/timbre
// boundary: if dest ends up with no explicit Link, the Planner treats
// it as though connected by a simple link from src.
func (p *Patch) Twin(dest, src *port.Port) *Patch {
	p.twins[dest] = src
	return p
}

// TwinFor returns the twin source registered for dest, if any.
func (p *Patch) TwinFor(dest *port.Port) (*port.Port, bool) {
	s, ok := p.twins[dest]
	return s, ok
}

// Twins exposes the full twin table for the Planner, which must also
// treat an unoverridden twin as a predecessor edge — otherwise the
// twin's source module might never be scheduled to render before its
// buffer is aliased into.
func (p *Patch) Twins() map[*port.Port]*port.Port {
	return p.twins
}

// LinksTo returns, in declaration order, every Link in the patch whose
// Dest is p.
func (pt *Patch) LinksTo(dest *port.Port) []*link.Link {
	var out []*link.Link
	for _, l := range pt.Links {
		if l.Dest() == dest {
			out = append(out, l)
		}
	}
	return out
}

// Package link implements Link, the typed patch-cord connecting module
// ports (spec component C3). A Link is immutable after construction and
// monomorphizes its per-sample computation into closures at build time,
// so the render loop never performs runtime type dispatch (spec §9,
// "Template-heavy link typing").
package link

import "github.com/patchwire/synthcore/internal/port"

// DefaultScale is the identity scale; a Link built with this scale,
// only a Src, and matching element types is simple (see IsSimple).
const DefaultScale = 1.0

// RenderAction is the monomorphized per-chunk computation a Link
// compiles down to.
type RenderAction func(frameCount int)

// Link is a directed edge: destination input port, optional source
// output port, optional control output port, scalar gain.
type Link struct {
	dest  *port.Port
	src   *port.Port
	ctl   *port.Port
	scale float64
}

// New builds a Link. src and ctl may each be nil; with both nil the
// link degenerates to a constant fill of scale (see Constant).
func New(dest, src, ctl *port.Port, scale float64) *Link {
	if dest == nil {
		panic("link: dest must not be nil")
	}
	return &Link{dest: dest, src: src, ctl: ctl, scale: scale}
}

func (l *Link) Dest() *port.Port  { return l.dest }
func (l *Link) Src() *port.Port   { return l.src }
func (l *Link) Ctl() *port.Port   { return l.ctl }
func (l *Link) Scale() float64    { return l.scale }

// IsSimple reports whether this link is eligible for aliasing instead
// of copying: source only, matching element types, unit scale.
func (l *Link) IsSimple() bool {
	return l.src != nil && l.ctl == nil &&
		l.src.ElemType() == l.dest.ElemType() &&
		l.scale == DefaultScale
}

// Constant reports whether the link has neither src nor ctl, i.e. it
// degenerates to filling the destination with scale. Such links are
// foldable into a ClearBuffer prep step rather than a render-time copy
// (spec §9, scale-folding Open Question).
func (l *Link) Constant() (value float64, ok bool) {
	if l.src == nil && l.ctl == nil {
		return l.scale, true
	}
	return 0, false
}

// convert applies the dest port's element-type conversion. Buffers are
// stored as float64 regardless of declared ElemType (see internal/port);
// a Float32-typed destination rounds through float32 precision so a
// declared narrowing is observable, matching spec §4.3's "monomorphic
// widening/narrowing ... no runtime type dispatch in the render loop" —
// the conversion function is selected once, here, at Link-build time.
func (l *Link) convert(v float64) float64 {
	if l.dest.ElemType() == port.Float32 {
		return float64(float32(v))
	}
	return v
}

// MakeCopyAction returns the closure that overwrites dest with this
// link's contribution, per spec §3's four src/ctl cases.
func (l *Link) MakeCopyAction() RenderAction {
	return l.build(false)
}

// MakeAddAction returns the closure that adds this link's contribution
// into dest (used for the second and later links into the same
// destination).
func (l *Link) MakeAddAction() RenderAction {
	return l.build(true)
}

func (l *Link) build(add bool) RenderAction {
	dest, src, ctl, scale := l.dest, l.src, l.ctl, l.scale
	convert := l.convert
	switch {
	case src != nil && ctl != nil:
		return func(n int) {
			sd, cd := src.Data(), ctl.Data()
			for i := 0; i < n; i++ {
				v := convert(sd[i] * cd[i] * scale)
				if add {
					dest.Out(i, dest.In(i)+v)
				} else {
					dest.Out(i, v)
				}
			}
		}
	case src != nil && ctl == nil:
		return func(n int) {
			sd := src.Data()
			for i := 0; i < n; i++ {
				v := convert(sd[i] * scale)
				if add {
					dest.Out(i, dest.In(i)+v)
				} else {
					dest.Out(i, v)
				}
			}
		}
	case src == nil && ctl != nil:
		return func(n int) {
			cd := ctl.Data()
			for i := 0; i < n; i++ {
				v := convert(cd[i] * scale)
				if add {
					dest.Out(i, dest.In(i)+v)
				} else {
					dest.Out(i, v)
				}
			}
		}
	default: // constant: folded into ClearBuffer by the planner, kept
		// here for completeness / direct unit testing of Link.
		v := convert(scale)
		return func(n int) {
			for i := 0; i < n; i++ {
				if add {
					dest.Out(i, dest.In(i)+v)
				} else {
					dest.Out(i, v)
				}
			}
		}
	}
}

package planner

import (
	"github.com/patchwire/synthcore/internal/link"
	"github.com/patchwire/synthcore/internal/plan"
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/resolver"
)

// Bind resolves a Plan's index-based steps against res, producing a new
// step slice with Action closures set. A Plan is compiled once against
// an archetype Resolver; Bind is called once per live Resolver that
// shares the same structural prefix (one per Timbre for TPrep/PreRender/
// PostRender, once per attached Voice for VPrep/VRender) — see
// resolver.BuildTimbreResolver / BuildVoiceResolver.
func Bind(steps []plan.Step, res *resolver.Resolver) []plan.Step {
	out := make([]plan.Step, len(steps))
	for i, s := range steps {
		out[i] = s
		switch s.Kind {
		case plan.ClearBuffer:
			dest := res.Ports.At(s.Dest)
			value := s.Scalar
			out[i].Action = func(int) { dest.Clear(value) }

		case plan.AliasPort:
			dest := res.Ports.At(s.Dest)
			if s.Src == plan.NoIndex {
				out[i].Action = func(int) { dest.Alias(nil) }
			} else {
				src := res.Ports.At(s.Src)
				out[i].Action = func(int) { dest.Alias(src.Buf()) }
			}

		case plan.Copy, plan.Add:
			dest := res.Ports.At(s.Dest)
			sp, cp := portOrNil(res, s.Src), portOrNil(res, s.Ctl)
			l := link.New(dest, sp, cp, s.Scalar)
			if s.Kind == plan.Copy {
				out[i].Action = l.MakeCopyAction()
			} else {
				out[i].Action = l.MakeAddAction()
			}

		case plan.RenderControl:
			c := res.Controls.At(s.Index)
			out[i].Action = func(n int) { c.Render(n) }

		case plan.RenderModule:
			m := res.Modules.At(s.Index)
			out[i].Action = func(n int) { m.Render(n) }
		}
	}
	return out
}

func portOrNil(res *resolver.Resolver, idx int) *port.Port {
	if idx == plan.NoIndex {
		return nil
	}
	return res.Ports.At(idx)
}

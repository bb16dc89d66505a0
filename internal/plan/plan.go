// Package plan defines the Plan produced by the Planner (spec component
// C6): five ordered step lists that, executed per chunk, render one
// timbre's active voices.
package plan

// NoIndex marks an absent port index (e.g. AliasPort's "reset to own
// buffer" form, or a Copy/Add step with no src or no ctl).
const NoIndex = -1

// StepKind discriminates the five step shapes spec §3 defines.
type StepKind int

const (
	ClearBuffer StepKind = iota
	AliasPort
	Copy
	Add
	RenderControl
	RenderModule
)

func (k StepKind) String() string {
	switch k {
	case ClearBuffer:
		return "ClearBuffer"
	case AliasPort:
		return "AliasPort"
	case Copy:
		return "Copy"
	case Add:
		return "Add"
	case RenderControl:
		return "RenderControl"
	case RenderModule:
		return "RenderModule"
	default:
		return "?"
	}
}

// Step is one compiled instruction. Dest/Src/Ctl/Index fields are
// Resolver indices kept for introspection and structural-equality
// testing; Action is the bound closure actually executed. Two Steps
// compiled from equivalent patches are Equal even though their Action
// closures are distinct values (Go func values aren't comparable), so
// Equal only compares the index/kind/scalar fields.
type Step struct {
	Kind   StepKind
	Dest   int     // port index: ClearBuffer, AliasPort, Copy, Add
	Src    int     // port index or NoIndex: AliasPort, Copy, Add
	Ctl    int     // port index or NoIndex: Copy, Add
	Scalar float64 // fill value: ClearBuffer
	Index  int     // control index (RenderControl) or module index (RenderModule)
	Action func(frameCount int)
}

func (s Step) Equal(o Step) bool {
	return s.Kind == o.Kind &&
		s.Dest == o.Dest &&
		s.Src == o.Src &&
		s.Ctl == o.Ctl &&
		s.Scalar == o.Scalar &&
		s.Index == o.Index
}

// Plan is the Planner's output: five ordered step sequences (spec §3).
type Plan struct {
	TPrep      []Step // one-shot timbre module prep
	VPrep      []Step // one-shot voice module prep
	PreRender  []Step // per-chunk, before voices
	VRender    []Step // per-chunk, once per attached voice
	PostRender []Step // per-chunk, after voices
}

// Run executes each step's Action in order.
func Run(steps []Step, frameCount int) {
	for _, s := range steps {
		s.Action(frameCount)
	}
}

func stepsEqual(a, b []Step) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Equal reports structural equality of two Plans' step lists, ignoring
// Action closure identity. Applying the same patch twice should produce
// Equal plans (spec §8 round-trip property).
func Equal(a, b Plan) bool {
	return stepsEqual(a.TPrep, b.TPrep) &&
		stepsEqual(a.VPrep, b.VPrep) &&
		stepsEqual(a.PreRender, b.PreRender) &&
		stepsEqual(a.VRender, b.VRender) &&
		stepsEqual(a.PostRender, b.PostRender)
}

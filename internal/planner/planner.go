// Package planner compiles a Patch into a Plan (spec component C6):
// five ordered, index-based step lists that a Resolver later binds to
// concrete ports, modules, and controls.
//
// Planning happens once, against an "archetype" resolver built from the
// declared timbre/voice controls and modules. The resulting Plan's
// indices are only meaningful relative to a resolver built the same way
// (see resolver.BuildTimbreResolver / resolver.BuildVoiceResolver) — the
// voice package rebuilds such a resolver once per timbre and once per
// attached voice, and Bind walks the Plan's raw steps through it to
// produce runnable closures.
package planner

import (
	"github.com/patchwire/synthcore/internal/link"
	"github.com/patchwire/synthcore/internal/patch"
	"github.com/patchwire/synthcore/internal/plan"
	"github.com/patchwire/synthcore/internal/port"
	"github.com/patchwire/synthcore/internal/resolver"
	"github.com/patchwire/synthcore/internal/synthmod"
)

// Config describes the archetype graph to plan: the timbre's and
// voice's declared controls and modules, the output modules whose
// inputs are the audible result, and the Patch wiring them together.
type Config struct {
	TimbreControls []synthmod.Control
	TimbreModules  []synthmod.Module
	VoiceControls  []synthmod.Control
	VoiceModules   []synthmod.Module
	OutputModules  []synthmod.Module
	Patch          *patch.Patch
}

// ConfigError reports a configuration fault detected while planning
// (spec §7): a cycle in the module graph, or (surfaced by the caller)
// a capacity overflow.
type ConfigError struct {
	Kind string
	Msg  string
}

func (e *ConfigError) Error() string { return e.Kind + ": " + e.Msg }

type moduleSet = resolver.Set[synthmod.Module]
type controlSet = resolver.Set[synthmod.Control]

type planner struct {
	cfg       Config
	res       *resolver.Resolver
	linksTo   map[int][]*link.Link
	preds     map[int]*moduleSet
	tcontrols map[synthmod.Control]bool
	vcontrols map[synthmod.Control]bool
}

// Plan compiles cfg into a Plan. It returns a *ConfigError if the
// module graph (after reachability partitioning) is not a DAG.
func Plan(cfg Config) (plan.Plan, error) {
	res := resolver.BuildVoiceResolver(cfg.TimbreControls, cfg.TimbreModules, cfg.VoiceControls, cfg.VoiceModules)
	p := &planner{
		cfg:       cfg,
		res:       res,
		linksTo:   make(map[int][]*link.Link),
		preds:     make(map[int]*moduleSet),
		tcontrols: setOf(cfg.TimbreControls),
		vcontrols: setOf(cfg.VoiceControls),
	}
	return p.build()
}

func setOf[T comparable](items []T) map[T]bool {
	m := make(map[T]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

func (p *planner) build() (plan.Plan, error) {
	p.indexLinks()

	allT := p.res.Modules.Subset(p.cfg.TimbreModules...)
	allV := p.res.Modules.Subset(p.cfg.VoiceModules...)
	outputs := p.res.Modules.Subset(p.cfg.OutputModules...)

	post := resolver.Union(outputs, p.collectPred(outputs, allT))
	voice := p.collectPred(post, allV)
	pre := p.collectPred(voice, allT)

	if !resolver.Subset(voice, allV) {
		panic("planner: voice modules not a subset of declared voice modules")
	}
	if overlap := resolver.Intersect(pre, post); overlap.Any() {
		// A module that both feeds the voices and consumes their output
		// is on a cycle when it is among its own predecessors.
		all := p.res.Modules.All()
		for _, mi := range overlap.Indices() {
			self := p.res.Modules.None()
			self.SetIndex(mi)
			if p.collectPred(self, all).ContainsIndex(mi) {
				return plan.Plan{}, &ConfigError{Kind: "graph cycle", Msg: "cycle in module graph"}
			}
		}
		panic("planner: pre and post module partitions overlap")
	}
	if !resolver.Subset(resolver.Union(pre, post), allT) {
		panic("planner: pre|post modules not a subset of declared timbre modules")
	}

	timbreMods := resolver.Union(pre, post)
	modsUsed := resolver.Union(timbreMods, voice)
	tControlsUsed, vControlsUsed := p.findControlsUsed(modsUsed)

	var out plan.Plan
	out.TPrep = p.assemblePrepSteps(timbreMods)
	out.VPrep = p.assemblePrepSteps(voice)

	preSteps, err := p.assembleRenderSteps(tControlsUsed, pre, p.res.Modules.None())
	if err != nil {
		return plan.Plan{}, err
	}
	out.PreRender = preSteps

	vSteps, err := p.assembleRenderSteps(vControlsUsed, voice, pre)
	if err != nil {
		return plan.Plan{}, err
	}
	out.VRender = vSteps

	postSteps, err := p.assembleRenderSteps(p.res.Controls.None(), post, resolver.Union(pre, voice))
	if err != nil {
		return plan.Plan{}, err
	}
	out.PostRender = postSteps

	return out, nil
}

// indexLinks builds linksTo (dest port index -> links, declaration
// order preserved) and preds (module index -> direct predecessor
// modules), per spec §4.6's calc_links_to / calc_mod_predecessors.
func (p *planner) indexLinks() {
	for _, l := range p.cfg.Patch.Links {
		di, ok := p.res.Ports.IndexOf(l.Dest())
		if !ok {
			continue // destination port not part of this archetype; ignore
		}
		p.linksTo[di] = append(p.linksTo[di], l)

		destMod, destIsMod := p.moduleOwner(l.Dest().Owner())
		if !destIsMod {
			continue
		}
		if l.Src() != nil {
			if srcMod, ok := p.moduleOwner(l.Src().Owner()); ok {
				p.addPred(destMod, srcMod)
			}
		}
		if l.Ctl() != nil {
			if ctlMod, ok := p.moduleOwner(l.Ctl().Owner()); ok {
				p.addPred(destMod, ctlMod)
			}
		}
	}

	// An unoverridden twin also implies a predecessor edge: the twin's
	// source module must be scheduled (and so rendered) before dest's
	// module can safely alias into its buffer.
	for dest, src := range p.cfg.Patch.Twins() {
		di, ok := p.res.Ports.IndexOf(dest)
		if !ok || len(p.linksTo[di]) > 0 {
			continue
		}
		destMod, ok := p.moduleOwner(dest.Owner())
		if !ok {
			continue
		}
		if srcMod, ok := p.moduleOwner(src.Owner()); ok {
			p.addPred(destMod, srcMod)
		}
	}
}

func (p *planner) addPred(destMod, predMod int) {
	s := p.preds[destMod]
	if s == nil {
		s = p.res.Modules.None()
		p.preds[destMod] = s
	}
	s.SetIndex(predMod)
}

// moduleOwner resolves owner to its index in the Modules universe. A
// Control's owner never resolves here (Controls live in a separate
// universe) — per spec §4.6 step 4, controls are rendered unconditionally
// at the start of a phase rather than participating in the modules'
// topological schedule.
func (p *planner) moduleOwner(owner port.Owner) (int, bool) {
	m, ok := owner.(synthmod.Module)
	if !ok {
		return 0, false
	}
	return p.res.Modules.IndexOf(m)
}

func (p *planner) controlOwner(owner port.Owner) (synthmod.Control, int, bool) {
	c, ok := owner.(synthmod.Control)
	if !ok {
		return nil, 0, false
	}
	i, ok := p.res.Controls.IndexOf(c)
	return c, i, ok
}

// collectPred returns every member of candidates reachable as a
// predecessor of succ, following predecessor edges transitively (spec
// §4.6 step 1). Each round only advances the frontier by nodes not
// already collected, so a predecessor cycle (reported as a ConfigError
// by build or assembleRenderSteps) can't spin this loop forever.
func (p *planner) collectPred(succ, candidates *moduleSet) *moduleSet {
	pred := p.res.Modules.None()
	frontier := succ
	for frontier.Any() {
		next := p.res.Modules.None()
		for _, mi := range frontier.Indices() {
			if ps := p.preds[mi]; ps != nil {
				next = resolver.Union(next, ps)
			}
		}
		next = resolver.Intersect(next, candidates)
		next = resolver.Difference(next, pred)
		if next.Empty() {
			break
		}
		pred = resolver.Union(pred, next)
		frontier = next
	}
	return pred
}

// findControlsUsed classifies, among links whose destination belongs to
// a used module, each ctl that is a Control as timbre- or voice-owned
// (spec §4.6 step 2).
func (p *planner) findControlsUsed(modsUsed *moduleSet) (*controlSet, *controlSet) {
	tUsed := p.res.Controls.None()
	vUsed := p.res.Controls.None()
	for _, links := range p.linksTo {
		for _, l := range links {
			destMod, ok := p.moduleOwner(l.Dest().Owner())
			if !ok || !modsUsed.ContainsIndex(destMod) {
				continue
			}
			if l.Ctl() == nil {
				continue
			}
			ctl, ci, ok := p.controlOwner(l.Ctl().Owner())
			if !ok {
				continue
			}
			if p.tcontrols[ctl] {
				tUsed.SetIndex(ci)
			}
			if p.vcontrols[ctl] {
				vUsed.SetIndex(ci)
			}
		}
	}
	return tUsed, vUsed
}

// assemblePrepSteps builds the one-shot ClearBuffer/AliasPort prep
// steps for every input port of every module in modules (spec §4.6
// step 3), folding a lone constant link's scale into its ClearBuffer
// fill value (spec §9 scale-folding resolution) and honoring twin
// wiring for otherwise-unconnected ports (spec §9 twin-module
// resolution: an explicit link always takes priority over a twin).
func (p *planner) assemblePrepSteps(modules *moduleSet) []plan.Step {
	var steps []plan.Step
	for _, m := range modules.Members() {
		for _, prt := range m.Ports() {
			if prt.Direction() != port.In {
				continue
			}
			di, _ := p.res.Ports.IndexOf(prt)
			links := p.linksTo[di]

			switch {
			case len(links) == 0:
				if twinSrc, ok := p.cfg.Patch.TwinFor(prt); ok {
					si, ok := p.res.Ports.IndexOf(twinSrc)
					if ok {
						steps = append(steps, plan.Step{Kind: plan.AliasPort, Dest: di, Src: si, Ctl: plan.NoIndex})
						continue
					}
				}
				steps = append(steps, plan.Step{Kind: plan.ClearBuffer, Dest: di, Src: plan.NoIndex, Ctl: plan.NoIndex, Scalar: 0})

			case len(links) == 1:
				l := links[0]
				if l.IsSimple() {
					if srcMod, ok := p.moduleOwner(l.Src().Owner()); ok && modules.ContainsIndex(srcMod) {
						si, _ := p.res.Ports.IndexOf(l.Src())
						steps = append(steps, plan.Step{Kind: plan.AliasPort, Dest: di, Src: si, Ctl: plan.NoIndex})
						continue
					}
				}
				if v, ok := l.Constant(); ok {
					steps = append(steps, plan.Step{Kind: plan.ClearBuffer, Dest: di, Src: plan.NoIndex, Ctl: plan.NoIndex, Scalar: v})
					continue
				}
				steps = append(steps, plan.Step{Kind: plan.AliasPort, Dest: di, Src: plan.NoIndex, Ctl: plan.NoIndex})

			default:
				steps = append(steps, plan.Step{Kind: plan.AliasPort, Dest: di, Src: plan.NoIndex, Ctl: plan.NoIndex})
			}
		}
	}
	return steps
}

// assembleRenderSteps implements spec §4.6 step 4: emit RenderControl
// for every used control, then repeatedly schedule ready modules
// (those whose predecessors are already done) in ascending index
// order, emitting Copy/Add steps for each non-aliased input and a
// RenderModule step per module.
func (p *planner) assembleRenderSteps(controlsUsed *controlSet, section, done *moduleSet) ([]plan.Step, error) {
	var steps []plan.Step
	for _, ci := range controlsUsed.Indices() {
		steps = append(steps, plan.Step{Kind: plan.RenderControl, Dest: plan.NoIndex, Src: plan.NoIndex, Ctl: plan.NoIndex, Index: ci})
	}

	remaining := resolver.Difference(section, done)
	for remaining.Any() {
		ready := p.res.Modules.None()
		for _, mi := range section.Indices() {
			if done.ContainsIndex(mi) {
				continue
			}
			preds := p.preds[mi]
			if preds == nil || resolver.Subset(preds, done) {
				ready.SetIndex(mi)
			}
		}
		if ready.Empty() {
			return nil, &ConfigError{Kind: "graph cycle", Msg: "cycle in module graph"}
		}
		for _, mi := range ready.Indices() {
			m := p.res.Modules.At(mi)
			for _, dest := range m.Ports() {
				if dest.Direction() != port.In {
					continue
				}
				di, _ := p.res.Ports.IndexOf(dest)
				links := p.linksTo[di]
				if len(links) == 0 {
					continue
				}
				if len(links) == 1 {
					l := links[0]
					if l.IsSimple() {
						continue // aliased at prep
					}
					if _, ok := l.Constant(); ok {
						continue // folded into ClearBuffer at prep
					}
				}
				copied := false
				for _, l := range links {
					srcIdx, ctlIdx := plan.NoIndex, plan.NoIndex
					if l.Src() != nil {
						srcIdx, _ = p.res.Ports.IndexOf(l.Src())
					}
					if l.Ctl() != nil {
						ctlIdx, _ = p.res.Ports.IndexOf(l.Ctl())
					}
					kind := plan.Add
					if !copied {
						kind = plan.Copy
						copied = true
					}
					steps = append(steps, plan.Step{Kind: kind, Dest: di, Src: srcIdx, Ctl: ctlIdx, Scalar: l.Scale()})
				}
			}
			steps = append(steps, plan.Step{Kind: plan.RenderModule, Dest: plan.NoIndex, Src: plan.NoIndex, Ctl: plan.NoIndex, Index: mi})
		}
		done = resolver.Union(done, ready)
		remaining = resolver.Difference(section, done)
	}
	return steps, nil
}

package link

import (
	"testing"

	"github.com/patchwire/synthcore/internal/port"
)

func TestIsSimpleRequiresSourceOnlyMatchingTypesUnitScale(t *testing.T) {
	dest := port.NewInput("in", port.Float64, nil)
	src := port.NewOutput("out", port.Float64, nil)

	l := New(dest, src, nil, DefaultScale)
	if !l.IsSimple() {
		t.Errorf("expected simple link")
	}

	scaled := New(dest, src, nil, 2.0)
	if scaled.IsSimple() {
		t.Errorf("scaled link must not be simple")
	}

	ctl := port.NewOutput("ctl", port.Float64, nil)
	withCtl := New(dest, src, ctl, DefaultScale)
	if withCtl.IsSimple() {
		t.Errorf("link with a control must not be simple")
	}

	mismatched := New(dest, port.NewOutput("out32", port.Float32, nil), nil, DefaultScale)
	if mismatched.IsSimple() {
		t.Errorf("type-mismatched link must not be simple")
	}
}

func TestConstantLink(t *testing.T) {
	dest := port.NewInput("in", port.Float64, nil)
	l := New(dest, nil, nil, 3.5)
	v, ok := l.Constant()
	if !ok || v != 3.5 {
		t.Fatalf("Constant() = (%v, %v), want (3.5, true)", v, ok)
	}

	withSrc := New(dest, port.NewOutput("out", port.Float64, nil), nil, 1.0)
	if _, ok := withSrc.Constant(); ok {
		t.Errorf("a link with a source must not be constant")
	}
}

func TestCopyActionSrcOnly(t *testing.T) {
	dest := port.NewInput("in", port.Float64, nil)
	src := port.NewOutput("out", port.Float64, nil)
	for i := 0; i < 4; i++ {
		src.Out(i, float64(i+1))
	}
	l := New(dest, src, nil, 2.0)
	action := l.MakeCopyAction()
	action(4)
	for i := 0; i < 4; i++ {
		want := float64(i+1) * 2.0
		if got := dest.In(i); got != want {
			t.Errorf("dest[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestAddActionAccumulatesOverCopy(t *testing.T) {
	dest := port.NewInput("in", port.Float64, nil)
	a := port.NewOutput("a", port.Float64, nil)
	b := port.NewOutput("b", port.Float64, nil)
	a.Out(0, 2)
	b.Out(0, 3)

	copyLink := New(dest, a, nil, DefaultScale)
	addLink := New(dest, b, nil, DefaultScale)
	copyLink.MakeCopyAction()(1)
	addLink.MakeAddAction()(1)

	if got := dest.In(0); got != 5 {
		t.Errorf("dest[0] = %v, want 5 (2 copied + 3 added)", got)
	}
}

func TestSrcAndCtlMultiply(t *testing.T) {
	dest := port.NewInput("in", port.Float64, nil)
	src := port.NewOutput("src", port.Float64, nil)
	ctl := port.NewOutput("ctl", port.Float64, nil)
	src.Out(0, 4)
	ctl.Out(0, 0.5)
	l := New(dest, src, ctl, DefaultScale)
	l.MakeCopyAction()(1)
	if got := dest.In(0); got != 2 {
		t.Errorf("dest[0] = %v, want 2 (4 * 0.5)", got)
	}
}

func TestCtlOnlyNoSrc(t *testing.T) {
	dest := port.NewInput("in", port.Float64, nil)
	ctl := port.NewOutput("ctl", port.Float64, nil)
	ctl.Out(0, 7)
	l := New(dest, nil, ctl, 2.0)
	l.MakeCopyAction()(1)
	if got := dest.In(0); got != 14 {
		t.Errorf("dest[0] = %v, want 14 (7 * 2.0)", got)
	}
}

func TestNarrowingConversionOnFloat32Dest(t *testing.T) {
	dest := port.NewInput("in", port.Float32, nil)
	src := port.NewOutput("src", port.Float64, nil)
	src.Out(0, 1.0/3.0)
	l := New(dest, src, nil, DefaultScale)
	l.MakeCopyAction()(1)
	want := float64(float32(1.0 / 3.0))
	if got := dest.In(0); got != want {
		t.Errorf("dest[0] = %v, want %v (rounded through float32)", got, want)
	}
}

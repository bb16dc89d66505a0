package port

import "testing"

func TestInputPortDefaultsToOwnBuffer(t *testing.T) {
	p := NewInput("freq", Float64, nil)
	if p.Aliased() {
		t.Fatalf("freshly constructed input port should not be aliased")
	}
	p.Out(0, 1.5) // writing the backing buffer directly, as a test fixture would
	if got := p.In(0); got != 1.5 {
		t.Errorf("In(0) = %v, want 1.5", got)
	}
}

func TestClearFillsAndResetsAlias(t *testing.T) {
	src := NewOutput("src", Float64, nil)
	src.Out(0, 9)
	dst := NewInput("dst", Float64, nil)
	dst.Alias(src.Buf())
	if dst.In(0) != 9 {
		t.Fatalf("alias did not take effect")
	}
	dst.Clear(0)
	if dst.Aliased() {
		t.Errorf("Clear should reset the alias")
	}
	for i := 0; i < 4; i++ {
		if got := dst.In(i); got != 0 {
			t.Errorf("In(%d) = %v after Clear(0), want 0", i, got)
		}
	}
}

func TestAliasNilRestoresOwnBuffer(t *testing.T) {
	src := NewOutput("src", Float64, nil)
	src.Out(0, 42)
	dst := NewInput("dst", Float64, nil)
	dst.Alias(src.Buf())
	dst.Alias(nil)
	if dst.Aliased() {
		t.Errorf("Alias(nil) should un-alias the port")
	}
	if dst.In(0) == 42 {
		t.Errorf("In(0) should read the port's own buffer after Alias(nil)")
	}
}

func TestAliasOnOutputPortPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic aliasing an output port")
		}
	}()
	o := NewOutput("out", Float64, nil)
	o.Alias(nil)
}

func TestOwnerAndMetadata(t *testing.T) {
	type fakeOwner struct{ name string }
	_ = fakeOwner{}
	p := NewOutput("gain", Float32, nil)
	if p.Name() != "gain" {
		t.Errorf("Name() = %q, want gain", p.Name())
	}
	if p.Direction() != Out {
		t.Errorf("Direction() = %v, want Out", p.Direction())
	}
	if p.ElemType() != Float32 {
		t.Errorf("ElemType() = %v, want Float32", p.ElemType())
	}
}

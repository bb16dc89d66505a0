// Package port implements the typed per-port sample buffers that modules
// and controls read from and write to (spec component C1).
package port

// Sample is the engine's floating point element type. Buffers store
// Sample regardless of a port's declared ElemType; ElemType only gates
// which conversion a Link bakes in at build time (see internal/link).
type Sample = float64

// MaxFrames bounds the largest chunk size the host may request in a
// single render call. Buffers are fixed-size arrays of this length so
// the render path never allocates.
const MaxFrames = 4096

// Direction is a port's signal direction.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// ElemType is the port's declared element type, checked at link-build
// time. It is otherwise erased at render time: buffers are stored
// uniformly and conversions are monomorphized into the Link's closures.
type ElemType int

const (
	Float32 ElemType = iota
	Float64
)

// Owner identifies the Module or Control that declared a port. It is a
// minimal interface to avoid a dependency from port on synthmod.
type Owner interface {
	Name() string
}

// Buffer is a fixed-capacity backing store for one port.
type Buffer [MaxFrames]Sample

// Port is a named endpoint with a direction, an element type, and an
// owner. Input ports additionally carry a data pointer that either
// points at the port's own backing buffer or is aliased to another
// port's buffer.
type Port struct {
	name  string
	dir   Direction
	elem  ElemType
	owner Owner

	buf  Buffer
	data *Buffer // input ports only; never nil during render
}

// NewInput creates an input port. Its data pointer starts out aliased
// to its own backing buffer, satisfying the "never null" invariant
// before any Clear/Alias call.
func NewInput(name string, elem ElemType, owner Owner) *Port {
	p := &Port{name: name, dir: In, elem: elem, owner: owner}
	p.data = &p.buf
	return p
}

// NewOutput creates an output port.
func NewOutput(name string, elem ElemType, owner Owner) *Port {
	return &Port{name: name, dir: Out, elem: elem, owner: owner}
}

func (p *Port) Name() string        { return p.name }
func (p *Port) Direction() Direction { return p.dir }
func (p *Port) ElemType() ElemType  { return p.elem }
func (p *Port) Owner() Owner        { return p.owner }

// Buf returns the port's own backing buffer, used as an alias/link
// source regardless of direction (an input port's backing buffer can
// itself be aliased by a downstream twin, for instance).
func (p *Port) Buf() *Buffer { return &p.buf }

// Data returns the buffer an input port currently reads from: its own
// backing buffer, or another port's buffer if aliased.
func (p *Port) Data() *Buffer {
	if p.dir != In {
		return &p.buf
	}
	return p.data
}

// Clear fills the backing buffer with value and resets the data
// pointer to point at it (undoing any alias).
func (p *Port) Clear(value Sample) {
	for i := range p.buf {
		p.buf[i] = value
	}
	if p.dir == In {
		p.data = &p.buf
	}
}

// Alias redirects an input port's data pointer at src, or at the port's
// own backing buffer if src is nil.
func (p *Port) Alias(src *Buffer) {
	if p.dir != In {
		panic("port: Alias called on an output port")
	}
	if src != nil {
		p.data = src
	} else {
		p.data = &p.buf
	}
}

// Aliased reports whether the port currently reads from another port's
// buffer rather than its own.
func (p *Port) Aliased() bool {
	return p.dir == In && p.data != &p.buf
}

// In reads sample i from the buffer Data returns: for an input port,
// whatever buffer it currently points at; for an output port, its own
// backing buffer.
func (p *Port) In(i int) Sample { return p.Data()[i] }

// Out writes sample i into the port's own backing buffer.
func (p *Port) Out(i int, v Sample) { p.buf[i] = v }

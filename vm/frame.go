package vm

// ---------------------------------------------------------------------------
// Frame: scope memory
// ---------------------------------------------------------------------------

// FrameKind distinguishes lexical blocks from function-call boundaries.
type FrameKind uint8

const (
	// FrameBlock is a transparent lexical scope inside a control structure.
	FrameBlock FrameKind = iota
	// FrameBoundary starts a function activation (or the program root).
	FrameBoundary
)

// Frame maps names to values and links to its lexical outer frame.
//
// Boundary frames also remember the frame that was current when the call
// was made, so returning can restore it, plus a display name and call-site
// span for traces.
type Frame struct {
	vars  map[string]Value
	outer *Frame
	kind  FrameKind

	// Boundary frames only
	Name     string
	CallSite *Span
	caller   *Frame
	native   string // native that re-entered the engine to make this call
}

// NewRootFrame creates the outermost frame of a program run.
func NewRootFrame(name string) *Frame {
	return &Frame{vars: make(map[string]Value), kind: FrameBoundary, Name: name}
}

// NewBlockFrame creates a block scope nested in outer.
func NewBlockFrame(outer *Frame) *Frame {
	return &Frame{vars: make(map[string]Value), outer: outer, kind: FrameBlock}
}

// NewBoundaryFrame creates a function activation whose names resolve
// through lexical and which returns to caller.
func NewBoundaryFrame(lexical, caller *Frame, name string, site *Span) *Frame {
	return &Frame{
		vars:     make(map[string]Value),
		outer:    lexical,
		kind:     FrameBoundary,
		Name:     name,
		CallSite: site,
		caller:   caller,
	}
}

// Kind returns the frame kind.
func (f *Frame) Kind() FrameKind { return f.kind }

// Outer returns the lexical outer frame, nil for the root.
func (f *Frame) Outer() *Frame { return f.outer }

// Caller returns the frame a boundary frame returns to.
func (f *Frame) Caller() *Frame { return f.caller }

// Boundary returns the nearest enclosing boundary frame, f itself if it is one.
func (f *Frame) Boundary() *Frame {
	for fr := f; fr != nil; fr = fr.outer {
		if fr.kind == FrameBoundary {
			return fr
		}
	}
	return nil
}

// Get returns the binding stored directly in f.
func (f *Frame) Get(name string) (Value, bool) {
	v, ok := f.vars[name]
	return v, ok
}

// Define creates or overwrites a binding in f.
func (f *Frame) Define(name string, v Value) {
	f.vars[name] = v
}

// Lookup finds name walking outward. With shallow set the walk stops after
// the first boundary frame, so only the current function is searched.
// It returns the frame that holds the binding.
func (f *Frame) Lookup(name string, shallow bool) (Value, *Frame, bool) {
	for fr := f; fr != nil; fr = fr.outer {
		if v, ok := fr.vars[name]; ok {
			return v, fr, true
		}
		if shallow && fr.kind == FrameBoundary {
			break
		}
	}
	return nil, nil, false
}

// SetNearest updates the nearest binding of name inside the current
// function, or defines it in f when there is none.
func (f *Frame) SetNearest(name string, v Value) {
	if _, owner, ok := f.Lookup(name, true); ok {
		owner.vars[name] = v
		return
	}
	f.vars[name] = v
}

// SetOuter updates the nearest binding of name beyond the current
// function's boundary. When no such binding exists it is created in the
// frame directly enclosing the function; at the root it is created there.
func (f *Frame) SetOuter(name string, v Value) {
	b := f.Boundary()
	if b == nil {
		f.vars[name] = v
		return
	}
	if b.outer == nil {
		b.vars[name] = v
		return
	}
	if _, owner, ok := b.outer.Lookup(name, false); ok {
		owner.vars[name] = v
		return
	}
	b.outer.vars[name] = v
}

// Names returns the names bound directly in f.
func (f *Frame) Names() []string {
	names := make([]string, 0, len(f.vars))
	for name := range f.vars {
		names = append(names, name)
	}
	return names
}

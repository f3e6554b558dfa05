package compiler

import "github.com/Troppydash/plang-interpreter-sub000/vm"

// fragment is the code emitted for one node, with its debug entries and
// unresolved loop exits. Indices are relative to the fragment start.
type fragment struct {
	code    []vm.Instruction
	debug   []vm.DebugEntry
	patches []patch
}

// patch is a BREAK or CONTINUE placeholder awaiting its loop's layout.
type patch struct {
	index int
	loop  int
	cont  bool
}

func (f *fragment) len() int {
	return len(f.code)
}

func (f *fragment) emit(ins ...vm.Instruction) {
	f.code = append(f.code, ins...)
}

// append splices child onto the end of f, shifting the child's debug
// entries and patches by f's current length.
func (f *fragment) append(child *fragment) {
	offset := len(f.code)
	f.code = append(f.code, child.code...)
	for _, e := range child.debug {
		e.End += offset
		f.debug = append(f.debug, e)
	}
	for _, p := range child.patches {
		p.index += offset
		f.patches = append(f.patches, p)
	}
}

// mark records a debug entry covering the whole fragment.
func (f *fragment) mark(kind string, span vm.Span) *fragment {
	if len(f.code) > 0 {
		f.debug = append(f.debug, vm.DebugEntry{End: len(f.code), Length: len(f.code), Span: span, Kind: kind})
	}
	return f
}

// jumpTo rewrites the instruction at index into a relative jump landing
// on target.
func (f *fragment) jumpTo(index int, op vm.Opcode, target int) {
	f.code[index] = vm.InsJump(op, target-(index+1))
}

// resolve turns the placeholders recorded for loop into jumps and keeps
// the rest for enclosing loops.
func (f *fragment) resolve(loop, breakTarget, continueTarget int) {
	kept := f.patches[:0]
	for _, p := range f.patches {
		if p.loop != loop {
			kept = append(kept, p)
			continue
		}
		if p.cont {
			f.jumpTo(p.index, vm.OpJump, continueTarget)
		} else {
			f.jumpTo(p.index, vm.OpJump, breakTarget)
		}
	}
	f.patches = kept
}

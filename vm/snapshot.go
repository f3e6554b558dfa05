package vm

// Snapshot captures the engine state a failed native call rolls back to.
// Everything below the recorded depths belongs to calls still in flight
// and is never rewritten by a nested run, so only the depths are kept.
type Snapshot struct {
	stack    int
	frame    *Frame
	closures int
	calls    int
	natives  int
	ip       int
}

// Save captures the current engine state.
func (in *Interpreter) Save() Snapshot {
	return Snapshot{
		stack:    len(in.stack),
		frame:    in.frame,
		closures: len(in.closures),
		calls:    len(in.calls),
		natives:  len(in.nativeStack),
		ip:       in.ip,
	}
}

// Restore returns the engine to s by discarding whatever was pushed after
// it was taken.
func (in *Interpreter) Restore(s Snapshot) {
	if len(in.stack) < s.stack || len(in.closures) < s.closures || len(in.calls) < s.calls {
		panic("restore below a snapshot: engine state was popped past a call in flight")
	}
	in.stack = in.stack[:s.stack]
	in.frame = s.frame
	in.closures = in.closures[:s.closures]
	in.calls = in.calls[:s.calls]
	if len(in.nativeStack) > s.natives {
		in.nativeStack = in.nativeStack[:s.natives]
	}
	in.ip = s.ip
}

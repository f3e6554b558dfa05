package vm

import "fmt"

// ---------------------------------------------------------------------------
// Calls, dispatch and returns
// ---------------------------------------------------------------------------

// buildClosure pops a parameter count and (name, guard) pairs and captures
// the current frame. The body starts right after the BUILD_FUNC.
func (in *Interpreter) buildClosure() (*Closure, error) {
	n := in.popCount()
	c := &Closure{
		Entry:  in.ip + 1,
		Frame:  in.frame,
		Params: make([]string, n),
		Guards: make([]*Type, n),
	}
	for i := 0; i < n; i++ {
		name, ok := in.pop().(String)
		if !ok {
			panic("BUILD_FUNC parameter name is not a String")
		}
		c.Params[i] = string(name)
		switch g := in.pop().(type) {
		case null:
		case *Type:
			c.Guards[i] = g
		default:
			return nil, Raise(FailTypeMismatch, "guard for parameter %q is %s, not a Type", name, TypeName(g))
		}
	}
	return c, nil
}

// callValue calls callee with arguments already in declaration order.
// Closures continue in the run loop; everything else completes here and
// pushes its result.
func (in *Interpreter) callValue(callee Value, args []Value) error {
	switch c := callee.(type) {
	case *Closure:
		return in.enterClosure(c, args, false, "")
	case *Native:
		v, err := in.invokeNative(c, args)
		if err != nil {
			return err
		}
		in.push(v)
	case *Type:
		v, err := in.callType(c, args)
		if err != nil {
			return err
		}
		in.push(v)
	default:
		return Raise(FailNotCallable, "%s is not callable", TypeName(callee))
	}
	return nil
}

// dispatch resolves an operator by the runtime type of its first operand,
// falling back to a type-free native of the same method name.
func (in *Interpreter) dispatch(op string) error {
	args := in.popArgs(in.popCount())
	if len(args) == 0 {
		panic("DISPATCH without operands")
	}
	method := OperatorMethod(op)
	callee, ok := in.resolve(Scramble(method, TypeName(args[0])))
	if !ok {
		callee, ok = in.natives.Resolve(method)
	}
	if !ok {
		if len(args) == 2 {
			return Raise(FailTypeMismatch, "cannot apply %s to %s and %s", op, TypeName(args[0]), TypeName(args[1]))
		}
		return Raise(FailTypeMismatch, "cannot apply %s to %s", op, TypeName(args[0]))
	}
	return in.callValue(callee, args)
}

// enterClosure checks arity and guards, records the return point and
// transfers control into the closure body. The receiver of a bound closure
// becomes its first parameter.
func (in *Interpreter) enterClosure(c *Closure, args []Value, reentry bool, native string) error {
	given, expected := len(args), len(c.Params)
	if c.Receiver != nil {
		args = append([]Value{c.Receiver}, args...)
		expected--
	}
	if len(args) != len(c.Params) {
		return Raise(FailArity, "%s expects %d arguments, got %d", c.callName(), expected, given)
	}
	for i, g := range c.Guards {
		if g != nil && TypeName(args[i]) != g.Name {
			return Raise(FailTypeMismatch, "%s: parameter %q expects %s, got %s",
				c.callName(), c.Params[i], g.Name, TypeName(args[i]))
		}
	}

	if len(in.calls) >= in.opts.MaxCallDepth {
		return Raise(FailCallDepth, "call depth exceeds %d in %s", in.opts.MaxCallDepth, c.callName())
	}

	in.calls = append(in.calls, callRecord{callIP: in.ip, depth: len(in.stack), reentry: reentry})
	fr := NewBoundaryFrame(c.Frame, in.frame, c.callName(), in.spanAt(in.ip))
	fr.native = native
	for i, p := range c.Params {
		fr.Define(p, args[i])
	}
	in.closures = append(in.closures, c.Frame)
	in.frame = fr
	in.ip = c.Entry - 1

	in.log.Debugf("call %s (depth %d)", fr.Name, len(in.calls))
	return nil
}

func (c *Closure) callName() string {
	if c.Name == "" {
		return "<func>"
	}
	return DisplayName(c.Name)
}

// ret unwinds to the caller of the current function. With no caller the
// program halts with the returned value.
func (in *Interpreter) ret() (bool, Value, error) {
	v := in.pop()
	if len(in.calls) == 0 {
		return true, v, nil
	}

	rec := in.calls[len(in.calls)-1]
	in.calls = in.calls[:len(in.calls)-1]

	b := in.frame.Boundary()
	in.log.Debugf("return from %s", b.Name)
	in.frame = b.Caller()
	in.closures = in.closures[:len(in.closures)-1]
	in.stack = in.stack[:rec.depth]

	if rec.reentry {
		return true, v, nil
	}
	in.push(v)
	in.ip = rec.callIP
	return false, nil, nil
}

// invokeNative runs a native synchronously. On failure the engine state is
// rolled back and the error is located at the calling instruction with a
// trace frame naming the native.
func (in *Interpreter) invokeNative(n *Native, args []Value) (Value, error) {
	given, expected := len(args), n.Arity
	if n.Receiver != nil {
		args = append([]Value{n.Receiver}, args...)
		expected--
	}
	if n.Arity >= 0 && len(args) != n.Arity {
		return nil, Raise(FailArity, "%s expects %d arguments, got %d", DisplayName(n.Name), expected, given)
	}

	if len(in.nativeStack) >= maxNativeDepth {
		return nil, Raise(FailCallDepth, "native call depth exceeds %d in %s", maxNativeDepth, DisplayName(n.Name))
	}

	snap := in.Save()
	in.nativeStack = append(in.nativeStack, n.Name)
	v, err := n.Fn(in, args)
	in.nativeStack = in.nativeStack[:len(in.nativeStack)-1]
	if err != nil {
		in.Restore(snap)
		return nil, in.nativeFailure(n, err)
	}
	if v == nil {
		v = Null
	}
	return v, nil
}

// nativeFailure converts an error returned by a native. A failure that
// was already located inside plang code called back by the native keeps
// its problem and trace, and gains a host-call problem at the call site.
func (in *Interpreter) nativeFailure(n *Native, err error) error {
	rerr, ok := err.(*RuntimeError)
	if ok && rerr.located {
		msg := fmt.Sprintf("%s failed", DisplayName(n.Name))
		if len(rerr.problems) > 0 {
			msg += ": " + rerr.problems[0].Message
		}
		rerr.problems = append(rerr.problems, in.problemAt(in.ip, FailHostCall, msg))
		return rerr
	}
	if !ok {
		rerr = Raise(FailHostCall, "%s: %v", DisplayName(n.Name), err)
	}

	in.log.Debugf("native %s failed: %s", n.Name, rerr.Message)
	rerr.located = true
	rerr.problems = []Problem{in.problemAt(in.ip, rerr.Failure, rerr.Message)}
	frames := []TraceFrame{{Name: DisplayName(n.Name)}}
	rerr.trace = Trace{Frames: append(frames, in.buildTrace(in.ip).Frames...)}
	return rerr
}

// callType converts with a conversion Type or constructs with a record Type.
func (in *Interpreter) callType(t *Type, args []Value) (Value, error) {
	if !t.Record {
		if len(args) != 1 {
			return nil, Raise(FailArity, "conversion to %s expects 1 argument, got %d", t.Name, len(args))
		}
		if conv, ok := in.resolve(Scramble("to"+t.Name, TypeName(args[0]))); ok {
			return in.invokeManaged(conv, args[0])
		}
		return convert(args[0], t.Name)
	}

	inst := NewInstance(t)
	if ctor, ok := in.resolve(Scramble("new", t.Name)); ok {
		if _, err := in.invokeManaged(ctor, append([]Value{inst}, args...)...); err != nil {
			return nil, err
		}
		return inst, nil
	}

	switch len(args) {
	case 0:
	case len(t.Fields):
		for i, f := range t.Fields {
			inst.Fields[f] = args[i]
		}
	default:
		return nil, Raise(FailArity, "%s expects 0 or %d arguments, got %d", t.Name, len(t.Fields), len(args))
	}
	return inst, nil
}

// invokeManaged runs a constructor or conversion found for a Type call.
// It is plang code, not a native, so it gets no native trace frame even
// when the Type is called from inside a native callback.
func (in *Interpreter) invokeManaged(fn Value, args ...Value) (Value, error) {
	in.nativeStack = append(in.nativeStack, "")
	v, err := in.Invoke(fn, args...)
	in.nativeStack = in.nativeStack[:len(in.nativeStack)-1]
	return v, err
}

// Invoke calls callee synchronously and returns its result. Natives use
// it to run plang callbacks; the nested run shares the frame chain and
// operand stack, and the caller's state is restored if it fails.
func (in *Interpreter) Invoke(callee Value, args ...Value) (Value, error) {
	switch c := callee.(type) {
	case *Closure:
		snap := in.Save()
		native := ""
		if n := len(in.nativeStack); n > 0 {
			native = in.nativeStack[n-1]
		}
		if err := in.enterClosure(c, args, true, native); err != nil {
			in.Restore(snap)
			return nil, err
		}
		in.ip++
		v, err := in.run()
		if err != nil {
			in.Restore(snap)
			return nil, err
		}
		in.ip = snap.ip
		return v, nil
	case *Native:
		return in.invokeNative(c, args)
	case *Type:
		return in.callType(c, args)
	default:
		return nil, Raise(FailNotCallable, "%s is not callable", TypeName(callee))
	}
}

package vm

import (
	"fmt"
	"strconv"

	"github.com/kr/pretty"
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Interpreter: the execution engine
// ---------------------------------------------------------------------------

// Options control an Interpreter.
type Options struct {
	// Trace logs every executed instruction at debug level.
	Trace bool
	// DumpProgram logs the program listing before execution.
	DumpProgram bool
	// RootName is the display name of the outermost frame.
	RootName string
	// MaxCallDepth bounds the number of active managed calls. Zero means
	// DefaultMaxCallDepth.
	MaxCallDepth int
}

// DefaultMaxCallDepth is the call depth limit when Options leave it unset.
const DefaultMaxCallDepth = 100000

// maxNativeDepth bounds natives nested through callbacks, each of which
// holds a Go stack frame of its own.
const maxNativeDepth = 10000

// Result is the outcome of one program run: either a final Value or a
// non-empty problem list with the trace of the failing call chain.
type Result struct {
	Value    Value
	Problems []Problem
	Trace    Trace
}

// OK reports whether the run produced a value.
func (r Result) OK() bool {
	return len(r.Problems) == 0
}

// callRecord is pushed by every managed call and popped by RETURN.
type callRecord struct {
	callIP  int  // index of the CALL/DISPATCH that made the call
	depth   int  // operand stack depth to restore
	reentry bool // returning ends a nested run started by Invoke
}

// Interpreter executes Programs. It is single-threaded; natives may
// re-enter it synchronously through Invoke.
type Interpreter struct {
	program  *Program
	operands []Value // decoded constant operands, by instruction index
	dists    []int   // decoded jump distances, by instruction index

	ip       int
	stack    []Value
	frame    *Frame
	root     *Frame
	closures []*Frame // captured frame of each active closure call
	calls    []callRecord

	// natives currently running, innermost last
	nativeStack []string

	natives *NativeTable
	host    Host
	opts    Options
	log     commonlog.Logger
}

// NewInterpreter creates an interpreter over a native table and host.
// A nil table gets the standard natives; a nil host the process streams.
func NewInterpreter(natives *NativeTable, host Host, opts Options) *Interpreter {
	if natives == nil {
		natives = StandardNatives()
	}
	if host == nil {
		host = DefaultHost()
	}
	if opts.RootName == "" {
		opts.RootName = "<main>"
	}
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = DefaultMaxCallDepth
	}
	return &Interpreter{
		natives: natives,
		host:    host,
		opts:    opts,
		log:     commonlog.GetLogger("plang.vm"),
	}
}

// Host returns the injected host adapter.
func (in *Interpreter) Host() Host {
	return in.host
}

// Globals returns the root frame of the most recent run.
func (in *Interpreter) Globals() *Frame {
	return in.root
}

// Exports returns the dict filled by the program's export statements.
func (in *Interpreter) Exports() (*Dict, bool) {
	if in.root == nil {
		return nil, false
	}
	v, ok := in.root.Get(ExportsBinding)
	if !ok {
		return nil, false
	}
	d, ok := v.(*Dict)
	return d, ok
}

// StackDepth returns the current operand stack depth.
func (in *Interpreter) StackDepth() int {
	return len(in.stack)
}

// Execute runs p to completion. It stops at the first runtime diagnostic
// and never panics: unexpected failures are reported as internal errors.
func (in *Interpreter) Execute(p *Program) (res Result) {
	in.reset(p)

	defer func() {
		if r := recover(); r != nil {
			in.log.Errorf("internal error at %d: %v\n%s", in.ip, r, pretty.Sprint(in.dumpState()))
			res = Result{Problems: []Problem{in.problemAt(in.ip, FailInternal, fmt.Sprintf("internal error: %v", r))}}
		}
		in.host.Flush()
	}()

	if in.opts.DumpProgram {
		in.log.Infof("program:\n%s", p.Dump())
	}

	if err := in.decode(); err != nil {
		return in.failed(err)
	}

	v, err := in.run()
	if err != nil {
		return in.failed(err)
	}
	in.log.Debugf("run finished with %s", Repr(v))
	return Result{Value: v}
}

func (in *Interpreter) reset(p *Program) {
	in.program = p
	in.ip = 0
	in.stack = in.stack[:0]
	in.root = NewRootFrame(in.opts.RootName)
	in.frame = in.root
	in.closures = nil
	in.calls = nil
	in.nativeStack = nil
}

func (in *Interpreter) failed(err error) Result {
	rerr := in.locate(err)
	for _, pr := range rerr.problems {
		in.log.Debugf("runtime problem: %s", pr.Error())
	}
	return Result{Problems: rerr.problems, Trace: rerr.trace}
}

// decode parses every constant and jump operand once per program.
func (in *Interpreter) decode() error {
	code := in.program.Code
	in.operands = make([]Value, len(code))
	in.dists = make([]int, len(code))

	for i, ins := range code {
		var err error
		switch ins.Op.Operand() {
		case OperandNumber:
			var f float64
			f, err = strconv.ParseFloat(ins.Operand, 64)
			in.operands[i] = Number(f)
		case OperandString:
			in.operands[i] = String(ins.Operand)
		case OperandBoolean:
			var b bool
			b, err = strconv.ParseBool(ins.Operand)
			in.operands[i] = Boolean(b)
		case OperandName:
			if ins.Op == OpPushType {
				in.operands[i] = NewConversionType(ins.Operand)
			}
		case OperandJump:
			in.dists[i], err = ins.Distance()
		}
		if err != nil {
			in.ip = i
			return Raise(FailInternal, "malformed operand %q for %s", ins.Operand, ins.Op)
		}
	}
	return nil
}

// run executes instructions until the program ends, a top-level RETURN
// halts it, or a RETURN closes the innermost re-entrant call.
func (in *Interpreter) run() (Value, error) {
	code := in.program.Code
	for {
		if in.ip >= len(code) {
			if len(in.calls) == 0 {
				return Null, nil
			}
			return nil, Raise(FailInternal, "execution ran past the end of the program inside a call")
		}

		if in.opts.Trace {
			in.log.Debugf("%04d %-40s depth=%d", in.ip, code[in.ip], len(in.stack))
		}

		done, v, err := in.step(code[in.ip])
		if err != nil {
			return nil, in.locate(err)
		}
		if done {
			return v, nil
		}
		in.ip++
	}
}

// step executes one instruction. done is set when the current run ends
// with v.
func (in *Interpreter) step(ins Instruction) (done bool, v Value, err error) {
	switch ins.Op {
	case OpPushNumber, OpPushString, OpPushBoolean, OpPushType:
		in.push(in.operands[in.ip])
	case OpPushNull:
		in.push(Null)
	case OpPushEmpty:
		in.push(Empty)

	case OpBuildList:
		n := in.popCount()
		items := make([]Value, n)
		for i := range items {
			items[i] = Copy(in.pop())
		}
		in.push(NewList(items...))

	case OpBuildDict:
		n := in.popCount()
		d := NewDict()
		for i := 0; i < n; i++ {
			key, ok := in.pop().(String)
			value := Copy(in.pop())
			if !ok {
				return false, nil, Raise(FailTypeMismatch, "dict keys must be String")
			}
			d.Set(string(key), value)
		}
		in.push(d)

	case OpBuildType:
		n := in.popCount()
		fields := make([]string, n)
		for i := range fields {
			name, ok := in.pop().(String)
			if !ok {
				panic("BUILD_TYPE field name is not a String")
			}
			fields[i] = string(name)
		}
		in.push(NewRecordType(ins.Operand, fields))

	case OpBuildFunc:
		c, err := in.buildClosure()
		if err != nil {
			return false, nil, err
		}
		in.push(c)
		in.ip += in.dists[in.ip]

	case OpJump:
		in.ip += in.dists[in.ip]
	case OpJumpIfFalsePeek, OpJumpIfTruePeek:
		b, err := in.condition(in.top())
		if err != nil {
			return false, nil, err
		}
		if bool(b) == (ins.Op == OpJumpIfTruePeek) {
			in.ip += in.dists[in.ip]
		}
	case OpJumpIfFalse:
		b, err := in.condition(in.pop())
		if err != nil {
			return false, nil, err
		}
		if !b {
			in.ip += in.dists[in.ip]
		}

	case OpCall:
		callee := in.pop()
		args := in.popArgs(in.popCount())
		return false, nil, in.callValue(callee, args)
	case OpDispatch:
		return false, nil, in.dispatch(ins.Operand)
	case OpReturn:
		return in.ret()

	case OpGetVar:
		v, ok := in.resolve(ins.Operand)
		if !ok {
			return false, nil, Raise(FailUnbound, "unbound variable %q", ins.Operand)
		}
		in.push(v)
	case OpGetMember:
		key := in.pop()
		obj := in.pop()
		v, err := in.member(obj, key)
		if err != nil {
			return false, nil, err
		}
		in.push(v)

	case OpAssignLocal, OpAssignNearest, OpAssignOuter:
		return false, nil, in.assign(ins.Op)

	case OpIncrement, OpDecrement:
		return false, nil, in.bump(ins.Operand, ins.Op == OpIncrement)
	case OpNegate:
		v := in.pop()
		n, ok := v.(Number)
		if !ok {
			return false, nil, Raise(FailInvalidOperand, "cannot negate %s", TypeName(v))
		}
		in.push(-n)
	case OpNot:
		b, err := in.condition(in.pop())
		if err != nil {
			return false, nil, err
		}
		in.push(!b)

	case OpBreak:
		return false, nil, Raise(FailOutsideLoop, "break used outside a loop")
	case OpContinue:
		return false, nil, Raise(FailOutsideLoop, "continue used outside a loop")

	case OpScopeEnter:
		in.frame = NewBlockFrame(in.frame)
	case OpScopeExit:
		if in.frame.Kind() != FrameBlock {
			panic("SCOPE_EXIT without a matching block frame")
		}
		in.frame = in.frame.Outer()
	case OpPop:
		in.pop()

	default:
		panic(fmt.Sprintf("unknown opcode 0x%02X", byte(ins.Op)))
	}
	return false, nil, nil
}

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

func (in *Interpreter) push(v Value) {
	in.stack = append(in.stack, v)
}

func (in *Interpreter) pop() Value {
	if len(in.stack) == 0 {
		panic("operand stack underflow")
	}
	v := in.stack[len(in.stack)-1]
	in.stack = in.stack[:len(in.stack)-1]
	return v
}

func (in *Interpreter) top() Value {
	if len(in.stack) == 0 {
		panic("operand stack underflow")
	}
	return in.stack[len(in.stack)-1]
}

func (in *Interpreter) popCount() int {
	n, ok := in.pop().(Number)
	if !ok || n < 0 {
		panic("count operand is not a non-negative Number")
	}
	return int(n)
}

// popArgs pops n arguments pushed in source order and copies each.
func (in *Interpreter) popArgs(n int) []Value {
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = Copy(in.pop())
	}
	return args
}

func (in *Interpreter) condition(v Value) (Boolean, error) {
	b, ok := v.(Boolean)
	if !ok {
		return false, Raise(FailNotBoolean, "expected Boolean, got %s", TypeName(v))
	}
	return b, nil
}

// resolve looks name up through the frame chain, then the native table.
func (in *Interpreter) resolve(name string) (Value, bool) {
	if v, _, ok := in.frame.Lookup(name, false); ok {
		return v, true
	}
	return in.natives.Resolve(name)
}

func (in *Interpreter) bump(name string, up bool) error {
	v, owner, ok := in.frame.Lookup(name, false)
	if !ok {
		return Raise(FailUnbound, "unbound variable %q", name)
	}
	n, ok := v.(Number)
	if !ok {
		if up {
			return Raise(FailInvalidOperand, "cannot increment %s", TypeName(v))
		}
		return Raise(FailInvalidOperand, "cannot decrement %s", TypeName(v))
	}
	if up {
		owner.Define(name, n+1)
	} else {
		owner.Define(name, n-1)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Locating failures
// ---------------------------------------------------------------------------

// spanAt returns the span of the most specific debug entry covering ip.
func (in *Interpreter) spanAt(ip int) *Span {
	if in.program == nil {
		return nil
	}
	e, ok := in.program.Debug.Lookup(ip)
	if !ok {
		return nil
	}
	s := e.Span
	return &s
}

// problemAt builds the diagnostic for failure f at ip, refined by the kind
// of the innermost syntax node covering ip.
func (in *Interpreter) problemAt(ip int, f Failure, msg string) Problem {
	var (
		kind string
		span *Span
	)
	if in.program != nil {
		if e, ok := in.program.Debug.Lookup(ip); ok {
			kind = e.Kind
			s := e.Span
			span = &s
		}
	}
	if f == FailNotBoolean {
		if prefix, ok := contextMessages[kind]; ok {
			msg = prefix + ": " + msg
		}
	}
	d := codeFor(f, kind)
	return Problem{Code: d.code, Span: span, Message: msg, Hint: d.hint}
}

// locate turns err into a located RuntimeError at the current instruction.
// Errors that were already located keep their problems and trace.
func (in *Interpreter) locate(err error) *RuntimeError {
	rerr, ok := err.(*RuntimeError)
	if !ok {
		rerr = &RuntimeError{Failure: FailInternal, Message: err.Error()}
	}
	if rerr.located {
		return rerr
	}
	rerr.located = true
	rerr.problems = []Problem{in.problemAt(in.ip, rerr.Failure, rerr.Message)}
	rerr.trace = in.buildTrace(in.ip)
	return rerr
}

// buildTrace walks boundary frames through their caller links, innermost
// first. Calls made by natives get a frame naming the native.
func (in *Interpreter) buildTrace(ip int) Trace {
	var frames []TraceFrame
	site := in.spanAt(ip)
	for b := in.frame.Boundary(); b != nil; {
		frames = append(frames, TraceFrame{Name: DisplayName(b.Name), Span: site})
		if b.native != "" {
			frames = append(frames, TraceFrame{Name: DisplayName(b.native)})
		}
		site = b.CallSite
		if b.caller == nil {
			break
		}
		b = b.caller.Boundary()
	}
	return Trace{Frames: frames}
}

// ---------------------------------------------------------------------------
// Internal-error dumps
// ---------------------------------------------------------------------------

type stateDump struct {
	IP          int
	Instruction string
	Stack       []string
	Frames      []string
	Calls       []callRecord
	Natives     []string
}

func (in *Interpreter) dumpState() stateDump {
	d := stateDump{IP: in.ip, Calls: in.calls, Natives: in.nativeStack}
	if in.program != nil && in.ip >= 0 && in.ip < len(in.program.Code) {
		d.Instruction = in.program.Code[in.ip].String()
	}
	for _, v := range in.stack {
		d.Stack = append(d.Stack, Repr(v))
	}
	for f := in.frame; f != nil; f = f.Outer() {
		if f.Kind() == FrameBoundary {
			d.Frames = append(d.Frames, "boundary "+f.Name)
		} else {
			d.Frames = append(d.Frames, "block")
		}
	}
	return d
}

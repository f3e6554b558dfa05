package compiler

import (
	"fmt"
	"strconv"

	"github.com/tliron/commonlog"

	"github.com/Troppydash/plang-interpreter-sub000/vm"
)

// ---------------------------------------------------------------------------
// Code generator: AST -> vm.Program
// ---------------------------------------------------------------------------

// Hidden binding names used by lowered constructs. "$" cannot start a
// source identifier.
const (
	hiddenCount = "$count"
	hiddenIndex = "$i"
	hiddenIter  = "$it"
	hiddenStep  = "$step"
	hiddenMatch = "$match"
)

// Options configure compilation.
type Options struct {
	// Linker resolves import and export statements. Without one they are
	// reported as problems.
	Linker Linker
}

// loopContext is an enclosing loop that break and continue resolve against.
type loopContext struct {
	id    int
	depth int // scope depth inside the loop's own scope
}

// Compiler lowers statements into a Program. Problems accumulate; an
// unknown node type panics.
type Compiler struct {
	opts     Options
	problems []vm.Problem

	loops    []loopContext
	depth    int // open SCOPE_ENTERs in the current function
	nextLoop int

	log commonlog.Logger
}

// NewCompiler creates a compiler.
func NewCompiler(opts Options) *Compiler {
	return &Compiler{opts: opts, log: commonlog.GetLogger("plang.compiler")}
}

// Problems returns the problems reported so far.
func (c *Compiler) Problems() []vm.Problem {
	return c.problems
}

// Compile lowers a statement list into a Program.
func Compile(stmts []Stmt, opts Options) (*vm.Program, []vm.Problem) {
	c := NewCompiler(opts)
	p := c.CompileProgram(stmts)
	return p, c.Problems()
}

// CompileProgram lowers the top-level statements of a program.
func (c *Compiler) CompileProgram(stmts []Stmt) *vm.Program {
	f := &fragment{}
	for _, s := range stmts {
		f.append(c.genStmt(s))
	}
	p := &vm.Program{Code: f.code, Debug: f.debug}
	c.log.Debugf("compiled %d statements into %d instructions, %d problems", len(stmts), p.Len(), len(c.problems))
	return p
}

func (c *Compiler) problem(code string, span vm.Span, hint vm.Hint, format string, args ...any) {
	s := span
	pr := vm.Problem{Code: code, Span: &s, Message: fmt.Sprintf(format, args...), Hint: hint}
	c.log.Debugf("compile problem: %s", pr.Error())
	c.problems = append(c.problems, pr)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// genStmt emits s followed by the POP that discards its value.
func (c *Compiler) genStmt(s Stmt) *fragment {
	var f *fragment
	switch n := s.(type) {
	case *ExprStmt:
		f = c.genExpr(n.X)
	case *Block:
		f = c.genScoped(n)
		f.emit(vm.Ins(vm.OpPushNull))
		f.mark("Block", n.SpanVal)
	case *If:
		f = c.genIfChain(n.Branches, n.Else)
		f.mark("If", n.SpanVal)
	case *While:
		f = c.genLoop(nil, c.genExpr(n.Cond), n.Body, nil)
		f.mark("While", n.SpanVal)
	case *For:
		f = c.genFor(n)
	case *Loop:
		f = c.genRepeat(n)
	case *Each:
		f = c.genEach(n)
	case *Match:
		f = c.genMatch(n)
	case *Impl:
		f = c.genImpl(n)
	case *TypeDef:
		f = c.genTypeDef(n)
	case *Return:
		f = c.genReturn(n)
	case *Break:
		f = c.genExit(false)
		f.mark("Break", n.SpanVal)
	case *Continue:
		f = c.genExit(true)
		f.mark("Continue", n.SpanVal)
	case *Import:
		f = c.genLinked(n, "import", func(l Linker) ([]Stmt, error) { return l.Import(n) })
	case *Export:
		f = c.genLinked(n, "export", func(l Linker) ([]Stmt, error) { return l.Export(n) })
	default:
		panic(fmt.Sprintf("compiler: unhandled statement %T", s))
	}
	f.emit(vm.Ins(vm.OpPop))
	return f
}

// genScoped emits a block inside its own scope, leaving nothing on the
// stack.
func (c *Compiler) genScoped(b *Block) *fragment {
	f := &fragment{}
	f.emit(vm.Ins(vm.OpScopeEnter))
	c.depth++
	for _, s := range b.Stmts {
		f.append(c.genStmt(s))
	}
	c.depth--
	f.emit(vm.Ins(vm.OpScopeExit))
	return f
}

// genIfChain emits condition / JUMP_IF_FALSE / block arms, each skipping
// to the end when taken, then the optional else block and a null.
func (c *Compiler) genIfChain(branches []IfBranch, elseBlock *Block) *fragment {
	f := &fragment{}
	var ends []int
	for i, br := range branches {
		cond := c.genExpr(br.Cond)
		body := c.genScoped(br.Body)
		last := i == len(branches)-1 && elseBlock == nil

		f.append(cond)
		skip := body.len()
		if !last {
			skip++
		}
		f.emit(vm.InsJump(vm.OpJumpIfFalse, skip))
		f.append(body)
		if !last {
			ends = append(ends, f.len())
			f.emit(vm.Ins(vm.OpJump))
		}
	}
	if elseBlock != nil {
		f.append(c.genScoped(elseBlock))
	}
	end := f.len()
	for _, j := range ends {
		f.jumpTo(j, vm.OpJump, end)
	}
	f.emit(vm.Ins(vm.OpPushNull))
	return f
}

// genLoop lays out every loop form inside its own scope:
//
//	SCOPE_ENTER
//	init
//	cond:  condition; JUMP_IF_FALSE exit
//	       body
//	step:  step
//	       JUMP cond
//	exit:  SCOPE_EXIT
//	       PUSH_NULL
//
// init and step are generated by the caller with the loop scope open;
// a nil cond loops until a break. continue lands on step.
func (c *Compiler) genLoop(init *fragment, cond *fragment, body *Block, step func() *fragment) *fragment {
	f := &fragment{}
	f.emit(vm.Ins(vm.OpScopeEnter))
	if init != nil {
		f.append(init)
	}

	c.depth++
	id := c.nextLoop
	c.nextLoop++
	c.loops = append(c.loops, loopContext{id: id, depth: c.depth})

	condStart := f.len()
	jif := -1
	if cond != nil {
		f.append(cond)
		jif = f.len()
		f.emit(vm.Ins(vm.OpJumpIfFalse))
	}
	f.append(c.genScoped(body))

	c.loops = c.loops[:len(c.loops)-1]

	stepStart := f.len()
	if step != nil {
		f.append(step())
	}
	back := f.len()
	f.emit(vm.Ins(vm.OpJump))
	f.jumpTo(back, vm.OpJump, condStart)

	exit := f.len()
	if jif >= 0 {
		f.jumpTo(jif, vm.OpJumpIfFalse, exit)
	}
	f.resolve(id, exit, stepStart)
	c.depth--

	f.emit(vm.Ins(vm.OpScopeExit), vm.Ins(vm.OpPushNull))
	return f
}

func (c *Compiler) genFor(n *For) *fragment {
	// init runs inside the loop scope, so it is generated at that depth
	c.depth++
	var init *fragment
	if n.Init != nil {
		init = c.genStmt(n.Init)
	}
	var cond *fragment
	if n.Cond != nil {
		cond = c.genExpr(n.Cond)
	}
	c.depth--

	var step func() *fragment
	if n.Step != nil {
		step = func() *fragment { return c.genStmt(n.Step) }
	}
	return c.genLoop(init, cond, n.Body, step).mark("For", n.SpanVal)
}

// genRepeat lowers loop N with a hidden counter compared by "<".
func (c *Compiler) genRepeat(n *Loop) *fragment {
	init := c.genExpr(n.Count)
	init.emit(
		vm.Ins(vm.OpPushEmpty), vm.InsArg(vm.OpPushString, hiddenCount), vm.Ins(vm.OpAssignLocal), vm.Ins(vm.OpPop),
		vm.InsNumber(0), vm.Ins(vm.OpPushEmpty), vm.InsArg(vm.OpPushString, hiddenIndex), vm.Ins(vm.OpAssignLocal), vm.Ins(vm.OpPop),
	)

	cond := &fragment{}
	cond.emit(
		vm.InsArg(vm.OpGetVar, hiddenIndex),
		vm.InsArg(vm.OpGetVar, hiddenCount),
		vm.InsNumber(2),
		vm.InsArg(vm.OpDispatch, "<"),
	)

	step := func() *fragment {
		s := &fragment{}
		s.emit(vm.InsArg(vm.OpIncrement, hiddenIndex))
		return s
	}
	return c.genLoop(init, cond, n.Body, step).mark("Loop", n.SpanVal)
}

// genEach lowers each x in expr {} to a for loop over the iterator
// protocol:
//
//	for $it = expr.iter(); $step = $it.next(); $step[2]; $step = $it.next() {
//	    x = $step[1]
//	    ...
//	}
func (c *Compiler) genEach(n *Each) *fragment {
	sp := n.SpanVal
	next := func(scope ScopeKind) Stmt {
		return &ExprStmt{SpanVal: sp, X: &Assign{
			SpanVal: sp,
			Target:  &Variable{SpanVal: sp, Name: hiddenStep},
			Value: &Call{SpanVal: sp, Callee: &Member{
				SpanVal: sp,
				Object:  &Variable{SpanVal: sp, Name: hiddenIter},
				Name:    "next",
			}},
			Scope: scope,
		}}
	}

	c.depth++
	init := c.genStmt(&ExprStmt{SpanVal: sp, X: &Assign{
		SpanVal: sp,
		Target:  &Variable{SpanVal: sp, Name: hiddenIter},
		Value:   &Call{SpanVal: sp, Callee: &Member{SpanVal: sp, Object: n.Iterable, Name: "iter"}},
		Scope:   ScopeLocal,
	}})
	init.append(c.genStmt(next(ScopeLocal)))
	cond := c.genExpr(&Index{
		SpanVal: sp,
		Object:  &Variable{SpanVal: sp, Name: hiddenStep},
		Key:     &NumberLit{SpanVal: sp, Value: 2},
	})
	c.depth--

	bind := &ExprStmt{SpanVal: sp, X: &Assign{
		SpanVal: sp,
		Target:  &Variable{SpanVal: sp, Name: n.Name},
		Value: &Index{
			SpanVal: sp,
			Object:  &Variable{SpanVal: sp, Name: hiddenStep},
			Key:     &NumberLit{SpanVal: sp, Value: 1},
		},
		Scope: ScopeLocal,
	}}
	body := &Block{SpanVal: n.Body.SpanVal, Stmts: append([]Stmt{bind}, n.Body.Stmts...)}

	step := func() *fragment { return c.genStmt(next(ScopeNearest)) }
	return c.genLoop(init, cond, body, step).mark("Each", sp)
}

// genMatch caches the subject in a hidden local and compares it with
// each case value using ==.
func (c *Compiler) genMatch(n *Match) *fragment {
	f := &fragment{}
	f.emit(vm.Ins(vm.OpScopeEnter))
	c.depth++

	f.append(c.genExpr(n.Subject))
	f.emit(vm.Ins(vm.OpPushEmpty), vm.InsArg(vm.OpPushString, hiddenMatch), vm.Ins(vm.OpAssignLocal), vm.Ins(vm.OpPop))

	branches := make([]IfBranch, 0, len(n.Cases))
	for _, mc := range n.Cases {
		var cond Expr
		for _, v := range mc.Values {
			eq := &Binary{
				SpanVal: v.Span(),
				Op:      "==",
				Left:    &Variable{SpanVal: v.Span(), Name: hiddenMatch},
				Right:   v,
			}
			if cond == nil {
				cond = eq
			} else {
				cond = &Binary{SpanVal: v.Span(), Op: "or", Left: cond, Right: eq}
			}
		}
		if cond == nil {
			cond = &BooleanLit{SpanVal: mc.Body.SpanVal, Value: false}
		}
		branches = append(branches, IfBranch{Cond: cond, Body: mc.Body})
	}

	if len(branches) > 0 {
		f.append(c.genIfChain(branches, n.Else))
		f.emit(vm.Ins(vm.OpPop))
	} else if n.Else != nil {
		f.append(c.genScoped(n.Else))
	}

	c.depth--
	f.emit(vm.Ins(vm.OpScopeExit), vm.Ins(vm.OpPushNull))
	return f.mark("Match", n.SpanVal)
}

// genExit emits a break or continue. Inside a loop it closes the scopes
// opened since the loop scope and leaves a placeholder for the loop to
// patch; outside any loop the bare opcode reaches the engine.
func (c *Compiler) genExit(cont bool) *fragment {
	f := &fragment{}
	op := vm.OpBreak
	if cont {
		op = vm.OpContinue
	}
	if len(c.loops) == 0 {
		f.emit(vm.Ins(op))
		return f
	}
	loop := c.loops[len(c.loops)-1]
	for i := c.depth; i > loop.depth; i-- {
		f.emit(vm.Ins(vm.OpScopeExit))
	}
	f.patches = append(f.patches, patch{index: f.len(), loop: loop.id, cont: cont})
	f.emit(vm.Ins(op))
	return f
}

func (c *Compiler) genReturn(n *Return) *fragment {
	f := &fragment{}
	if n.Value != nil {
		f.append(c.genExpr(n.Value))
	} else {
		f.emit(vm.Ins(vm.OpPushNull))
	}
	f.emit(vm.Ins(vm.OpReturn))
	return f.mark("Return", n.SpanVal)
}

func (c *Compiler) genImpl(n *Impl) *fragment {
	if n.TypeName == "" {
		c.problem("CE0002", n.SpanVal, vm.HintHere, "impl %s has no target type", n.Method)
		f := &fragment{}
		f.emit(vm.Ins(vm.OpPushNull))
		return f
	}
	f := c.genFunction(n.Params, n.TypeName, n.Body, n.SpanVal)
	f.emit(
		vm.Ins(vm.OpPushEmpty),
		vm.InsArg(vm.OpPushString, vm.Scramble(n.Method, n.TypeName)),
		vm.Ins(vm.OpAssignLocal),
	)
	return f.mark("Impl", n.SpanVal)
}

func (c *Compiler) genTypeDef(n *TypeDef) *fragment {
	f := &fragment{}
	if vm.IsBuiltinTypeName(n.Name) {
		c.problem("CE0007", n.SpanVal, vm.HintHere, "type %s redefines a built-in type", n.Name)
	}
	seen := make(map[string]bool, len(n.Fields))
	for _, name := range n.Fields {
		if seen[name] {
			c.problem("CE0006", n.SpanVal, vm.HintHere, "duplicate field %q in type %s", name, n.Name)
		}
		seen[name] = true
	}
	for i := len(n.Fields) - 1; i >= 0; i-- {
		f.emit(vm.InsArg(vm.OpPushString, n.Fields[i]))
	}
	f.emit(
		vm.InsNumber(float64(len(n.Fields))),
		vm.InsArg(vm.OpBuildType, n.Name),
		vm.Ins(vm.OpPushEmpty),
		vm.InsArg(vm.OpPushString, n.Name),
		vm.Ins(vm.OpAssignLocal),
	)
	return f.mark("TypeDef", n.SpanVal)
}

// genLinked compiles the statements a Linker produces for an import or
// export in place.
func (c *Compiler) genLinked(n Stmt, what string, link func(Linker) ([]Stmt, error)) *fragment {
	f := &fragment{}
	if c.opts.Linker == nil {
		c.problem("CE0003", n.Span(), vm.HintHere, "%s is not supported without a module linker", what)
	} else if stmts, err := link(c.opts.Linker); err != nil {
		c.problem("CE0004", n.Span(), vm.HintHere, "%s failed: %v", what, err)
	} else {
		for _, s := range stmts {
			f.append(c.genStmt(s))
		}
	}
	f.emit(vm.Ins(vm.OpPushNull))
	return f.mark(n.Kind(), n.Span())
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// genExpr emits code leaving exactly one value on the stack.
func (c *Compiler) genExpr(e Expr) *fragment {
	f := &fragment{}
	switch n := e.(type) {
	case *NumberLit:
		f.emit(vm.InsNumber(n.Value))
	case *StringLit:
		f.emit(vm.InsArg(vm.OpPushString, n.Value))
	case *BooleanLit:
		f.emit(vm.InsArg(vm.OpPushBoolean, strconv.FormatBool(n.Value)))
	case *NullLit:
		f.emit(vm.Ins(vm.OpPushNull))
	case *Variable:
		f.emit(vm.InsArg(vm.OpGetVar, n.Name))

	case *ListLit:
		for i := len(n.Elements) - 1; i >= 0; i-- {
			f.append(c.genExpr(n.Elements[i]))
		}
		f.emit(vm.InsNumber(float64(len(n.Elements))), vm.Ins(vm.OpBuildList))
	case *DictLit:
		for i := len(n.Entries) - 1; i >= 0; i-- {
			f.append(c.genExpr(n.Entries[i].Value))
			f.append(c.genExpr(n.Entries[i].Key))
		}
		f.emit(vm.InsNumber(float64(len(n.Entries))), vm.Ins(vm.OpBuildDict))

	case *Binary:
		c.genBinary(f, n)
	case *Unary:
		f.append(c.genExpr(n.Operand))
		switch n.Op {
		case "-":
			f.emit(vm.Ins(vm.OpNegate))
		case "not":
			f.emit(vm.Ins(vm.OpNot))
		default:
			f.emit(vm.InsNumber(1), vm.InsArg(vm.OpDispatch, n.Op))
		}

	case *Assign:
		c.genAssign(f, n)
	case *Call:
		for _, a := range n.Args {
			f.append(c.genExpr(a))
		}
		f.emit(vm.InsNumber(float64(len(n.Args))))
		f.append(c.genExpr(n.Callee))
		f.emit(vm.Ins(vm.OpCall))
	case *Member:
		f.append(c.genExpr(n.Object))
		f.emit(vm.InsArg(vm.OpPushString, n.Name), vm.Ins(vm.OpGetMember))
	case *Index:
		f.append(c.genExpr(n.Object))
		f.append(c.genExpr(n.Key))
		f.emit(vm.Ins(vm.OpGetMember))

	case *Func:
		f.append(c.genFunction(n.Params, "", n.Body, n.SpanVal))
		if n.Name != "" {
			f.emit(vm.Ins(vm.OpPushEmpty), vm.InsArg(vm.OpPushString, n.Name), vm.Ins(vm.OpAssignNearest))
		}

	default:
		panic(fmt.Sprintf("compiler: unhandled expression %T", e))
	}
	return f.mark(e.Kind(), e.Span())
}

func (c *Compiler) genBinary(f *fragment, n *Binary) {
	left := c.genExpr(n.Left)
	right := c.genExpr(n.Right)
	f.append(left)

	switch n.Op {
	case "and", "or":
		op := vm.OpJumpIfFalsePeek
		if n.Op == "or" {
			op = vm.OpJumpIfTruePeek
		}
		// skip the POP and the right operand, keeping the left value
		f.emit(vm.InsJump(op, 1+right.len()), vm.Ins(vm.OpPop))
		f.append(right)
	default:
		f.append(right)
		f.emit(vm.InsNumber(2), vm.InsArg(vm.OpDispatch, n.Op))
	}
}

func (c *Compiler) genAssign(f *fragment, n *Assign) {
	f.append(c.genExpr(n.Value))

	switch t := n.Target.(type) {
	case *Variable:
		f.emit(vm.Ins(vm.OpPushEmpty), vm.InsArg(vm.OpPushString, t.Name))
	case *Member:
		f.append(c.genExpr(t.Object))
		f.emit(vm.InsArg(vm.OpPushString, t.Name))
	case *Index:
		f.append(c.genExpr(t.Object))
		f.append(c.genExpr(t.Key))
	default:
		c.problem("CE0005", n.Target.Span(), vm.HintHere, "cannot assign to %s", n.Target.Kind())
		return
	}

	switch n.Scope {
	case ScopeLocal:
		f.emit(vm.Ins(vm.OpAssignLocal))
	case ScopeOuter:
		f.emit(vm.Ins(vm.OpAssignOuter))
	default:
		f.emit(vm.Ins(vm.OpAssignNearest))
	}
}

// genFunction emits parameters, BUILD_FUNC and the body. A non-empty
// selfType prepends a self parameter guarded by that type.
func (c *Compiler) genFunction(params []Param, selfType string, body *Block, span vm.Span) *fragment {
	f := &fragment{}

	seen := make(map[string]bool, len(params)+1)
	if selfType != "" {
		seen["self"] = true
	}
	for _, p := range params {
		if seen[p.Name] {
			c.problem("CE0001", span, vm.HintHere, "duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
	}

	for i := len(params) - 1; i >= 0; i-- {
		if params[i].Guard != nil {
			f.append(c.genExpr(params[i].Guard))
		} else {
			f.emit(vm.Ins(vm.OpPushNull))
		}
		f.emit(vm.InsArg(vm.OpPushString, params[i].Name))
	}
	n := len(params)
	if selfType != "" {
		f.emit(vm.InsArg(vm.OpPushType, selfType), vm.InsArg(vm.OpPushString, "self"))
		n++
	}
	f.emit(vm.InsNumber(float64(n)))

	code := c.genFunctionBody(body)
	f.emit(vm.InsJump(vm.OpBuildFunc, code.len()))
	f.append(code)
	return f
}

// genFunctionBody compiles a body in the function's own boundary frame.
// Loops outside the function are hidden from break and continue.
func (c *Compiler) genFunctionBody(body *Block) *fragment {
	savedLoops, savedDepth := c.loops, c.depth
	c.loops, c.depth = nil, 0
	defer func() { c.loops, c.depth = savedLoops, savedDepth }()

	f := &fragment{}
	for _, s := range body.Stmts {
		f.append(c.genStmt(s))
	}
	if !endsWithReturn(body.Stmts) {
		f.emit(vm.Ins(vm.OpPushNull), vm.Ins(vm.OpReturn))
	}
	return f
}

func endsWithReturn(stmts []Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	_, ok := stmts[len(stmts)-1].(*Return)
	return ok
}

package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/Troppydash/plang-interpreter-sub000/vm"
)

func opcodes(p *vm.Program) []vm.Opcode {
	ops := make([]vm.Opcode, len(p.Code))
	for i, in := range p.Code {
		ops[i] = in.Op
	}
	return ops
}

func TestCompileBinaryLayout(t *testing.T) {
	p := compile(t, expr(bin("+", num(2), bin("*", num(3), num(4)))))

	want := []vm.Instruction{
		vm.InsNumber(2),
		vm.InsNumber(3),
		vm.InsNumber(4),
		vm.InsNumber(2),
		vm.InsArg(vm.OpDispatch, "*"),
		vm.InsNumber(2),
		vm.InsArg(vm.OpDispatch, "+"),
		vm.Ins(vm.OpPop),
	}
	if len(p.Code) != len(want) {
		t.Fatalf("got %d instructions, want %d:\n%s", len(p.Code), len(want), p.Dump())
	}
	for i := range want {
		if p.Code[i] != want[i] {
			t.Errorf("instruction %d = %s, want %s", i, p.Code[i], want[i])
		}
	}

	// the outer dispatch belongs to the outer Binary, the inner one to
	// the nested Binary
	outer, _ := p.Debug.Lookup(6)
	inner, _ := p.Debug.Lookup(4)
	if outer.Kind != "Binary" || outer.Length != 7 {
		t.Errorf("outer entry = %+v", outer)
	}
	if inner.Kind != "Binary" || inner.Length != 4 {
		t.Errorf("inner entry = %+v", inner)
	}
	if e, _ := p.Debug.Lookup(0); e.Kind != "Number" {
		t.Errorf("entry at 0 = %+v", e)
	}
}

func TestCompileShortCircuit(t *testing.T) {
	p := compile(t, expr(bin("and", ref("a"), ref("b"))))

	want := []vm.Opcode{vm.OpGetVar, vm.OpJumpIfFalsePeek, vm.OpPop, vm.OpGetVar, vm.OpPop}
	got := opcodes(p)
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("instruction %d = %s, want %s", i, got[i], want[i])
		}
	}
	if d, _ := p.Code[1].Distance(); d != 2 {
		t.Errorf("short-circuit distance = %d, want 2", d)
	}
}

func TestCompileCallOrder(t *testing.T) {
	p := compile(t, expr(call(ref("f"), num(1), num(2))))

	want := []vm.Instruction{
		vm.InsNumber(1),
		vm.InsNumber(2),
		vm.InsNumber(2),
		vm.InsArg(vm.OpGetVar, "f"),
		vm.Ins(vm.OpCall),
		vm.Ins(vm.OpPop),
	}
	for i := range want {
		if p.Code[i] != want[i] {
			t.Errorf("instruction %d = %s, want %s", i, p.Code[i], want[i])
		}
	}
}

func TestCompileFunctionLayout(t *testing.T) {
	p := compile(t, def("sq", params("n"), ret(bin("*", ref("n"), ref("n")))))

	build := -1
	for i, in := range p.Code {
		if in.Op == vm.OpBuildFunc {
			build = i
			break
		}
	}
	if build < 0 {
		t.Fatalf("no BUILD_FUNC:\n%s", p.Dump())
	}
	n, _ := p.Code[build].Distance()
	last := build + n
	// the return statement is followed by its statement POP
	if p.Code[last-1].Op != vm.OpReturn || p.Code[last].Op != vm.OpPop {
		t.Errorf("body does not end in RETURN:\n%s", p.Dump())
	}
	if p.Code[last+1].Op != vm.OpPushEmpty || p.Code[last+3].Op != vm.OpAssignNearest {
		t.Errorf("named function should be bound after its body:\n%s", p.Dump())
	}
}

func TestCompileImplicitReturn(t *testing.T) {
	p := compile(t, expr(fn(nil, say(str("hi")))))
	ops := opcodes(p)
	// ... PUSH_NULL RETURN POP
	n := len(ops)
	if ops[n-3] != vm.OpPushNull || ops[n-2] != vm.OpReturn {
		t.Errorf("missing implicit return:\n%s", p.Dump())
	}

	p = compile(t, expr(fn(nil, ret(num(1)))))
	returns := 0
	for _, op := range opcodes(p) {
		if op == vm.OpReturn {
			returns++
		}
	}
	if returns != 1 {
		t.Errorf("explicit trailing return should not get an implicit one:\n%s", p.Dump())
	}
}

func TestCompileResolvesLoopExits(t *testing.T) {
	p := compile(t,
		&While{SpanVal: sp(), Cond: boolean(true), Body: block(
			ifThen(ref("done"), brk()),
			cont(),
		)},
	)
	for i, in := range p.Code {
		if in.Op == vm.OpBreak || in.Op == vm.OpContinue {
			t.Errorf("unresolved %s at %d:\n%s", in.Op, i, p.Dump())
		}
	}
}

func TestCompileBareBreakStaysForRuntime(t *testing.T) {
	p := compile(t, brk())
	if p.Code[0].Op != vm.OpBreak {
		t.Fatalf("bare break compiled to %s", p.Code[0].Op)
	}
	if e, ok := p.Debug.Lookup(0); !ok || e.Kind != "Break" {
		t.Errorf("break entry = %+v", e)
	}
}

func TestCompileJumpsStayInRange(t *testing.T) {
	programs := [][]Stmt{
		{ifThen(ref("a"), say(num(1)))},
		{&If{SpanVal: sp(), Branches: []IfBranch{
			{Cond: ref("a"), Body: block(say(num(1)))},
			{Cond: ref("b"), Body: block(say(num(2)))},
		}, Else: block(say(num(3)))}},
		{&Loop{SpanVal: sp(), Count: num(3), Body: block(brk())}},
		{&For{SpanVal: sp(), Init: set("i", num(0)), Cond: bin("<", ref("i"), num(3)), Step: set("i", bin("+", ref("i"), num(1))), Body: block(cont())}},
		{&Each{SpanVal: sp(), Name: "x", Iterable: list(num(1)), Body: block(brk())}},
		{&Match{SpanVal: sp(), Subject: num(1), Cases: []MatchCase{{Values: []Expr{num(1), num(2)}, Body: block()}}, Else: block()}},
		{expr(bin("or", ref("a"), bin("and", ref("b"), ref("c"))))},
	}

	for i, stmts := range programs {
		p := compile(t, stmts...)
		for ip, in := range p.Code {
			if !in.Op.IsJump() && in.Op != vm.OpBuildFunc {
				continue
			}
			d, err := in.Distance()
			if err != nil {
				t.Errorf("program %d: %v", i, err)
				continue
			}
			target := ip + 1 + d
			if target < 0 || target > len(p.Code) {
				t.Errorf("program %d: jump at %d lands at %d outside [0, %d]:\n%s", i, ip, target, len(p.Code), p.Dump())
			}
		}
	}
}

func TestCompileScopesBalance(t *testing.T) {
	p := compile(t,
		&Loop{SpanVal: sp(), Count: num(2), Body: block(
			&Each{SpanVal: sp(), Name: "x", Iterable: list(num(1)), Body: block(
				ifThen(ref("x"), brk()),
			)},
		)},
		block(say(num(1))),
	)
	enters, exits := 0, 0
	for _, in := range p.Code {
		switch in.Op {
		case vm.OpScopeEnter:
			enters++
		case vm.OpScopeExit:
			exits++
		}
	}
	// every SCOPE_ENTER has its exit on the fall-through path; breaks add
	// extra exits on their own paths
	if exits < enters {
		t.Errorf("enters=%d exits=%d:\n%s", enters, exits, p.Dump())
	}
}

func TestCompileDeterministic(t *testing.T) {
	build := func() []Stmt {
		return []Stmt{
			def("f", params("a", "b"), ret(bin("+", ref("a"), ref("b")))),
			say(call(ref("f"), num(1), num(2))),
		}
	}
	a := compile(t, build()...)
	b := compile(t, build()...)
	// spans differ between the two builds, instructions must not
	if len(a.Code) != len(b.Code) {
		t.Fatal("instruction counts differ")
	}
	for i := range a.Code {
		if a.Code[i] != b.Code[i] {
			t.Errorf("instruction %d differs: %s vs %s", i, a.Code[i], b.Code[i])
		}
	}
}

func TestCompileDumpAnnotations(t *testing.T) {
	p := compile(t, ifThen(boolean(true), say(str("x"))))
	dump := p.Dump()
	for _, want := range []string{"+ If", "+ Call", "JUMP_IF_FALSE", "SCOPE_ENTER"} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump missing %q:\n%s", want, dump)
		}
	}
}

func TestCompileProblems(t *testing.T) {
	cases := []struct {
		name string
		stmt Stmt
		code string
		msg  string
	}{
		{"duplicate parameter", def("f", params("a", "a")), "CE0001", `duplicate parameter "a"`},
		{"self parameter in impl", &Impl{SpanVal: sp(), Method: "m", TypeName: "T", Params: params("self"), Body: block()}, "CE0001", `duplicate parameter "self"`},
		{"impl without type", &Impl{SpanVal: sp(), Method: "m", Body: block()}, "CE0002", "impl m has no target type"},
		{"invalid target", setInto(num(1), num(2)), "CE0005", "cannot assign to Number"},
		{"duplicate field", &TypeDef{SpanVal: sp(), Name: "P", Fields: []string{"x", "x"}}, "CE0006", `duplicate field "x" in type P`},
		{"built-in list type", &TypeDef{SpanVal: sp(), Name: "List", Fields: []string{"a"}}, "CE0007", "type List redefines a built-in type"},
		{"built-in iterator type", &TypeDef{SpanVal: sp(), Name: "Iterator"}, "CE0007", "type Iterator redefines a built-in type"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, problems := Compile([]Stmt{c.stmt}, Options{})
			if len(problems) != 1 {
				t.Fatalf("problems = %v", problems)
			}
			if problems[0].Code != c.code || !strings.Contains(problems[0].Message, c.msg) {
				t.Errorf("problem = %+v", problems[0])
			}
			if problems[0].Span == nil {
				t.Error("compile problems carry a span")
			}
		})
	}
}

func TestCompileProblemsAccumulate(t *testing.T) {
	_, problems := Compile([]Stmt{
		&Import{SpanVal: sp(), Path: "m"},
		&Export{SpanVal: sp(), Names: []string{"x"}},
		def("f", params("a", "a")),
	}, Options{})
	if len(problems) != 3 {
		t.Fatalf("problems = %v", problems)
	}
	if problems[0].Code != "CE0003" || !strings.Contains(problems[0].Message, "import is not supported without a module linker") {
		t.Errorf("problem 0 = %+v", problems[0])
	}
	if problems[1].Code != "CE0003" {
		t.Errorf("problem 1 = %+v", problems[1])
	}
}

type failingLinker struct{}

func (failingLinker) Import(*Import) ([]Stmt, error) { return nil, errUnknownModule }
func (failingLinker) Export(*Export) ([]Stmt, error) { return nil, nil }

var errUnknownModule = errors.New("unknown module")

func TestCompileLinkerFailure(t *testing.T) {
	_, problems := Compile([]Stmt{&Import{SpanVal: sp(), Path: "nowhere"}}, Options{Linker: failingLinker{}})
	if len(problems) != 1 || problems[0].Code != "CE0004" || !strings.Contains(problems[0].Message, "unknown module") {
		t.Errorf("problems = %v", problems)
	}
}

func TestCompileUnknownNodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for an unknown statement")
		}
	}()
	Compile([]Stmt{nil}, Options{})
}

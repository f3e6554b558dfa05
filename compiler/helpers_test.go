package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Troppydash/plang-interpreter-sub000/vm"
)

// Syntax-tree builders. Each node gets a distinct one-line span so debug
// lookups can be told apart.

var nextLine int

func sp() vm.Span {
	nextLine++
	return vm.Span{File: "test.pl", Start: vm.Position{Line: nextLine, Column: 1}, End: vm.Position{Line: nextLine, Column: 2}}
}

func num(f float64) Expr      { return &NumberLit{SpanVal: sp(), Value: f} }
func str(s string) Expr       { return &StringLit{SpanVal: sp(), Value: s} }
func boolean(b bool) Expr     { return &BooleanLit{SpanVal: sp(), Value: b} }
func null() Expr              { return &NullLit{SpanVal: sp()} }
func ref(name string) Expr    { return &Variable{SpanVal: sp(), Name: name} }
func list(items ...Expr) Expr { return &ListLit{SpanVal: sp(), Elements: items} }

func dict(kv ...Expr) Expr {
	d := &DictLit{SpanVal: sp()}
	for i := 0; i+1 < len(kv); i += 2 {
		d.Entries = append(d.Entries, DictEntry{Key: kv[i], Value: kv[i+1]})
	}
	return d
}

func bin(op string, l, r Expr) Expr {
	return &Binary{SpanVal: sp(), Op: op, Left: l, Right: r}
}

func call(callee Expr, args ...Expr) Expr {
	return &Call{SpanVal: sp(), Callee: callee, Args: args}
}

func member(obj Expr, name string) Expr {
	return &Member{SpanVal: sp(), Object: obj, Name: name}
}

func method(obj Expr, name string, args ...Expr) Expr {
	return call(member(obj, name), args...)
}

func index(obj, key Expr) Expr {
	return &Index{SpanVal: sp(), Object: obj, Key: key}
}

func set(name string, value Expr) Stmt {
	return expr(&Assign{SpanVal: sp(), Target: ref(name), Value: value})
}

func setLocal(name string, value Expr) Stmt {
	return expr(&Assign{SpanVal: sp(), Target: ref(name), Value: value, Scope: ScopeLocal})
}

func setOuter(name string, value Expr) Stmt {
	return expr(&Assign{SpanVal: sp(), Target: ref(name), Value: value, Scope: ScopeOuter})
}

func setInto(target Expr, value Expr) Stmt {
	return expr(&Assign{SpanVal: sp(), Target: target, Value: value})
}

func expr(e Expr) Stmt { return &ExprStmt{SpanVal: e.Span(), X: e} }

func block(stmts ...Stmt) *Block { return &Block{SpanVal: sp(), Stmts: stmts} }

func ret(e Expr) Stmt { return &Return{SpanVal: sp(), Value: e} }

func params(names ...string) []Param {
	ps := make([]Param, len(names))
	for i, n := range names {
		ps[i] = Param{Name: n}
	}
	return ps
}

// fn is an anonymous function literal.
func fn(ps []Param, body ...Stmt) Expr {
	return &Func{SpanVal: sp(), Params: ps, Body: block(body...)}
}

// def is a named function definition statement.
func def(name string, ps []Param, body ...Stmt) Stmt {
	return expr(&Func{SpanVal: sp(), Name: name, Params: ps, Body: block(body...)})
}

func say(args ...Expr) Stmt { return expr(call(ref("say"), args...)) }

func ifThen(cond Expr, body ...Stmt) Stmt {
	return &If{SpanVal: sp(), Branches: []IfBranch{{Cond: cond, Body: block(body...)}}}
}

func brk() Stmt  { return &Break{SpanVal: sp()} }
func cont() Stmt { return &Continue{SpanVal: sp()} }

// compile compiles stmts and fails the test on any compile problem.
func compile(t *testing.T, stmts ...Stmt) *vm.Program {
	t.Helper()
	p, problems := Compile(stmts, Options{Linker: &ModuleLinker{}})
	if len(problems) > 0 {
		t.Fatalf("compile problems: %v", problems)
	}
	return p
}

// runWith executes a compiled program against natives and returns the
// result and printed output.
func runWith(t *testing.T, natives *vm.NativeTable, stmts ...Stmt) (vm.Result, string, *vm.Interpreter) {
	t.Helper()
	return runOpts(t, natives, vm.Options{}, stmts...)
}

func runOpts(t *testing.T, natives *vm.NativeTable, opts vm.Options, stmts ...Stmt) (vm.Result, string, *vm.Interpreter) {
	t.Helper()
	p := compile(t, stmts...)
	var out bytes.Buffer
	in := vm.NewInterpreter(natives, vm.NewStdHost(&out, strings.NewReader("")), opts)
	res := in.Execute(p)
	return res, out.String(), in
}

func run(t *testing.T, stmts ...Stmt) (vm.Result, string) {
	t.Helper()
	res, out, _ := runWith(t, nil, stmts...)
	return res, out
}

func expectValue(t *testing.T, res vm.Result, want vm.Value) {
	t.Helper()
	if !res.OK() {
		t.Fatalf("unexpected problems: %v", res.Problems)
	}
	if !vm.Equal(res.Value, want) {
		t.Fatalf("result = %s, want %s", vm.Repr(res.Value), vm.Repr(want))
	}
}

func expectDisplay(t *testing.T, res vm.Result, want string) {
	t.Helper()
	if !res.OK() {
		t.Fatalf("unexpected problems: %v", res.Problems)
	}
	if got := res.Value.String(); got != want {
		t.Fatalf("result = %s, want %s", got, want)
	}
}

func expectProblem(t *testing.T, res vm.Result, code, msg string) vm.Problem {
	t.Helper()
	if res.OK() {
		t.Fatalf("expected problem %s, got value %s", code, vm.Repr(res.Value))
	}
	p := res.Problems[0]
	if p.Code != code {
		t.Errorf("code = %s, want %s (%s)", p.Code, code, p.Message)
	}
	if !strings.Contains(p.Message, msg) {
		t.Errorf("message = %q, want it to contain %q", p.Message, msg)
	}
	return p
}

func traceNames(res vm.Result) string {
	names := make([]string, len(res.Trace.Frames))
	for i, f := range res.Trace.Frames {
		names[i] = f.Name
	}
	return strings.Join(names, ",")
}

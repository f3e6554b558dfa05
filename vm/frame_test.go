package vm

import "testing"

func TestFrameBlockLookup(t *testing.T) {
	root := NewRootFrame("<main>")
	root.Define("x", Number(1))

	block := NewBlockFrame(root)
	block.Define("y", Number(2))

	if v, owner, ok := block.Lookup("x", false); !ok || owner != root || !Equal(v, Number(1)) {
		t.Errorf("block should see outer x, got %v %v", v, ok)
	}
	if _, _, ok := root.Lookup("y", false); ok {
		t.Error("y should not be visible outside its block")
	}
	if block.Boundary() != root {
		t.Error("block boundary should be the root")
	}
}

func TestFrameShallowLookupStopsAtBoundary(t *testing.T) {
	root := NewRootFrame("<main>")
	root.Define("g", Number(1))
	fn := NewBoundaryFrame(root, root, "f", nil)
	inner := NewBlockFrame(fn)

	if _, _, ok := inner.Lookup("g", true); ok {
		t.Error("shallow lookup should stop at the function boundary")
	}
	if _, _, ok := inner.Lookup("g", false); !ok {
		t.Error("full lookup should reach the root")
	}
}

func TestFrameSetNearest(t *testing.T) {
	root := NewRootFrame("<main>")
	root.Define("g", Number(1))
	fn := NewBoundaryFrame(root, root, "f", nil)
	fn.Define("local", Number(1))
	block := NewBlockFrame(fn)

	block.SetNearest("local", Number(2))
	if v, _ := fn.Get("local"); !Equal(v, Number(2)) {
		t.Errorf("existing binding should be updated in place, got %s", v)
	}
	if _, ok := block.Get("local"); ok {
		t.Error("SetNearest should not shadow an existing binding")
	}

	// A global of the same name is outside the function and not touched.
	block.SetNearest("g", Number(5))
	if v, _ := root.Get("g"); !Equal(v, Number(1)) {
		t.Errorf("global changed to %s", v)
	}
	if v, ok := block.Get("g"); !ok || !Equal(v, Number(5)) {
		t.Error("SetNearest should create a local when the function has no binding")
	}
}

func TestFrameSetOuter(t *testing.T) {
	root := NewRootFrame("<main>")
	root.Define("count", Number(0))
	outerFn := NewBoundaryFrame(root, root, "outer", nil)
	innerFn := NewBoundaryFrame(outerFn, outerFn, "inner", nil)
	block := NewBlockFrame(innerFn)

	block.SetOuter("count", Number(1))
	if v, _ := root.Get("count"); !Equal(v, Number(1)) {
		t.Errorf("outer binding should be updated, got %s", v)
	}

	block.SetOuter("fresh", Number(2))
	if v, ok := outerFn.Get("fresh"); !ok || !Equal(v, Number(2)) {
		t.Error("a missing outer binding is created in the enclosing function's frame")
	}
	if _, ok := innerFn.Get("fresh"); ok {
		t.Error("SetOuter should not bind inside the current function")
	}

	root.SetOuter("top", Number(3))
	if _, ok := root.Get("top"); !ok {
		t.Error("SetOuter at the root binds in the root")
	}
}

func TestScrambleRoundTrip(t *testing.T) {
	cases := []struct{ name, typ string }{
		{"area", "Shape"},
		{"plus", "Number"},
		{"say", ""},
	}
	for _, c := range cases {
		key := Scramble(c.name, c.typ)
		typ, name := Unscramble(key)
		if typ != c.typ || name != c.name {
			t.Errorf("Unscramble(Scramble(%q, %q)) = %q, %q", c.name, c.typ, typ, name)
		}
	}
	if Scramble("say", "") != "say" {
		t.Error("type-free keys keep their bare name")
	}
	if Scramble("a", "B") == Scramble("B", "a") {
		t.Error("scrambled keys must depend on argument order")
	}
	if got := DisplayName(Scramble("get", "Dict")); got != "Dict.get" {
		t.Errorf("DisplayName = %q", got)
	}
}

func TestOperatorMethod(t *testing.T) {
	for token, want := range map[string]string{"+": "plus", "<=": "lte", "==": "eq", "&": "&"} {
		if got := OperatorMethod(token); got != want {
			t.Errorf("OperatorMethod(%q) = %q, want %q", token, got, want)
		}
	}
}

package vm

import (
	"math"
	"testing"
)

func TestTypeName(t *testing.T) {
	point := NewRecordType("Point", []string{"x", "y"})

	cases := []struct {
		v    Value
		want string
	}{
		{Number(1), "Number"},
		{String("a"), "String"},
		{True, "Boolean"},
		{Null, "Null"},
		{NewList(), "List"},
		{NewDict(), "Dict"},
		{&Closure{}, "Function"},
		{&Native{Name: "say"}, "Function"},
		{NewConversionType("Number"), "Type"},
		{NewInstance(point), "Point"},
	}
	for _, c := range cases {
		if got := TypeName(c.v); got != c.want {
			t.Errorf("TypeName(%s) = %q, want %q", Repr(c.v), got, c.want)
		}
	}
}

func TestValueString(t *testing.T) {
	d := NewDict()
	d.Set("b", Number(2))
	d.Set("a", String("x"))

	point := NewInstance(NewRecordType("Point", []string{"x", "y"}))
	point.Fields["x"] = Number(1)

	cases := []struct {
		v    Value
		want string
	}{
		{Number(14), "14"},
		{Number(0.5), "0.5"},
		{Number(-3), "-3"},
		{Number(math.Inf(1)), "inf"},
		{String("hi"), "hi"},
		{False, "false"},
		{Null, "null"},
		{NewList(Number(1), String("a"), NewList()), `[1, "a", []]`},
		{d, `{"b": 2, "a": "x"}`},
		{point, "Point(x: 1, y: null)"},
		{NewConversionType("Number"), "<type Number>"},
		{&Closure{}, "<func>"},
		{&Closure{Name: Scramble("area", "Shape")}, "<func Shape.area>"},
		{&Native{Name: "say"}, "<native say>"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestValueStringCycles(t *testing.T) {
	l := NewList(Number(1))
	l.Items = append(l.Items, l)
	if got := l.String(); got != "[1, ...]" {
		t.Errorf("cyclic list = %q", got)
	}

	d := NewDict()
	d.Set("self", d)
	if got := d.String(); got != `{"self": ...}` {
		t.Errorf("cyclic dict = %q", got)
	}

	// Shared but acyclic structure prints in full each time.
	inner := NewList(Number(2))
	outer := NewList(inner, inner)
	if got := outer.String(); got != "[[2], [2]]" {
		t.Errorf("shared list = %q", got)
	}
}

func TestCopyIsShallow(t *testing.T) {
	inner := NewList(Number(1))
	a := NewList(Number(1), inner)

	b := Copy(a).(*List)
	if b == a {
		t.Fatal("Copy should return a new list handle")
	}
	b.Items[0] = Number(9)
	if !Equal(a.Items[0], Number(1)) {
		t.Error("writing the copy changed the original")
	}
	if b.Items[1] != inner {
		t.Error("nested elements should be shared by a copy")
	}

	c := &Closure{Name: "f"}
	if Copy(c) == Value(c) {
		t.Error("Copy of a closure should be a new handle")
	}
	if Copy(Number(3)) != Value(Number(3)) {
		t.Error("scalars pass through Copy")
	}
}

func TestCloneIsDeep(t *testing.T) {
	inner := NewList(Number(1))
	a := NewList(inner, inner)

	b := Clone(a).(*List)
	if b.Items[0] == inner {
		t.Error("Clone should copy nested lists")
	}
	if b.Items[0] != b.Items[1] {
		t.Error("Clone should preserve shared substructure")
	}

	cyc := NewList()
	cyc.Items = append(cyc.Items, cyc)
	cc := Clone(cyc).(*List)
	if cc == cyc || cc.Items[0] != cc {
		t.Error("Clone should preserve cycles in the copy")
	}
}

func TestEqual(t *testing.T) {
	l := NewList()
	cases := []struct {
		a, b Value
		want bool
	}{
		{Number(1), Number(1), true},
		{Number(1), String("1"), false},
		{String("a"), String("a"), true},
		{True, True, true},
		{Null, Null, true},
		{Null, False, false},
		{NewConversionType("Number"), NewConversionType("Number"), true},
		{l, l, true},
		{NewList(), NewList(), false},
		{&Native{Name: "say"}, &Native{Name: "say"}, true},
		{&Native{Name: "len", Receiver: l}, &Native{Name: "len"}, false},
	}
	for _, c := range cases {
		if got := Equal(c.a, c.b); got != c.want {
			t.Errorf("Equal(%s, %s) = %v, want %v", Repr(c.a), Repr(c.b), got, c.want)
		}
	}
}

func TestAsIndex(t *testing.T) {
	cases := []struct {
		v    Value
		n    int
		want int
		ok   bool
	}{
		{Number(1), 3, 0, true},
		{Number(3), 3, 2, true},
		{Number(0), 3, 0, false},
		{Number(4), 3, 0, false},
		{Number(1.5), 3, 0, false},
		{String("1"), 3, 0, false},
	}
	for _, c := range cases {
		got, ok := AsIndex(c.v, c.n)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("AsIndex(%s, %d) = %d, %v", Repr(c.v), c.n, got, ok)
		}
	}
}

func TestDictOrder(t *testing.T) {
	d := NewDict()
	d.Set("z", Number(1))
	d.Set("a", Number(2))
	d.Set("z", Number(3))

	keys := d.Keys()
	if len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Errorf("keys = %v, want [z a]", keys)
	}
	if v, _ := d.Get("z"); !Equal(v, Number(3)) {
		t.Errorf("z = %s", v)
	}
	if !d.Delete("z") || d.Delete("z") {
		t.Error("Delete should report presence once")
	}
	if d.Len() != 1 {
		t.Errorf("Len = %d", d.Len())
	}
}

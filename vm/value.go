package vm

import (
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Value: the runtime value representation
// ---------------------------------------------------------------------------

// Kind is the runtime type tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBoolean
	KindType
	KindList
	KindDict
	KindClosure
	KindNative
	KindInstance
	kindEmpty // assignment/lookup protocol marker, never user visible
)

var kindNames = [...]string{
	KindNull:     "Null",
	KindNumber:   "Number",
	KindString:   "String",
	KindBoolean:  "Boolean",
	KindType:     "Type",
	KindList:     "List",
	KindDict:     "Dict",
	KindClosure:  "Function",
	KindNative:   "Function",
	KindInstance: "Instance",
	kindEmpty:    "Empty",
}

// String returns the built-in type name for the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Value is a plang runtime value. The set of implementations is closed:
// Number, String, Boolean, Null, *Type, *List, *Dict, *Closure, *Native
// and *Instance.
type Value interface {
	Kind() Kind
	String() string
	isValue()
}

// Number is a double-precision number.
type Number float64

// String is an immutable string.
type String string

// Boolean is true or false.
type Boolean bool

type null struct{}

type emptySlot struct{}

// Null is the single null value.
var Null Value = null{}

// Empty marks "no target" in the assignment protocol.
var Empty Value = emptySlot{}

const (
	True  = Boolean(true)
	False = Boolean(false)
)

// Type describes a type. A Type without fields is a conversion target;
// a Type with a field list (possibly empty) is a constructible record.
type Type struct {
	Name   string
	Fields []string
	Record bool
}

// NewConversionType creates a Type used as a conversion target.
func NewConversionType(name string) *Type {
	return &Type{Name: name}
}

// NewRecordType creates a constructible record Type.
func NewRecordType(name string, fields []string) *Type {
	return &Type{Name: name, Fields: append([]string{}, fields...), Record: true}
}

// List is an ordered sequence accessed through a shared handle.
type List struct {
	Items []Value
}

// NewList creates a list holding items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// Dict is an insertion-ordered string-keyed mapping accessed through a
// shared handle.
type Dict struct {
	keys    []string
	entries map[string]Value
}

// NewDict creates an empty dict.
func NewDict() *Dict {
	return &Dict{entries: make(map[string]Value)}
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.entries[key]
	return v, ok
}

// Set stores value under key, keeping the original insertion position.
func (d *Dict) Set(key string, value Value) {
	if _, ok := d.entries[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = value
}

// Delete removes key and reports whether it was present.
func (d *Dict) Delete(key string) bool {
	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	return append([]string{}, d.keys...)
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Closure is a user-defined function: code entry point, captured frame,
// parameter names with optional guards, and an optional bound receiver.
type Closure struct {
	Entry    int
	Frame    *Frame
	Params   []string
	Guards   []*Type // nil entries are unguarded
	Name     string
	Receiver Value
}

// NativeFunc is the host callback behind a Native value. It receives the
// full argument list, receiver first for bound natives.
type NativeFunc func(in *Interpreter, args []Value) (Value, error)

// Native is a host function exposed to plang code.
type Native struct {
	Name     string
	Arity    int // -1 accepts any count
	Fn       NativeFunc
	Receiver Value
}

// Instance is a value of a user-defined record type.
type Instance struct {
	Type   *Type
	Fields map[string]Value
}

// NewInstance creates an instance of t with every field set to null.
func NewInstance(t *Type) *Instance {
	inst := &Instance{Type: t, Fields: make(map[string]Value, len(t.Fields))}
	for _, f := range t.Fields {
		inst.Fields[f] = Null
	}
	return inst
}

func (Number) isValue()    {}
func (String) isValue()    {}
func (Boolean) isValue()   {}
func (null) isValue()      {}
func (emptySlot) isValue() {}
func (*Type) isValue()     {}
func (*List) isValue()     {}
func (*Dict) isValue()     {}
func (*Closure) isValue()  {}
func (*Native) isValue()   {}
func (*Instance) isValue() {}

func (Number) Kind() Kind    { return KindNumber }
func (String) Kind() Kind    { return KindString }
func (Boolean) Kind() Kind   { return KindBoolean }
func (null) Kind() Kind      { return KindNull }
func (emptySlot) Kind() Kind { return kindEmpty }
func (*Type) Kind() Kind     { return KindType }
func (*List) Kind() Kind     { return KindList }
func (*Dict) Kind() Kind     { return KindDict }
func (*Closure) Kind() Kind  { return KindClosure }
func (*Native) Kind() Kind   { return KindNative }
func (*Instance) Kind() Kind { return KindInstance }

// TypeName returns the runtime type name used for dispatch. Instances
// report their record type's name; everything else its built-in name.
func TypeName(v Value) string {
	if inst, ok := v.(*Instance); ok {
		return inst.Type.Name
	}
	return v.Kind().String()
}

// ---------------------------------------------------------------------------
// Printing
// ---------------------------------------------------------------------------

func (n Number) String() string {
	f := float64(n)
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (s String) String() string { return string(s) }

func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (null) String() string      { return "null" }
func (emptySlot) String() string { return "<empty>" }

func (t *Type) String() string { return "<type " + t.Name + ">" }

func (l *List) String() string        { return format(l, nil) }
func (d *Dict) String() string        { return format(d, nil) }
func (inst *Instance) String() string { return format(inst, nil) }

func (c *Closure) String() string {
	if c.Name == "" {
		return "<func>"
	}
	return "<func " + DisplayName(c.Name) + ">"
}

func (n *Native) String() string { return "<native " + DisplayName(n.Name) + ">" }

// Repr renders a value the way it appears nested inside a container:
// strings are quoted.
func Repr(v Value) string {
	return repr(v, nil)
}

func repr(v Value, seen map[Value]bool) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	return format(v, seen)
}

// format renders containers, printing a container already being printed
// further up as "...".
func format(v Value, seen map[Value]bool) string {
	switch v.(type) {
	case *List, *Dict, *Instance:
		if seen[v] {
			return "..."
		}
		if seen == nil {
			seen = make(map[Value]bool)
		}
		seen[v] = true
		defer delete(seen, v)
	default:
		return v.String()
	}

	switch x := v.(type) {
	case *List:
		parts := make([]string, len(x.Items))
		for i, item := range x.Items {
			parts[i] = repr(item, seen)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Dict:
		parts := make([]string, len(x.keys))
		for i, k := range x.keys {
			parts[i] = strconv.Quote(k) + ": " + repr(x.entries[k], seen)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		inst := x.(*Instance)
		parts := make([]string, len(inst.Type.Fields))
		for i, f := range inst.Type.Fields {
			parts[i] = f + ": " + repr(inst.Fields[f], seen)
		}
		return inst.Type.Name + "(" + strings.Join(parts, ", ") + ")"
	}
}

// ---------------------------------------------------------------------------
// Copy, clone, equality
// ---------------------------------------------------------------------------

// Copy gives v top-level value semantics: scalars pass through, while
// List, Dict, Closure and Instance get a new handle around the same
// nested elements.
func Copy(v Value) Value {
	switch x := v.(type) {
	case *List:
		return &List{Items: append([]Value(nil), x.Items...)}
	case *Dict:
		d := &Dict{keys: append([]string(nil), x.keys...), entries: make(map[string]Value, len(x.entries))}
		for k, e := range x.entries {
			d.entries[k] = e
		}
		return d
	case *Closure:
		c := *x
		return &c
	case *Instance:
		inst := &Instance{Type: x.Type, Fields: make(map[string]Value, len(x.Fields))}
		for k, f := range x.Fields {
			inst.Fields[k] = f
		}
		return inst
	default:
		return v
	}
}

// Clone deep-copies v. Nested containers get fresh handles throughout;
// shared substructure and cycles are preserved in the copy. Closures keep
// their captured frame.
func Clone(v Value) Value {
	return cloneValue(v, make(map[Value]Value))
}

func cloneValue(v Value, seen map[Value]Value) Value {
	switch x := v.(type) {
	case *List:
		if c, ok := seen[x]; ok {
			return c
		}
		l := &List{Items: make([]Value, len(x.Items))}
		seen[x] = l
		for i, item := range x.Items {
			l.Items[i] = cloneValue(item, seen)
		}
		return l
	case *Dict:
		if c, ok := seen[x]; ok {
			return c
		}
		d := NewDict()
		seen[x] = d
		for _, k := range x.keys {
			d.Set(k, cloneValue(x.entries[k], seen))
		}
		return d
	case *Instance:
		if c, ok := seen[x]; ok {
			return c
		}
		inst := &Instance{Type: x.Type, Fields: make(map[string]Value, len(x.Fields))}
		seen[x] = inst
		for k, f := range x.Fields {
			inst.Fields[k] = cloneValue(f, seen)
		}
		return inst
	case *Closure:
		c := *x
		return &c
	default:
		return v
	}
}

// Equal compares two values: structurally for scalars and types, by
// identity for lists, dicts, closures and instances.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x == y
	case null:
		return b.Kind() == KindNull
	case *Type:
		y, ok := b.(*Type)
		return ok && x.Name == y.Name
	case *Native:
		y, ok := b.(*Native)
		return ok && x.Name == y.Name && sameReceiver(x.Receiver, y.Receiver)
	case *List:
		y, ok := b.(*List)
		return ok && x == y
	case *Dict:
		y, ok := b.(*Dict)
		return ok && x == y
	case *Closure:
		y, ok := b.(*Closure)
		return ok && x == y
	case *Instance:
		y, ok := b.(*Instance)
		return ok && x == y
	default:
		return false
	}
}

func sameReceiver(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Equal(a, b)
}

// AsIndex converts a Number to a 0-based index into a sequence of length n
// using plang's 1-based indexing.
func AsIndex(v Value, n int) (int, bool) {
	num, ok := v.(Number)
	if !ok {
		return 0, false
	}
	f := float64(num)
	if f != math.Trunc(f) || f < 1 || f > float64(n) {
		return 0, false
	}
	return int(f) - 1, true
}

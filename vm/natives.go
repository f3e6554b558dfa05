package vm

import "sort"

// ---------------------------------------------------------------------------
// NativeTable: host-provided bindings
// ---------------------------------------------------------------------------

// MaxSequenceLen bounds the lists and strings natives build from a
// user-supplied count.
const MaxSequenceLen = 1 << 24

// NativeTable holds the values the engine resolves after the frame chain:
// native functions, scrambled native methods and built-in types.
type NativeTable struct {
	entries map[string]Value
}

// NewNativeTable creates an empty table.
func NewNativeTable() *NativeTable {
	return &NativeTable{entries: make(map[string]Value)}
}

// Register adds a global native function. Arity -1 accepts any count.
func (t *NativeTable) Register(name string, arity int, fn NativeFunc) {
	t.entries[name] = &Native{Name: name, Arity: arity, Fn: fn}
}

// RegisterMethod adds a native method on typeName. The receiver counts
// toward arity. fn only ever sees receivers of the built-in type; a value
// that merely shares its name, such as an instance of a user type called
// List, is rejected with a type mismatch.
func (t *NativeTable) RegisterMethod(typeName, name string, arity int, fn NativeFunc) {
	key := Scramble(name, typeName)
	t.entries[key] = &Native{Name: key, Arity: arity, Fn: func(in *Interpreter, args []Value) (Value, error) {
		if len(args) > 0 && !IsBuiltinValue(args[0], typeName) {
			return nil, Raise(FailTypeMismatch, "%s expects a built-in %s receiver, got %s",
				DisplayName(key), typeName, describeType(args[0]))
		}
		return fn(in, args)
	}}
}

// builtinRecords are the record types the natives construct themselves.
var builtinRecords = map[string]*Type{
	IteratorType.Name: IteratorType,
}

// IsBuiltinTypeName reports whether name is taken by a built-in type.
func IsBuiltinTypeName(name string) bool {
	if _, ok := builtinRecords[name]; ok {
		return true
	}
	for k := KindNull; k < kindEmpty; k++ {
		if k != KindInstance && k.String() == name {
			return true
		}
	}
	return false
}

// IsBuiltinValue reports whether v is a value of the built-in type
// typeName rather than a user instance of the same name.
func IsBuiltinValue(v Value, typeName string) bool {
	if inst, ok := v.(*Instance); ok {
		return builtinRecords[typeName] == inst.Type
	}
	return v.Kind().String() == typeName
}

func describeType(v Value) string {
	if inst, ok := v.(*Instance); ok {
		return "an instance of user type " + inst.Type.Name
	}
	return TypeName(v)
}

// Define binds an arbitrary value, typically a built-in Type.
func (t *NativeTable) Define(name string, v Value) {
	t.entries[name] = v
}

// ModuleBinding is the binding key under which an importable module lives.
func ModuleBinding(path string) string {
	return "module:" + path
}

// ExportsBinding is the hidden root binding collecting a program's exports.
const ExportsBinding = "$exports"

// DefineModule makes a dict of members importable under path.
func (t *NativeTable) DefineModule(path string, members *Dict) {
	t.entries[ModuleBinding(path)] = members
}

// Resolve looks up a binding key.
func (t *NativeTable) Resolve(key string) (Value, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.entries[key]
	return v, ok
}

// Names returns every key in the table, sorted.
func (t *NativeTable) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StandardNatives returns a table with the full built-in library.
func StandardNatives() *NativeTable {
	t := NewNativeTable()
	registerIOPrimitives(t)
	registerTypePrimitives(t)
	registerNumberPrimitives(t)
	registerStringPrimitives(t)
	registerListPrimitives(t)
	registerDictPrimitives(t)
	registerIteratorPrimitives(t)
	return t
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

func numberArg(fn string, args []Value, i int) (float64, error) {
	n, ok := args[i].(Number)
	if !ok {
		return 0, Raise(FailTypeMismatch, "%s expects a Number, got %s", DisplayName(fn), TypeName(args[i]))
	}
	return float64(n), nil
}

func stringArg(fn string, args []Value, i int) (string, error) {
	s, ok := args[i].(String)
	if !ok {
		return "", Raise(FailTypeMismatch, "%s expects a String, got %s", DisplayName(fn), TypeName(args[i]))
	}
	return string(s), nil
}

func listArg(fn string, args []Value, i int) (*List, error) {
	l, ok := args[i].(*List)
	if !ok {
		return nil, Raise(FailTypeMismatch, "%s expects a List, got %s", DisplayName(fn), TypeName(args[i]))
	}
	return l, nil
}

func dictArg(fn string, args []Value, i int) (*Dict, error) {
	d, ok := args[i].(*Dict)
	if !ok {
		return nil, Raise(FailTypeMismatch, "%s expects a Dict, got %s", DisplayName(fn), TypeName(args[i]))
	}
	return d, nil
}

func boolArg(fn string, args []Value, i int) (bool, error) {
	b, ok := args[i].(Boolean)
	if !ok {
		return false, Raise(FailNotBoolean, "%s expects a Boolean, got %s", DisplayName(fn), TypeName(args[i]))
	}
	return bool(b), nil
}

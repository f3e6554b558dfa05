package vm

import (
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Types, conversion and general-purpose globals
// ---------------------------------------------------------------------------

// builtinTypes are the conversion targets bound as globals.
var builtinTypes = []string{"Number", "String", "Boolean", "List", "Dict", "Type"}

func registerTypePrimitives(t *NativeTable) {
	for _, name := range builtinTypes {
		t.Define(name, NewConversionType(name))
	}

	t.Register("type", 1, func(in *Interpreter, args []Value) (Value, error) {
		return typeOf(args[0]), nil
	})

	t.Register("clone", 1, func(in *Interpreter, args []Value) (Value, error) {
		return Clone(args[0]), nil
	})

	t.Register("eq", 2, func(in *Interpreter, args []Value) (Value, error) {
		return Boolean(Equal(args[0], args[1])), nil
	})

	t.Register("neq", 2, func(in *Interpreter, args []Value) (Value, error) {
		return Boolean(!Equal(args[0], args[1])), nil
	})

	// range(n) counts 0..n-1; range(a, b) counts a..b-1.
	t.Register("range", -1, func(in *Interpreter, args []Value) (Value, error) {
		var lo, hi float64
		switch len(args) {
		case 1:
			n, err := numberArg("range", args, 0)
			if err != nil {
				return nil, err
			}
			hi = n
		case 2:
			a, err := numberArg("range", args, 0)
			if err != nil {
				return nil, err
			}
			b, err := numberArg("range", args, 1)
			if err != nil {
				return nil, err
			}
			lo, hi = a, b
		default:
			return nil, Raise(FailArity, "range expects 1 or 2 arguments, got %d", len(args))
		}
		span := math.Ceil(hi - lo)
		if !(span <= MaxSequenceLen) {
			return nil, Raise(FailInvalidOperand, "range of %s to %s is longer than %d", Number(lo), Number(hi), MaxSequenceLen)
		}
		n := int(math.Max(0, span))
		items := make([]Value, n)
		for i := range items {
			items[i] = Number(lo + float64(i))
		}
		return NewList(items...), nil
	})

	t.RegisterMethod("Type", "name", 1, func(in *Interpreter, args []Value) (Value, error) {
		return String(args[0].(*Type).Name), nil
	})

	t.RegisterMethod("Type", "fields", 1, func(in *Interpreter, args []Value) (Value, error) {
		typ := args[0].(*Type)
		items := make([]Value, len(typ.Fields))
		for i, f := range typ.Fields {
			items[i] = String(f)
		}
		return NewList(items...), nil
	})
}

// typeOf returns the conversion Type describing v's runtime type. Instances
// report their record type.
func typeOf(v Value) *Type {
	if inst, ok := v.(*Instance); ok {
		return inst.Type
	}
	return NewConversionType(TypeName(v))
}

// convert is the generic converter used when the argument's type has no
// to<Target> method.
func convert(v Value, target string) (Value, error) {
	if TypeName(v) == target {
		return Copy(v), nil
	}
	switch target {
	case "String":
		return String(v.String()), nil
	case "Number":
		switch x := v.(type) {
		case String:
			return parseNumber(string(x))
		case Boolean:
			if x {
				return Number(1), nil
			}
			return Number(0), nil
		}
	case "Boolean":
		switch x := v.(type) {
		case Number:
			return Boolean(x != 0), nil
		case String:
			return Boolean(x != ""), nil
		case null:
			return False, nil
		}
	case "List":
		switch x := v.(type) {
		case String:
			return NewList(splitChars(string(x))...), nil
		case *Dict:
			return NewList(dictKeys(x)...), nil
		}
	case "Dict":
		if inst, ok := v.(*Instance); ok {
			d := NewDict()
			for _, f := range inst.Type.Fields {
				d.Set(f, inst.Fields[f])
			}
			return d, nil
		}
	case "Type":
		return typeOf(v), nil
	}
	return nil, Raise(FailConversion, "cannot convert %s to %s", TypeName(v), target)
}

func parseNumber(s string) (Value, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, Raise(FailConversion, "cannot convert %q to Number", s)
	}
	return Number(f), nil
}

func splitChars(s string) []Value {
	items := make([]Value, 0, len(s))
	for _, r := range s {
		items = append(items, String(string(r)))
	}
	return items
}

func dictKeys(d *Dict) []Value {
	keys := d.Keys()
	items := make([]Value, len(keys))
	for i, k := range keys {
		items[i] = String(k)
	}
	return items
}

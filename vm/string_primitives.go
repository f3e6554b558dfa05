package vm

import (
	"strings"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// String primitives
// ---------------------------------------------------------------------------

func registerStringPrimitives(t *NativeTable) {
	// Concatenation accepts any right operand and uses its display form.
	t.RegisterMethod("String", "plus", 2, func(in *Interpreter, args []Value) (Value, error) {
		return String(string(args[0].(String)) + args[1].String()), nil
	})

	t.RegisterMethod("String", "times", 2, func(in *Interpreter, args []Value) (Value, error) {
		n, ok := args[1].(Number)
		if !ok {
			return nil, Raise(FailTypeMismatch, "cannot apply * to String and %s", TypeName(args[1]))
		}
		if !(n >= 0) {
			return nil, Raise(FailInvalidOperand, "cannot repeat a String %s times", n)
		}
		s := string(args[0].(String))
		if len(s) > 0 && float64(n) > float64(MaxSequenceLen/len(s)) {
			return nil, Raise(FailInvalidOperand, "repeating a String of length %d %s times is longer than %d", len(s), n, MaxSequenceLen)
		}
		return String(strings.Repeat(s, int(n))), nil
	})

	compare := map[string]struct {
		token string
		fn    func(c int) bool
	}{
		"lt":  {"<", func(c int) bool { return c < 0 }},
		"lte": {"<=", func(c int) bool { return c <= 0 }},
		"gt":  {">", func(c int) bool { return c > 0 }},
		"gte": {">=", func(c int) bool { return c >= 0 }},
	}
	for method, cmp := range compare {
		cmp := cmp
		t.RegisterMethod("String", method, 2, func(in *Interpreter, args []Value) (Value, error) {
			b, ok := args[1].(String)
			if !ok {
				return nil, Raise(FailTypeMismatch, "cannot apply %s to String and %s", cmp.token, TypeName(args[1]))
			}
			return Boolean(cmp.fn(strings.Compare(string(args[0].(String)), string(b)))), nil
		})
	}

	t.RegisterMethod("String", "len", 1, func(in *Interpreter, args []Value) (Value, error) {
		return Number(utf8.RuneCountInString(string(args[0].(String)))), nil
	})

	t.RegisterMethod("String", "upper", 1, func(in *Interpreter, args []Value) (Value, error) {
		return String(strings.ToUpper(string(args[0].(String)))), nil
	})

	t.RegisterMethod("String", "lower", 1, func(in *Interpreter, args []Value) (Value, error) {
		return String(strings.ToLower(string(args[0].(String)))), nil
	})

	t.RegisterMethod("String", "split", 2, func(in *Interpreter, args []Value) (Value, error) {
		sep, err := stringArg("String⊕split", args, 1)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(string(args[0].(String)), sep)
		items := make([]Value, len(parts))
		for i, p := range parts {
			items[i] = String(p)
		}
		return NewList(items...), nil
	})

	t.RegisterMethod("String", "contains", 2, func(in *Interpreter, args []Value) (Value, error) {
		sub, err := stringArg("String⊕contains", args, 1)
		if err != nil {
			return nil, err
		}
		return Boolean(strings.Contains(string(args[0].(String)), sub)), nil
	})

	t.RegisterMethod("String", "toNumber", 1, func(in *Interpreter, args []Value) (Value, error) {
		return parseNumber(string(args[0].(String)))
	})

	t.RegisterMethod("String", "iter", 1, func(in *Interpreter, args []Value) (Value, error) {
		return newIterator(NewList(splitChars(string(args[0].(String)))...)), nil
	})
}

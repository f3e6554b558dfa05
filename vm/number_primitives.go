package vm

import "math"

// ---------------------------------------------------------------------------
// Number primitives
// ---------------------------------------------------------------------------

type numberOp struct {
	method string
	token  string
	fn     func(a, b float64) (Value, error)
}

var numberOps = []numberOp{
	{"plus", "+", func(a, b float64) (Value, error) { return Number(a + b), nil }},
	{"minus", "-", func(a, b float64) (Value, error) { return Number(a - b), nil }},
	{"times", "*", func(a, b float64) (Value, error) { return Number(a * b), nil }},
	{"divide", "/", func(a, b float64) (Value, error) {
		if b == 0 {
			return nil, Raise(FailInvalidOperand, "division by zero")
		}
		return Number(a / b), nil
	}},
	{"mod", "%", func(a, b float64) (Value, error) {
		if b == 0 {
			return nil, Raise(FailInvalidOperand, "modulo by zero")
		}
		return Number(math.Mod(a, b)), nil
	}},
	{"lt", "<", func(a, b float64) (Value, error) { return Boolean(a < b), nil }},
	{"lte", "<=", func(a, b float64) (Value, error) { return Boolean(a <= b), nil }},
	{"gt", ">", func(a, b float64) (Value, error) { return Boolean(a > b), nil }},
	{"gte", ">=", func(a, b float64) (Value, error) { return Boolean(a >= b), nil }},
}

func registerNumberPrimitives(t *NativeTable) {
	for _, op := range numberOps {
		op := op
		t.RegisterMethod("Number", op.method, 2, func(in *Interpreter, args []Value) (Value, error) {
			b, ok := args[1].(Number)
			if !ok {
				return nil, Raise(FailTypeMismatch, "cannot apply %s to Number and %s", op.token, TypeName(args[1]))
			}
			return op.fn(float64(args[0].(Number)), float64(b))
		})
	}

	t.RegisterMethod("Number", "toString", 1, func(in *Interpreter, args []Value) (Value, error) {
		return String(args[0].String()), nil
	})

	t.RegisterMethod("Number", "floor", 1, func(in *Interpreter, args []Value) (Value, error) {
		return Number(math.Floor(float64(args[0].(Number)))), nil
	})

	t.RegisterMethod("Number", "abs", 1, func(in *Interpreter, args []Value) (Value, error) {
		return Number(math.Abs(float64(args[0].(Number)))), nil
	})
}

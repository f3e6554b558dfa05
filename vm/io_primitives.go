package vm

import (
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// Host I/O primitives
// ---------------------------------------------------------------------------

func registerIOPrimitives(t *NativeTable) {
	t.Register("say", -1, func(in *Interpreter, args []Value) (Value, error) {
		in.host.Print(joinDisplay(args) + "\n")
		return Null, nil
	})

	t.Register("write", -1, func(in *Interpreter, args []Value) (Value, error) {
		in.host.Print(joinDisplay(args))
		return Null, nil
	})

	t.Register("input", -1, func(in *Interpreter, args []Value) (Value, error) {
		if len(args) > 1 {
			return nil, Raise(FailArity, "input expects at most 1 argument, got %d", len(args))
		}
		prompt := ""
		if len(args) == 1 {
			prompt = args[0].String()
		}
		line, ok := in.host.Input(prompt)
		if !ok {
			return Null, nil
		}
		return String(line), nil
	})

	t.Register("flush", 0, func(in *Interpreter, args []Value) (Value, error) {
		in.host.Flush()
		return Null, nil
	})

	t.Register("read_file", 1, func(in *Interpreter, args []Value) (Value, error) {
		path, err := stringArg("read_file", args, 0)
		if err != nil {
			return nil, err
		}
		kind := PathRelative
		if filepath.IsAbs(path) {
			kind = PathAbsolute
		}
		text, ok := in.host.ReadFile(path, kind)
		if !ok {
			return nil, Raise(FailHostCall, "cannot read file %q", path)
		}
		return String(text), nil
	})

	// foreign(code) or foreign(code, bindings) hands code to the host
	// with the dict's entries as named bindings.
	t.Register("foreign", -1, func(in *Interpreter, args []Value) (Value, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, Raise(FailArity, "foreign expects 1 or 2 arguments, got %d", len(args))
		}
		code, err := stringArg("foreign", args, 0)
		if err != nil {
			return nil, err
		}
		bindings := make(map[string]Value)
		if len(args) == 2 {
			d, err := dictArg("foreign", args, 1)
			if err != nil {
				return nil, err
			}
			for _, k := range d.Keys() {
				v, _ := d.Get(k)
				bindings[k] = v
			}
		}
		v, err := in.host.ExecuteForeignCode(code, bindings)
		if err != nil {
			return nil, Raise(FailHostCall, "foreign code failed: %v", err)
		}
		if v == nil {
			return Null, nil
		}
		return v, nil
	})

	t.Register("assert", -1, func(in *Interpreter, args []Value) (Value, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, Raise(FailArity, "assert expects 1 or 2 arguments, got %d", len(args))
		}
		ok, err := boolArg("assert", args, 0)
		if err != nil {
			return nil, err
		}
		if !ok {
			if len(args) == 2 {
				return nil, Raise(FailHostCall, "assertion failed: %s", args[1])
			}
			return nil, Raise(FailHostCall, "assertion failed")
		}
		return Null, nil
	})
}

func joinDisplay(args []Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

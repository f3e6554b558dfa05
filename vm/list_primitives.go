package vm

import "strings"

// ---------------------------------------------------------------------------
// List primitives
// ---------------------------------------------------------------------------

func registerListPrimitives(t *NativeTable) {
	t.RegisterMethod("List", "plus", 2, func(in *Interpreter, args []Value) (Value, error) {
		b, ok := args[1].(*List)
		if !ok {
			return nil, Raise(FailTypeMismatch, "cannot apply + to List and %s", TypeName(args[1]))
		}
		a := args[0].(*List)
		items := make([]Value, 0, len(a.Items)+len(b.Items))
		items = append(items, a.Items...)
		items = append(items, b.Items...)
		return NewList(items...), nil
	})

	t.RegisterMethod("List", "push", 2, func(in *Interpreter, args []Value) (Value, error) {
		l := args[0].(*List)
		l.Items = append(l.Items, args[1])
		return l, nil
	})

	t.RegisterMethod("List", "pop", 1, func(in *Interpreter, args []Value) (Value, error) {
		l := args[0].(*List)
		if len(l.Items) == 0 {
			return nil, Raise(FailOutOfRange, "pop from an empty List")
		}
		last := l.Items[len(l.Items)-1]
		l.Items = l.Items[:len(l.Items)-1]
		return last, nil
	})

	t.RegisterMethod("List", "len", 1, func(in *Interpreter, args []Value) (Value, error) {
		return Number(len(args[0].(*List).Items)), nil
	})

	t.RegisterMethod("List", "get", 2, func(in *Interpreter, args []Value) (Value, error) {
		l := args[0].(*List)
		i, err := listIndex(l, args[1], len(l.Items))
		if err != nil {
			return nil, err
		}
		return l.Items[i], nil
	})

	t.RegisterMethod("List", "set", 3, func(in *Interpreter, args []Value) (Value, error) {
		l := args[0].(*List)
		i, err := listIndex(l, args[1], len(l.Items))
		if err != nil {
			return nil, err
		}
		l.Items[i] = args[2]
		return args[2], nil
	})

	// insert accepts positions 1..len+1; len+1 appends.
	t.RegisterMethod("List", "insert", 3, func(in *Interpreter, args []Value) (Value, error) {
		l := args[0].(*List)
		i, err := listIndex(l, args[1], len(l.Items)+1)
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, nil)
		copy(l.Items[i+1:], l.Items[i:])
		l.Items[i] = args[2]
		return l, nil
	})

	t.RegisterMethod("List", "remove", 2, func(in *Interpreter, args []Value) (Value, error) {
		l := args[0].(*List)
		i, err := listIndex(l, args[1], len(l.Items))
		if err != nil {
			return nil, err
		}
		removed := l.Items[i]
		l.Items = append(l.Items[:i], l.Items[i+1:]...)
		return removed, nil
	})

	t.RegisterMethod("List", "contains", 2, func(in *Interpreter, args []Value) (Value, error) {
		for _, item := range args[0].(*List).Items {
			if Equal(item, args[1]) {
				return True, nil
			}
		}
		return False, nil
	})

	t.RegisterMethod("List", "join", 2, func(in *Interpreter, args []Value) (Value, error) {
		sep, err := stringArg("List⊕join", args, 1)
		if err != nil {
			return nil, err
		}
		items := args[0].(*List).Items
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = item.String()
		}
		return String(strings.Join(parts, sep)), nil
	})

	t.RegisterMethod("List", "map", 2, func(in *Interpreter, args []Value) (Value, error) {
		src := args[0].(*List).Items
		out := make([]Value, 0, len(src))
		for _, item := range src {
			v, err := in.Invoke(args[1], item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return NewList(out...), nil
	})

	t.RegisterMethod("List", "filter", 2, func(in *Interpreter, args []Value) (Value, error) {
		src := args[0].(*List).Items
		out := make([]Value, 0, len(src))
		for _, item := range src {
			v, err := in.Invoke(args[1], item)
			if err != nil {
				return nil, err
			}
			keep, ok := v.(Boolean)
			if !ok {
				return nil, Raise(FailNotBoolean, "filter callback returned %s, not Boolean", TypeName(v))
			}
			if keep {
				out = append(out, item)
			}
		}
		return NewList(out...), nil
	})

	t.RegisterMethod("List", "each", 2, func(in *Interpreter, args []Value) (Value, error) {
		for _, item := range args[0].(*List).Items {
			if _, err := in.Invoke(args[1], item); err != nil {
				return nil, err
			}
		}
		return Null, nil
	})

	t.RegisterMethod("List", "iter", 1, func(in *Interpreter, args []Value) (Value, error) {
		return newIterator(args[0].(*List)), nil
	})
}

func listIndex(l *List, key Value, n int) (int, error) {
	if _, ok := key.(Number); !ok {
		return 0, Raise(FailTypeMismatch, "List index must be a Number, got %s", TypeName(key))
	}
	i, ok := AsIndex(key, n)
	if !ok {
		return 0, Raise(FailOutOfRange, "index %s out of range for List of length %d", key, len(l.Items))
	}
	return i, nil
}

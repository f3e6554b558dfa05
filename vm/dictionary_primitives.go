package vm

// ---------------------------------------------------------------------------
// Dict primitives
// ---------------------------------------------------------------------------

func registerDictPrimitives(t *NativeTable) {
	t.RegisterMethod("Dict", "get", 2, func(in *Interpreter, args []Value) (Value, error) {
		key, err := stringArg("Dict⊕get", args, 1)
		if err != nil {
			return nil, err
		}
		v, ok := args[0].(*Dict).Get(key)
		if !ok {
			return nil, Raise(FailNotFound, "key %q not found in Dict", key)
		}
		return v, nil
	})

	t.RegisterMethod("Dict", "set", 3, func(in *Interpreter, args []Value) (Value, error) {
		key, err := stringArg("Dict⊕set", args, 1)
		if err != nil {
			return nil, err
		}
		args[0].(*Dict).Set(key, args[2])
		return args[2], nil
	})

	t.RegisterMethod("Dict", "has", 2, func(in *Interpreter, args []Value) (Value, error) {
		key, err := stringArg("Dict⊕has", args, 1)
		if err != nil {
			return nil, err
		}
		_, ok := args[0].(*Dict).Get(key)
		return Boolean(ok), nil
	})

	t.RegisterMethod("Dict", "keys", 1, func(in *Interpreter, args []Value) (Value, error) {
		return NewList(dictKeys(args[0].(*Dict))...), nil
	})

	t.RegisterMethod("Dict", "values", 1, func(in *Interpreter, args []Value) (Value, error) {
		d := args[0].(*Dict)
		keys := d.Keys()
		items := make([]Value, len(keys))
		for i, k := range keys {
			items[i], _ = d.Get(k)
		}
		return NewList(items...), nil
	})

	t.RegisterMethod("Dict", "len", 1, func(in *Interpreter, args []Value) (Value, error) {
		return Number(args[0].(*Dict).Len()), nil
	})

	t.RegisterMethod("Dict", "remove", 2, func(in *Interpreter, args []Value) (Value, error) {
		key, err := stringArg("Dict⊕remove", args, 1)
		if err != nil {
			return nil, err
		}
		d := args[0].(*Dict)
		v, ok := d.Get(key)
		if !ok {
			return nil, Raise(FailNotFound, "key %q not found in Dict", key)
		}
		d.Delete(key)
		return v, nil
	})

	// Iteration walks a snapshot of the keys taken when iter is called.
	t.RegisterMethod("Dict", "iter", 1, func(in *Interpreter, args []Value) (Value, error) {
		return newIterator(NewList(dictKeys(args[0].(*Dict))...)), nil
	})
}

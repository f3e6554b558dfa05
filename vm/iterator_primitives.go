package vm

// ---------------------------------------------------------------------------
// Iterator protocol
// ---------------------------------------------------------------------------

// IteratorType is the record type returned by the built-in iter methods.
// next() yields a two-element list [value, ok]; ok is false once the
// source is exhausted.
var IteratorType = NewRecordType("Iterator", []string{"items", "position"})

func newIterator(items *List) *Instance {
	it := NewInstance(IteratorType)
	it.Fields["items"] = items
	it.Fields["position"] = Number(0)
	return it
}

func registerIteratorPrimitives(t *NativeTable) {
	t.Define(IteratorType.Name, IteratorType)

	t.RegisterMethod(IteratorType.Name, "next", 1, func(in *Interpreter, args []Value) (Value, error) {
		it := args[0].(*Instance)
		items, ok := it.Fields["items"].(*List)
		if !ok {
			return nil, Raise(FailTypeMismatch, "iterator source is %s, not List", TypeName(it.Fields["items"]))
		}
		pos, ok := it.Fields["position"].(Number)
		if !ok {
			return nil, Raise(FailTypeMismatch, "iterator position is %s, not Number", TypeName(it.Fields["position"]))
		}
		if int(pos) >= len(items.Items) {
			return NewList(Null, False), nil
		}
		it.Fields["position"] = pos + 1
		return NewList(items.Items[int(pos)], True), nil
	})
}

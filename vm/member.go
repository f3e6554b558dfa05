package vm

// ---------------------------------------------------------------------------
// Member access and assignment
// ---------------------------------------------------------------------------

// member looks key up on obj: dict keys, 1-based list indices and
// instance fields first, then a method scrambled with obj's type and
// bound to obj.
func (in *Interpreter) member(obj, key Value) (Value, error) {
	switch o := obj.(type) {
	case *Dict:
		if k, ok := key.(String); ok {
			if v, ok := o.Get(string(k)); ok {
				return v, nil
			}
		}
	case *List:
		if _, ok := key.(Number); ok {
			i, ok := AsIndex(key, len(o.Items))
			if !ok {
				return nil, Raise(FailOutOfRange, "index %s out of range for List of length %d", key, len(o.Items))
			}
			return o.Items[i], nil
		}
	case *Instance:
		if k, ok := key.(String); ok {
			if v, ok := o.Fields[string(k)]; ok {
				return v, nil
			}
		}
	}

	if k, ok := key.(String); ok {
		if m, ok := in.resolve(Scramble(string(k), TypeName(obj))); ok {
			return bind(m, obj), nil
		}
	}
	return nil, Raise(FailNotFound, "key %s not found in %s", Repr(key), TypeName(obj))
}

// bind attaches recv to a callable method value. Other values are
// returned unchanged.
func bind(m, recv Value) Value {
	switch f := m.(type) {
	case *Closure:
		c := *f
		c.Receiver = recv
		return &c
	case *Native:
		n := *f
		n.Receiver = recv
		return &n
	}
	return m
}

// assign pops name, target and value. A target container is mutated in
// place; the empty marker binds name by the opcode's scope kind. The
// assigned value is pushed back.
func (in *Interpreter) assign(op Opcode) error {
	name := in.pop()
	target := in.pop()
	value := Copy(in.pop())

	if target != Empty {
		if err := setMember(target, name, value); err != nil {
			return err
		}
		in.push(value)
		return nil
	}

	key, ok := name.(String)
	if !ok {
		panic("assignment name is not a String")
	}
	if c, ok := value.(*Closure); ok {
		c.Name = string(key)
	}
	switch op {
	case OpAssignLocal:
		in.frame.Define(string(key), value)
	case OpAssignNearest:
		in.frame.SetNearest(string(key), value)
	case OpAssignOuter:
		in.frame.SetOuter(string(key), value)
	}
	in.push(value)
	return nil
}

func setMember(target, key, value Value) error {
	switch t := target.(type) {
	case *Dict:
		k, ok := key.(String)
		if !ok {
			return Raise(FailTypeMismatch, "Dict keys must be String, got %s", TypeName(key))
		}
		t.Set(string(k), value)
	case *List:
		i, ok := AsIndex(key, len(t.Items))
		if !ok {
			return Raise(FailOutOfRange, "index %s out of range for List of length %d", Repr(key), len(t.Items))
		}
		t.Items[i] = value
	case *Instance:
		k, ok := key.(String)
		if !ok {
			return Raise(FailInvalidTarget, "%s has no field %s", t.Type.Name, Repr(key))
		}
		if _, ok := t.Fields[string(k)]; !ok {
			return Raise(FailInvalidTarget, "%s has no field %q", t.Type.Name, string(k))
		}
		t.Fields[string(k)] = value
	default:
		return Raise(FailInvalidTarget, "cannot assign into %s", TypeName(target))
	}
	return nil
}

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package firrtl

// A VisitFunc is called by Visit for every node it reaches. If it returns
// false, the children of n are not visited.
//
type VisitFunc func(n Node) (descend bool, err error)

// A RewriteFunc returns the replacement for n. Returning a nil Node drops n:
// a dropped element of a list field is removed from the list, a dropped
// optional field becomes absent and a dropped required field is an error.
//
type RewriteFunc func(n Node) (Node, error)

// Children returns the present children of n in field order. Absent optional
// fields and nil required fields are skipped.
//
// Node kinds unknown to this package (see Extension) have no known children
// and yield an UnhandledConstruct error.
//
func Children(n Node) ([]Node, error) {
	var cs []Node
	add := func(ns ...Node) {
		for _, c := range ns {
			if c != nil {
				cs = append(cs, c)
			}
		}
	}
	switch n := n.(type) {
	case UInt, SInt, Clock, Ref:
	case Vector:
		add(n.Elem)
	case Field:
		add(n.Type)
	case Bundle:
		for _, f := range n.Fields {
			add(f)
		}
	case Literal:
		add(n.Type)
	case Mux:
		add(n.Sel, n.A, n.B)
	case ValidIf:
		add(n.Valid, n.A)
	case BinOp:
		add(n.E1, n.E2)
	case Cmp:
		add(n.E1, n.E2)
	case UnOp:
		add(n.E)
	case Pad:
		add(n.E)
	case ShiftLeft:
		add(n.E, n.By)
	case ShiftRight:
		add(n.E, n.By)
	case Extract:
		add(n.E)
	case Head:
		add(n.E)
	case Tail:
		add(n.E)
	case Connect:
		add(n.Lhs, n.Rhs)
	case Reset:
		add(n.Enable, n.Value)
	case Register:
		add(n.Type, n.Clock)
		if n.Reset != nil {
			add(*n.Reset)
		}
	case WireDeclaration:
		add(n.Type)
	case PrintF:
		add(n.Clock, n.Condition)
		for _, a := range n.Args {
			add(a)
		}
	case Stop:
		add(n.Clock, n.Condition)
	case Port:
		add(n.Type)
	case Module:
		for _, p := range n.Ports {
			add(p)
		}
		for _, s := range n.Statements {
			add(s)
		}
	case Circuit:
		for _, m := range n.Modules {
			add(m)
		}
	default:
		return nil, &UnhandledConstruct{Op: "visit", Node: n}
	}
	return cs, nil
}

// Visit calls fn for n, then, unless fn says otherwise, recursively for every
// present child of n in field order.
//
func Visit(n Node, fn VisitFunc) error {
	if n == nil {
		return nil
	}
	descend, err := fn(n)
	if err != nil || !descend {
		return err
	}
	cs, err := Children(n)
	if err != nil {
		return err
	}
	for _, c := range cs {
		if err = Visit(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Rewrite rebuilds n bottom-up: every child of n is rewritten first, then fn
// is called with a copy of n holding the rewritten children. The result of fn
// replaces n. Nodes that fn returns unchanged are passed through, so that an
// fn that only handles a few node kinds rewrites just those.
//
// Nodes of unknown kind (see Extension) are passed to fn as leaves.
//
func Rewrite(n Node, fn RewriteFunc) (Node, error) {
	if n == nil {
		return nil, nil
	}
	m, err := mapChildren(n, func(c Node) (Node, error) { return Rewrite(c, fn) })
	if err != nil {
		return nil, err
	}
	return fn(m)
}

// RewriteAs is Rewrite for callers that need a result of the same family as
// n, like an Expr or a Module.
//
func RewriteAs[T Node](n T, fn RewriteFunc) (T, error) {
	var zero T
	r, err := Rewrite(n, fn)
	if err != nil {
		return zero, err
	}
	if r == nil {
		return zero, missing(n, "")
	}
	t, ok := r.(T)
	if !ok {
		return zero, mismatch(n, "")
	}
	return t, nil
}

type mapFunc func(Node) (Node, error)

func mapField[T Node](owner Node, field string, v T, optional bool, fn mapFunc) (T, error) {
	var zero T
	if Node(v) == nil {
		return zero, nil
	}
	r, err := fn(v)
	if err != nil {
		return zero, err
	}
	if r == nil {
		if optional {
			return zero, nil
		}
		return zero, missing(owner, field)
	}
	t, ok := r.(T)
	if !ok {
		return zero, mismatch(owner, field)
	}
	return t, nil
}

func mapList[T Node](owner Node, field string, vs []T, fn mapFunc) ([]T, error) {
	if len(vs) == 0 {
		return vs, nil
	}
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		if Node(v) == nil {
			return nil, missing(owner, field)
		}
		r, err := fn(v)
		if err != nil {
			return nil, err
		}
		if r == nil {
			continue
		}
		t, ok := r.(T)
		if !ok {
			return nil, mismatch(owner, field)
		}
		out = append(out, t)
	}
	return out, nil
}

// mapChildren returns a copy of n where every child c has been replaced by
// fn(c).
//
func mapChildren(n Node, fn mapFunc) (Node, error) {
	var err error
	switch n := n.(type) {
	case UInt, SInt, Clock, Ref:
		return n, nil
	case Vector:
		if n.Elem, err = mapField(n, "Elem", n.Elem, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Field:
		if n.Type, err = mapField(n, "Type", n.Type, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Bundle:
		if n.Fields, err = mapList(n, "Fields", n.Fields, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Literal:
		if n.Type, err = mapField(n, "Type", n.Type, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Mux:
		if n.Sel, err = mapField(n, "Sel", n.Sel, false, fn); err != nil {
			return nil, err
		}
		if n.A, err = mapField(n, "A", n.A, false, fn); err != nil {
			return nil, err
		}
		if n.B, err = mapField(n, "B", n.B, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case ValidIf:
		if n.Valid, err = mapField(n, "Valid", n.Valid, false, fn); err != nil {
			return nil, err
		}
		if n.A, err = mapField(n, "A", n.A, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case BinOp:
		if n.E1, err = mapField(n, "E1", n.E1, false, fn); err != nil {
			return nil, err
		}
		if n.E2, err = mapField(n, "E2", n.E2, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Cmp:
		if n.E1, err = mapField(n, "E1", n.E1, false, fn); err != nil {
			return nil, err
		}
		if n.E2, err = mapField(n, "E2", n.E2, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case UnOp:
		if n.E, err = mapField(n, "E", n.E, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Pad:
		if n.E, err = mapField(n, "E", n.E, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case ShiftLeft:
		if n.E, err = mapField(n, "E", n.E, false, fn); err != nil {
			return nil, err
		}
		if n.By, err = mapField(n, "By", n.By, true, fn); err != nil {
			return nil, err
		}
		return n, nil
	case ShiftRight:
		if n.E, err = mapField(n, "E", n.E, false, fn); err != nil {
			return nil, err
		}
		if n.By, err = mapField(n, "By", n.By, true, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Extract:
		if n.E, err = mapField(n, "E", n.E, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Head:
		if n.E, err = mapField(n, "E", n.E, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Tail:
		if n.E, err = mapField(n, "E", n.E, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Connect:
		if n.Lhs, err = mapField(n, "Lhs", n.Lhs, false, fn); err != nil {
			return nil, err
		}
		if n.Rhs, err = mapField(n, "Rhs", n.Rhs, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Reset:
		if n.Enable, err = mapField(n, "Enable", n.Enable, false, fn); err != nil {
			return nil, err
		}
		if n.Value, err = mapField(n, "Value", n.Value, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Register:
		if n.Type, err = mapField(n, "Type", n.Type, false, fn); err != nil {
			return nil, err
		}
		if n.Clock, err = mapField(n, "Clock", n.Clock, false, fn); err != nil {
			return nil, err
		}
		if n.Reset != nil {
			r, err := fn(*n.Reset)
			if err != nil {
				return nil, err
			}
			switch r := r.(type) {
			case nil:
				n.Reset = nil
			case Reset:
				n.Reset = &r
			default:
				return nil, mismatch(n, "Reset")
			}
		}
		return n, nil
	case WireDeclaration:
		if n.Type, err = mapField(n, "Type", n.Type, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case PrintF:
		if n.Clock, err = mapField(n, "Clock", n.Clock, false, fn); err != nil {
			return nil, err
		}
		if n.Condition, err = mapField(n, "Condition", n.Condition, false, fn); err != nil {
			return nil, err
		}
		if n.Args, err = mapList(n, "Args", n.Args, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Stop:
		if n.Clock, err = mapField(n, "Clock", n.Clock, false, fn); err != nil {
			return nil, err
		}
		if n.Condition, err = mapField(n, "Condition", n.Condition, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Port:
		if n.Type, err = mapField(n, "Type", n.Type, false, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Module:
		if n.Ports, err = mapList(n, "Ports", n.Ports, fn); err != nil {
			return nil, err
		}
		if n.Statements, err = mapList(n, "Statements", n.Statements, fn); err != nil {
			return nil, err
		}
		return n, nil
	case Circuit:
		if n.Modules, err = mapList(n, "Modules", n.Modules, fn); err != nil {
			return nil, err
		}
		return n, nil
	}
	// unknown kind, keep as is.
	return n, nil
}

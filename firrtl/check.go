// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package firrtl

import "math/bits"

// Check validates the tree rooted at n. It returns a *ConstructionError for a
// missing required field or a field holding a value of the wrong kind, an
// *IRValidityError for an out of range numeric argument and an
// *UnhandledConstruct for a node kind unknown to this package.
//
func Check(n Node) error {
	return Visit(n, func(n Node) (bool, error) {
		return true, checkNode(n)
	})
}

func checkNode(n Node) error {
	switch n := n.(type) {
	case UInt:
		if n.Width < 0 {
			return invalid(n, "negative width %d", n.Width)
		}
	case SInt:
		if n.Width < 0 {
			return invalid(n, "negative width %d", n.Width)
		}
	case Clock:
	case Vector:
		if n.Elem == nil {
			return missing(n, "Elem")
		}
		if n.Count < 0 {
			return invalid(n, "negative element count %d", n.Count)
		}
	case Field:
		if n.Name == "" {
			return missing(n, "Name")
		}
		if n.Type == nil {
			return missing(n, "Type")
		}
	case Bundle:
		seen := make(map[string]bool, len(n.Fields))
		for _, f := range n.Fields {
			if seen[f.Name] {
				return &ConstructionError{Node: Kind(n), Field: f.Name, Reason: DuplicateName}
			}
			seen[f.Name] = true
		}
	case Ref:
		if n.Name == "" {
			return missing(n, "Name")
		}
	case Literal:
		return checkLiteral(n)
	case Mux:
		return required(n, "Sel", n.Sel, "A", n.A, "B", n.B)
	case ValidIf:
		return required(n, "Valid", n.Valid, "A", n.A)
	case BinOp:
		if n.Op < 0 || n.Op >= binaryOpCount {
			return mismatch(n, "Op")
		}
		return required(n, "E1", n.E1, "E2", n.E2)
	case Cmp:
		if n.Op < 0 || n.Op >= cmpOpCount {
			return mismatch(n, "Op")
		}
		return required(n, "E1", n.E1, "E2", n.E2)
	case UnOp:
		if n.Op < 0 || n.Op >= unaryOpCount {
			return mismatch(n, "Op")
		}
		return required(n, "E", n.E)
	case Pad:
		return checkN(n, n.E, n.N)
	case ShiftLeft:
		return checkShift(n, n.E, n.N, n.By)
	case ShiftRight:
		return checkShift(n, n.E, n.N, n.By)
	case Extract:
		if n.E == nil {
			return missing(n, "E")
		}
		if n.Lo < 0 {
			return invalid(n, "negative low bit index %d", n.Lo)
		}
		if n.Hi < n.Lo {
			return invalid(n, "high bit index %d < low bit index %d", n.Hi, n.Lo)
		}
	case Head:
		return checkN(n, n.E, n.N)
	case Tail:
		return checkN(n, n.E, n.N)
	case Connect:
		if n.Lhs.Name == "" {
			return missing(n, "Lhs")
		}
		return required(n, "Rhs", n.Rhs)
	case Reset:
		return required(n, "Enable", n.Enable, "Value", n.Value)
	case Register:
		if n.Name == "" {
			return missing(n, "Name")
		}
		if n.Type == nil {
			return missing(n, "Type")
		}
		return required(n, "Clock", n.Clock)
	case WireDeclaration:
		if n.Name == "" {
			return missing(n, "Name")
		}
		if n.Type == nil {
			return missing(n, "Type")
		}
	case PrintF:
		for _, a := range n.Args {
			if a == nil {
				return missing(n, "Args")
			}
		}
		return required(n, "Clock", n.Clock, "Condition", n.Condition)
	case Stop:
		return required(n, "Clock", n.Clock, "Condition", n.Condition)
	case Port:
		if n.Name == "" {
			return missing(n, "Name")
		}
		if n.Type == nil {
			return missing(n, "Type")
		}
		if n.Dir != Input && n.Dir != Output {
			return mismatch(n, "Dir")
		}
	case Module:
		if n.Name == "" {
			return missing(n, "Name")
		}
		for _, s := range n.Statements {
			if s == nil {
				return missing(n, "Statements")
			}
		}
	case Circuit:
		if n.Name == "" {
			return missing(n, "Name")
		}
	default:
		return &UnhandledConstruct{Op: "check", Node: n}
	}
	return nil
}

// required takes field name / value pairs.
func required(n Node, fields ...interface{}) error {
	for i := 0; i < len(fields); i += 2 {
		if e, _ := fields[i+1].(Expr); e == nil {
			return missing(n, fields[i].(string))
		}
	}
	return nil
}

func checkN(n Node, e Expr, cnt int) error {
	if e == nil {
		return missing(n, "E")
	}
	if cnt < 0 {
		return invalid(n, "negative argument %d", cnt)
	}
	return nil
}

func checkShift(n Node, e Expr, cnt int, by Expr) error {
	if by != nil && cnt != 0 {
		return mismatch(n, "N")
	}
	return checkN(n, e, cnt)
}

func checkLiteral(n Literal) error {
	var w int
	switch t := n.Type.(type) {
	case nil:
		return missing(n, "Type")
	case UInt:
		if n.Value < 0 {
			return invalid(n, "negative value %d for type UInt", n.Value)
		}
		w = t.Width
		if w > 0 && w < 64 && bits.Len64(uint64(n.Value)) > w {
			return invalid(n, "value %d does not fit in %d bits", n.Value, w)
		}
	case SInt:
		w = t.Width
		if w > 0 && w < 64 {
			lim := int64(1) << uint(w-1)
			if n.Value < -lim || n.Value >= lim {
				return invalid(n, "value %d does not fit in %d bits", n.Value, w)
			}
		}
	default:
		return mismatch(n, "Type")
	}
	return nil
}

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package firrtl

import (
	"math/bits"

	"github.com/pkg/errors"
)

// Value is the result of evaluating an expression: an unsigned integer of
// Width bits.
//
type Value struct {
	Bits  uint64
	Width int
}

// Bool returns a 1 bit Value.
//
func Bool(b bool) Value {
	if b {
		return Value{1, 1}
	}
	return Value{0, 1}
}

// IsSet returns true if any bit of v is set.
//
func (v Value) IsSet() bool { return v.Bits != 0 }

// Env maps reference names to their current value.
//
type Env map[string]Value

const maxEvalWidth = 64

func mask(w int) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(w) - 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Eval evaluates a combinational expression over unsigned values of at most
// 64 bits. Result widths follow the IR width rules. Invalid values (ValidIf
// with an unset condition) evaluate to zero.
//
func Eval(e Expr, env Env) (Value, error) {
	if err := Check(e); err != nil {
		return Value{}, err
	}
	v, err := eval(e, env)
	if err != nil {
		return Value{}, err
	}
	v.Bits &= mask(v.Width)
	return v, nil
}

func eval(e Expr, env Env) (Value, error) {
	switch e := e.(type) {
	case Ref:
		v, ok := env[e.Name]
		if !ok {
			return Value{}, errors.Errorf("eval: unknown reference %q", e.Name)
		}
		return v, nil
	case Literal:
		t, ok := e.Type.(UInt)
		if !ok {
			return Value{}, errors.Errorf("eval: unsupported literal type %s", Kind(e.Type))
		}
		w := t.Width
		if w == 0 {
			w = maxInt(bits.Len64(uint64(e.Value)), 1)
		}
		return widen(uint64(e.Value), w)
	case Mux:
		sel, err := eval(e.Sel, env)
		if err != nil {
			return Value{}, err
		}
		a, err := eval(e.A, env)
		if err != nil {
			return Value{}, err
		}
		b, err := eval(e.B, env)
		if err != nil {
			return Value{}, err
		}
		w := maxInt(a.Width, b.Width)
		if sel.IsSet() {
			return Value{a.Bits, w}, nil
		}
		return Value{b.Bits, w}, nil
	case ValidIf:
		valid, err := eval(e.Valid, env)
		if err != nil {
			return Value{}, err
		}
		a, err := eval(e.A, env)
		if err != nil {
			return Value{}, err
		}
		if !valid.IsSet() {
			a.Bits = 0
		}
		return a, nil
	case BinOp:
		a, b, err := eval2(e.E1, e.E2, env)
		if err != nil {
			return Value{}, err
		}
		return evalBinOp(e.Op, a, b)
	case Cmp:
		a, b, err := eval2(e.E1, e.E2, env)
		if err != nil {
			return Value{}, err
		}
		switch e.Op {
		case OpEQ:
			return Bool(a.Bits == b.Bits), nil
		case OpNE:
			return Bool(a.Bits != b.Bits), nil
		case OpLT:
			return Bool(a.Bits < b.Bits), nil
		case OpGT:
			return Bool(a.Bits > b.Bits), nil
		case OpLE:
			return Bool(a.Bits <= b.Bits), nil
		case OpGE:
			return Bool(a.Bits >= b.Bits), nil
		}
	case UnOp:
		a, err := eval(e.E, env)
		if err != nil {
			return Value{}, err
		}
		switch e.Op {
		case OpAsUInt, OpAsClock:
			return a, nil
		case OpNot:
			return Value{^a.Bits & mask(a.Width), a.Width}, nil
		}
		return Value{}, errors.Errorf("eval: unsupported signed operation %s", e.Op)
	case Pad:
		a, err := eval(e.E, env)
		if err != nil {
			return Value{}, err
		}
		return widen(a.Bits, maxInt(a.Width, e.N))
	case ShiftLeft:
		a, err := eval(e.E, env)
		if err != nil {
			return Value{}, err
		}
		if e.By == nil {
			return widen(a.Bits<<uint(e.N), a.Width+e.N)
		}
		n, err := eval(e.By, env)
		if err != nil {
			return Value{}, err
		}
		if n.Width >= 7 {
			return Value{}, errors.Errorf("eval: dynamic shift amount too wide (%d bits)", n.Width)
		}
		return widen(a.Bits<<n.Bits, a.Width+1<<uint(n.Width)-1)
	case ShiftRight:
		a, err := eval(e.E, env)
		if err != nil {
			return Value{}, err
		}
		if e.By == nil {
			return Value{a.Bits >> uint(e.N), maxInt(a.Width-e.N, 1)}, nil
		}
		n, err := eval(e.By, env)
		if err != nil {
			return Value{}, err
		}
		if n.Bits >= 64 {
			return Value{0, a.Width}, nil
		}
		return Value{a.Bits >> n.Bits, a.Width}, nil
	case Extract:
		a, err := eval(e.E, env)
		if err != nil {
			return Value{}, err
		}
		if e.Hi >= a.Width {
			return Value{}, invalid(e, "bit index %d out of range for width %d", e.Hi, a.Width)
		}
		w := e.Hi - e.Lo + 1
		return Value{(a.Bits >> uint(e.Lo)) & mask(w), w}, nil
	case Head:
		a, err := eval(e.E, env)
		if err != nil {
			return Value{}, err
		}
		if e.N > a.Width {
			return Value{}, invalid(e, "head of %d bits out of range for width %d", e.N, a.Width)
		}
		return Value{a.Bits >> uint(a.Width-e.N), e.N}, nil
	case Tail:
		a, err := eval(e.E, env)
		if err != nil {
			return Value{}, err
		}
		if e.N > a.Width {
			return Value{}, invalid(e, "tail of %d bits out of range for width %d", e.N, a.Width)
		}
		w := a.Width - e.N
		return Value{a.Bits & mask(w), w}, nil
	}
	return Value{}, &UnhandledConstruct{Op: "eval", Node: e}
}

func eval2(e1, e2 Expr, env Env) (Value, Value, error) {
	a, err := eval(e1, env)
	if err != nil {
		return Value{}, Value{}, err
	}
	b, err := eval(e2, env)
	if err != nil {
		return Value{}, Value{}, err
	}
	return a, b, nil
}

func widen(b uint64, w int) (Value, error) {
	if w > maxEvalWidth {
		return Value{}, errors.Errorf("eval: result width %d exceeds %d bits", w, maxEvalWidth)
	}
	return Value{b & mask(w), w}, nil
}

func evalBinOp(op BinaryOp, a, b Value) (Value, error) {
	w := maxInt(a.Width, b.Width)
	switch op {
	case OpAdd:
		return widen(a.Bits+b.Bits, w+1)
	case OpSub:
		return widen(a.Bits-b.Bits, w+1)
	case OpMul:
		return widen(a.Bits*b.Bits, a.Width+b.Width)
	case OpDiv:
		if b.Bits == 0 {
			return Value{0, a.Width}, nil
		}
		return Value{a.Bits / b.Bits, a.Width}, nil
	case OpRem:
		if b.Bits == 0 {
			return Value{0, minInt(a.Width, b.Width)}, nil
		}
		return Value{a.Bits % b.Bits, minInt(a.Width, b.Width)}, nil
	case OpAnd:
		return Value{a.Bits & b.Bits, w}, nil
	case OpOr:
		return Value{a.Bits | b.Bits, w}, nil
	case OpXor:
		return Value{a.Bits ^ b.Bits, w}, nil
	case OpCat:
		if a.Width+b.Width > maxEvalWidth {
			return Value{}, errors.Errorf("eval: result width %d exceeds %d bits", a.Width+b.Width, maxEvalWidth)
		}
		return Value{a.Bits<<uint(b.Width) | b.Bits, a.Width + b.Width}, nil
	}
	return Value{}, errors.Errorf("eval: unknown operator %s", op)
}

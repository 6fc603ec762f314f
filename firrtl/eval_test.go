// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package firrtl_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/aga/firrtl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	x, y := firrtl.Ref{Name: "x"}, firrtl.Ref{Name: "y"}
	env := firrtl.Env{
		"x": {Bits: 0xa, Width: 4},
		"y": {Bits: 0x3, Width: 2},
		"t": firrtl.Bool(true),
		"f": firrtl.Bool(false),
	}
	data := []struct {
		name string
		e    firrtl.Expr
		want firrtl.Value
	}{
		{"ref", x, firrtl.Value{Bits: 0xa, Width: 4}},
		{"lit", firrtl.U(5, 0), firrtl.Value{Bits: 5, Width: 3}},
		{"lit0", firrtl.U(0, 0), firrtl.Value{Bits: 0, Width: 1}},
		{"add", firrtl.Add(x, y), firrtl.Value{Bits: 13, Width: 5}},
		{"sub", firrtl.Sub(y, x), firrtl.Value{Bits: (3 - 10) & 0x1f, Width: 5}},
		{"mul", firrtl.BinOp{Op: firrtl.OpMul, E1: x, E2: y}, firrtl.Value{Bits: 30, Width: 6}},
		{"div", firrtl.BinOp{Op: firrtl.OpDiv, E1: x, E2: y}, firrtl.Value{Bits: 3, Width: 4}},
		{"div0", firrtl.BinOp{Op: firrtl.OpDiv, E1: x, E2: firrtl.U(0, 1)}, firrtl.Value{Bits: 0, Width: 4}},
		{"rem", firrtl.BinOp{Op: firrtl.OpRem, E1: x, E2: y}, firrtl.Value{Bits: 1, Width: 2}},
		{"and", firrtl.And(x, y), firrtl.Value{Bits: 2, Width: 4}},
		{"or", firrtl.Or(x, y), firrtl.Value{Bits: 0xb, Width: 4}},
		{"xor", firrtl.Xor(x, y), firrtl.Value{Bits: 9, Width: 4}},
		{"cat", firrtl.BinOp{Op: firrtl.OpCat, E1: x, E2: y}, firrtl.Value{Bits: 0x2b, Width: 6}},
		{"not", firrtl.Not(x), firrtl.Value{Bits: 5, Width: 4}},
		{"eq", firrtl.Eq(x, firrtl.U(10, 4)), firrtl.Bool(true)},
		{"neq", firrtl.Neq(x, y), firrtl.Bool(true)},
		{"lt", firrtl.Lt(x, y), firrtl.Bool(false)},
		{"gt", firrtl.Gt(x, y), firrtl.Bool(true)},
		{"leq", firrtl.Leq(y, y), firrtl.Bool(true)},
		{"geq", firrtl.Geq(y, x), firrtl.Bool(false)},
		{"mux1", firrtl.Mux{Sel: firrtl.Ref{Name: "t"}, A: x, B: y}, firrtl.Value{Bits: 0xa, Width: 4}},
		{"mux0", firrtl.Mux{Sel: firrtl.Ref{Name: "f"}, A: x, B: y}, firrtl.Value{Bits: 3, Width: 4}},
		{"validif", firrtl.ValidIf{Valid: firrtl.Ref{Name: "f"}, A: x}, firrtl.Value{Bits: 0, Width: 4}},
		{"pad", firrtl.Pad{E: y, N: 8}, firrtl.Value{Bits: 3, Width: 8}},
		{"shl", firrtl.ShiftLeft{E: y, N: 2}, firrtl.Value{Bits: 12, Width: 4}},
		{"shr", firrtl.ShiftRight{E: x, N: 1}, firrtl.Value{Bits: 5, Width: 3}},
		{"shr-all", firrtl.ShiftRight{E: x, N: 8}, firrtl.Value{Bits: 0, Width: 1}},
		{"dshl", firrtl.ShiftLeft{E: y, By: y}, firrtl.Value{Bits: 24, Width: 5}},
		{"dshr", firrtl.ShiftRight{E: x, By: y}, firrtl.Value{Bits: 1, Width: 4}},
		{"bits", firrtl.Extract{E: x, Hi: 3, Lo: 1}, firrtl.Value{Bits: 5, Width: 3}},
		{"head", firrtl.Head{E: x, N: 2}, firrtl.Value{Bits: 2, Width: 2}},
		{"tail", firrtl.Tail{E: x, N: 1}, firrtl.Value{Bits: 2, Width: 3}},
		{"asUInt", firrtl.UnOp{Op: firrtl.OpAsUInt, E: x}, firrtl.Value{Bits: 0xa, Width: 4}},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			v, err := firrtl.Eval(d.e, env)
			require.NoError(t, err)
			assert.Equal(t, d.want, v)
		})
	}
}

func TestEval_errors(t *testing.T) {
	x := firrtl.Ref{Name: "x"}
	env := firrtl.Env{"x": {Bits: 1, Width: 2}}
	data := []struct {
		name string
		e    firrtl.Expr
	}{
		{"unknown ref", firrtl.Ref{Name: "nope"}},
		{"signed literal", firrtl.S(1, 2)},
		{"neg", firrtl.UnOp{Op: firrtl.OpNeg, E: x}},
		{"bits range", firrtl.Extract{E: x, Hi: 2, Lo: 0}},
		{"head range", firrtl.Head{E: x, N: 3}},
		{"too wide", firrtl.Pad{E: x, N: 65}},
		{"invalid", firrtl.Extract{E: x, Hi: 0, Lo: 1}},
		{"foreign", firrtl.Not(&foreign{name: "x"})},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			_, err := firrtl.Eval(d.e, env)
			assert.Error(t, err)
		})
	}
}

func TestEval_quick(t *testing.T) {
	// De Morgan over 16 bit values
	f := func(a, b uint16) bool {
		env := firrtl.Env{
			"a": {Bits: uint64(a), Width: 16},
			"b": {Bits: uint64(b), Width: 16},
		}
		ra, rb := firrtl.Ref{Name: "a"}, firrtl.Ref{Name: "b"}
		l, err := firrtl.Eval(firrtl.Not(firrtl.And(ra, rb)), env)
		if err != nil {
			return false
		}
		r, err := firrtl.Eval(firrtl.Or(firrtl.Not(ra), firrtl.Not(rb)), env)
		if err != nil {
			return false
		}
		s, err := firrtl.Eval(firrtl.Add(ra, rb), env)
		if err != nil {
			return false
		}
		return l == r && s.Bits == uint64(a)+uint64(b) && s.Width == 17
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"github.com/db47h/aga"
	"github.com/db47h/aga/firrtl"
)

// gcdModule returns Euclid's GCD over width bit operands.
//
// start loads the operands once the previous computation is done and result
// returns the GCD when y has reached 0.
//
func gcdModule(width int) (*aga.Module, error) {
	typ := firrtl.UInt{Width: width}
	x, y := aga.NewRegU("x", typ), aga.NewReg("y", typ, 0)
	zero := firrtl.U(0, width)

	b := aga.NewModule("Gcd")
	if err := b.Declare(x, y); err != nil {
		return nil, err
	}

	swap, err := b.Rule("swap")
	if err != nil {
		return nil, err
	}
	// errors are sticky and reported again by Build.
	_ = swap.Guard(firrtl.And(firrtl.Gt(x, y), firrtl.Neq(y, zero)))
	_ = swap.Update(x, y)
	_ = swap.Update(y, x)
	if _, err = swap.Build(); err != nil {
		return nil, err
	}

	sub, err := b.Rule("subtract")
	if err != nil {
		return nil, err
	}
	_ = sub.Guard(firrtl.And(firrtl.Leq(x, y), firrtl.Neq(y, zero)))
	_ = sub.Update(y, firrtl.Tail{E: firrtl.Sub(y, x), N: 1})
	if _, err = sub.Build(); err != nil {
		return nil, err
	}

	start, err := b.Action("start", firrtl.Field{Name: "a", Type: typ}, firrtl.Field{Name: "b", Type: typ})
	if err != nil {
		return nil, err
	}
	_ = start.Guard(firrtl.Eq(y, zero))
	_ = start.Update(x, start.Arg("a"))
	_ = start.Update(y, start.Arg("b"))
	if _, err = start.Build(); err != nil {
		return nil, err
	}

	result, err := b.Value(typ, "result")
	if err != nil {
		return nil, err
	}
	_ = result.Guard(firrtl.Eq(y, zero))
	_ = result.Ret(x)
	if _, err = result.Build(); err != nil {
		return nil, err
	}
	return b.Build()
}

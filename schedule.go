// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package aga

import "github.com/db47h/aga/firrtl"

// Schedule returns the firing signals for rules with the given can_fire
// signals, highest priority first:
//
//	firing[0] = can_fire[0]
//	firing[i] = and(can_fire[i], not(or(can_fire[0], ..., can_fire[i-1])))
//
// At most one firing signal is set at any time: the one with the lowest index
// i such that can_fire[i] is set.
//
func Schedule(canFire []firrtl.Expr) []firrtl.Expr {
	firing := make([]firrtl.Expr, len(canFire))
	var prev firrtl.Expr
	for i, cf := range canFire {
		if prev == nil {
			firing[i] = cf
			prev = cf
			continue
		}
		firing[i] = firrtl.And(cf, firrtl.Not(prev))
		prev = firrtl.Or(prev, cf)
	}
	return firing
}

// scheduleMuxChain is the priority multiplexer form of Schedule:
//
//	firing[i] = mux(can_fire[0], i == 0, mux(can_fire[1], i == 1, ... 0))
//
func scheduleMuxChain(canFire []firrtl.Expr) []firrtl.Expr {
	firing := make([]firrtl.Expr, len(canFire))
	for i := range canFire {
		var e firrtl.Expr = firrtl.False
		for j := len(canFire) - 1; j >= 0; j-- {
			v := firrtl.False
			if j == i {
				v = firrtl.True
			}
			e = firrtl.Mux{Sel: canFire[j], A: v, B: e}
		}
		firing[i] = e
	}
	return firing
}

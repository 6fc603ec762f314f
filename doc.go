// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package aga provides the tools to describe synchronous digital modules as
guarded atomic actions and to lower them to a register-transfer circuit that
can be handed to a simulator.

A module is made of state elements (registers and wires) and of rules and
methods. Each rule has a guard, a boolean expression over the current state,
and a set of state updates that are applied all at once on the cycles where
the rule fires:

	x, y := aga.NewRegU("x", firrtl.UInt{Width: 32}), aga.NewReg("y", firrtl.UInt{Width: 32}, 0)
	b := aga.NewModule("Gcd")
	b.Declare(x, y)

	swap, _ := b.Rule("swap")
	swap.Guard(firrtl.And(firrtl.Gt(x, y), firrtl.Neq(y, firrtl.U(0, 32))))
	swap.Update(x, y)
	swap.Update(y, x)
	swap.Build()

	m, err := b.Build()

State elements are used directly as expression leaves in guards and update
values. Builders report misuse (duplicate names, a second update of the same
state element within one rule, a second return value) as a
*firrtl.ConstructionError, both from the offending call and from Build.

Elaborate turns a Module into a firrtl.Circuit. A priority scheduler guarantees
that at most one rule fires on any cycle: the first declared rule that can fire
wins. Methods are guarded leaf circuits driven by the caller of the module and
are not arbitrated against rules.

*/
package aga

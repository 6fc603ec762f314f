// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package firrtl

// Standard clock and reset port names.
//
const (
	ClockName = "clk"
	ResetName = "reset"
)

// In returns an input port.
//
func In(name string, t Type) Port { return Port{Name: name, Type: t, Dir: Input} }

// Out returns an output port.
//
func Out(name string, t Type) Port { return Port{Name: name, Type: t, Dir: Output} }

// NewModule returns a module whose ports are the standard clk and reset
// inputs followed by ports.
//
func NewModule(name string, ports []Port, statements []Statement) Module {
	ps := make([]Port, 0, len(ports)+2)
	ps = append(ps, In(ClockName, Clock{}), In(ResetName, UInt{1}))
	ps = append(ps, ports...)
	return Module{Name: name, Ports: ps, Statements: statements}
}

// Assign returns the statement lhs <= rhs.
//
func Assign(lhs Ref, rhs Expr) Connect { return Connect{Lhs: lhs, Rhs: rhs} }

// Reg returns a register clocked by clk. If reset is not nil, the register is
// reset to that value while the reset input is set.
//
func Reg(name string, t Type, reset Expr) Register {
	r := Register{Name: name, Type: t, Clock: Ref{ClockName}}
	if reset != nil {
		r.Reset = &Reset{Enable: Ref{ResetName}, Value: reset}
	}
	return r
}

// Wire returns a wire declaration.
//
func Wire(name string, t Type) WireDeclaration { return WireDeclaration{Name: name, Type: t} }

// U returns an unsigned literal of the given width.
//
func U(v int64, width int) Literal { return Literal{Value: v, Type: UInt{width}} }

// S returns a signed literal of the given width.
//
func S(v int64, width int) Literal { return Literal{Value: v, Type: SInt{width}} }

// Boolean constants.
//
var (
	True  = U(1, 1)
	False = U(0, 1)
)

// And returns and(a, b).
func And(a, b Expr) Expr { return BinOp{OpAnd, a, b} }

// Or returns or(a, b).
func Or(a, b Expr) Expr { return BinOp{OpOr, a, b} }

// Xor returns xor(a, b).
func Xor(a, b Expr) Expr { return BinOp{OpXor, a, b} }

// Add returns add(a, b).
func Add(a, b Expr) Expr { return BinOp{OpAdd, a, b} }

// Sub returns sub(a, b).
func Sub(a, b Expr) Expr { return BinOp{OpSub, a, b} }

// Not returns not(e).
func Not(e Expr) Expr { return UnOp{OpNot, e} }

// Eq returns eq(a, b).
func Eq(a, b Expr) Expr { return Cmp{OpEQ, a, b} }

// Neq returns neq(a, b).
func Neq(a, b Expr) Expr { return Cmp{OpNE, a, b} }

// Lt returns lt(a, b).
func Lt(a, b Expr) Expr { return Cmp{OpLT, a, b} }

// Gt returns gt(a, b).
func Gt(a, b Expr) Expr { return Cmp{OpGT, a, b} }

// Leq returns leq(a, b).
func Leq(a, b Expr) Expr { return Cmp{OpLE, a, b} }

// Geq returns geq(a, b).
func Geq(a, b Expr) Expr { return Cmp{OpGE, a, b} }

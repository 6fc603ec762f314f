// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package firrtl implements a FIRRTL-like register-transfer intermediate
representation: types, expressions, statements, modules and circuits, together
with generic traversal (Visit, Rewrite), validation (Check), a deterministic
text serializer (Serialize) and a combinational evaluator (Eval).

Nodes are plain values. A node is never modified in place: Rewrite and field
assignment on a copy produce new nodes that share every unmodified field with
the original.

*/
package firrtl

import (
	"fmt"
	"strings"
)

// Node is implemented by every IR node.
//
type Node interface {
	node()
}

// Type is implemented by UInt, SInt, Clock, Vector and Bundle.
//
type Type interface {
	Node
	typeNode()
}

// Expr is implemented by every expression node.
//
type Expr interface {
	Node
	exprNode()
}

// Statement is implemented by Connect, Register, WireDeclaration, PrintF and
// Stop.
//
type Statement interface {
	Node
	stmtNode()
}

// Extension can be embedded in a struct declared outside this package in
// order to use it as an expression leaf, for example a reference to a state
// element that a compiler pass will later replace with a Ref.
//
// Visit reports an UnhandledConstruct when asked to descend into an extension
// node, Rewrite passes it through unchanged and Check rejects it.
//
type Extension struct{}

func (Extension) node()     {}
func (Extension) exprNode() {}

// Kind returns the kind name of a node, as used in error messages.
//
func Kind(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "firrtl.")
}

// Types

// UInt is an unsigned integer type. A zero Width means that the width is not
// specified and left to inference.
//
type UInt struct {
	Width int
}

// SInt is a signed integer type. A zero Width means that the width is not
// specified.
//
type SInt struct {
	Width int
}

// Clock is the clock type.
//
type Clock struct{}

// Vector is a fixed size array of Count elements.
//
type Vector struct {
	Elem  Type
	Count int
}

// Field is a named Bundle field.
//
type Field struct {
	Name string
	Type Type
}

// Bundle is an aggregate of named fields.
//
type Bundle struct {
	Fields []Field
}

func (UInt) node()       {}
func (SInt) node()       {}
func (Clock) node()      {}
func (Vector) node()     {}
func (Field) node()      {}
func (Bundle) node()     {}
func (UInt) typeNode()   {}
func (SInt) typeNode()   {}
func (Clock) typeNode()  {}
func (Vector) typeNode() {}
func (Bundle) typeNode() {}

// Expressions

// Ref references a port, wire or register by name.
//
type Ref struct {
	Name string
}

// Literal is a constant of type UInt or SInt.
//
type Literal struct {
	Value int64
	Type  Type
}

// Mux selects A if Sel is set, B otherwise.
//
type Mux struct {
	Sel Expr
	A   Expr
	B   Expr
}

// ValidIf is A when Valid is set, undefined otherwise.
//
type ValidIf struct {
	Valid Expr
	A     Expr
}

// BinaryOp is the operator of a BinOp.
//
type BinaryOp int

// Binary operators.
//
const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpCat
	binaryOpCount
)

var binaryOpNames = [...]string{"Add", "Sub", "Mul", "Div", "Rem", "And", "Or", "Xor", "Cat"}

func (op BinaryOp) String() string {
	if op < 0 || op >= binaryOpCount {
		return fmt.Sprintf("BinaryOp(%d)", int(op))
	}
	return binaryOpNames[op]
}

// BinOp is a two operand primitive operation.
//
type BinOp struct {
	Op BinaryOp
	E1 Expr
	E2 Expr
}

// CmpOp is the operator of a Cmp.
//
type CmpOp int

// Comparison operators.
//
const (
	OpEQ CmpOp = iota
	OpNE
	OpLT
	OpGT
	OpLE
	OpGE
	cmpOpCount
)

var cmpOpNames = [...]string{"EQ", "NE", "LT", "GT", "LE", "GE"}

func (op CmpOp) String() string {
	if op < 0 || op >= cmpOpCount {
		return fmt.Sprintf("CmpOp(%d)", int(op))
	}
	return cmpOpNames[op]
}

// Cmp compares two expressions. Its result is a UInt<1>.
//
type Cmp struct {
	Op CmpOp
	E1 Expr
	E2 Expr
}

// UnaryOp is the operator of an UnOp.
//
type UnaryOp int

// Unary operators.
//
const (
	OpAsUInt UnaryOp = iota
	OpAsSInt
	OpAsClock
	OpArithmeticToSigned
	OpNeg
	OpNot
	unaryOpCount
)

var unaryOpNames = [...]string{"AsUInt", "AsSInt", "AsClock", "ArithmeticToSigned", "Neg", "Not"}

func (op UnaryOp) String() string {
	if op < 0 || op >= unaryOpCount {
		return fmt.Sprintf("UnaryOp(%d)", int(op))
	}
	return unaryOpNames[op]
}

// UnOp is a single operand primitive operation.
//
type UnOp struct {
	Op UnaryOp
	E  Expr
}

// Pad zero or sign extends E to at least N bits.
//
type Pad struct {
	E Expr
	N int
}

// ShiftLeft shifts E left by N bits, or by the value of By when By is not nil
// (dynamic shift). N must be zero for a dynamic shift.
//
type ShiftLeft struct {
	E  Expr
	N  int
	By Expr
}

// ShiftRight shifts E right by N bits, or by the value of By when By is not
// nil (dynamic shift). N must be zero for a dynamic shift.
//
type ShiftRight struct {
	E  Expr
	N  int
	By Expr
}

// Extract returns bits Hi down to Lo of E, inclusive.
//
type Extract struct {
	E  Expr
	Hi int
	Lo int
}

// Head returns the N most significant bits of E.
//
type Head struct {
	E Expr
	N int
}

// Tail removes the N most significant bits of E.
//
type Tail struct {
	E Expr
	N int
}

func (Ref) node()            {}
func (Literal) node()        {}
func (Mux) node()            {}
func (ValidIf) node()        {}
func (BinOp) node()          {}
func (Cmp) node()            {}
func (UnOp) node()           {}
func (Pad) node()            {}
func (ShiftLeft) node()      {}
func (ShiftRight) node()     {}
func (Extract) node()        {}
func (Head) node()           {}
func (Tail) node()           {}
func (Ref) exprNode()        {}
func (Literal) exprNode()    {}
func (Mux) exprNode()        {}
func (ValidIf) exprNode()    {}
func (BinOp) exprNode()      {}
func (Cmp) exprNode()        {}
func (UnOp) exprNode()       {}
func (Pad) exprNode()        {}
func (ShiftLeft) exprNode()  {}
func (ShiftRight) exprNode() {}
func (Extract) exprNode()    {}
func (Head) exprNode()       {}
func (Tail) exprNode()       {}

// Statements

// Connect drives Lhs with Rhs.
//
type Connect struct {
	Lhs Ref
	Rhs Expr
}

// Reset is the synchronous reset clause of a Register.
//
type Reset struct {
	Enable Expr
	Value  Expr
}

// Register declares a register clocked by Clock. Reset is optional.
//
type Register struct {
	Name  string
	Type  Type
	Clock Expr
	Reset *Reset
}

// WireDeclaration declares a wire.
//
type WireDeclaration struct {
	Name string
	Type Type
}

// PrintF prints Format with Args on every rising edge of Clock where Condition
// is set.
//
type PrintF struct {
	Clock     Expr
	Condition Expr
	Format    string
	Args      []Expr
}

// Stop halts the simulation with ExitCode on the first rising edge of Clock
// where Condition is set.
//
type Stop struct {
	Clock     Expr
	Condition Expr
	ExitCode  int
}

func (Connect) node()             {}
func (Reset) node()               {}
func (Register) node()            {}
func (WireDeclaration) node()     {}
func (PrintF) node()              {}
func (Stop) node()                {}
func (Connect) stmtNode()         {}
func (Register) stmtNode()        {}
func (WireDeclaration) stmtNode() {}
func (PrintF) stmtNode()          {}
func (Stop) stmtNode()            {}

// Modules

// Direction is a port direction.
//
type Direction int

// Port directions.
//
const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "Input"
	case Output:
		return "Output"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Port is a module port.
//
type Port struct {
	Name string
	Type Type
	Dir  Direction
}

// Module is a named list of ports and statements.
//
type Module struct {
	Name       string
	Ports      []Port
	Statements []Statement
}

// Circuit is the top level IR node.
//
type Circuit struct {
	Name    string
	Modules []Module
}

func (Port) node()    {}
func (Module) node()  {}
func (Circuit) node() {}

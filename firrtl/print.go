// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package firrtl

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Serialize checks c and renders it in the textual IR format:
//
//	circuit <name> :
//	  module <name> :
//	    <input|output> <name> : <type>
//	    <statement>
//
// Lines are separated by a single '\n', there is no trailing newline.
// Identical trees always render to identical text.
//
func Serialize(c Circuit) (string, error) {
	return Sprint(c)
}

// Fprint writes the serialized form of c to w.
//
func Fprint(w io.Writer, c Circuit) error {
	s, err := Serialize(c)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return errors.Wrap(err, "write circuit")
}

// Sprint checks n and renders it the way it would appear in a serialized
// circuit. It accepts any node: a type, an expression, a statement, a port, a
// module or a circuit.
//
func Sprint(n Node) (string, error) {
	if err := Check(n); err != nil {
		return "", err
	}
	var p printer
	s := p.node(n)
	if p.err != nil {
		return "", p.err
	}
	return s, nil
}

type printer struct {
	err error
}

func (p *printer) unhandled(n Node) string {
	if p.err == nil {
		p.err = &UnhandledConstruct{Op: "print", Node: n}
	}
	return ""
}

func (p *printer) node(n Node) string {
	switch n := n.(type) {
	case Type:
		return p.typ(n)
	case Expr:
		return p.expr(n)
	case Statement:
		return p.stmt(n)
	case Field:
		return n.Name + ": " + p.typ(n.Type)
	case Reset:
		return p.reset(&n)
	case Port:
		return p.port(n)
	case Module:
		return p.module(n)
	case Circuit:
		return p.circuit(n)
	}
	return p.unhandled(n)
}

func (p *printer) circuit(c Circuit) string {
	var b strings.Builder
	b.WriteString("circuit ")
	b.WriteString(c.Name)
	b.WriteString(" :\n")
	for i, m := range c.Modules {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.module(m))
	}
	return b.String()
}

func (p *printer) module(m Module) string {
	var b strings.Builder
	b.WriteString("  module ")
	b.WriteString(m.Name)
	b.WriteString(" :")
	for _, port := range m.Ports {
		b.WriteString("\n    ")
		b.WriteString(p.port(port))
	}
	for _, s := range m.Statements {
		b.WriteString("\n    ")
		b.WriteString(p.stmt(s))
	}
	return b.String()
}

func (p *printer) port(port Port) string {
	return strings.ToLower(port.Dir.String()) + " " + port.Name + " : " + p.typ(port.Type)
}

func (p *printer) typ(t Type) string {
	switch t := t.(type) {
	case UInt:
		if t.Width == 0 {
			return "UInt"
		}
		return "UInt<" + strconv.Itoa(t.Width) + ">"
	case SInt:
		if t.Width == 0 {
			return "SInt"
		}
		return "SInt<" + strconv.Itoa(t.Width) + ">"
	case Clock:
		return "Clock"
	case Vector:
		return p.typ(t.Elem) + "[" + strconv.Itoa(t.Count) + "]"
	case Bundle:
		fs := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			fs[i] = f.Name + ": " + p.typ(f.Type)
		}
		return "{" + strings.Join(fs, ", ") + "}"
	}
	return p.unhandled(t)
}

func (p *printer) stmt(s Statement) string {
	switch s := s.(type) {
	case Connect:
		return s.Lhs.Name + " <= " + p.expr(s.Rhs)
	case Register:
		return "reg " + s.Name + " : " + p.typ(s.Type) + ", " + p.expr(s.Clock) + p.reset(s.Reset)
	case WireDeclaration:
		return "wire " + s.Name + ": " + p.typ(s.Type)
	case PrintF:
		var b strings.Builder
		b.WriteString("printf(")
		b.WriteString(p.expr(s.Clock))
		b.WriteString(", ")
		b.WriteString(p.expr(s.Condition))
		b.WriteString(", ")
		b.WriteString(quote(s.Format))
		for _, a := range s.Args {
			b.WriteString(", ")
			b.WriteString(p.expr(a))
		}
		b.WriteByte(')')
		return b.String()
	case Stop:
		return "stop(" + p.expr(s.Clock) + ", " + p.expr(s.Condition) + ", " + strconv.Itoa(s.ExitCode) + ")"
	}
	return p.unhandled(s)
}

func (p *printer) reset(r *Reset) string {
	if r == nil {
		return ""
	}
	return " with: (reset => (" + p.expr(r.Enable) + ", " + p.expr(r.Value) + "))"
}

func (p *printer) expr(e Expr) string {
	switch e := e.(type) {
	case Ref:
		return e.Name
	case Literal:
		return p.typ(e.Type) + "(" + strconv.FormatInt(e.Value, 10) + ")"
	case Mux:
		return p.call("mux", []Expr{e.Sel, e.A, e.B})
	case ValidIf:
		return p.call("validif", []Expr{e.Valid, e.A})
	case BinOp:
		return p.call(strings.ToLower(e.Op.String()), []Expr{e.E1, e.E2})
	case Cmp:
		return p.call(cmpName(e.Op), []Expr{e.E1, e.E2})
	case UnOp:
		return p.call(unaryName(e.Op), []Expr{e.E})
	case Pad:
		return p.call("pad", []Expr{e.E}, e.N)
	case ShiftLeft:
		if e.By != nil {
			return p.call("dshl", []Expr{e.E, e.By})
		}
		return p.call("shl", []Expr{e.E}, e.N)
	case ShiftRight:
		if e.By != nil {
			return p.call("dshr", []Expr{e.E, e.By})
		}
		return p.call("shr", []Expr{e.E}, e.N)
	case Extract:
		return p.call("bits", []Expr{e.E}, e.Hi, e.Lo)
	case Head:
		return p.call("head", []Expr{e.E}, e.N)
	case Tail:
		return p.call("tail", []Expr{e.E}, e.N)
	}
	return p.unhandled(e)
}

// call renders "op(e0, e1, ..., n0, n1, ...)".
func (p *printer) call(op string, es []Expr, ns ...int) string {
	var b strings.Builder
	b.WriteString(op)
	b.WriteByte('(')
	for i, e := range es {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.expr(e))
	}
	for _, n := range ns {
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(n))
	}
	b.WriteByte(')')
	return b.String()
}

func cmpName(op CmpOp) string {
	switch op {
	case OpNE:
		return "neq"
	case OpLE:
		return "leq"
	case OpGE:
		return "geq"
	}
	return strings.ToLower(op.String())
}

func unaryName(op UnaryOp) string {
	if op == OpArithmeticToSigned {
		return "cvt"
	}
	s := op.String()
	return strings.ToLower(s[:1]) + s[1:]
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package aga

import (
	"github.com/db47h/aga/firrtl"
)

// A Statement is a side effect of a rule: Display or Finish.
//
type Statement interface {
	statement()
}

// Display prints Format with Args on every cycle where its rule fires.
//
type Display struct {
	Format string
	Args   []firrtl.Expr
}

// Finish halts the simulation with ExitCode on the first cycle where its rule
// fires.
//
type Finish struct {
	ExitCode int
}

func (Display) statement() {}
func (Finish) statement()  {}

// Update is the new value of a state element.
//
type Update struct {
	Target StateElement
	Value  firrtl.Expr
}

// Rule is a frozen guarded atomic action.
//
type Rule struct {
	name    string
	guard   firrtl.Expr
	body    []Statement
	updates []Update
}

// Name returns the rule name.
func (r *Rule) Name() string { return r.name }

// Guard returns the rule guard.
func (r *Rule) Guard() firrtl.Expr { return r.guard }

// Body returns the rule statements.
func (r *Rule) Body() []Statement { return append([]Statement(nil), r.body...) }

// Updates returns the state updates of the rule, in the order they were added.
func (r *Rule) Updates() []Update { return append([]Update(nil), r.updates...) }

// A Method is an ActionMethod or a ValueMethod.
//
type Method interface {
	Name() string
	Guard() firrtl.Expr
	Body() []Statement
	method()
}

// ActionMethod is a rule that is invoked by the caller of a module, with
// arguments.
//
type ActionMethod struct {
	Rule
	args []*Arg
}

// Args returns the method arguments.
func (m *ActionMethod) Args() []*Arg { return append([]*Arg(nil), m.args...) }

// ValueMethod is a guarded read of the module state.
//
type ValueMethod struct {
	Rule
	typ firrtl.Type
	ret firrtl.Expr
}

// Type returns the return type of m.
func (m *ValueMethod) Type() firrtl.Type { return m.typ }

// Ret returns the return value of m.
func (m *ValueMethod) Ret() firrtl.Expr { return m.ret }

func (*ActionMethod) method() {}
func (*ValueMethod) method()  {}

// Arg is an argument of an action method. It can only be used in the guard and
// body of its own method.
//
type Arg struct {
	firrtl.Extension
	owner  *RuleBuilder
	method string
	name   string
	typ    firrtl.Type
}

// Name returns the argument name.
func (a *Arg) Name() string { return a.name }

// Type returns the argument type.
func (a *Arg) Type() firrtl.Type { return a.typ }

// PortName returns the name of the module input port for a.
func (a *Arg) PortName() string { return a.method + "_" + a.name }

type constructKind int

const (
	kindRule constructKind = iota
	kindAction
	kindValue
)

// A RuleBuilder builds a Rule.
//
// The first error returned by any of its methods is also returned by Build.
// Once Build has been called, any further call fails with a Frozen
// ConstructionError.
//
type RuleBuilder struct {
	name     string
	kind     constructKind
	guard    firrtl.Expr
	guardSet bool
	body     []Statement
	updates  []Update
	updated  map[StateElement]bool
	args     []*Arg

	built  bool
	rule   *Rule
	method Method
	err    error
}

func (r *RuleBuilder) error(field string, reason firrtl.Reason) error {
	return &firrtl.ConstructionError{Node: r.name, Field: field, Reason: reason}
}

func (r *RuleBuilder) fail(err error) error {
	if r.err == nil {
		r.err = err
	}
	return err
}

func (r *RuleBuilder) lookup(name string) *Arg {
	for _, a := range r.args {
		if a.name == name {
			return a
		}
	}
	return nil
}

// checkExpr verifies that e is present and does not use another method's
// arguments.
//
func (r *RuleBuilder) checkExpr(field string, e firrtl.Expr) error {
	if e == nil {
		return r.error(field, firrtl.MissingField)
	}
	return firrtl.Visit(e, func(n firrtl.Node) (bool, error) {
		switch n := n.(type) {
		case StateElement:
			return false, nil
		case *Arg:
			if n == nil {
				return false, r.error(field, firrtl.MissingField)
			}
			if n.owner != r {
				return false, r.error(n.PortName(), firrtl.OutOfScope)
			}
			return false, nil
		}
		return true, nil
	})
}

// Guard adds a conjunct to the guard of the rule. The default guard is true.
//
func (r *RuleBuilder) Guard(e firrtl.Expr) error {
	if r.built {
		return r.error("guard", firrtl.Frozen)
	}
	if err := r.checkExpr("guard", e); err != nil {
		return r.fail(err)
	}
	if r.guardSet {
		r.guard = firrtl.And(r.guard, e)
	} else {
		r.guard = e
		r.guardSet = true
	}
	return nil
}

// Update sets the value of target when the rule fires. A state element can be
// updated only once per rule.
//
func (r *RuleBuilder) Update(target StateElement, value firrtl.Expr) error {
	if r.built {
		return r.error("update", firrtl.Frozen)
	}
	if target == nil {
		return r.fail(r.error("target", firrtl.MissingField))
	}
	if r.updated[target] {
		return r.fail(r.error(target.Hint(), firrtl.DoubleUpdate))
	}
	if err := r.checkExpr("value", value); err != nil {
		return r.fail(err)
	}
	r.updated[target] = true
	r.updates = append(r.updates, Update{target, value})
	return nil
}

// Display appends a Display statement.
//
func (r *RuleBuilder) Display(format string, args ...firrtl.Expr) error {
	if r.built {
		return r.error("display", firrtl.Frozen)
	}
	for _, a := range args {
		if err := r.checkExpr("args", a); err != nil {
			return r.fail(err)
		}
	}
	r.body = append(r.body, Display{Format: format, Args: append([]firrtl.Expr(nil), args...)})
	return nil
}

// Finish appends a Finish statement with exit code 0.
//
func (r *RuleBuilder) Finish() error {
	return r.Stop(0)
}

// Stop appends a Finish statement with the given exit code.
//
func (r *RuleBuilder) Stop(exitCode int) error {
	if r.built {
		return r.error("finish", firrtl.Frozen)
	}
	r.body = append(r.body, Finish{ExitCode: exitCode})
	return nil
}

func (r *RuleBuilder) freeze() (Rule, error) {
	if r.built {
		return Rule{}, r.error("", firrtl.Frozen)
	}
	if r.err != nil {
		return Rule{}, r.err
	}
	r.built = true
	return Rule{
		name:    r.name,
		guard:   r.guard,
		body:    r.body,
		updates: r.updates,
	}, nil
}

// Build returns the frozen rule.
//
func (r *RuleBuilder) Build() (*Rule, error) {
	if r.kind != kindRule {
		return nil, r.error("kind", firrtl.TypeMismatch)
	}
	rule, err := r.freeze()
	if err != nil {
		return nil, err
	}
	r.rule = &rule
	return r.rule, nil
}

// An ActionBuilder builds an ActionMethod.
//
type ActionBuilder struct {
	*RuleBuilder
}

// Arg returns the argument with the given name. If the method has no such
// argument, Arg returns nil and the UnknownField error is reported by Build.
//
func (a *ActionBuilder) Arg(name string) *Arg {
	arg := a.lookup(name)
	if arg == nil {
		a.fail(a.error(name, firrtl.UnknownField))
	}
	return arg
}

// Args returns all the arguments of the method in declaration order.
//
func (a *ActionBuilder) Args() []*Arg {
	return append([]*Arg(nil), a.args...)
}

// Build returns the frozen method.
//
func (a *ActionBuilder) Build() (*ActionMethod, error) {
	rule, err := a.freeze()
	if err != nil {
		return nil, err
	}
	m := &ActionMethod{Rule: rule, args: a.args}
	a.method = m
	return m, nil
}

// A ValueBuilder builds a ValueMethod. Value methods cannot update state.
//
type ValueBuilder struct {
	r   *RuleBuilder
	typ firrtl.Type
	ret firrtl.Expr
}

// Guard adds a conjunct to the guard of the method.
//
func (v *ValueBuilder) Guard(e firrtl.Expr) error { return v.r.Guard(e) }

// Display appends a Display statement.
//
func (v *ValueBuilder) Display(format string, args ...firrtl.Expr) error {
	return v.r.Display(format, args...)
}

// Ret sets the return value. It can be called only once.
//
func (v *ValueBuilder) Ret(e firrtl.Expr) error {
	if v.r.built {
		return v.r.error("ret", firrtl.Frozen)
	}
	if v.ret != nil {
		return v.r.fail(v.r.error("ret", firrtl.DoubleReturn))
	}
	if err := v.r.checkExpr("ret", e); err != nil {
		return v.r.fail(err)
	}
	v.ret = e
	return nil
}

// Build returns the frozen method. It fails if Ret was never called.
//
func (v *ValueBuilder) Build() (*ValueMethod, error) {
	if v.ret == nil && !v.r.built {
		v.r.fail(v.r.error("ret", firrtl.MissingReturn))
	}
	rule, err := v.r.freeze()
	if err != nil {
		return nil, err
	}
	m := &ValueMethod{Rule: rule, typ: v.typ, ret: v.ret}
	v.r.method = m
	return m, nil
}

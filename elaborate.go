// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package aga

import (
	"github.com/db47h/aga/firrtl"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// An Elaborator lowers guarded atomic action modules to RTL circuits.
//
// An Elaborator holds no state between calls to Elaborate and can be used
// concurrently.
//
type Elaborator struct {
	// Log receives a trace of every elaboration at debug level. May be nil.
	Log *zap.Logger
}

// Elaborate lowers m to a circuit with a single module using a default
// Elaborator.
//
func Elaborate(m *Module) (firrtl.Circuit, error) {
	var e Elaborator
	return e.Elaborate(m)
}

// Elaborate lowers m to a circuit with a single module named after m.
//
// The module has the standard clk and reset inputs followed by method ports.
// Its statements are, in order: state declarations, one combinational block
// per rule then per method, scheduler connections and finally one driver for
// every updated state element.
//
func (e *Elaborator) Elaborate(m *Module) (firrtl.Circuit, error) {
	if m == nil {
		return firrtl.Circuit{}, errors.New("elaborate: nil module")
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	el := &elaboration{
		mod:     m,
		log:     log.With(zap.String("module", m.Name())),
		ns:      newNamespace(firrtl.ClockName, firrtl.ResetName),
		names:   make(map[StateElement]firrtl.Ref),
		drivers: make(map[StateElement][]driver),
	}
	c, err := el.run()
	if err != nil {
		return firrtl.Circuit{}, errors.Wrapf(err, "elaborate %s", m.Name())
	}
	return c, nil
}

var (
	clk   = firrtl.Ref{Name: firrtl.ClockName}
	reset = firrtl.Ref{Name: firrtl.ResetName}
	bit   = firrtl.UInt{Width: 1}
)

// construct is a rule or a method.
//
type construct struct {
	kind constructKind
	rule *Rule
	args []*Arg
	typ  firrtl.Type
	ret  firrtl.Expr
}

func (c *construct) signal(suffix string) firrtl.Ref {
	return firrtl.Ref{Name: c.rule.name + "_" + suffix}
}

func (c *construct) canFire() firrtl.Ref { return c.signal("can_fire") }
func (c *construct) firing() firrtl.Ref  { return c.signal("firing") }
func (c *construct) ready() firrtl.Ref   { return c.signal("ready") }
func (c *construct) enable() firrtl.Ref  { return c.signal("enable") }
func (c *construct) value() firrtl.Ref   { return c.signal("value") }

func (c *construct) ports() []firrtl.Port {
	var ps []firrtl.Port
	switch c.kind {
	case kindAction:
		ps = append(ps, firrtl.In(c.enable().Name, bit))
		for _, a := range c.args {
			ps = append(ps, firrtl.In(a.PortName(), a.typ))
		}
		ps = append(ps, firrtl.Out(c.ready().Name, bit))
	case kindValue:
		ps = append(ps, firrtl.Out(c.ready().Name, bit), firrtl.Out(c.value().Name, c.typ))
	}
	return ps
}

// reserved returns the identifiers owned by c.
//
func (c *construct) reserved() []string {
	ids := []string{c.canFire().Name, c.firing().Name}
	for _, p := range c.ports() {
		ids = append(ids, p.Name)
	}
	return ids
}

type driver struct {
	firing firrtl.Expr
	value  firrtl.Expr
}

// elaboration is the state of a single Elaborate call.
//
type elaboration struct {
	mod     *Module
	log     *zap.Logger
	ns      namespace
	names   map[StateElement]firrtl.Ref
	drivers map[StateElement][]driver
}

func (el *elaboration) constructs() []*construct {
	var cs []*construct
	for _, r := range el.mod.rules {
		cs = append(cs, &construct{kind: kindRule, rule: r})
	}
	for _, m := range el.mod.methods {
		switch m := m.(type) {
		case *ActionMethod:
			cs = append(cs, &construct{kind: kindAction, rule: &m.Rule, args: m.args})
		case *ValueMethod:
			cs = append(cs, &construct{kind: kindValue, rule: &m.Rule, typ: m.typ, ret: m.ret})
		}
	}
	return cs
}

func (el *elaboration) run() (firrtl.Circuit, error) {
	cs := el.constructs()
	for _, c := range cs {
		for _, id := range c.reserved() {
			if !el.ns.reserve(id) {
				return firrtl.Circuit{}, &firrtl.ConstructionError{Node: el.mod.name, Field: id, Reason: firrtl.DuplicateName}
			}
		}
	}

	ports := []firrtl.Port{firrtl.In(firrtl.ClockName, firrtl.Clock{}), firrtl.In(firrtl.ResetName, bit)}
	for _, c := range cs {
		ports = append(ports, c.ports()...)
	}

	state, err := el.discover(cs)
	if err != nil {
		return firrtl.Circuit{}, err
	}

	var stmts []firrtl.Statement
	for _, s := range state {
		d, err := el.declare(s)
		if err != nil {
			return firrtl.Circuit{}, err
		}
		stmts = append(stmts, d)
	}
	for _, c := range cs {
		ss, err := el.lowerConstruct(c)
		if err != nil {
			return firrtl.Circuit{}, errors.Wrapf(err, "lower %s", c.rule.name)
		}
		stmts = append(stmts, ss...)
	}
	stmts = append(stmts, el.scheduler(cs)...)
	stmts = append(stmts, el.updateDrivers(state)...)

	name := el.mod.name
	circuit := firrtl.Circuit{Name: name, Modules: []firrtl.Module{{Name: name, Ports: ports, Statements: stmts}}}
	if err = firrtl.Check(circuit); err != nil {
		return firrtl.Circuit{}, err
	}
	el.log.Debug("elaborated", zap.Int("ports", len(ports)), zap.Int("statements", len(stmts)))
	return circuit, nil
}

// discover returns all state elements used by the module, declared ones
// first, and allocates their names.
//
func (el *elaboration) discover(cs []*construct) ([]StateElement, error) {
	seen := make(map[StateElement]bool)
	var state []StateElement
	add := func(s StateElement) {
		if !seen[s] {
			seen[s] = true
			state = append(state, s)
		}
	}
	visit := func(e firrtl.Expr) error {
		return firrtl.Visit(e, func(n firrtl.Node) (bool, error) {
			switch n := n.(type) {
			case StateElement:
				add(n)
				return false, nil
			case *Arg:
				return false, nil
			}
			return true, nil
		})
	}

	for _, s := range el.mod.state {
		add(s)
	}
	for _, c := range cs {
		if err := visit(c.rule.guard); err != nil {
			return nil, err
		}
		for _, s := range c.rule.body {
			if d, ok := s.(Display); ok {
				for _, a := range d.Args {
					if err := visit(a); err != nil {
						return nil, err
					}
				}
			}
		}
		for _, u := range c.rule.updates {
			add(u.Target)
			if err := visit(u.Value); err != nil {
				return nil, err
			}
		}
		if c.ret != nil {
			if err := visit(c.ret); err != nil {
				return nil, err
			}
		}
	}

	for _, s := range state {
		hint := s.Hint()
		if hint == "" {
			switch s.(type) {
			case *Register:
				hint = "reg"
			default:
				hint = "wire"
			}
		}
		name := el.ns.fresh(el.mod.name + "_" + hint)
		el.names[s] = firrtl.Ref{Name: name}
		el.log.Debug("state", zap.String("name", name), zap.String("hint", s.Hint()))
	}
	return state, nil
}

func (el *elaboration) declare(s StateElement) (firrtl.Statement, error) {
	name := el.names[s].Name
	switch s := s.(type) {
	case *Register:
		var rv firrtl.Expr
		if v, ok := s.Reset(); ok {
			rv = firrtl.Literal{Value: v, Type: s.typ}
		}
		r := firrtl.Reg(name, s.typ, rv)
		return r, nil
	case *Wire:
		return firrtl.Wire(name, s.typ), nil
	}
	return nil, &firrtl.UnhandledConstruct{Op: "declare", Node: s}
}

// lower replaces state elements and method arguments in e with references to
// their RTL names.
//
func (el *elaboration) lower(e firrtl.Expr) (firrtl.Expr, error) {
	return firrtl.RewriteAs(e, func(n firrtl.Node) (firrtl.Node, error) {
		switch n := n.(type) {
		case StateElement:
			return el.names[n], nil
		case *Arg:
			return firrtl.Ref{Name: n.PortName()}, nil
		}
		if _, err := firrtl.Children(n); err != nil {
			return nil, &firrtl.UnhandledConstruct{Op: "lower", Node: n}
		}
		return n, nil
	})
}

func (el *elaboration) lowerConstruct(c *construct) ([]firrtl.Statement, error) {
	cf, f := c.canFire(), c.firing()
	guard, err := el.lower(c.rule.guard)
	if err != nil {
		return nil, err
	}
	stmts := []firrtl.Statement{
		firrtl.Wire(cf.Name, bit),
		firrtl.Wire(f.Name, bit),
		firrtl.Assign(cf, guard),
	}
	for _, s := range c.rule.body {
		switch s := s.(type) {
		case Display:
			var args []firrtl.Expr
			for _, a := range s.Args {
				l, err := el.lower(a)
				if err != nil {
					return nil, err
				}
				args = append(args, l)
			}
			stmts = append(stmts, firrtl.PrintF{Clock: clk, Condition: f, Format: s.Format, Args: args})
		case Finish:
			stmts = append(stmts, firrtl.Stop{Clock: clk, Condition: f, ExitCode: s.ExitCode})
		default:
			return nil, errors.Errorf("lower: unhandled statement %T", s)
		}
	}
	for _, u := range c.rule.updates {
		v, err := el.lower(u.Value)
		if err != nil {
			return nil, err
		}
		el.drivers[u.Target] = append(el.drivers[u.Target], driver{f, v})
	}
	if c.kind != kindRule {
		stmts = append(stmts, firrtl.Assign(c.ready(), cf))
	}
	if c.kind == kindValue {
		ret, err := el.lower(c.ret)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, firrtl.Assign(c.value(), ret))
	}
	el.log.Debug("lowered", zap.String("name", c.rule.name),
		zap.Int("statements", len(c.rule.body)), zap.Int("updates", len(c.rule.updates)))
	return stmts, nil
}

// scheduler drives the firing signals. Rules are arbitrated by Schedule in
// declaration order. Methods are not arbitrated: an action fires when it can
// fire and is enabled, a value method when it can fire.
//
func (el *elaboration) scheduler(cs []*construct) []firrtl.Statement {
	var (
		rules   []*construct
		canFire []firrtl.Expr
		stmts   []firrtl.Statement
	)
	for _, c := range cs {
		if c.kind == kindRule {
			rules = append(rules, c)
			canFire = append(canFire, c.canFire())
		}
	}
	for i, f := range Schedule(canFire) {
		stmts = append(stmts, firrtl.Assign(rules[i].firing(), f))
	}
	for _, c := range cs {
		switch c.kind {
		case kindAction:
			stmts = append(stmts, firrtl.Assign(c.firing(), firrtl.And(c.canFire(), c.enable())))
		case kindValue:
			stmts = append(stmts, firrtl.Assign(c.firing(), c.canFire()))
		}
	}
	return stmts
}

// updateDrivers connects every updated state element to the value selected by
// the firing construct. Registers keep their value when no updating construct
// fires, wires are invalid.
//
func (el *elaboration) updateDrivers(state []StateElement) []firrtl.Statement {
	var stmts []firrtl.Statement
	for _, s := range state {
		ds := el.drivers[s]
		if len(ds) == 0 {
			continue
		}
		ref := el.names[s]
		switch s.(type) {
		case *Register:
			var v firrtl.Expr = ref
			for i := len(ds) - 1; i >= 0; i-- {
				v = firrtl.Mux{Sel: ds[i].firing, A: ds[i].value, B: v}
			}
			stmts = append(stmts, firrtl.Assign(ref, v))
		case *Wire:
			v := ds[len(ds)-1].value
			for i := len(ds) - 2; i >= 0; i-- {
				v = firrtl.Mux{Sel: ds[i].firing, A: ds[i].value, B: v}
			}
			valid := ds[0].firing
			for _, d := range ds[1:] {
				valid = firrtl.Or(valid, d.firing)
			}
			stmts = append(stmts, firrtl.Assign(ref, firrtl.ValidIf{Valid: valid, A: v}))
		}
	}
	return stmts
}
